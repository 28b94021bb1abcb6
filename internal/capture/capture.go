package capture

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PacketRecord is one element of tshark's JSON packet array, kept verbatim.
// Accessors decode on demand and never modify the underlying bytes.
type PacketRecord struct {
	raw json.RawMessage
}

// NewPacketRecord copies raw into a new record.
func NewPacketRecord(raw []byte) PacketRecord {
	return PacketRecord{raw: append(json.RawMessage(nil), raw...)}
}

// Raw returns a copy of the record's JSON.
func (r PacketRecord) Raw() json.RawMessage {
	return append(json.RawMessage(nil), r.raw...)
}

// MarshalJSON emits the record exactly as tshark produced it.
func (r PacketRecord) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(r.raw)) == 0 {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// Number returns frame.number, or 0 if absent.
func (r PacketRecord) Number() int {
	n, err := strconv.Atoi(r.Field("frame.number"))
	if err != nil {
		return 0
	}
	return n
}

// Time returns frame.time_epoch, or the zero time if absent.
func (r PacketRecord) Time() time.Time {
	epoch := r.Field("frame.time_epoch")
	if epoch == "" {
		return time.Time{}
	}
	secStr, fracStr, _ := strings.Cut(epoch, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var nsec int64
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}
		fracStr += strings.Repeat("0", 9-len(fracStr))
		nsec, _ = strconv.ParseInt(fracStr, 10, 64)
	}
	return time.Unix(sec, nsec).UTC()
}

// Protocols returns the frame.protocols stack, e.g. [eth ethertype ip tcp].
// If frame.protocols is missing the layer names are returned sorted.
func (r PacketRecord) Protocols() []string {
	layerData := r.layers()
	if layerData == nil {
		return nil
	}
	switch v := flattenLayerFields(layerData)["frame.protocols"].(type) {
	case string:
		if v != "" {
			return strings.Split(v, ":")
		}
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Split(strings.Join(parts, ":"), ":")
		}
	}
	parts := make([]string, 0, len(layerData))
	for key := range layerData {
		parts = append(parts, strings.ToLower(key))
	}
	sort.Strings(parts)
	return parts
}

// Field returns the first string value of a dissector field such as
// "ip.src", searching all layers.
func (r PacketRecord) Field(name string) string {
	layerData := r.layers()
	if layerData == nil {
		return ""
	}
	val, ok := flattenLayerFields(layerData)[name]
	if !ok {
		return ""
	}
	return firstStringValue(val)
}

func (r PacketRecord) layers() map[string]interface{} {
	var packet struct {
		Source struct {
			Layers map[string]interface{} `json:"layers"`
		} `json:"_source"`
	}
	if err := json.Unmarshal(r.raw, &packet); err != nil {
		return nil
	}
	return packet.Source.Layers
}

func flattenLayerFields(layerData map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, val := range layerData {
		if nested, ok := val.(map[string]interface{}); ok {
			flattenNested(out, nested)
		}
	}
	return out
}

func flattenNested(out map[string]interface{}, nested map[string]interface{}) {
	for key, val := range nested {
		out[key] = val
		if deeper, ok := val.(map[string]interface{}); ok {
			flattenNested(out, deeper)
		}
	}
}

func firstStringValue(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
