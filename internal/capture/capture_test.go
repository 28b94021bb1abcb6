package capture

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPacketRecordAccessors(t *testing.T) {
	records, err := Decode([]byte(twoPackets))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	r := records[0]

	if got := r.Number(); got != 1 {
		t.Errorf("Number() = %d, want 1", got)
	}
	want := time.Unix(1700000000, 250000000).UTC()
	if got := r.Time(); !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}
	if got := strings.Join(r.Protocols(), ":"); got != "eth:ethertype:ip:tcp" {
		t.Errorf("Protocols() = %q", got)
	}
	if got := r.Field("ip.dst"); got != "10.0.0.2" {
		t.Errorf("Field(ip.dst) = %q", got)
	}
	if got := r.Field("tcp.port"); got != "" {
		t.Errorf("Field(tcp.port) = %q, want empty", got)
	}
}

func TestPacketRecordMissingFields(t *testing.T) {
	r := NewPacketRecord([]byte(`{"_source": {"layers": {}}}`))
	if r.Number() != 0 {
		t.Errorf("Number() = %d, want 0", r.Number())
	}
	if !r.Time().IsZero() {
		t.Errorf("Time() = %v, want zero", r.Time())
	}
	if len(r.Protocols()) != 0 {
		t.Errorf("Protocols() = %v, want none", r.Protocols())
	}
}

func TestPacketRecordImmutable(t *testing.T) {
	src := []byte(`{"a": 1}`)
	r := NewPacketRecord(src)
	src[2] = 'b'
	raw := r.Raw()
	raw[2] = 'c'
	if string(r.Raw()) != `{"a": 1}` {
		t.Errorf("record mutated: %s", r.Raw())
	}
}

func TestPacketRecordMarshalJSON(t *testing.T) {
	records, err := Decode([]byte(twoPackets))
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode(marshalled) error = %v", err)
	}
	if len(again) != 2 || again[1].Number() != 2 {
		t.Errorf("round trip lost records: %d", len(again))
	}

	empty, err := json.Marshal(PacketRecord{})
	if err != nil || string(empty) != "null" {
		t.Errorf("zero record = %s, %v", empty, err)
	}
}

func TestPacketRecordProtocolsFallbackSorted(t *testing.T) {
	r := NewPacketRecord([]byte(`{"_source":{"layers":{"udp":{"udp.port":"53"},"IP":{"ip.src":"10.0.0.1"},"eth":{}}}}`))
	if got := strings.Join(r.Protocols(), ":"); got != "eth:ip:udp" {
		t.Errorf("Protocols() = %q, want eth:ip:udp", got)
	}
}
