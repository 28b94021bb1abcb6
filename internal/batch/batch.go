package batch

import (
	"fmt"
	"time"

	"github.com/tturner/pcapexplain/internal/capture"
	"github.com/tturner/pcapexplain/internal/errors"
)

// DefaultSize is the number of packets per batch when none is configured.
const DefaultSize = 10

// Batch is a contiguous slice of packet records submitted together for one
// model call.
type Batch struct {
	Index   int // 1-based
	Total   int
	Offset  int // 0-based position of the first record in the capture
	Records []capture.PacketRecord
}

// FirstPacket returns the 1-based position of the first record.
func (b Batch) FirstPacket() int { return b.Offset + 1 }

// LastPacket returns the 1-based position of the last record.
func (b Batch) LastPacket() int { return b.Offset + len(b.Records) }

// Label returns "i/N".
func (b Batch) Label() string { return fmt.Sprintf("%d/%d", b.Index, b.Total) }

// Frames returns the tshark frame numbers of the first and last record.
// They differ from the positions when a display filter dropped packets, and
// are 0 when frame.number is absent.
func (b Batch) Frames() (first, last int) {
	if len(b.Records) == 0 {
		return 0, 0
	}
	return b.Records[0].Number(), b.Records[len(b.Records)-1].Number()
}

// TimeSpan returns the capture times of the first and last record. Records
// without frame.time_epoch give zero times.
func (b Batch) TimeSpan() (first, last time.Time) {
	if len(b.Records) == 0 {
		return time.Time{}, time.Time{}
	}
	return b.Records[0].Time(), b.Records[len(b.Records)-1].Time()
}

// Protocols returns the distinct protocol names of all records in order of
// first appearance.
func (b Batch) Protocols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range b.Records {
		for _, p := range r.Protocols() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Count returns ceil(n/size) for size > 0.
func Count(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Plan splits records into order-preserving batches of size, the last one
// possibly shorter. Zero records yield zero batches.
func Plan(records []capture.PacketRecord, size int) ([]Batch, error) {
	if size <= 0 {
		return nil, &errors.ConfigError{
			Fields: []string{"batch_size"},
			Reason: fmt.Sprintf("batch size must be a positive integer, got %d", size),
		}
	}

	total := Count(len(records), size)
	batches := make([]Batch, 0, total)
	for i := 0; i < total; i++ {
		start := i * size
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, Batch{
			Index:   i + 1,
			Total:   total,
			Offset:  start,
			Records: records[start:end:end],
		})
	}
	return batches, nil
}
