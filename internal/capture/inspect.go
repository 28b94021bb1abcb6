package capture

// Capture file preflight using pcapgo. tshark reads more formats than pcapgo,
// so callers treat an Inspect error as informational only.

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Format names the capture container.
type Format string

const (
	FormatPcap   Format = "pcap"
	FormatPcapNG Format = "pcapng"
)

// pcapng section header block type
const pcapngMagic = 0x0A0D0D0A

// Info describes a capture file.
type Info struct {
	Path     string
	Format   Format
	LinkType layers.LinkType
	Packets  int
	Size     int64
}

func (i Info) String() string {
	return fmt.Sprintf("%s, %s, %s packets, %s",
		i.Format, i.LinkType, humanize.Comma(int64(i.Packets)), humanize.Bytes(uint64(i.Size)))
}

// Inspect opens path as pcap or pcapng and counts its packets.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("stat capture: %w", err)
	}
	info := Info{Path: path, Size: stat.Size()}

	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		return Info{}, fmt.Errorf("read capture header: %w", err)
	}

	var next func() error
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		r, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return Info{}, fmt.Errorf("read pcapng header: %w", err)
		}
		info.Format = FormatPcapNG
		info.LinkType = r.LinkType()
		next = func() error {
			_, _, err := r.ReadPacketData()
			return err
		}
	} else {
		r, err := pcapgo.NewReader(br)
		if err != nil {
			return Info{}, fmt.Errorf("read pcap header: %w", err)
		}
		info.Format = FormatPcap
		info.LinkType = r.LinkType()
		next = func() error {
			_, _, err := r.ReadPacketData()
			return err
		}
	}

	for {
		err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return info, fmt.Errorf("read packet %d: %w", info.Packets+1, err)
		}
		info.Packets++
	}
	return info, nil
}
