package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func samplePackets() [][]byte {
	return [][]byte{
		make([]byte, 60),
		make([]byte, 74),
		make([]byte, 1514),
	}
}

func TestInspectPcap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatal(err)
	}
	for i, data := range samplePackets() {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(1700000000+int64(i), 0),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatal(err)
		}
	}
	f.Close()

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Format != FormatPcap {
		t.Errorf("Format = %q, want pcap", info.Format)
	}
	if info.LinkType != layers.LinkTypeEthernet {
		t.Errorf("LinkType = %v, want Ethernet", info.LinkType)
	}
	if info.Packets != 3 {
		t.Errorf("Packets = %d, want 3", info.Packets)
	}
	if info.Size == 0 {
		t.Error("Size should be set")
	}
	if !strings.Contains(info.String(), "3 packets") {
		t.Errorf("String() = %q", info.String())
	}
}

func TestInspectPcapNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.pcapng")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	if err != nil {
		t.Fatal(err)
	}
	for i, data := range samplePackets() {
		ci := gopacket.CaptureInfo{
			Timestamp:      time.Unix(1700000000+int64(i), 0),
			CaptureLength:  len(data),
			Length:         len(data),
			InterfaceIndex: 0,
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Format != FormatPcapNG {
		t.Errorf("Format = %q, want pcapng", info.Format)
	}
	if info.Packets != 3 {
		t.Errorf("Packets = %d, want 3", info.Packets)
	}
}

func TestInspectNotACapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello, this is not a capture"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Inspect(path); err == nil {
		t.Error("expected error for non-capture file")
	}
	if _, err := Inspect(filepath.Join(t.TempDir(), "absent.pcap")); err == nil {
		t.Error("expected error for missing file")
	}
}
