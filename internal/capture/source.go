package capture

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tturner/pcapexplain/internal/errors"
	"github.com/tturner/pcapexplain/internal/logging"
)

// maxStderr bounds how much tshark stderr is kept on an ExtractionError.
const maxStderr = 2048

// Source extracts packet records from a capture file with tshark.
type Source struct {
	TsharkPath    string // empty resolves via TSHARK, PATH, platform defaults
	DisplayFilter string // passed as -Y when set
	MaxPackets    int    // passed as -c when > 0
	Logger        *logging.Logger
}

// Extract runs `tshark -r path -T json` and returns the packets in capture
// order. A capture with no packets yields an empty slice and no error.
// Cancellation of ctx is returned as ctx.Err(), not as an ExtractionError.
func (s *Source) Extract(ctx context.Context, path string) ([]PacketRecord, error) {
	logger := s.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	if err := checkReadable(path); err != nil {
		return nil, &errors.ExtractionError{Path: path, Reason: errors.ReasonUnreadable, Err: err}
	}

	tshark, err := ResolveTsharkPath(s.TsharkPath)
	if err != nil {
		return nil, &errors.ExtractionError{Path: path, Reason: errors.ReasonToolMissing, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := s.args(path)
	logger.Debug("exec %s %s", tshark, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tshark, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			return nil, &errors.ExtractionError{
				Path:     path,
				Reason:   errors.ReasonToolFailed,
				ExitCode: exitErr.ExitCode(),
				Stderr:   trimStderr(stderr.String()),
				Err:      runErr,
			}
		}
		if stderrors.Is(runErr, exec.ErrNotFound) || stderrors.Is(runErr, os.ErrNotExist) {
			return nil, &errors.ExtractionError{Path: path, Reason: errors.ReasonToolMissing, Err: runErr}
		}
		return nil, &errors.ExtractionError{Path: path, Reason: errors.ReasonToolFailed, ExitCode: -1, Err: runErr}
	}

	records, err := Decode(stdout.Bytes())
	if err != nil {
		return nil, &errors.ExtractionError{Path: path, Reason: errors.ReasonMalformedOut, Err: err}
	}
	logger.Verbose("tshark returned %d packet(s) from %s", len(records), path)
	return records, nil
}

func (s *Source) args(path string) []string {
	args := []string{"-r", path, "-T", "json"}
	if s.DisplayFilter != "" {
		args = append(args, "-Y", s.DisplayFilter)
	}
	if s.MaxPackets > 0 {
		args = append(args, "-c", strconv.Itoa(s.MaxPackets))
	}
	return args
}

// Decode parses tshark's JSON packet array. Empty output is zero packets.
func Decode(data []byte) ([]PacketRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []PacketRecord{}, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array of packets")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("parse tshark JSON: %w", err)
	}

	records := make([]PacketRecord, 0, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("packet %d is not a JSON object", i+1)
		}
		records = append(records, NewPacketRecord(item))
	}
	return records, nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[len(s)-maxStderr:]
	}
	return s
}
