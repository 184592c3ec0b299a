// Package recordio implements newline-delimited-JSON record persistence
// shared by every stage: a flush-per-line append writer and a
// checkpoint-resume scanner, grounded on the teacher's JSONL trace writer
// (internal/agent/trace.go's TracePlugin: mutex-guarded, one json.Marshal
// per event, immediate flush for crash safety).
package recordio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Keyer extracts the resume-identity key from a decoded input record.
type Keyer func(raw json.RawMessage) (string, bool)

// ReadProcessedIDs scans an existing output file (if any) and returns the
// set of keys already written, so a re-run can skip them. A missing file is
// not an error — it means nothing has been processed yet.
func ReadProcessedIDs(path string, key Keyer) (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, fmt.Errorf("open output file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if id, ok := key(json.RawMessage(line)); ok {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan output file %s: %w", path, err)
	}
	return ids, nil
}

// AppendWriter writes JSON records as newline-delimited lines, flushing
// after every write so a killed process never loses a completed record and
// a resumed run never re-processes one (§4.4, §8 "Checkpoint/resume is a
// correctness property").
type AppendWriter struct {
	mu sync.Mutex
	f  *os.File
}

// OpenAppend opens path for appending, creating it if absent.
func OpenAppend(path string) (*AppendWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s for append: %w", path, err)
	}
	return &AppendWriter{f: f}, nil
}

// Write marshals record as one JSON line and flushes it to disk.
func (w *AppendWriter) Write(record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return w.f.Sync()
}

// Close closes the underlying file.
func (w *AppendWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// ReadAll reads every JSON line of path, decodes each into a T, and returns
// them in file order, skipping blank lines.
func ReadAll[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, fmt.Errorf("decode line: %w", err)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
