package logstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"design-drop/internal/model"
)

// FileStore is the JSON-lines backend.
//
// Every Append opens the file with O_APPEND and issues exactly one write of
// the encoded line, so the kernel positions each line at end-of-file and
// concurrent appenders never interleave partial lines. No lock is held.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file is
// created on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Append(_ context.Context, rec model.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open submission log: %w", err)
	}

	n, werr := f.Write(line)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("append submission log: %w", werr)
	}
	if n != len(line) {
		return fmt.Errorf("append submission log: short write (%d of %d bytes)", n, len(line))
	}
	if cerr != nil {
		return fmt.Errorf("close submission log: %w", cerr)
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]model.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read submission log: %w", err)
	}
	return decodeLines(data)
}

// Ping checks that the log's directory is reachable; the file itself may
// not exist yet.
func (s *FileStore) Ping(_ context.Context) error {
	_, err := os.Stat(s.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) Close() error { return nil }

// decodeLines parses JSON lines. Blank lines (such as the trailing newline)
// are skipped; anything else that is not a valid record is an error.
func decodeLines(data []byte) ([]model.Record, error) {
	records := []model.Record{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := decodeRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan submission log: %w", err)
	}
	return records, nil
}
