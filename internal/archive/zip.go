// Package archive bundles a submission's files into a single zip held in
// memory.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"

	"design-drop/internal/model"
)

// ContentType is the MIME type of archives produced by Build.
const ContentType = "application/zip"

// Name returns the attachment file name for a submission timestamp.
func Name(timestamp string) string {
	return fmt.Sprintf("design-uploads-%s.zip", timestamp)
}

// Build writes files, in order and under their original names, into a zip
// using maximum deflate compression and returns the finalized archive.
//
// The zip writer runs in its own goroutine and streams into an io.Pipe;
// the caller side drains the pipe into memory. The returned bytes are only
// produced once the writer has been closed, so a partial archive is never
// observed. Duplicate names become duplicate entries.
func Build(files []model.UploadedFile, modified time.Time) ([]byte, error) {
	pr, pw := io.Pipe()

	go func() {
		pw.CloseWithError(write(pw, files, modified))
	}()

	data, err := io.ReadAll(pr)
	if err != nil {
		return nil, fmt.Errorf("build archive: %w", err)
	}
	return data, nil
}

func write(w io.Writer, files []model.UploadedFile, modified time.Time) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, f := range files {
		hdr := &zip.FileHeader{
			Name:     f.Filename,
			Method:   zip.Deflate,
			Modified: modified,
		}
		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("create entry %q: %w", f.Filename, err)
		}
		if _, err := entry.Write(f.Content); err != nil {
			_ = zw.Close()
			return fmt.Errorf("write entry %q: %w", f.Filename, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// Extract reads every entry of a zip produced by Build, in archive order.
func Extract(data []byte) ([]model.UploadedFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	out := make([]model.UploadedFile, 0, len(zr.File))
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %q: %w", zf.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %q: %w", zf.Name, err)
		}
		out = append(out, model.UploadedFile{Filename: zf.Name, Content: content})
	}
	return out, nil
}
