// Package model holds the data that flows through one upload: the
// submitter's metadata, the uploaded files and the log record derived
// from them.
package model

import (
	"strings"
	"time"
)

// Submission is one accepted upload event. It is built once per request
// and never modified afterwards.
type Submission struct {
	Name      string
	Email     string
	IP        string
	Timestamp string // see FormatTimestamp
	FileCount int
}

// UploadedFile is one file part of a submission. Content lives only for the
// duration of the request.
type UploadedFile struct {
	Filename    string // as sent by the client, not sanitized
	ContentType string
	Content     []byte
}

// IsImage reports whether the file's MIME type is an image type.
func (f UploadedFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

// Size returns the content length in bytes.
func (f UploadedFile) Size() int64 {
	return int64(len(f.Content))
}

// Record is one line of the submission log. The JSON keys are the
// persisted layout and must not change.
type Record struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
	FileCount int    `json:"fileCount"`
}

// Record returns the log line for s. File contents are never part of it.
func (s Submission) Record() Record {
	return Record{
		Name:      s.Name,
		Email:     s.Email,
		IP:        s.IP,
		Timestamp: s.Timestamp,
		FileCount: s.FileCount,
	}
}

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// FormatTimestamp renders t as a UTC ISO-8601 instant with millisecond
// precision and replaces ':' and '.' so the result is safe inside file
// names: 2024-05-01T12:30:45.123Z becomes 2024-05-01T12-30-45-123Z.
func FormatTimestamp(t time.Time) string {
	return timestampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z"))
}

// FirstImage returns the first image among files, if any.
func FirstImage(files []UploadedFile) (UploadedFile, bool) {
	for _, f := range files {
		if f.IsImage() {
			return f, true
		}
	}
	return UploadedFile{}, false
}

// TotalSize sums the content length of files.
func TotalSize(files []UploadedFile) int64 {
	var n int64
	for _, f := range files {
		n += f.Size()
	}
	return n
}
