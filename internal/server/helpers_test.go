package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"design-drop/internal/config"
	"design-drop/internal/logstore"
	"design-drop/internal/model"
)

var fixedNow = time.Date(2024, 5, 1, 12, 30, 45, 123_000_000, time.UTC)

const fixedTimestamp = "2024-05-01T12-30-45-123Z"

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Environment: "test", Version: "test"},
		HTTP: config.HTTPConfig{Addr: "127.0.0.1:0"},
		Upload: config.UploadConfig{
			MaxFiles:        10,
			MaxFileBytes:    1 << 20,
			MaxRequestBytes: 8 << 20,
		},
		RateLimit: config.RateLimitConfig{Window: time.Minute},
	}
}

type notifyCall struct {
	sub     model.Submission
	zip     []byte
	preview *model.UploadedFile
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, sub model.Submission, zip []byte, preview *model.UploadedFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{sub: sub, zip: zip, preview: preview})
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type failingStore struct {
	err error
}

func (s failingStore) Append(context.Context, model.Record) error {
	return s.err
}

func (s failingStore) List(context.Context) ([]model.Record, error) {
	return nil, s.err
}

func (s failingStore) Ping(context.Context) error {
	return s.err
}

func (s failingStore) Close() error {
	return nil
}

var errStoreDown = errors.New("disk full")

type testEnv struct {
	srv      *Server
	store    *logstore.FileStore
	notifier *fakeNotifier
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	store := logstore.NewFileStore(filepath.Join(t.TempDir(), "uploads-log.jsonl"))
	n := &fakeNotifier{}
	return &testEnv{
		srv:      New(cfg, store, n, model.FixedClock(fixedNow)),
		store:    store,
		notifier: n,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) records(t *testing.T) []model.Record {
	t.Helper()
	recs, err := e.store.List(context.Background())
	require.NoError(t, err)
	return recs
}

type filePart struct {
	filename    string
	contentType string
	content     []byte
}

// multipartBody encodes fields and files the way a browser form would.
func multipartBody(t *testing.T, fields map[string]string, files []filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.filename))
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		pw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, fields map[string]string, files []filePart) *http.Request {
	t.Helper()
	body, ct := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	return req
}

func nFiles(n int) []filePart {
	files := make([]filePart, n)
	for i := range files {
		files[i] = filePart{
			filename:    fmt.Sprintf("drawing-%02d.pdf", i),
			contentType: "application/pdf",
			content:     []byte(fmt.Sprintf("%%PDF-1.7 drawing %d", i)),
		}
	}
	return files
}

var submitter = map[string]string{"name": "Ann Lee", "email": "ann@example.com"}
