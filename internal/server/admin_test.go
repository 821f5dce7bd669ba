package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"design-drop/internal/model"
)

func TestAdmin_EmptyLog(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(httptest.NewRequest(http.MethodGet, "/admin", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestAdmin_ListsRecordsInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	want := []model.Record{
		{Name: "A", Email: "a@example.com", IP: "10.0.0.1", Timestamp: "2024-05-01T10-00-00-000Z", FileCount: 1},
		{Name: "B", Email: "b@example.com", IP: "10.0.0.2", Timestamp: "2024-05-01T11-00-00-000Z", FileCount: 4},
	}
	for _, rec := range want {
		require.NoError(t, env.store.Append(ctx, rec))
	}

	rr := env.do(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got []model.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, want, got)
	assert.Contains(t, rr.Body.String(), `"fileCount":4`)
}

func TestAdmin_ReflectsUploads(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(uploadRequest(t, submitter, nFiles(2))).Code)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`[{"name":"Ann Lee","email":"ann@example.com","ip":"192.0.2.1","timestamp":"`+fixedTimestamp+`","fileCount":2}]`,
		rr.Body.String())
}

func TestAdmin_MalformedLog(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.store.Path(), []byte("{\"name\":\"ok\"\nnot json\n"), 0o600))

	rr := env.do(httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error reading log", strings.TrimSpace(rr.Body.String()))
}

func TestAdmin_StoreUnavailable(t *testing.T) {
	srv := New(testConfig(), failingStore{err: errStoreDown}, &fakeNotifier{}, nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), errStoreDown.Error())
}

func TestAdmin_RejectsWrites(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(httptest.NewRequest(http.MethodPost, "/admin", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
