package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"design-drop/internal/logstore"
	"design-drop/internal/model"
)

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())

	buf.Reset()
	recs := []model.Record{{Name: "Ann", Email: "ann@example.com", IP: "10.0.0.1", Timestamp: "2024-05-01T12-30-45-123Z", FileCount: 2}}
	require.NoError(t, writeRecords(&buf, recs))

	var got []model.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, recs, got)
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "records", "snapshot"} {
		assert.True(t, names[want], "missing %s command", want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestRecordsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uploads-log.jsonl")
	store := logstore.NewFileStore(path)
	rec := model.Record{Name: "Ann", Email: "ann@example.com", IP: "10.0.0.1", Timestamp: "2024-05-01T12-30-45-123Z", FileCount: 1}
	require.NoError(t, store.Append(context.Background(), rec))

	t.Setenv("DDROP_STORE_PATH", path)
	t.Setenv("DDROP_NOTIFY_OPERATOR_TO", "ops@example.com")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"records"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var got []model.Record
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []model.Record{rec}, got)
}

func TestSnapshotCommand_RequiresBackup(t *testing.T) {
	t.Setenv("DDROP_STORE_PATH", filepath.Join(t.TempDir(), "log.jsonl"))
	t.Setenv("DDROP_NOTIFY_OPERATOR_TO", "ops@example.com")

	rootCmd.SetArgs([]string{"snapshot"})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup is not enabled")
}
