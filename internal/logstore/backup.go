package logstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minio/minio-go/v7"

	"design-drop/internal/logging"
	"design-drop/internal/model"
)

// ObjectPutter is the part of *minio.Client the backup needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Backup periodically copies the whole submission log to object storage as
// a JSON-lines snapshot. Snapshots are never overwritten; each gets a
// timestamped key under the configured prefix.
type Backup struct {
	store    Store
	putter   ObjectPutter
	bucket   string
	prefix   string
	interval time.Duration
	clock    model.Clock

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool
}

// NewBackup returns a Backup that snapshots store into bucket.
func NewBackup(store Store, putter ObjectPutter, bucket, prefix string, interval time.Duration, clock model.Clock) *Backup {
	if clock == nil {
		clock = model.RealClock{}
	}
	return &Backup{
		store:    store,
		putter:   putter,
		bucket:   bucket,
		prefix:   prefix,
		interval: interval,
		clock:    clock,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// ObjectName returns the key a snapshot taken at t is stored under.
func (b *Backup) ObjectName(t time.Time) string {
	return path.Join(b.prefix, fmt.Sprintf("submissions-%s.jsonl", t.UTC().Format("20060102-150405")))
}

// Snapshot uploads the current log and returns the object key and the
// number of records written.
func (b *Backup) Snapshot(ctx context.Context) (string, int, error) {
	records, err := b.store.List(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("read log for snapshot: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return "", 0, fmt.Errorf("encode snapshot: %w", err)
		}
	}

	key := b.ObjectName(b.clock.Now())
	_, err = b.putter.PutObject(ctx, b.bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "application/x-ndjson"})
	if err != nil {
		return "", 0, fmt.Errorf("upload snapshot %s: %w", key, err)
	}
	return key, len(records), nil
}

// Start runs an initial snapshot and then one per interval until Stop is
// called or ctx is cancelled.
func (b *Backup) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	logging.Info("submission log backup started", map[string]any{
		"interval": b.interval.String(),
		"bucket":   b.bucket,
		"prefix":   b.prefix,
	})

	go func() {
		defer close(b.done)

		b.run(ctx)

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.run(ctx)
			case <-ctx.Done():
				return
			case <-b.stop:
				logging.Info("submission log backup stopped", nil)
				return
			}
		}
	}()
}

// Stop halts the scheduler and waits for an in-flight snapshot to finish.
func (b *Backup) Stop() {
	b.once.Do(func() { close(b.stop) })
	if b.started.Load() {
		<-b.done
	}
}

func (b *Backup) run(ctx context.Context) {
	start := time.Now()
	key, n, err := b.Snapshot(ctx)
	if err != nil {
		logging.Error("submission log backup failed", nil, err)
		return
	}
	logging.Info("submission log backup completed", map[string]any{
		"key":         key,
		"records":     n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}
