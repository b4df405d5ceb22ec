package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"revenue_backend/internal/revenue/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) EnsureBucketExists(context.Context, string) error { return m.err }

func (m *memoryStore) PutObject(_ context.Context, bucket, key, contentType string, reader io.Reader, size int64) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.objects[bucket+"/"+key] = data
	m.types[bucket+"/"+key] = contentType
	return nil
}

func (m *memoryStore) DownloadFile(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestCycleArchiveWritesJSON(t *testing.T) {
	store := newMemoryStore()
	archive := NewCycleArchive(store, "revenue-cycles")

	summary := domain.CycleSummary{
		CycleNumber:      12,
		Trigger:          domain.TriggerManual,
		StartedAt:        time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC),
		DealsClosed:      1,
		RevenueThisCycle: 997,
	}
	require.NoError(t, archive.Append(context.Background(), summary))

	key := "cycles/20260405T060708Z_000012.json"
	assert.Equal(t, key, ArchiveKey(summary))

	rc, err := store.DownloadFile(context.Background(), "revenue-cycles", key)
	require.NoError(t, err)
	defer rc.Close()

	var got domain.CycleSummary
	require.NoError(t, json.NewDecoder(rc).Decode(&got))
	assert.Equal(t, uint64(12), got.CycleNumber)
	assert.Equal(t, int64(997), got.RevenueThisCycle)
	assert.Equal(t, "application/json", store.types["revenue-cycles/"+key])
}

func TestCycleArchivePropagatesErrors(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("bucket gone")

	err := NewCycleArchive(store, "b").Append(context.Background(), domain.CycleSummary{CycleNumber: 1})
	assert.ErrorContains(t, err, "bucket gone")
}

func TestNewMinIOServiceRequiresEndpoint(t *testing.T) {
	_, err := NewMinIOService(disabledConfig{})
	assert.Error(t, err)
}

type disabledConfig struct{}

func (disabledConfig) GetMinIOEndpoint() string  { return "" }
func (disabledConfig) GetMinIOAccessKey() string { return "" }
func (disabledConfig) GetMinIOSecretKey() string { return "" }
func (disabledConfig) GetMinIOUseSSL() bool      { return false }
func (disabledConfig) IsMinIOEnabled() bool      { return false }
