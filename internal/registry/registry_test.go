package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"DrawdownSentinel/internal/model"
	"DrawdownSentinel/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string]*storage.Object
	puts    int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]*storage.Object{}}
}

func (m *memStore) Put(_ context.Context, obj *storage.Object) error {
	m.objects[obj.Key] = obj
	m.puts++
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	obj, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return obj.Body, nil
}

func summary(ath, atl float64, athTime, atlTime time.Time) *model.SeriesSummary {
	return &model.SeriesSummary{ATH: ath, ATHTime: athTime, ATL: atl, ATLTime: atlTime}
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	reg := New(newMemStore(), "")
	require.NoError(t, reg.Load(context.Background()))
	_, ok := reg.Get("Bitcoin")
	assert.False(t, ok)
}

func TestObserve_RaisesATHAndLowersATL(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	reg := New(store, "")
	require.NoError(t, reg.Load(ctx))

	t1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	entry, changed := reg.Observe("Bitcoin", summary(100, 40, t1, t1))
	assert.True(t, changed)
	assert.Equal(t, 100.0, entry.ATH)
	assert.Equal(t, 40.0, entry.ATL)
	assert.Equal(t, "kucoin_updated", entry.Source)

	// A weaker observation changes nothing.
	t2 := t1.AddDate(0, 1, 0)
	entry, changed = reg.Observe("Bitcoin", summary(90, 50, t2, t2))
	assert.False(t, changed)
	assert.Equal(t, 100.0, entry.ATH)
	assert.Equal(t, t1.UnixMilli(), entry.ATHTimeMS)

	// A new extreme moves the entry and its timestamp.
	entry, changed = reg.Observe("Bitcoin", summary(130, 35, t2, t2))
	assert.True(t, changed)
	assert.Equal(t, 130.0, entry.ATH)
	assert.Equal(t, 35.0, entry.ATL)
	assert.Equal(t, t2.UnixMilli(), entry.ATHTimeMS)
}

func TestObserve_NilSummaryIsNoop(t *testing.T) {
	reg := New(newMemStore(), "")
	require.NoError(t, reg.Load(context.Background()))
	_, changed := reg.Observe("Bitcoin", nil)
	assert.False(t, changed)
}

type brokenStore struct {
	*memStore
}

func (b *brokenStore) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, errTransient
}

var errTransient = fmt.Errorf("connection reset")

// A failed download must not let the run replace the persisted file with
// a view built from this run's window alone.
func TestLoad_FailurePreservesPersistedExtremes(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	t0 := time.Date(2021, 11, 10, 0, 0, 0, 0, time.UTC)
	seeded := New(store, "")
	require.NoError(t, seeded.Load(ctx))
	seeded.Observe("Bitcoin", summary(1000000, 3000, t0, t0))
	require.NoError(t, seeded.Save(ctx))
	persisted := store.objects[DefaultKey].Body

	broken := &brokenStore{memStore: store}
	reg := New(broken, "")
	require.Error(t, reg.Load(ctx))

	// Observations after a failed load are refused and Save stays a no-op.
	t1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	_, changed := reg.Observe("Bitcoin", summary(101.9, 90, t1, t1))
	assert.False(t, changed)
	require.NoError(t, reg.Save(ctx))
	assert.Equal(t, persisted, store.objects[DefaultKey].Body)

	var entries map[string]Entry
	require.NoError(t, json.Unmarshal(store.objects[DefaultKey].Body, &entries))
	assert.Equal(t, 1000000.0, entries["Bitcoin"].ATH)
}

func TestLoad_ParseFailureRefusesObserve(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.objects[DefaultKey] = &storage.Object{Key: DefaultKey, Body: []byte("not json")}

	reg := New(store, "")
	require.Error(t, reg.Load(ctx))

	t1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	_, changed := reg.Observe("Bitcoin", summary(100, 40, t1, t1))
	assert.False(t, changed)
	require.NoError(t, reg.Save(ctx))
	assert.Equal(t, 0, store.puts)
}

func TestSave_OnlyWhenDirty(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	reg := New(store, "")
	require.NoError(t, reg.Load(ctx))

	// Clean registry: Save is a no-op.
	require.NoError(t, reg.Save(ctx))
	assert.Equal(t, 0, store.puts)

	t1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	reg.Observe("Solana", summary(200, 8, t1, t1))
	require.NoError(t, reg.Save(ctx))
	assert.Equal(t, 1, store.puts)

	// Saving again without changes does not re-upload.
	require.NoError(t, reg.Save(ctx))
	assert.Equal(t, 1, store.puts)
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	reg := New(store, "custom/ath.json")
	require.NoError(t, reg.Load(ctx))

	t1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	reg.Observe("Litecoin", summary(400, 20, t1, t1))
	require.NoError(t, reg.Save(ctx))

	obj := store.objects["custom/ath.json"]
	require.NotNil(t, obj)
	assert.Equal(t, "application/json", obj.ContentType)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(obj.Body, &raw))
	assert.Contains(t, raw, "Litecoin")
	assert.Equal(t, 400.0, raw["Litecoin"]["ath_value"])

	other := New(store, "custom/ath.json")
	require.NoError(t, other.Load(ctx))
	entry, ok := other.Get("Litecoin")
	require.True(t, ok)
	assert.Equal(t, 400.0, entry.ATH)
	assert.True(t, t1.Equal(entry.ATHTime()))
}
