// Package registry maintains the bucket-persisted per-coin extreme file.
// Exchange candle history is finite, so an ATH/ATL observed in an earlier
// run can be older than anything the current fetch window contains; the
// registry carries those extremes across runs.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"DrawdownSentinel/internal/model"
	"DrawdownSentinel/internal/storage"
)

// DefaultKey is where the registry lives in the bucket.
const DefaultKey = "config/all_coins_ath.json"

// Entry holds the persisted extremes for one coin.
type Entry struct {
	ATH       float64 `json:"ath_value"`
	ATHTimeMS int64   `json:"ath_date_timestamp_ms"`
	ATL       float64 `json:"atl_value"`
	ATLTimeMS int64   `json:"atl_date_timestamp_ms"`
	Source    string  `json:"source,omitempty"`
}

// Registry is the in-memory view of the extreme file between Load and Save.
// Until a Load succeeds, Observe and Save are no-ops: merging a run's
// window extremes into an empty view and re-uploading it would erase the
// persisted history the registry exists to keep.
type Registry struct {
	store   storage.Storage
	key     string
	entries map[string]Entry
	dirty   bool
	loaded  bool
}

// New creates a registry backed by the given storage. An empty key uses
// DefaultKey.
func New(store storage.Storage, key string) *Registry {
	if key == "" {
		key = DefaultKey
	}
	return &Registry{store: store, key: key, entries: map[string]Entry{}}
}

// Load reads the registry from the bucket. A missing file yields an
// empty registry, not an error. A transient download or parse failure
// leaves the registry unloaded, so later Observe/Save calls cannot
// overwrite the persisted file with a partial view.
func (r *Registry) Load(ctx context.Context) error {
	body, err := r.store.Get(ctx, r.key)
	if errors.Is(err, storage.ErrNotFound) {
		log.Printf("[WARN] registry %s not found, starting empty", r.key)
		r.entries = map[string]Entry{}
		r.dirty = false
		r.loaded = true
		return nil
	}
	if err != nil {
		r.loaded = false
		return fmt.Errorf("load registry: %w", err)
	}
	entries := map[string]Entry{}
	if err := json.Unmarshal(body, &entries); err != nil {
		r.loaded = false
		return fmt.Errorf("parse registry: %w", err)
	}
	r.entries = entries
	r.dirty = false
	r.loaded = true
	return nil
}

// Get returns the stored entry for a coin, if any.
func (r *Registry) Get(coin string) (Entry, bool) {
	e, ok := r.entries[coin]
	return e, ok
}

// Observe folds a run's summary into the stored extremes: the ATH only
// rises, the ATL only falls (a zero stored ATL counts as unset). Returns
// the merged entry and whether it changed. Refused until Load succeeds.
func (r *Registry) Observe(coin string, sum *model.SeriesSummary) (Entry, bool) {
	e := r.entries[coin]
	if sum == nil || !r.loaded {
		return e, false
	}
	changed := false
	if sum.ATH > e.ATH {
		e.ATH = sum.ATH
		e.ATHTimeMS = sum.ATHTime.UnixMilli()
		e.Source = "kucoin_updated"
		changed = true
	}
	if sum.ATL > 0 && (sum.ATL < e.ATL || e.ATL == 0) {
		e.ATL = sum.ATL
		e.ATLTimeMS = sum.ATLTime.UnixMilli()
		changed = true
	}
	if changed {
		r.dirty = true
		r.entries[coin] = e
	}
	return e, changed
}

// Save writes the registry back to the bucket when any entry changed.
// A no-op until Load succeeds.
func (r *Registry) Save(ctx context.Context) error {
	if !r.loaded || !r.dirty {
		return nil
	}
	body, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := r.store.Put(ctx, &storage.Object{
		Key:         r.key,
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	r.dirty = false
	return nil
}

// ATHTime converts the stored millisecond timestamp, zero time when unset.
func (e Entry) ATHTime() time.Time {
	if e.ATHTimeMS == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.ATHTimeMS).UTC()
}
