// Package store keeps the list of URL records in memory and synchronised with
// a single durable key-value slot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

// DefaultKey is the slot key the record list is stored under.
const DefaultKey = "shortenedUrls"

// Slot is a durable key-value cell. Get returns an error wrapping
// entity.ErrSlotEmpty when nothing was stored under key.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type clickJSON struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Location  string    `json:"location"`
}

type recordJSON struct {
	LongURL   string      `json:"longUrl"`
	ShortCode string      `json:"shortCode"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Clicks    int64       `json:"clicks"`
	ClickData []clickJSON `json:"clickData"`
}

func (r *recordJSON) toEntity() entity.URLRecord {
	clicks := make([]entity.ClickEvent, len(r.ClickData))
	for i, c := range r.ClickData {
		clicks[i] = entity.ClickEvent{
			Timestamp: c.Timestamp,
			Source:    c.Source,
			Location:  c.Location,
		}
	}

	return entity.URLRecord{
		LongURL:   r.LongURL,
		ShortCode: r.ShortCode,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		Clicks:    r.Clicks,
		ClickData: clicks,
	}
}

func toRecordJSON(r entity.URLRecord) recordJSON {
	clicks := make([]clickJSON, len(r.ClickData))
	for i, c := range r.ClickData {
		clicks[i] = clickJSON{
			Timestamp: c.Timestamp,
			Source:    c.Source,
			Location:  c.Location,
		}
	}

	return recordJSON{
		LongURL:   r.LongURL,
		ShortCode: r.ShortCode,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		Clicks:    r.Clicks,
		ClickData: clicks,
	}
}

// Encode serialises records as a JSON array with RFC 3339 timestamps.
func Encode(records []entity.URLRecord) ([]byte, error) {
	out := make([]recordJSON, len(records))
	for i, r := range records {
		out[i] = toRecordJSON(r)
	}

	return json.Marshal(out)
}

// Decode parses the output of Encode.
func Decode(data []byte) ([]entity.URLRecord, error) {
	var in []recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	out := make([]entity.URLRecord, len(in))
	for i := range in {
		out[i] = in[i].toEntity()
	}

	return out, nil
}

// Store is the only owner of the record list. ReplaceAll is its single write
// primitive; Update runs a read-modify-write cycle under one lock.
type Store struct {
	slot   Slot
	key    string
	logger *slog.Logger

	mu   sync.Mutex
	view []entity.URLRecord
}

func New(slot Slot, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}

	return &Store{
		slot:   slot,
		key:    key,
		logger: logger,
		view:   []entity.URLRecord{},
	}
}

// LoadAll reads the slot and refreshes the in-memory view. A missing or
// malformed value yields an empty sequence. When the slot cannot be read the
// last records seen by this store are returned.
func (s *Store) LoadAll(ctx context.Context) []entity.URLRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.loadAll(ctx)
	return entity.CloneRecords(records)
}

// ReplaceAll overwrites the slot and the in-memory view with records.
func (s *Store) ReplaceAll(ctx context.Context, records []entity.URLRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replaceAll(ctx, records)
}

// Update loads the current records, passes them to fn and replaces the
// stored sequence with the result. Nothing is written when the slot cannot be
// read or fn fails.
func (s *Store) Update(ctx context.Context, fn func(records []entity.URLRecord) ([]entity.URLRecord, error)) error {
	const op = "adapter.repository.store.Store.Update"

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadAll(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrSlotUnavailable, err)
	}

	next, err := fn(entity.CloneRecords(current))
	if err != nil {
		return err
	}

	return s.replaceAll(ctx, next)
}

// loadAll returns the decoded slot value. A read error other than an empty
// slot leaves the view untouched and is returned along with it.
func (s *Store) loadAll(ctx context.Context) ([]entity.URLRecord, error) {
	const op = "adapter.repository.store.Store.loadAll"

	data, err := s.slot.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, entity.ErrSlotEmpty) {
			s.logger.Debug("slot is empty, starting with no records", slog.String("key", s.key))

			s.view = []entity.URLRecord{}
			return s.view, nil
		}

		s.logger.Warn("failed to read slot, serving last known records",
			slog.Group(op, slog.String("key", s.key), slog.Int("count", len(s.view)), slog.Any("err", err)))

		return s.view, err
	}

	records, err := Decode(data)
	if err != nil {
		s.logger.Warn("malformed slot value, starting with no records",
			slog.Group(op, slog.String("key", s.key), slog.Any("err", err)))

		s.view = []entity.URLRecord{}
		return s.view, nil
	}

	s.view = records
	return s.view, nil
}

func (s *Store) replaceAll(ctx context.Context, records []entity.URLRecord) error {
	const op = "adapter.repository.store.Store.replaceAll"

	data, err := Encode(records)
	if err != nil {
		return fmt.Errorf("%s: failed to encode records: %w", op, err)
	}

	if err := s.slot.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%s: failed to write slot: %w", op, err)
	}

	s.view = entity.CloneRecords(records)
	s.logger.Debug("records replaced", slog.String("key", s.key), slog.Int("count", len(records)))

	return nil
}
