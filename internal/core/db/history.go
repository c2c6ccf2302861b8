package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/ntfyrelay/internal/types"
)

// DefaultHistoryLimit bounds List when the caller passes limit <= 0.
const DefaultHistoryLimit = 50

// Delivery is one processed webhook request. Event payloads are never stored.
type Delivery struct {
	ID         types.DeliveryID `db:"delivery_id" json:"id"`
	Topic      string           `db:"topic" json:"topic"`
	Action     string           `db:"action" json:"action"`
	Reason     string           `db:"reason" json:"reason,omitempty"`
	StatusCode int              `db:"status_code" json:"status_code,omitempty"`
	DurationMs int64            `db:"duration_ms" json:"duration_ms"`
	CreatedAt  string           `db:"created_at" json:"created_at"`
}

// HistoryStore records deliveries through the named queries.
type HistoryStore struct {
	queries *Queries
}

// NewHistoryStore loads the history queries for db. Migrations must already
// be applied.
func NewHistoryStore(db *sqlx.DB) (*HistoryStore, error) {
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &HistoryStore{queries: queries}, nil
}

// Record inserts d. A missing ID or timestamp is filled in.
func (s *HistoryStore) Record(ctx context.Context, d Delivery) error {
	if d.ID == "" {
		d.ID = types.NewDeliveryID()
	}
	if d.CreatedAt == "" {
		d.CreatedAt = createdAt(d.ID)
	}

	_, err := s.queries.Exec(ctx, "insert-delivery",
		string(d.ID), d.Topic, d.Action, d.Reason, d.StatusCode, d.DurationMs, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record delivery %s: %w", d.ID, err)
	}
	return nil
}

// Get returns one delivery, or ok=false when id is unknown.
func (s *HistoryStore) Get(ctx context.Context, id types.DeliveryID) (Delivery, bool, error) {
	var d Delivery
	err := s.queries.Get(ctx, "get-delivery", &d, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return Delivery{}, false, nil
	}
	if err != nil {
		return Delivery{}, false, fmt.Errorf("failed to get delivery %s: %w", id, err)
	}
	return d, true, nil
}

// List returns the most recent deliveries, newest first, optionally for a
// single topic.
func (s *HistoryStore) List(ctx context.Context, topic string, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var (
		deliveries []Delivery
		err        error
	)
	if topic == "" {
		err = s.queries.Select(ctx, "list-deliveries", &deliveries, limit)
	} else {
		err = s.queries.Select(ctx, "list-deliveries-by-topic", &deliveries, topic, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}

// createdAt derives the timestamp from the UUIDv7 so it agrees with ordering.
func createdAt(id types.DeliveryID) string {
	t := types.DeliveryIDTime(id)
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}
