package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/gpl/internal/ir"
)

// EventRecord is a committed event with its log position.
type EventRecord struct {
	Seq   int64        `json:"seq"`
	OpID  string       `json:"op_id"`
	Kind  ir.EventKind `json:"kind"`
	Event ir.Event     `json:"event"`
}

// EventFilter narrows ListEvents. Zero values mean no restriction.
type EventFilter struct {
	Profile  *ir.Address
	AfterSeq int64
	Limit    int
}

// ListEvents returns events in log order (seq ascending).
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListEvents(ctx context.Context, filter EventFilter) ([]EventRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Profile != nil {
		where = append(where, "profile = ?")
		args = append(args, filter.Profile.String())
	}
	if filter.AfterSeq > 0 {
		where = append(where, "seq > ?")
		args = append(args, filter.AfterSeq)
	}

	query := "SELECT seq, op_id, kind, payload FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		var (
			rec     EventRecord
			kind    string
			payload string
		)
		if err := rows.Scan(&rec.Seq, &rec.OpID, &kind, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Kind = ir.EventKind(kind)
		rec.Event, err = ir.UnmarshalEvent(rec.Kind, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", rec.Seq, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}
