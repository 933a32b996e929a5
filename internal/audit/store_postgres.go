package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PostgresStore persists audit entries in PostgreSQL. Pure I/O; the
// publisher owns buffering and timestamps.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_entries (id, ts, action, actor_id, actor_name, actor_role,
			target_type, target_id, target_name, device, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Action,
		entry.ActorID,
		entry.ActorName,
		entry.ActorRole,
		entry.TargetType,
		entry.TargetID,
		entry.TargetName,
		entry.Device,
		details,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		conds []string
		args  []any
	)
	if filter.ActionPrefix != "" {
		args = append(args, filter.ActionPrefix+"%")
		conds = append(conds, "action LIKE $"+strconv.Itoa(len(args)))
	}
	if filter.ActorName != "" {
		args = append(args, filter.ActorName)
		conds = append(conds, "actor_name = $"+strconv.Itoa(len(args)))
	}

	query := `
		SELECT id, ts, action, actor_id, actor_name, actor_role,
			target_type, target_id, target_name, device, details
		FROM audit_entries
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += " ORDER BY ts DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			details []byte
		)
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.Action,
			&e.ActorID, &e.ActorName, &e.ActorRole,
			&e.TargetType, &e.TargetID, &e.TargetName,
			&e.Device, &details,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
