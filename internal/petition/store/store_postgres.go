package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"arida/internal/petition/models"
	"arida/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists petitions in PostgreSQL. Pure I/O; lifecycle
// rules live in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Petition) error {
	history, err := json.Marshal(p.ResubmissionHistory)
	if err != nil {
		return fmt.Errorf("marshal resubmission history: %w", err)
	}

	p.Version = 1
	query := `
		INSERT INTO petitions (id, creator_id, title, description, category,
			target_signatures, signature_count, media_refs, status,
			moderation_notes, moderator_id, payment_status,
			flagged_profanity, flagged_spam,
			resubmission_count, resubmission_history,
			approved_at, paused_at, archived_at,
			created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.CreatorID, p.Title, p.Description, p.Category,
		p.TargetSignatures, p.SignatureCount, pq.Array(p.MediaRefs), p.Status,
		p.ModerationNotes, p.ModeratorID, p.PaymentStatus,
		p.FlaggedProfanity, p.FlaggedSpam,
		p.ResubmissionCount, history,
		p.ApprovedAt, p.PausedAt, p.ArchivedAt,
		p.CreatedAt, p.UpdatedAt, p.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create petition: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.Petition, error) {
	query := selectColumns + ` FROM petitions WHERE id = $1`
	p, err := scanPetition(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get petition: %w", err)
	}
	return p, nil
}

// Update writes p guarded by its Version and bumps the version on success.
// A zero-row update means either the row vanished or the version is stale;
// both surface as sentinel.ErrConflict for the caller to retry on.
func (s *PostgresStore) Update(ctx context.Context, p *models.Petition) error {
	history, err := json.Marshal(p.ResubmissionHistory)
	if err != nil {
		return fmt.Errorf("marshal resubmission history: %w", err)
	}

	query := `
		UPDATE petitions SET
			title = $1, description = $2, category = $3,
			target_signatures = $4, signature_count = $5, media_refs = $6,
			status = $7, moderation_notes = $8, moderator_id = $9,
			payment_status = $10, flagged_profanity = $11, flagged_spam = $12,
			resubmission_count = $13, resubmission_history = $14,
			approved_at = $15, paused_at = $16, archived_at = $17,
			updated_at = $18, version = version + 1
		WHERE id = $19 AND version = $20
	`
	res, err := s.db.ExecContext(ctx, query,
		p.Title, p.Description, p.Category,
		p.TargetSignatures, p.SignatureCount, pq.Array(p.MediaRefs),
		p.Status, p.ModerationNotes, p.ModeratorID,
		p.PaymentStatus, p.FlaggedProfanity, p.FlaggedSpam,
		p.ResubmissionCount, history,
		p.ApprovedAt, p.PausedAt, p.ArchivedAt,
		p.UpdatedAt,
		p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update petition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update petition rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	p.Version++
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Petition, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CreatorID != "" {
		args = append(args, filter.CreatorID)
		conds = append(conds, fmt.Sprintf("creator_id = $%d", len(args)))
	}

	query := selectColumns + ` FROM petitions`
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list petitions: %w", err)
	}
	defer rows.Close()

	var out []*models.Petition
	for rows.Next() {
		p, err := scanPetition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan petition: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate petitions: %w", err)
	}
	return out, nil
}

const selectColumns = `
	SELECT id, creator_id, title, description, category,
		target_signatures, signature_count, media_refs, status,
		moderation_notes, moderator_id, payment_status,
		flagged_profanity, flagged_spam,
		resubmission_count, resubmission_history,
		approved_at, paused_at, archived_at,
		created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPetition(row rowScanner) (*models.Petition, error) {
	var (
		p       models.Petition
		history []byte
	)
	if err := row.Scan(
		&p.ID, &p.CreatorID, &p.Title, &p.Description, &p.Category,
		&p.TargetSignatures, &p.SignatureCount, pq.Array(&p.MediaRefs), &p.Status,
		&p.ModerationNotes, &p.ModeratorID, &p.PaymentStatus,
		&p.FlaggedProfanity, &p.FlaggedSpam,
		&p.ResubmissionCount, &history,
		&p.ApprovedAt, &p.PausedAt, &p.ArchivedAt,
		&p.CreatedAt, &p.UpdatedAt, &p.Version,
	); err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.ResubmissionHistory); err != nil {
			return nil, fmt.Errorf("unmarshal resubmission history: %w", err)
		}
	}
	return &p, nil
}
