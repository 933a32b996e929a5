package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"arida/internal/appeal/models"
	"arida/pkg/platform/sentinel"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// PostgresStore persists appeals and messages in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Appeal) error {
	a.Version = 1
	query := `
		INSERT INTO appeals (id, petition_id, creator_id, creator_name, creator_email,
			status, resolution_note, access_token_hash, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.PetitionID, a.CreatorID, a.CreatorName, a.CreatorEmail,
		a.Status, a.ResolutionNote, a.AccessTokenHash, a.CreatedAt, a.UpdatedAt, a.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return sentinel.ErrConflict
			case foreignKeyViolation:
				return sentinel.ErrNotFound
			}
		}
		return fmt.Errorf("create appeal: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	query := appealColumns + ` FROM appeals WHERE id = $1`
	a, err := scanAppeal(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get appeal: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) GetByPetition(ctx context.Context, petitionID uuid.UUID) (*models.Appeal, error) {
	query := appealColumns + ` FROM appeals WHERE petition_id = $1 ORDER BY created_at DESC LIMIT 1`
	a, err := scanAppeal(s.db.QueryRowContext(ctx, query, petitionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get appeal by petition: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.Appeal) error {
	query := `
		UPDATE appeals SET
			status = $1, resolution_note = $2, updated_at = $3, version = version + 1
		WHERE id = $4 AND version = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		a.Status, a.ResolutionNote, a.UpdatedAt, a.ID, a.Version,
	)
	if err != nil {
		return fmt.Errorf("update appeal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appeal rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	a.Version++
	return nil
}

func (s *PostgresStore) AddMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO appeal_messages (id, appeal_id, sender_role, sender_name, content, is_internal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.AppealID, m.SenderRole, m.SenderName, m.Content, m.IsInternal, m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("add appeal message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, appealID uuid.UUID, includeInternal bool) ([]*models.Message, error) {
	query := `
		SELECT id, appeal_id, sender_role, sender_name, content, is_internal, created_at
		FROM appeal_messages
		WHERE appeal_id = $1
	`
	if !includeInternal {
		query += ` AND is_internal = FALSE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, appealID)
	if err != nil {
		return nil, fmt.Errorf("list appeal messages: %w", err)
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID, &m.AppealID, &m.SenderRole, &m.SenderName,
			&m.Content, &m.IsInternal, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan appeal message: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appeal messages: %w", err)
	}
	return out, nil
}

const appealColumns = `
	SELECT id, petition_id, creator_id, creator_name, creator_email,
		status, resolution_note, access_token_hash, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppeal(row rowScanner) (*models.Appeal, error) {
	var a models.Appeal
	if err := row.Scan(
		&a.ID, &a.PetitionID, &a.CreatorID, &a.CreatorName, &a.CreatorEmail,
		&a.Status, &a.ResolutionNote, &a.AccessTokenHash, &a.CreatedAt, &a.UpdatedAt, &a.Version,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
