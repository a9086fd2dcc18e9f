package internships

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/dmitrijs2005/interntrack/internal/dbx"
	"github.com/dmitrijs2005/interntrack/internal/server/models"
)

const selectColumns = `id, user_id, company_name, role, platform, applied_date, start_date,
		next_step_date, status, notes, created_at, updated_at`

// PostgresRepository implements internship storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts it and fills in the server-assigned timestamps.
func (r *PostgresRepository) Create(ctx context.Context, it *models.Internship) error {
	query := `
		INSERT INTO internships (id, user_id, company_name, role, platform, applied_date,
			start_date, next_step_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		it.ID, it.UserID, it.CompanyName, it.Role, string(it.Platform), it.AppliedDate,
		nullTime(it.StartDate), nullTime(it.NextStepDate), string(it.Status), it.Notes,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByUser returns userID's internships, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Internship, error) {
	query := `SELECT ` + selectColumns + ` FROM internships
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select internships: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Internship, 0)
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the internship with id regardless of owner, or
// common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Internship, error) {
	query := `SELECT ` + selectColumns + ` FROM internships WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// LockByID is GetByID with a row lock; only meaningful inside a transaction.
func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Internship, error) {
	query := `SELECT ` + selectColumns + ` FROM internships WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

// Update overwrites the mutable columns of the row matching both it.ID and
// it.UserID. A row owned by someone else is never touched.
func (r *PostgresRepository) Update(ctx context.Context, it *models.Internship) error {
	query := `
		UPDATE internships SET
			company_name = $3, role = $4, platform = $5, applied_date = $6,
			start_date = $7, next_step_date = $8, status = $9, notes = $10,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		it.ID, it.UserID, it.CompanyName, it.Role, string(it.Platform), it.AppliedDate,
		nullTime(it.StartDate), nullTime(it.NextStepDate), string(it.Status), it.Notes,
	).Scan(&it.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the row matching both id and userID.
func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM internships WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// CountByStatus groups userID's internships by status.
func (r *PostgresRepository) CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error) {
	query := `SELECT status, count(*) FROM internships WHERE user_id = $1 GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count internships: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query, id string) (*models.Internship, error) {
	it, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return it, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Internship, error) {
	var (
		it                  models.Internship
		platform, status    string
		startDate, nextStep sql.NullTime
	)
	err := s.Scan(&it.ID, &it.UserID, &it.CompanyName, &it.Role, &platform, &it.AppliedDate,
		&startDate, &nextStep, &status, &it.Notes, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Platform = models.Platform(platform)
	it.Status = models.Status(status)
	if startDate.Valid {
		it.StartDate = &startDate.Time
	}
	if nextStep.Valid {
		it.NextStepDate = &nextStep.Time
	}
	return &it, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
