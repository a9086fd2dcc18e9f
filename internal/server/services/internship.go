package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/dmitrijs2005/interntrack/internal/dbx"
	"github.com/dmitrijs2005/interntrack/internal/logging"
	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/models"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// InternshipInput is a create or patch request. Nil fields are left
// untouched on update; an empty string clears an optional date.
type InternshipInput struct {
	CompanyName  *string `json:"companyName"`
	Role         *string `json:"role"`
	Platform     *string `json:"platform"`
	AppliedDate  *string `json:"appliedDate"`
	StartDate    *string `json:"startDate"`
	NextStepDate *string `json:"nextStepDate"`
	Status       *string `json:"status"`
	Notes        *string `json:"notes"`
}

type InternshipService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewInternshipService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *InternshipService {
	return &InternshipService{db: db, repomanager: m, logger: logger.With("module", "internships")}
}

func (s *InternshipService) Create(ctx context.Context, userID string, in InternshipInput) (*models.Internship, error) {
	if blank(in.CompanyName) || blank(in.Role) || blank(in.Platform) || blank(in.AppliedDate) {
		return nil, common.NewValidationError("", "please provide all required fields")
	}

	it := &models.Internship{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: models.StatusApplied,
	}
	if err := applyInput(it, in); err != nil {
		return nil, err
	}

	if err := s.repomanager.Internships(s.db).Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// List returns the caller's internships, newest first.
func (s *InternshipService) List(ctx context.Context, userID string) ([]*models.Internship, error) {
	return s.repomanager.Internships(s.db).ListByUser(ctx, userID)
}

func (s *InternshipService) Get(ctx context.Context, userID, id string) (*models.Internship, error) {
	it, err := s.lookup(ctx, s.db, id, false)
	if err != nil {
		return nil, err
	}
	if err := auth.AssertOwner(it, userID); err != nil {
		s.logDenied(ctx, err, userID, id)
		return nil, err
	}
	return it, nil
}

// Update applies a partial patch. The row is locked for the duration of
// the check and write so the owner cannot change underneath it.
func (s *InternshipService) Update(ctx context.Context, userID, id string, in InternshipInput) (*models.Internship, error) {
	var out *models.Internship

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		it, err := s.lookup(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := auth.AssertOwner(it, userID); err != nil {
			s.logDenied(ctx, err, userID, id)
			return err
		}

		if err := applyInput(it, in); err != nil {
			return err
		}
		if err := s.repomanager.Internships(tx).Update(ctx, it); err != nil {
			return err
		}
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InternshipService) Delete(ctx context.Context, userID, id string) error {
	it, err := s.lookup(ctx, s.db, id, false)
	if err != nil {
		return err
	}
	if err := auth.AssertOwner(it, userID); err != nil {
		s.logDenied(ctx, err, userID, id)
		return err
	}
	return s.repomanager.Internships(s.db).Delete(ctx, id, userID)
}

func (s *InternshipService) Stats(ctx context.Context, userID string) (*models.InternshipStats, error) {
	counts, err := s.repomanager.Internships(s.db).CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := &models.InternshipStats{}
	for status, n := range counts {
		st.Add(status, n)
	}
	return st, nil
}

// lookup returns nil (and no error) when the id is malformed or absent so
// that AssertOwner reports not found.
func (s *InternshipService) lookup(ctx context.Context, db dbx.DBTX, id string, lock bool) (*models.Internship, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}

	repo := s.repomanager.Internships(db)
	get := repo.GetByID
	if lock {
		get = repo.LockByID
	}

	it, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return it, nil
}

func (s *InternshipService) logDenied(ctx context.Context, err error, userID, id string) {
	if errors.Is(err, common.ErrForbidden) {
		s.logger.Warn(ctx, "ownership check failed", "user_id", userID, "internship_id", id)
	}
}

func applyInput(it *models.Internship, in InternshipInput) error {
	if in.CompanyName != nil {
		v := strings.TrimSpace(*in.CompanyName)
		if v == "" {
			return common.NewValidationError("companyName", "company name is required")
		}
		it.CompanyName = v
	}
	if in.Role != nil {
		v := strings.TrimSpace(*in.Role)
		if v == "" {
			return common.NewValidationError("role", "role is required")
		}
		it.Role = v
	}
	if in.Platform != nil {
		p := models.Platform(strings.TrimSpace(*in.Platform))
		if !p.Valid() {
			return common.NewValidationError("platform", fmt.Sprintf("%q is not a valid platform", *in.Platform))
		}
		it.Platform = p
	}
	if in.Status != nil {
		st := models.Status(strings.TrimSpace(*in.Status))
		if st == "" {
			st = models.StatusApplied
		}
		if !st.Valid() {
			return common.NewValidationError("status", fmt.Sprintf("%q is not a valid status", *in.Status))
		}
		it.Status = st
	}
	if in.Notes != nil {
		it.Notes = strings.TrimSpace(*in.Notes)
	}

	if in.AppliedDate != nil {
		d, err := parseDate("appliedDate", *in.AppliedDate)
		if err != nil {
			return err
		}
		if d == nil {
			return common.NewValidationError("appliedDate", "applied date is required")
		}
		it.AppliedDate = *d
	}
	if in.StartDate != nil {
		d, err := parseDate("startDate", *in.StartDate)
		if err != nil {
			return err
		}
		it.StartDate = d
	}
	if in.NextStepDate != nil {
		d, err := parseDate("nextStepDate", *in.NextStepDate)
		if err != nil {
			return err
		}
		it.NextStepDate = d
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339; blank means no date.
func parseDate(field, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, common.NewValidationError(field, "expected YYYY-MM-DD or RFC 3339 date")
	}
	t = t.UTC()
	return &t, nil
}

func blank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}
