// Package memory provides map-backed repositories that satisfy the same
// interfaces as the PostgreSQL ones. Transactions are not modelled: every
// DBTX handed to the manager sees the same data.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/dmitrijs2005/interntrack/internal/dbx"
	"github.com/dmitrijs2005/interntrack/internal/server/models"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/internships"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/users"
)

type Manager struct {
	mu          sync.Mutex
	users       map[string]*models.User
	internships map[string]*models.Internship
	seq         int64
	now         func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		users:       map[string]*models.User{},
		internships: map[string]*models.Internship{},
		now:         time.Now,
	}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository { return (*userRepo)(m) }

func (m *Manager) Internships(dbx.DBTX) internships.Repository { return (*internshipRepo)(m) }

// tick returns a strictly increasing timestamp so ordering by creation time
// is deterministic.
func (m *Manager) tick() time.Time {
	m.seq++
	return m.now().Add(time.Duration(m.seq) * time.Microsecond)
}

type userRepo Manager

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	u.CreatedAt = m.tick()
	cp := *u
	m.users[u.ID] = &cp
	return u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// DeleteUser removes a user and, like the foreign key cascade, their
// internships.
func (m *Manager) DeleteUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	for k, it := range m.internships {
		if it.UserID == id {
			delete(m.internships, k)
		}
	}
}

type internshipRepo Manager

func (r *internshipRepo) Create(_ context.Context, it *models.Internship) error {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[it.UserID]; !ok {
		return common.ErrUserNotFound
	}
	it.CreatedAt = m.tick()
	it.UpdatedAt = it.CreatedAt
	cp := *it
	m.internships[it.ID] = &cp
	return nil
}

func (r *internshipRepo) ListByUser(_ context.Context, userID string) ([]*models.Internship, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*models.Internship{}
	for _, it := range m.internships {
		if it.UserID == userID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *internshipRepo) GetByID(_ context.Context, id string) (*models.Internship, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.internships[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *internshipRepo) LockByID(ctx context.Context, id string) (*models.Internship, error) {
	return r.GetByID(ctx, id)
}

func (r *internshipRepo) Update(_ context.Context, it *models.Internship) error {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.internships[it.ID]
	if !ok || cur.UserID != it.UserID {
		return common.ErrorNotFound
	}
	it.UpdatedAt = m.tick()
	cp := *it
	m.internships[it.ID] = &cp
	return nil
}

func (r *internshipRepo) Delete(_ context.Context, id, userID string) error {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.internships[id]
	if !ok || cur.UserID != userID {
		return common.ErrorNotFound
	}
	delete(m.internships, id)
	return nil
}

func (r *internshipRepo) CountByStatus(_ context.Context, userID string) (map[models.Status]int, error) {
	m := (*Manager)(r)
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := map[models.Status]int{}
	for _, it := range m.internships {
		if it.UserID == userID {
			counts[it.Status]++
		}
	}
	return counts, nil
}
