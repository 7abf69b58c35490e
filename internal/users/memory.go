package users

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
)

// MemoryUserRepository keeps users in process for local runs and tests.
type MemoryUserRepository struct {
	mu   sync.RWMutex
	byID map[string]Record
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byID: map[string]Record{}}
}

func (m *MemoryUserRepository) Create(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == r.Email {
			return ErrDuplicateEmail
		}
	}
	m.byID[r.ID] = clone(*r)
	return nil
}

func (m *MemoryUserRepository) find(match func(*Record) bool) *Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.byID {
		if match(&r) {
			c := clone(r)
			return &c
		}
	}
	return nil
}

func (m *MemoryUserRepository) GetByID(_ context.Context, id string) (*Record, error) {
	return m.find(func(r *Record) bool { return r.ID == id }), nil
}

func (m *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*Record, error) {
	return m.find(func(r *Record) bool { return r.Email == email }), nil
}

func (m *MemoryUserRepository) GetBySubject(_ context.Context, sub string) (*Record, error) {
	return m.find(func(r *Record) bool { return r.Subject != "" && r.Subject == sub }), nil
}

func (m *MemoryUserRepository) Update(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	m.byID[r.ID] = clone(*r)
	return nil
}

// clone copies the slices and maps so callers cannot mutate stored state.
func clone(r Record) Record {
	r.MedicalFlags = append([]string(nil), r.MedicalFlags...)
	r.CommutePatterns = append([]string(nil), r.CommutePatterns...)
	if r.Age != nil {
		age := *r.Age
		r.Age = &age
	}
	r.Preferences = models.Preferences{
		NotificationPreferences: maps.Clone(r.Preferences.NotificationPreferences),
		AlertPreferences:        maps.Clone(r.Preferences.AlertPreferences),
	}
	return r
}
