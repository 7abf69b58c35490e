package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/internal/reports"
)

// MemoryRepo is an in-memory repository for local runs and unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*models.Report
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*models.Report)}
}

func copyReport(r *models.Report) *models.Report {
	c := *r
	c.Timeline = append([]models.TimelineEvent(nil), r.Timeline...)
	return &c
}

func (m *MemoryRepo) Create(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[r.ID] = copyReport(r)
	return nil
}

// Get finds a report by id or ticket id.
func (m *MemoryRepo) Get(_ context.Context, ref string) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.store[ref]; ok {
		return copyReport(r), nil
	}
	for _, r := range m.store {
		if r.TicketID == ref {
			return copyReport(r), nil
		}
	}
	return nil, reports.ErrNotFound
}

func (m *MemoryRepo) ListByUser(_ context.Context, userID string, f reports.Filter) ([]models.Report, error) {
	m.mu.RLock()
	out := make([]models.Report, 0)
	for _, r := range m.store {
		if r.UserID != userID || (f.Status != "" && r.Status != f.Status) {
			continue
		}
		out = append(out, *copyReport(r))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	skip := f.Skip()
	if skip >= len(out) {
		return []models.Report{}, nil
	}
	out = out[skip:]
	if len(out) > f.Size {
		out = out[:f.Size]
	}
	return out, nil
}

func (m *MemoryRepo) AppendEvent(_ context.Context, id, status string, ev models.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return reports.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = ev.Timestamp
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	r.Timeline = append(r.Timeline, ev)
	return nil
}
