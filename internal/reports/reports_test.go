package reports

import (
	"testing"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicketID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := NewTicketID()
		require.True(t, IsTicketID(id), id)
		require.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestIsTicketID(t *testing.T) {
	assert.True(t, IsTicketID("TKT-0A1B2C3D4"))
	assert.False(t, IsTicketID("TKT-0a1b2c3d4"))
	assert.False(t, IsTicketID("TKT-123"))
	assert.False(t, IsTicketID("0A1B2C3D4"))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.ReportPending, models.ReportInProgress))
	assert.True(t, CanTransition(models.ReportInProgress, models.ReportResolved))
	assert.False(t, CanTransition(models.ReportResolved, models.ReportPending))
	assert.False(t, CanTransition(models.ReportClosed, models.ReportResolved))
	assert.False(t, CanTransition(models.ReportPending, models.ReportPending))
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.Size)
	assert.Equal(t, 0, f.Skip())

	f = Filter{Page: 3, Size: 500}.Normalize()
	assert.Equal(t, MaxPageSize, f.Size)
	assert.Equal(t, 200, f.Skip())
}
