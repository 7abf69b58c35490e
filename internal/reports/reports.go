// Package reports holds citizen issue reports and their status timelines.
package reports

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("report not found")
	ErrInvalidInput      = errors.New("invalid report")
	ErrInvalidTransition = errors.New("invalid status transition")
)

const (
	TicketPrefix   = "TKT-"
	ticketLen      = 9
	MinDescription = 10
)

// NewTicketID returns "TKT-" followed by 9 uppercase base-36 characters
// derived from a random UUID.
func NewTicketID() string {
	id := uuid.New()
	n := binary.BigEndian.Uint64(id[:8])
	s := strings.ToUpper(strconv.FormatUint(n, 36))
	if len(s) < ticketLen {
		s = strings.Repeat("0", ticketLen-len(s)) + s
	}
	return TicketPrefix + s[len(s)-ticketLen:]
}

// IsTicketID reports whether s has the shape NewTicketID produces.
func IsTicketID(s string) bool {
	rest, ok := strings.CutPrefix(s, TicketPrefix)
	if !ok || len(rest) != ticketLen {
		return false
	}
	for _, r := range rest {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

var transitions = map[string][]string{
	models.ReportPending:    {models.ReportInProgress, models.ReportResolved, models.ReportClosed},
	models.ReportInProgress: {models.ReportResolved, models.ReportClosed},
	models.ReportResolved:   {models.ReportClosed},
}

// CanTransition reports whether a report may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Filter narrows a user's report list. Page is 1-based.
type Filter struct {
	Status string
	Page   int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps paging to sane bounds.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	return f
}

func (f Filter) Skip() int { return (f.Page - 1) * f.Size }
