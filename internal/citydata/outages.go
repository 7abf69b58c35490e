package citydata

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/google/uuid"
)

// Utilities accepted for outages and subscriptions.
var Utilities = []string{"water", "electricity", "gas"}

// ETAHours predicts time to restore: water 3h, power 6h, anything else 4h,
// half as long again in severe weather.
func ETAHours(utility string, severeWeather bool) float64 {
	hours := 4.0
	switch strings.ToLower(utility) {
	case "water":
		hours = 3
	case "power", "electricity":
		hours = 6
	}
	if severeWeather {
		hours *= 1.5
	}
	return hours
}

type outage struct {
	id      string
	utility string
	zone    string
	started time.Time
	severe  bool
}

func (o outage) restore() time.Time {
	return o.started.Add(time.Duration(ETAHours(o.utility, o.severe) * float64(time.Hour)))
}

// OutageBoard tracks reported utility outages.
type OutageBoard struct {
	mu      sync.RWMutex
	outages []outage
	now     func() time.Time
}

func NewOutageBoard(now func() time.Time) *OutageBoard {
	if now == nil {
		now = time.Now
	}
	return &OutageBoard{now: now}
}

// Report opens an outage starting at started.
func (b *OutageBoard) Report(utility, zone string, started time.Time, severeWeather bool) models.Outage {
	o := outage{id: uuid.NewString(), utility: strings.ToLower(utility), zone: zone, started: started, severe: severeWeather}
	b.mu.Lock()
	b.outages = append(b.outages, o)
	b.mu.Unlock()
	return view(o)
}

func view(o outage) models.Outage {
	restore := o.restore()
	return models.Outage{
		ID:               o.id,
		Utility:          o.utility,
		Zone:             o.zone,
		Message:          fmt.Sprintf("Estimated restoration time: %g hours based on historical patterns and current conditions.", ETAHours(o.utility, o.severe)),
		EstimatedRestore: restore.UTC(),
	}
}

// Active returns outages not yet past their estimated restore time.
func (b *OutageBoard) Active() []models.Outage {
	now := b.now()
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []models.Outage{}
	for _, o := range b.outages {
		if now.Before(o.restore()) {
			out = append(out, view(o))
		}
	}
	return out
}

// SeedOutages opens the sample outages shown by the dev API.
func SeedOutages(b *OutageBoard) {
	now := b.now()
	b.Report("water", "Zone A - Lower Manhattan", now.Add(-1*time.Hour), false)
	b.Report("electricity", "Zone C - Midtown East", now.Add(-2*time.Hour), false)
}
