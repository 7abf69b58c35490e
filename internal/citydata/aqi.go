// Package citydata serves the city information behind the dev API: air
// quality and health advice, routing and traffic, local services, utility
// outages and per-user notifications.
package citydata

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/google/uuid"
)

// AQISource reports the air quality index at a location.
type AQISource interface {
	AQI(ctx context.Context, loc models.Location) (int, error)
}

// FixedAQI reports the same index everywhere; the default until a sensor feed is wired.
type FixedAQI int

// DefaultAQI is a moderate reading.
const DefaultAQI FixedAQI = 75

func (f FixedAQI) AQI(context.Context, models.Location) (int, error) { return int(f), nil }

const (
	conditionAsthma = "Asthma"
	elderlyAge      = 65
)

func isElderly(p *models.HealthProfile) bool {
	return p != nil && p.Age != nil && *p.Age >= elderlyAge
}

func hasCondition(p *models.HealthProfile, c string) bool {
	return p != nil && slices.Contains(p.MedicalFlags, c)
}

// Reading turns an index into severity and advice, personalised when p is set.
func Reading(aqi int, loc models.Location, p *models.HealthProfile) models.AQIReading {
	var severity, rec string
	switch {
	case aqi > 100:
		severity = models.SeverityHigh
		rec = "Avoid outdoor activities. Wear N95 mask if going outside."
	case aqi > 50:
		severity = models.SeverityMedium
		rec = "Moderate air quality. Sensitive individuals should take precautions."
	default:
		severity = models.SeverityLow
		rec = "Good air quality. Safe for outdoor activities."
	}
	if isElderly(p) {
		rec += " (Elderly: Consider extra caution)"
	}
	if hasCondition(p, conditionAsthma) {
		rec += " (Asthma: Use mask if air quality is moderate or worse)"
	}
	return models.AQIReading{
		AQI:            aqi,
		Severity:       severity,
		Recommendation: rec,
		Explanation:    fmt.Sprintf("Current AQI is %d. %s", aqi, rec),
		Location:       loc,
	}
}

// AlertLevel grades how sensitive a profile is: high for 65 and over,
// medium with asthma, low otherwise.
func AlertLevel(p *models.HealthProfile) string {
	switch {
	case isElderly(p):
		return models.SeverityHigh
	case hasCondition(p, conditionAsthma):
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// AQIThreshold is the index above which a profile is alerted.
func AQIThreshold(level string) int {
	if level == models.SeverityHigh {
		return 50
	}
	return 100
}

var severityRank = map[string]int{models.SeverityLow: 0, models.SeverityMedium: 1, models.SeverityHigh: 2}

func maxSeverity(a, b string) string {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// HealthAlerts builds the personalised advice for p given the current index.
// Profiles with no sensitivity below their threshold get no alerts.
func HealthAlerts(aqi int, loc models.Location, p models.HealthProfile, now time.Time) []models.Alert {
	level := AlertLevel(&p)
	reading := Reading(aqi, loc, &p)
	alerts := []models.Alert{}

	sensitive := level != models.SeverityLow || hasCondition(&p, "Respiratory Issues") || hasCondition(&p, "Heart Disease")
	if aqi > AQIThreshold(level) || (sensitive && aqi > 50) {
		alerts = append(alerts, models.Alert{
			ID:          uuid.NewString(),
			Type:        models.AlertHealth,
			Title:       "Air quality health advisory",
			Message:     reading.Recommendation,
			Severity:    maxSeverity(reading.Severity, level),
			Timestamp:   now,
			ActionURL:   "/map",
			ActionLabel: "Plan a route",
		})
	}

	outdoor := slices.Contains(p.CommutePatterns, "Cyclist") || slices.Contains(p.CommutePatterns, "Pedestrian")
	if outdoor && aqi > 50 {
		alerts = append(alerts, models.Alert{
			ID:        uuid.NewString(),
			Type:      models.AlertHealth,
			Title:     "Outdoor commute",
			Message:   fmt.Sprintf("AQI is %d along outdoor routes. Consider public transit today.", aqi),
			Severity:  reading.Severity,
			Timestamp: now,
		})
	}
	return alerts
}
