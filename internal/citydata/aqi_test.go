package citydata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

var centre = models.Location{Lat: 40.7128, Lng: -74.0060}

func TestReading_Bands(t *testing.T) {
	cases := []struct {
		aqi      int
		severity string
		rec      string
	}{
		{30, models.SeverityLow, "Good air quality. Safe for outdoor activities."},
		{50, models.SeverityLow, "Good air quality. Safe for outdoor activities."},
		{75, models.SeverityMedium, "Moderate air quality. Sensitive individuals should take precautions."},
		{101, models.SeverityHigh, "Avoid outdoor activities. Wear N95 mask if going outside."},
	}
	for _, tc := range cases {
		r := Reading(tc.aqi, centre, nil)
		assert.Equal(t, tc.severity, r.Severity, "aqi %d", tc.aqi)
		assert.Equal(t, tc.rec, r.Recommendation)
		assert.Equal(t, fmt.Sprintf("Current AQI is %d. %s", tc.aqi, tc.rec), r.Explanation)
	}
}

func TestReading_ProfileSuffixes(t *testing.T) {
	p := &models.HealthProfile{Age: intp(70), MedicalFlags: []string{"Asthma"}}
	r := Reading(75, centre, p)
	assert.Equal(t, "Moderate air quality. Sensitive individuals should take precautions."+
		" (Elderly: Consider extra caution)"+
		" (Asthma: Use mask if air quality is moderate or worse)", r.Recommendation)
}

func TestAlertLevel(t *testing.T) {
	assert.Equal(t, models.SeverityHigh, AlertLevel(&models.HealthProfile{Age: intp(65), MedicalFlags: []string{"Asthma"}}))
	assert.Equal(t, models.SeverityMedium, AlertLevel(&models.HealthProfile{Age: intp(30), MedicalFlags: []string{"Asthma"}}))
	assert.Equal(t, models.SeverityLow, AlertLevel(&models.HealthProfile{}))
	assert.Equal(t, models.SeverityLow, AlertLevel(nil))
	assert.Equal(t, 50, AQIThreshold(models.SeverityHigh))
	assert.Equal(t, 100, AQIThreshold(models.SeverityMedium))
}

func TestHealthAlerts(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	none := HealthAlerts(75, centre, models.HealthProfile{}, now)
	assert.Empty(t, none)

	elderly := HealthAlerts(60, centre, models.HealthProfile{Age: intp(72)}, now)
	require.Len(t, elderly, 1)
	assert.Equal(t, models.AlertHealth, elderly[0].Type)
	assert.Equal(t, models.SeverityHigh, elderly[0].Severity)
	assert.Equal(t, now, elderly[0].Timestamp)

	asthmaCyclist := HealthAlerts(75, centre, models.HealthProfile{MedicalFlags: []string{"Asthma"}, CommutePatterns: []string{"Cyclist"}}, now)
	require.Len(t, asthmaCyclist, 2)
	assert.Contains(t, asthmaCyclist[0].Message, "(Asthma:")
	assert.Equal(t, "Outdoor commute", asthmaCyclist[1].Title)

	everyone := HealthAlerts(150, centre, models.HealthProfile{}, now)
	require.Len(t, everyone, 1)
	assert.Equal(t, models.SeverityHigh, everyone[0].Severity)
}

func TestFixedAQI(t *testing.T) {
	v, err := DefaultAQI.AQI(context.Background(), centre)
	require.NoError(t, err)
	assert.Equal(t, 75, v)
}
