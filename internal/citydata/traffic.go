package citydata

import (
	"github.com/cityassist/cityassist/go-web/internal/models"
)

// moderateCongestion is reported while no live traffic feed is connected.
const moderateCongestion = 0.5

// Traffic holds the known incidents.
type Traffic struct {
	incidents []models.TrafficIncident
}

// NewTraffic seeds incidents around the default city centre.
func NewTraffic(incidents ...models.TrafficIncident) *Traffic {
	if len(incidents) == 0 {
		incidents = []models.TrafficIncident{
			{ID: "inc-1", Description: "Lane closure for road works", Location: models.Location{Lat: 40.7150, Lng: -74.0020}, Severity: models.SeverityMedium},
			{ID: "inc-2", Description: "Minor collision cleared to shoulder", Location: models.Location{Lat: 40.7100, Lng: -74.0100}, Severity: models.SeverityLow},
			{ID: "inc-3", Description: "Water main repair, two lanes closed", Location: models.Location{Lat: 40.7306, Lng: -73.9866}, Severity: models.SeverityHigh},
		}
	}
	return &Traffic{incidents: incidents}
}

// In returns congestion and the incidents inside b.
func (t *Traffic) In(b models.Bounds) *models.TrafficInfo {
	info := &models.TrafficInfo{Congestion: moderateCongestion, Incidents: []models.TrafficIncident{}}
	for _, inc := range t.incidents {
		if b.Contains(inc.Location) {
			info.Incidents = append(info.Incidents, inc)
		}
	}
	return info
}
