package citydata

import (
	"math"
	"sort"

	"github.com/cityassist/cityassist/go-web/internal/models"
)

const earthRadiusKM = 6371.0

// Haversine returns the great-circle distance in km.
func Haversine(a, b models.Location) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}

// Directory lists public services.
type Directory struct {
	services []models.Service
}

func NewDirectory(services ...models.Service) *Directory {
	if len(services) == 0 {
		services = defaultServices
	}
	return &Directory{services: services}
}

// Local returns services of category ("" or "all" for every category)
// ordered by distance from loc. Without loc the directory order is kept.
func (d *Directory) Local(loc *models.Location, category string) []models.Service {
	out := []models.Service{}
	for _, s := range d.services {
		if category != "" && category != "all" && s.Category != category {
			continue
		}
		if loc != nil {
			s.Distance = round2(Haversine(*loc, s.Location))
		}
		out = append(out, s)
	}
	if loc != nil {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	}
	return out
}

var defaultServices = []models.Service{
	{ID: "svc-hosp-1", Name: "NewYork-Presbyterian Lower Manhattan Hospital", Category: "hospital", Address: "170 William St", Phone: "212-312-5000", Location: models.Location{Lat: 40.7099, Lng: -74.0051}},
	{ID: "svc-hosp-2", Name: "Bellevue Hospital", Category: "hospital", Address: "462 1st Ave", Phone: "212-562-5555", Location: models.Location{Lat: 40.7390, Lng: -73.9754}},
	{ID: "svc-pharm-1", Name: "Chambers Street Pharmacy", Category: "pharmacy", Address: "101 Chambers St", Phone: "212-555-0143", Location: models.Location{Lat: 40.7146, Lng: -74.0071}},
	{ID: "svc-police-1", Name: "1st Precinct", Category: "police", Address: "16 Ericsson Pl", Phone: "212-334-0611", Location: models.Location{Lat: 40.7203, Lng: -74.0079}},
	{ID: "svc-fire-1", Name: "Engine 7 / Ladder 1", Category: "fire", Address: "100 Duane St", Phone: "212-570-4200", Location: models.Location{Lat: 40.7155, Lng: -74.0058}},
	{ID: "svc-comm-1", Name: "Chinatown Community Center", Category: "community", Address: "42 Mulberry St", Location: models.Location{Lat: 40.7146, Lng: -73.9990}},
	{ID: "svc-util-1", Name: "City Water Board Service Office", Category: "utility", Address: "59-17 Junction Blvd", Phone: "311", Location: models.Location{Lat: 40.7357, Lng: -73.8621}},
	{ID: "svc-util-2", Name: "Electric Utility Customer Center", Category: "utility", Address: "4 Irving Pl", Phone: "800-752-6633", Location: models.Location{Lat: 40.7339, Lng: -73.9881}},
}
