package citydata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	kmPerDegree   = 111
	routeCacheTTL = 5 * time.Minute
	routeExplain  = "Route calculated based on current traffic conditions. Moderate congestion expected."
)

// speedKMH is the average city speed per travel mode.
var speedKMH = map[string]float64{
	"driving": 30,
	"transit": 25,
	"cycling": 15,
	"walking": 5,
}

// ErrUnknownMode is returned for a travel mode outside speedKMH.
var ErrUnknownMode = errors.New("unknown travel mode")

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Router estimates routes and caches them in Redis when a client is set.
type Router struct {
	cache   *redis.Client
	traffic *Traffic
}

func NewRouter(cache *redis.Client, traffic *Traffic) *Router {
	if traffic == nil {
		traffic = NewTraffic()
	}
	return &Router{cache: cache, traffic: traffic}
}

func cacheKey(o, d models.Location, mode string) string {
	k := fmt.Sprintf("route:%g,%g:%g,%g", o.Lat, o.Lng, d.Lat, d.Lng)
	if mode != "driving" {
		k += ":" + mode
	}
	return k
}

func estimate(o, d models.Location, mode string, factor float64) models.Route {
	km := (math.Abs(o.Lat-d.Lat) + math.Abs(o.Lng-d.Lng)) * kmPerDegree * factor
	return models.Route{
		Origin:      o,
		Destination: d,
		Distance:    round2(km),
		Duration:    round2(km / speedKMH[mode] * 60),
	}
}

func boundsAround(o, d models.Location) models.Bounds {
	return models.Bounds{
		North: math.Max(o.Lat, d.Lat),
		South: math.Min(o.Lat, d.Lat),
		East:  math.Max(o.Lng, d.Lng),
		West:  math.Min(o.Lng, d.Lng),
	}
}

// Route returns the primary route with its alternates and traffic along the way.
func (r *Router) Route(ctx context.Context, o, d models.Location, prefs *models.RoutePreferences) (*models.Route, error) {
	mode := "driving"
	avoid := false
	if prefs != nil {
		if prefs.Mode != "" {
			mode = prefs.Mode
		}
		avoid = prefs.AvoidTraffic
	}
	if _, ok := speedKMH[mode]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	key := cacheKey(o, d, mode)
	if avoid {
		key += ":avoid"
	}
	if cached := r.cached(ctx, key); cached != nil {
		return cached, nil
	}

	route := estimate(o, d, mode, 1)
	route.Explanation = routeExplain
	route.TrafficInfo = r.traffic.In(boundsAround(o, d))
	route.AlternateRoutes = alternates(o, d, mode)
	if avoid && len(route.TrafficInfo.Incidents) > 0 {
		best := route.AlternateRoutes[0]
		route.AlternateRoutes[0] = models.Route{Origin: o, Destination: d, Distance: route.Distance, Duration: route.Duration, Explanation: "Most direct route through reported incidents."}
		route.Distance, route.Duration = best.Distance, best.Duration
		route.Explanation = "Route avoids reported incidents. " + best.Explanation
	}

	r.store(ctx, key, &route)
	return &route, nil
}

// Alternates returns the non-primary options between o and d.
func (r *Router) Alternates(_ context.Context, o, d models.Location) []models.Route {
	return alternates(o, d, "driving")
}

func alternates(o, d models.Location, mode string) []models.Route {
	lighter := estimate(o, d, mode, 1.15)
	lighter.Duration = round2(lighter.Duration * 0.9)
	lighter.Explanation = "Longer distance with lighter traffic."
	side := estimate(o, d, mode, 1.3)
	side.Explanation = "Avoids main roads."
	return []models.Route{lighter, side}
}

func (r *Router) cached(ctx context.Context, key string) *models.Route {
	if r.cache == nil {
		return nil
	}
	b, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnf("route cache get %s: %v", key, err)
		}
		return nil
	}
	var route models.Route
	if err := json.Unmarshal(b, &route); err != nil {
		logger.Debugf("route cache decode %s: %v", key, err)
		return nil
	}
	return &route
}

func (r *Router) store(ctx context.Context, key string, route *models.Route) {
	if r.cache == nil {
		return
	}
	b, err := json.Marshal(route)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, b, routeCacheTTL).Err(); err != nil {
		logger.Warnf("route cache set %s: %v", key, err)
	}
}
