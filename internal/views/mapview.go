package views

import (
	"net/http"
	"slices"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/gin-gonic/gin"
)

var routeModes = []string{"driving", "transit", "cycling", "walking"}

// trafficSpan is the half-width in degrees of the traffic query around the origin.
const trafficSpan = 0.05

type mapQuery struct {
	OriginLat string `form:"olat"`
	OriginLng string `form:"olng"`
	DestLat   string `form:"dlat"`
	DestLng   string `form:"dlng"`
	Mode      string `form:"mode"`
	Avoid     bool   `form:"avoid"`
}

// Map shows traffic around the origin and, when a destination is given, the
// recommended route with its alternates.
func (h *Handler) Map(c *gin.Context) {
	app := appFrom(c)
	ctx := c.Request.Context()

	var q mapQuery
	_ = c.ShouldBindQuery(&q)
	if !slices.Contains(routeModes, q.Mode) {
		q.Mode = "driving"
	}

	data := gin.H{"Title": "Commuter Assistant", "Query": q, "Modes": routeModes}
	errs := FieldErrors{}

	origin := defaultCentre
	if loc, err := parseLocation(q.OriginLat, q.OriginLng); err != nil {
		errs["origin"] = "Origin coordinates are not valid."
	} else if loc != nil {
		origin = *loc
	}
	dest, err := parseLocation(q.DestLat, q.DestLng)
	if err != nil {
		errs["destination"] = "Destination coordinates are not valid."
		dest = nil
	}
	data["Origin"] = origin
	data["Errors"] = errs

	var failure error
	bounds := models.Bounds{
		North: origin.Lat + trafficSpan,
		South: origin.Lat - trafficSpan,
		East:  origin.Lng + trafficSpan,
		West:  origin.Lng - trafficSpan,
	}
	if traffic, err := app.API.Routing.GetTraffic(ctx, bounds); err != nil {
		failure = err
	} else {
		data["Traffic"] = traffic
	}

	if dest != nil && !errs.Any() {
		prefs := &models.RoutePreferences{Mode: q.Mode, AvoidTraffic: q.Avoid}
		if route, err := app.API.Routing.GetRoute(ctx, origin, *dest, prefs); err != nil {
			failure = err
		} else {
			data["Route"] = route
		}
		if alts, err := app.API.Routing.GetAlternateRoutes(ctx, origin, *dest); err != nil {
			failure = err
		} else {
			data["Alternates"] = alts
		}
		data["Destination"] = *dest
	}

	if followNavigation(c, app) {
		return
	}
	status := http.StatusOK
	if errs.Any() {
		status = http.StatusBadRequest
	}
	if failure != nil {
		data["Error"] = errorMessage(failure)
	}
	render(c, status, "map.html", data)
}
