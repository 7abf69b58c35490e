package views

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/apiclient"
	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/gin-gonic/gin"
)

// defaultCentre is used when the browser did not share a location.
var defaultCentre = models.CityCentre

var templateFuncs = template.FuncMap{
	"has": func(set []string, v string) bool { return slices.Contains(set, v) },
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Jan 2, 2006 15:04")
	},
	"fmtCoord": func(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) },
	"fmtKm":    func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) + " km" },
	"fmtMin":   func(f float64) string { return strconv.FormatFloat(f, 'f', 0, 64) + " min" },
	"pct":      func(f float64) string { return strconv.FormatFloat(f*100, 'f', 0, 64) + "%" },
	"label": func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"mapLink": func(loc models.Location) string {
		return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%f&mlon=%f#map=14/%f/%f", loc.Lat, loc.Lng, loc.Lat, loc.Lng)
	},
}

// render adds the session fields every page needs and writes the template.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if app, ok := c.Get(appKey); ok {
		store := app.(*App).Store
		if store.IsAuthenticated() {
			data["User"] = store.User()
		}
	}
	c.HTML(status, name, data)
}

// statusFor picks the response status for a failed API call.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apiclient.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, apiclient.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apiclient.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apiclient.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// parseLocation reads a lat/lng pair. Both empty means "not provided".
func parseLocation(latRaw, lngRaw string) (*models.Location, error) {
	latRaw, lngRaw = strings.TrimSpace(latRaw), strings.TrimSpace(lngRaw)
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid latitude %q", latRaw)
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("invalid longitude %q", lngRaw)
	}
	return &models.Location{Lat: lat, Lng: lng}, nil
}

// locationOrCentre parses lat/lng query values, falling back to the city centre.
func locationOrCentre(c *gin.Context) models.Location {
	loc, err := parseLocation(c.Query("lat"), c.Query("lng"))
	if err != nil || loc == nil {
		return defaultCentre
	}
	return *loc
}
