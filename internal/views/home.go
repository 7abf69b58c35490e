package views

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/apiclient"
	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/gin-gonic/gin"
)

var severityRank = map[string]int{models.SeverityHigh: 0, models.SeverityMedium: 1, models.SeverityLow: 2}

// Home shows alerts built from air quality, health advice for the user's
// profile, utility outages and unread notifications.
func (h *Handler) Home(c *gin.Context) {
	app := appFrom(c)
	ctx := c.Request.Context()
	user := app.Store.User()
	loc := locationOrCentre(c)

	var alerts []models.Alert
	var failures []error

	aqi, err := app.API.Alerts.GetAQI(ctx, loc)
	if err != nil {
		failures = append(failures, err)
	} else {
		alerts = append(alerts, aqiAlert(aqi))
	}

	profile := models.HealthProfile{}
	if user != nil {
		profile = models.HealthProfile{Age: user.Age, MedicalFlags: user.MedicalFlags, CommutePatterns: user.CommutePatterns}
	}
	if health, err := app.API.Alerts.GetHealthRecommendations(ctx, profile); err != nil {
		failures = append(failures, err)
	} else {
		alerts = append(alerts, health...)
	}

	if outages, err := app.API.Services.GetOutages(ctx); err != nil {
		failures = append(failures, err)
	} else {
		for _, o := range outages {
			alerts = append(alerts, outageAlert(o))
		}
	}

	unread, err := app.API.Notifications.List(ctx, apiclient.ListParams{UnreadOnly: true})
	if err != nil {
		failures = append(failures, err)
	}

	if followNavigation(c, app) {
		return
	}

	slices.SortStableFunc(alerts, func(a, b models.Alert) int {
		return cmp.Compare(severityRank[a.Severity], severityRank[b.Severity])
	})

	data := gin.H{
		"Title":       "Home",
		"Alerts":      alerts,
		"UnreadCount": len(unread),
		"Unread":      unread,
		"Location":    loc,
	}
	if len(failures) > 0 {
		logger.Warnf("views: home for device %s: %d of 4 sources failed, first: %v", app.Device, len(failures), failures[0])
		data["Error"] = errorMessage(failures[0])
	}
	render(c, http.StatusOK, "home.html", data)
}

func aqiAlert(r *models.AQIReading) models.Alert {
	return models.Alert{
		ID:          "aqi",
		Type:        models.AlertAQI,
		Title:       fmt.Sprintf("Air Quality Index: %d", r.AQI),
		Message:     r.Recommendation,
		Severity:    r.Severity,
		Timestamp:   time.Now(),
		ActionURL:   "/map",
		ActionLabel: "Plan a route",
	}
}

func outageAlert(o models.Outage) models.Alert {
	msg := o.Message
	if !o.EstimatedRestore.IsZero() {
		msg = fmt.Sprintf("%s Estimated restore: %s.", msg, o.EstimatedRestore.Local().Format("Jan 2 15:04"))
	}
	return models.Alert{
		ID:          "outage-" + o.ID,
		Type:        models.AlertUtility,
		Title:       fmt.Sprintf("%s outage in %s", o.Utility, o.Zone),
		Message:     msg,
		Severity:    models.SeverityMedium,
		ActionURL:   "/services?category=utility",
		ActionLabel: "View services",
	}
}
