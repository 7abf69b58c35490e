package views

import (
	"net/http"
	"slices"
	"strings"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Services lists local services filtered by category, plus current outages.
func (h *Handler) Services(c *gin.Context) {
	showServices(c, http.StatusOK, nil, "")
}

type subscribeForm struct {
	Utility string `form:"utility"`
	Zone    string `form:"zone"`
}

func (h *Handler) SubscribeUtility(c *gin.Context) {
	app := appFrom(c)
	var form subscribeForm
	_ = c.ShouldBind(&form)
	form.Utility, form.Zone = strings.TrimSpace(form.Utility), strings.TrimSpace(form.Zone)

	errs := FieldErrors{}
	if form.Utility == "" {
		errs["utility"] = "Choose a utility."
	}
	if form.Zone == "" {
		errs["zone"] = "Enter your zone or area."
	}
	if errs.Any() {
		showServices(c, http.StatusBadRequest, errs, "")
		return
	}

	if err := app.API.Services.SubscribeToUtility(c.Request.Context(), form.Utility, form.Zone); err != nil {
		if followNavigation(c, app) {
			return
		}
		logger.Warnf("views: subscribe %s/%s: %v", form.Utility, form.Zone, err)
		showServices(c, statusFor(err), nil, errorMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/services?category=utility&subscribed="+form.Utility)
}

func showServices(c *gin.Context, status int, errs FieldErrors, msg string) {
	app := appFrom(c)
	ctx := c.Request.Context()

	category := c.DefaultQuery("category", "all")
	if !slices.Contains(ServiceCategories, category) {
		category = "all"
	}
	filter := category
	if filter == "all" {
		filter = ""
	}
	loc := locationOrCentre(c)

	data := gin.H{
		"Title":      "Local Services",
		"Category":   category,
		"Categories": ServiceCategories,
		"Errors":     errs,
		"Subscribed": c.Query("subscribed"),
	}

	var services []models.Service
	var outages []models.Outage
	var failure error
	var err error
	if services, err = app.API.Services.GetLocal(ctx, &loc, filter); err != nil {
		failure = err
	}
	if outages, err = app.API.Services.GetOutages(ctx); err != nil {
		failure = err
	}
	if followNavigation(c, app) {
		return
	}
	if failure != nil && msg == "" {
		msg = errorMessage(failure)
	}
	data["Services"] = services
	data["Outages"] = outages
	data["Error"] = msg
	render(c, status, "services.html", data)
}
