package views

import (
	"errors"
	"net/http"

	"github.com/cityassist/cityassist/go-web/internal/apiclient"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20

func (h *Handler) ReportPage(c *gin.Context) {
	renderReportForm(c, http.StatusOK, &ReportForm{}, nil, "", true)
}

// SubmitReport validates locally before any network call, then creates the
// report and shows the ticket id the API issued.
func (h *Handler) SubmitReport(c *gin.Context) {
	app := appFrom(c)
	var form ReportForm
	_ = c.ShouldBind(&form)
	errs := form.Validate()

	loc, err := parseLocation(form.Latitude, form.Longitude)
	if err != nil {
		errs["location"] = "Location coordinates are not valid."
	}

	var image *apiclient.ImageUpload
	if fh, err := c.FormFile("image"); err == nil {
		if fh.Size > maxImageBytes {
			errs["image"] = "Image must be 10 MB or smaller."
		} else {
			f, err := fh.Open()
			if err != nil {
				errs["image"] = "The image could not be read."
			} else {
				defer f.Close()
				image = &apiclient.ImageUpload{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: f}
			}
		}
	}
	if errs.Any() {
		renderReportForm(c, http.StatusBadRequest, &form, errs, "", false)
		return
	}

	report, err := app.API.Reports.Create(c.Request.Context(), apiclient.ReportInput{
		Category:    form.Category,
		Description: form.Description,
		Location:    loc,
		Image:       image,
	})
	if err != nil {
		if followNavigation(c, app) {
			return
		}
		logger.Warnf("views: create report for device %s: %v", app.Device, err)
		renderReportForm(c, statusFor(err), &form, nil, errorMessage(err), false)
		return
	}
	if report.TicketID == "" {
		logger.Errorf("views: report %s created without a ticket id", report.ID)
		renderReportForm(c, http.StatusBadGateway, &form, nil, "The report was received but no ticket was issued. Please check your recent reports.", false)
		return
	}
	render(c, http.StatusCreated, "report_success.html", gin.H{"Title": "Report submitted", "Report": report})
}

// renderReportForm shows the form. withRecent also lists the latest reports,
// which costs an API call, so it is only set on plain page loads.
func renderReportForm(c *gin.Context, status int, form *ReportForm, errs FieldErrors, msg string, withRecent bool) {
	app := appFrom(c)
	data := gin.H{
		"Title":      "Report an Issue",
		"Form":       form,
		"Errors":     errs,
		"Error":      msg,
		"Categories": ReportCategories,
	}
	if !withRecent {
		render(c, status, "report.html", data)
		return
	}
	if recent, err := app.API.Reports.List(c.Request.Context(), apiclient.ListParams{Size: 5}); err != nil {
		if followNavigation(c, app) {
			return
		}
		data["RecentError"] = errorMessage(err)
	} else {
		data["Recent"] = recent
	}
	render(c, status, "report.html", data)
}

// ReportDetail shows a report's status and timeline.
func (h *Handler) ReportDetail(c *gin.Context) {
	app := appFrom(c)
	ctx := c.Request.Context()
	id := c.Param("id")

	report, err := app.API.Reports.GetByID(ctx, id)
	if err == nil && len(report.Timeline) == 0 {
		report.Timeline, err = app.API.Reports.GetTimeline(ctx, id)
	}
	if err != nil {
		if followNavigation(c, app) {
			return
		}
		status := statusFor(err)
		if !errors.Is(err, apiclient.ErrNotFound) {
			logger.Warnf("views: report %s for device %s: %v", id, app.Device, err)
		}
		render(c, status, "error.html", gin.H{"Title": "Report", "Error": errorMessage(err)})
		return
	}
	render(c, http.StatusOK, "report_detail.html", gin.H{"Title": "Report " + report.TicketID, "Report": report})
}
