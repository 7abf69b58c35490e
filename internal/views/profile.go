package views

import (
	"net/http"
	"strconv"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/gin-gonic/gin"
)

// alertTopics are the switches shown under alert preferences.
var alertTopics = []string{models.AlertAQI, models.AlertTraffic, models.AlertUtility, models.AlertHealth}

// Profile shows the user, refreshed from the API, in view or edit mode.
func (h *Handler) Profile(c *gin.Context) {
	app := appFrom(c)
	ctx := c.Request.Context()

	msg := ""
	user, err := app.API.User.GetProfile(ctx)
	if err != nil {
		if followNavigation(c, app) {
			return
		}
		logger.Warnf("views: load profile for device %s: %v", app.Device, err)
		msg = errorMessage(err)
		user = app.Store.User()
	} else if err := app.Store.SetUser(ctx, user); err != nil {
		logger.Errorf("views: store refreshed profile: %v", err)
	}

	prefs, err := app.API.User.GetPreferences(ctx)
	if err != nil {
		if followNavigation(c, app) {
			return
		}
		if msg == "" {
			msg = errorMessage(err)
		}
		prefs = &models.Preferences{}
	}

	editing := c.Query("edit") == "1"
	renderProfile(c, http.StatusOK, user, profileFormFor(user), prefs, editing, nil, msg)
}

// UpdateProfile handles toggles, cancel and save from the edit form.
func (h *Handler) UpdateProfile(c *gin.Context) {
	app := appFrom(c)
	var form ProfileForm
	_ = c.ShouldBind(&form)
	form.normalize()

	if form.Toggle != "" {
		form.MedicalFlags, form.CommutePatterns = applyToggle(form.Toggle, form.MedicalFlags, form.CommutePatterns)
		renderProfile(c, http.StatusOK, app.Store.User(), &form, nil, true, nil, "")
		return
	}
	if form.Action == "cancel" {
		c.Redirect(http.StatusSeeOther, "/profile")
		return
	}
	if errs := form.Validate(); errs.Any() {
		renderProfile(c, http.StatusBadRequest, app.Store.User(), &form, nil, true, errs, "")
		return
	}

	age, _ := parseAge(form.Age)
	updated, err := app.API.User.UpdateProfile(c.Request.Context(), models.ProfileUpdate{
		Name:            form.Name,
		Age:             age,
		MedicalFlags:    form.MedicalFlags,
		CommutePatterns: form.CommutePatterns,
	})
	if err != nil {
		if followNavigation(c, app) {
			return
		}
		logger.Warnf("views: update profile for device %s: %v", app.Device, err)
		renderProfile(c, statusFor(err), app.Store.User(), &form, nil, true, nil, errorMessage(err))
		return
	}
	if err := app.Store.SetUser(c.Request.Context(), updated); err != nil {
		logger.Errorf("views: store updated profile: %v", err)
	}
	c.Redirect(http.StatusSeeOther, "/profile")
}

// UpdatePreferences saves the alert switches.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	app := appFrom(c)
	prefs := models.Preferences{
		NotificationPreferences: map[string]bool{"email": c.PostForm("notify_email") == "on", "push": c.PostForm("notify_push") == "on"},
		AlertPreferences:        make(map[string]bool, len(alertTopics)),
	}
	for _, t := range alertTopics {
		prefs.AlertPreferences[t] = c.PostForm("alert_"+t) == "on"
	}
	if err := app.API.User.UpdatePreferences(c.Request.Context(), prefs); err != nil {
		if followNavigation(c, app) {
			return
		}
		user := app.Store.User()
		renderProfile(c, statusFor(err), user, profileFormFor(user), &prefs, false, nil, errorMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/profile")
}

func profileFormFor(u *models.User) *ProfileForm {
	f := &ProfileForm{}
	if u == nil {
		return f
	}
	f.Name = u.Name
	f.MedicalFlags = u.MedicalFlags
	f.CommutePatterns = u.CommutePatterns
	if u.Age != nil {
		f.Age = strconv.Itoa(*u.Age)
	}
	return f
}

func renderProfile(c *gin.Context, status int, user *models.User, form *ProfileForm, prefs *models.Preferences, editing bool, errs FieldErrors, msg string) {
	render(c, status, "profile.html", gin.H{
		"Title":             "Profile",
		"Profile":           user,
		"Form":              form,
		"Prefs":             prefs,
		"AlertTopics":       alertTopics,
		"Editing":           editing,
		"Errors":            errs,
		"Error":             msg,
		"MedicalConditions": MedicalConditions,
		"CommuteOptions":    CommuteOptions,
	})
}
