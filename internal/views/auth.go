package views

import (
	"net/http"

	"github.com/cityassist/cityassist/go-web/internal/authstore"
	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/metrics"
	"github.com/gin-gonic/gin"
)

func (h *Handler) LoginPage(c *gin.Context) {
	if appFrom(c).Store.IsAuthenticated() {
		c.Redirect(http.StatusFound, "/")
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{"Title": "Sign in", "Form": LoginForm{}})
}

// Login calls the session store exactly once per valid submit.
func (h *Handler) Login(c *gin.Context) {
	app := appFrom(c)
	var form LoginForm
	_ = c.ShouldBind(&form)
	if errs := form.Validate(); errs.Any() {
		render(c, http.StatusBadRequest, "login.html", gin.H{"Title": "Sign in", "Form": form, "Errors": errs})
		return
	}

	if err := app.Store.Login(c.Request.Context(), form.Email, form.Password); err != nil {
		logger.Infof("views: login failed for device %s: %v", app.Device, err)
		form.Password = ""
		render(c, statusFor(err), "login.html", gin.H{"Title": "Sign in", "Form": form, "Error": loginErrorMessage(err)})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	app := appFrom(c)
	if err := app.Store.Logout(c.Request.Context()); err != nil {
		logger.Errorf("views: logout device %s: %v", app.Device, err)
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) OnboardingPage(c *gin.Context) {
	if appFrom(c).Store.IsAuthenticated() {
		c.Redirect(http.StatusFound, "/")
		return
	}
	renderOnboarding(c, http.StatusOK, &OnboardingForm{Step: 1, Notifications: "on"}, nil, "")
}

// Onboarding drives the two-step registration. Every button posts the whole
// form; step 1 values ride along as hidden fields on step 2.
func (h *Handler) Onboarding(c *gin.Context) {
	app := appFrom(c)
	var form OnboardingForm
	_ = c.ShouldBind(&form)
	form.normalize()

	if form.Toggle != "" {
		form.MedicalFlags, form.CommutePatterns = applyToggle(form.Toggle, form.MedicalFlags, form.CommutePatterns)
		form.Step = 2
		renderOnboarding(c, http.StatusOK, &form, nil, "")
		return
	}

	switch form.Action {
	case "next":
		if errs := form.ValidateBasics(); errs.Any() {
			form.Step = 1
			renderOnboarding(c, http.StatusBadRequest, &form, errs, "")
			return
		}
		form.Step = 2
		renderOnboarding(c, http.StatusOK, &form, nil, "")
	case "back":
		form.Step = 1
		renderOnboarding(c, http.StatusOK, &form, nil, "")
	case "complete":
		if errs := form.ValidateBasics(); errs.Any() {
			form.Step = 1
			renderOnboarding(c, http.StatusBadRequest, &form, errs, "")
			return
		}
		age, _ := parseAge(form.Age)
		res, err := app.API.Auth.Register(c.Request.Context(), models.RegisterRequest{
			Name:                 form.Name,
			Email:                form.Email,
			Password:             form.Password,
			Age:                  age,
			MedicalFlags:         form.MedicalFlags,
			CommutePatterns:      form.CommutePatterns,
			NotificationsEnabled: form.NotificationsEnabled(),
		})
		if err == nil && (res.User == nil || res.Token == "") {
			err = authstore.ErrIncompleteResponse
		}
		if err != nil {
			logger.Infof("views: registration failed for device %s: %v", app.Device, err)
			form.Step = 2
			renderOnboarding(c, statusFor(err), &form, nil, errorMessage(err))
			return
		}

		if err := app.Store.SetSession(c.Request.Context(), res.User, res.Token); err != nil {
			logger.Errorf("views: store session after registration: %v", err)
		}
		metrics.SessionEvents.WithLabelValues("register").Inc()
		c.Redirect(http.StatusSeeOther, "/")
	default:
		if form.Step != 2 {
			form.Step = 1
		}
		renderOnboarding(c, http.StatusOK, &form, nil, "")
	}
}

func renderOnboarding(c *gin.Context, status int, form *OnboardingForm, errs FieldErrors, msg string) {
	render(c, status, "onboarding.html", gin.H{
		"Title":             "Welcome to CityAssist",
		"Form":              form,
		"Errors":            errs,
		"Error":             msg,
		"MedicalConditions": MedicalConditions,
		"CommuteOptions":    CommuteOptions,
	})
}
