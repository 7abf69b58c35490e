// Package views renders the CityAssist web screens. Every request is bound to
// the requesting browser's storage namespace, so each one gets its own session
// store and API client.
package views

import (
	"net/http"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/apiclient"
	"github.com/cityassist/cityassist/go-web/internal/authstore"
	"github.com/cityassist/cityassist/go-web/internal/localstore"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// DeviceCookie identifies the browser and selects its storage namespace.
	DeviceCookie = "cityassist_device"

	appKey         = "app"
	deviceLifetime = 365 * 24 * time.Hour
)

// App is the per-request view of one device: its storage, session and API client.
type App struct {
	Device  string
	Storage localstore.Storage
	Store   *authstore.Store
	API     *apiclient.Client
	nav     *navigator
}

// Redirected returns the path the API client asked to navigate to, if any.
func (a *App) Redirected() (string, bool) {
	if a.nav == nil || a.nav.target == "" {
		return "", false
	}
	return a.nav.target, true
}

// navigator records navigation requested by the API client's 401 hook so the
// handler can turn it into a redirect.
type navigator struct {
	target string
}

func (n *navigator) Navigate(path string) { n.target = path }

// Options configure the view layer.
type Options struct {
	APIBaseURL   string
	APITimeout   time.Duration
	CookieSecure bool
	// HTTPClient overrides the API client's transport. Tests only.
	HTTPClient *http.Client
}

// Handler serves every view.
type Handler struct {
	backend localstore.Backend
	opts    Options
}

func NewHandler(backend localstore.Backend, opts Options) *Handler {
	return &Handler{backend: backend, opts: opts}
}

// deviceScope ensures the device cookie and attaches a rehydrated App.
func (h *Handler) deviceScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		device, err := c.Cookie(DeviceCookie)
		if err != nil || uuid.Validate(device) != nil {
			device = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(DeviceCookie, device, int(deviceLifetime.Seconds()), "/", "", h.opts.CookieSecure, true)
		}

		app := h.newApp(device)
		if err := app.Store.Rehydrate(c.Request.Context()); err != nil {
			logger.Errorf("views: rehydrate device %s: %v", device, err)
			c.String(http.StatusServiceUnavailable, "session storage unavailable")
			c.Abort()
			return
		}
		c.Set(appKey, app)
		c.Next()
	}
}

func (h *Handler) newApp(device string) *App {
	storage := h.backend.Scope(device)
	nav := &navigator{}
	opts := []apiclient.Option{apiclient.WithTimeout(h.opts.APITimeout)}
	if h.opts.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(h.opts.HTTPClient))
	}
	api := apiclient.New(h.opts.APIBaseURL, storage, nav, opts...)
	return &App{
		Device:  device,
		Storage: storage,
		Store:   authstore.New(storage, api.Auth),
		API:     api,
		nav:     nav,
	}
}

// requireAuth sends visitors without a session to the login view.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if appFrom(c).Store.IsAuthenticated() {
			c.Next()
			return
		}
		status := http.StatusSeeOther
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			status = http.StatusFound
		}
		c.Redirect(status, apiclient.LoginPath)
		c.Abort()
	}
}

func appFrom(c *gin.Context) *App {
	return c.MustGet(appKey).(*App)
}

// followNavigation redirects when the API client requested navigation (after
// a 401). It reports whether the response has been written.
func followNavigation(c *gin.Context, app *App) bool {
	target, ok := app.Redirected()
	if !ok {
		return false
	}
	c.Redirect(http.StatusSeeOther, target)
	return true
}
