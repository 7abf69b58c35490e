package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cityassist/cityassist/go-web/internal/models"
)

func locationValues(loc *models.Location) url.Values {
	q := url.Values{}
	if loc != nil {
		q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		q.Set("lng", strconv.FormatFloat(loc.Lng, 'f', -1, 64))
	}
	return q
}

// NotificationsAPI groups /notifications endpoints.
type NotificationsAPI struct{ c *Client }

func (n *NotificationsAPI) List(ctx context.Context, params ListParams) ([]models.Notification, error) {
	var out []models.Notification
	if err := n.c.doJSON(ctx, http.MethodGet, "/notifications", params.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *NotificationsAPI) MarkAsRead(ctx context.Context, id string) error {
	return n.c.doJSON(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id)+"/read", nil, nil, nil)
}

func (n *NotificationsAPI) MarkAllAsRead(ctx context.Context) error {
	return n.c.doJSON(ctx, http.MethodPut, "/notifications/read-all", nil, nil, nil)
}

func (n *NotificationsAPI) Subscribe(ctx context.Context, sub models.NotificationSubscription) error {
	return n.c.doJSON(ctx, http.MethodPost, "/notifications/subscribe", nil, sub, nil)
}

// RoutingAPI groups /routing endpoints.
type RoutingAPI struct{ c *Client }

type routeRequest struct {
	Origin      models.Location          `json:"origin"`
	Destination models.Location          `json:"destination"`
	Preferences *models.RoutePreferences `json:"preferences,omitempty"`
}

func (r *RoutingAPI) GetRoute(ctx context.Context, origin, destination models.Location, prefs *models.RoutePreferences) (*models.Route, error) {
	var out models.Route
	in := routeRequest{Origin: origin, Destination: destination, Preferences: prefs}
	if err := r.c.doJSON(ctx, http.MethodPost, "/routing/route", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RoutingAPI) GetTraffic(ctx context.Context, b models.Bounds) (*models.TrafficInfo, error) {
	q := url.Values{}
	q.Set("north", strconv.FormatFloat(b.North, 'f', -1, 64))
	q.Set("south", strconv.FormatFloat(b.South, 'f', -1, 64))
	q.Set("east", strconv.FormatFloat(b.East, 'f', -1, 64))
	q.Set("west", strconv.FormatFloat(b.West, 'f', -1, 64))
	var out models.TrafficInfo
	if err := r.c.doJSON(ctx, http.MethodGet, "/routing/traffic", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RoutingAPI) GetAlternateRoutes(ctx context.Context, origin, destination models.Location) ([]models.Route, error) {
	var out []models.Route
	in := routeRequest{Origin: origin, Destination: destination}
	if err := r.c.doJSON(ctx, http.MethodPost, "/routing/alternate", nil, in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ServicesAPI groups /services endpoints.
type ServicesAPI struct{ c *Client }

// GetLocal lists services near loc; an empty category means all.
func (s *ServicesAPI) GetLocal(ctx context.Context, loc *models.Location, category string) ([]models.Service, error) {
	q := locationValues(loc)
	if category != "" {
		q.Set("category", category)
	}
	var out []models.Service
	if err := s.c.doJSON(ctx, http.MethodGet, "/services/local", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ServicesAPI) GetOutages(ctx context.Context) ([]models.Outage, error) {
	var out []models.Outage
	if err := s.c.doJSON(ctx, http.MethodGet, "/services/outages", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ServicesAPI) SubscribeToUtility(ctx context.Context, utility, zone string) error {
	in := map[string]string{"utility": utility, "zone": zone}
	return s.c.doJSON(ctx, http.MethodPost, "/services/subscribe", nil, in, nil)
}

// AlertsAPI groups /alerts endpoints.
type AlertsAPI struct{ c *Client }

func (a *AlertsAPI) GetAQI(ctx context.Context, loc models.Location) (*models.AQIReading, error) {
	var out models.AQIReading
	if err := a.c.doJSON(ctx, http.MethodGet, "/alerts/aqi", locationValues(&loc), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AlertsAPI) GetHealthRecommendations(ctx context.Context, profile models.HealthProfile) ([]models.Alert, error) {
	var out []models.Alert
	if err := a.c.doJSON(ctx, http.MethodPost, "/alerts/health", nil, profile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadAPI groups /upload endpoints.
type UploadAPI struct{ c *Client }

func (u *UploadAPI) GetPresignedURL(ctx context.Context, filename, contentType string) (*models.PresignedUpload, error) {
	in := map[string]string{"filename": filename, "contentType": contentType}
	var out models.PresignedUpload
	if err := u.c.doJSON(ctx, http.MethodPost, "/upload/presigned-url", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
