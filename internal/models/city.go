package models

import "time"

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// CityCentre is the default map centre when no location is known.
var CityCentre = Location{Lat: 40.7128, Lng: -74.0060}

// Bounds is a map viewport used for traffic queries.
type Bounds struct {
	North float64 `json:"north" form:"north"`
	South float64 `json:"south" form:"south"`
	East  float64 `json:"east" form:"east"`
	West  float64 `json:"west" form:"west"`
}

// Contains reports whether loc lies inside b.
func (b Bounds) Contains(loc Location) bool {
	return loc.Lat <= b.North && loc.Lat >= b.South && loc.Lng <= b.East && loc.Lng >= b.West
}

const (
	AlertAQI     = "aqi"
	AlertTraffic = "traffic"
	AlertUtility = "utility"
	AlertHealth  = "health"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

type Alert struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Severity    string    `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
	ActionURL   string    `json:"actionUrl,omitempty"`
	ActionLabel string    `json:"actionLabel,omitempty"`
}

type Notification struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId" json:"-"`
	Type      string    `bson:"type" json:"type"`
	Title     string    `bson:"title" json:"title"`
	Message   string    `bson:"message" json:"message"`
	Read      bool      `bson:"read" json:"read"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ActionURL string    `bson:"actionUrl,omitempty" json:"actionUrl,omitempty"`
}

// NotificationSubscription registers interest in a notification topic.
type NotificationSubscription struct {
	Topic   string `json:"topic"`
	Channel string `json:"channel"`
}

// ReportCategories are the issue kinds the API accepts.
var ReportCategories = []string{"Pothole", "Streetlight Outage", "Garbage/Trash", "Tree Fall", "Water Leak", "Traffic Sign Issue", "Other"}

const (
	ReportPending    = "pending"
	ReportInProgress = "in_progress"
	ReportResolved   = "resolved"
	ReportClosed     = "closed"
)

type Report struct {
	ID          string          `bson:"_id,omitempty" json:"id"`
	TicketID    string          `bson:"ticketId" json:"ticketId"`
	UserID      string          `bson:"userId" json:"-"`
	Category    string          `bson:"category" json:"category"`
	Description string          `bson:"description" json:"description"`
	Location    Location        `bson:"location" json:"location"`
	ImageURL    string          `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Status      string          `bson:"status" json:"status"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
	Timeline    []TimelineEvent `bson:"timeline,omitempty" json:"timeline,omitempty"`
}

type TimelineEvent struct {
	ID        string    `bson:"id" json:"id"`
	Status    string    `bson:"status" json:"status"`
	Message   string    `bson:"message" json:"message"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

type Service struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Address  string   `json:"address"`
	Phone    string   `json:"phone,omitempty"`
	Location Location `json:"location"`
	Distance float64  `json:"distance,omitempty"`
}

type Outage struct {
	ID               string    `json:"id"`
	Utility          string    `json:"utility"`
	Zone             string    `json:"zone"`
	Message          string    `json:"message"`
	EstimatedRestore time.Time `json:"estimatedRestore"`
}

type TrafficInfo struct {
	Congestion float64           `json:"congestion"`
	Incidents  []TrafficIncident `json:"incidents"`
}

type TrafficIncident struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	Severity    string   `json:"severity"`
}

type Route struct {
	Origin          Location     `json:"origin"`
	Destination     Location     `json:"destination"`
	Distance        float64      `json:"distance"`
	Duration        float64      `json:"duration"`
	AlternateRoutes []Route      `json:"alternateRoutes,omitempty"`
	TrafficInfo     *TrafficInfo `json:"trafficInfo,omitempty"`
	Explanation     string       `json:"explanation,omitempty"`
}

// RoutePreferences tune route computation.
type RoutePreferences struct {
	Mode         string `json:"mode,omitempty"` // driving | transit | cycling | walking
	AvoidTraffic bool   `json:"avoidTraffic,omitempty"`
}

// AQIReading is the air-quality value for a location with advice.
type AQIReading struct {
	AQI            int      `json:"aqi"`
	Severity       string   `json:"severity"`
	Recommendation string   `json:"recommendation"`
	Explanation    string   `json:"explanation"`
	Location       Location `json:"location"`
}

// HealthProfile is the subset of the user profile used for health advice.
type HealthProfile struct {
	Age             *int     `json:"age,omitempty"`
	MedicalFlags    []string `json:"medicalFlags,omitempty"`
	CommutePatterns []string `json:"commutePatterns,omitempty"`
}

// PresignedUpload is a short-lived direct upload target.
type PresignedUpload struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}
