package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/internal/reports"
	"github.com/cityassist/cityassist/go-web/internal/reports/repository"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/metrics"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// imageURLTTL is the lifetime of presigned photo links; S3 caps it at seven days.
const imageURLTTL = 7 * 24 * time.Hour

// Repository is the persistence the service needs.
type Repository interface {
	Create(ctx context.Context, r *models.Report) error
	Get(ctx context.Context, ref string) (*models.Report, error)
	ListByUser(ctx context.Context, userID string, f reports.Filter) ([]models.Report, error)
	AppendEvent(ctx context.Context, id, status string, ev models.TimelineEvent) error
}

// ImageStore keeps report photos. *storage.MinIOStorage satisfies it.
type ImageStore interface {
	UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Notifier tells report owners about progress.
type Notifier interface {
	Notify(ctx context.Context, userID string, n models.Notification) error
}

// Image is an optional photo attached to a new report.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Input is a new report as submitted by a citizen.
type Input struct {
	Category    string
	Description string
	Location    *models.Location
	Image       *Image
}

// Service defines the report operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, userID string, in Input) (*models.Report, error)
	Get(ctx context.Context, userID, ref string) (*models.Report, error)
	List(ctx context.Context, userID string, f reports.Filter) ([]models.Report, error)
	Timeline(ctx context.Context, userID, ref string) ([]models.TimelineEvent, error)
	UpdateStatus(ctx context.Context, ref, status, message string) (*models.Report, error)
}

// Option configures optional collaborators.
type Option func(*service)

func WithImageStore(s ImageStore) Option { return func(svc *service) { svc.images = s } }
func WithNotifier(n Notifier) Option    { return func(svc *service) { svc.notifier = n } }

// New returns a Service over repo.
func New(repo Repository, opts ...Option) Service {
	s := &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(opts ...Option) Service {
	return New(repository.NewMemoryRepo(), opts...)
}

// NewMongoService returns a Service backed by a MongoDB collection.
func NewMongoService(col *mongo.Collection, opts ...Option) Service {
	return New(repository.NewMongoRepo(col), opts...)
}

type service struct {
	repo     Repository
	images   ImageStore
	notifier Notifier
	now      func() time.Time
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", reports.ErrInvalidInput, msg)
}

func validate(in *Input) error {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if !slices.Contains(models.ReportCategories, in.Category) {
		return invalid("unknown category")
	}
	if utf8.RuneCountInString(in.Description) < reports.MinDescription {
		return invalid(fmt.Sprintf("description must be at least %d characters", reports.MinDescription))
	}
	if loc := in.Location; loc != nil && (loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180) {
		return invalid("location out of range")
	}
	return nil
}

func (s *service) event(status, msg string) models.TimelineEvent {
	return models.TimelineEvent{ID: uuid.NewString(), Status: status, Message: msg, Timestamp: s.now()}
}

func (s *service) Create(ctx context.Context, userID string, in Input) (*models.Report, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	now := s.now()
	r := &models.Report{
		ID:          uuid.NewString(),
		TicketID:    reports.NewTicketID(),
		UserID:      userID,
		Category:    in.Category,
		Description: in.Description,
		Status:      models.ReportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Location != nil {
		r.Location = *in.Location
	}
	r.Timeline = []models.TimelineEvent{s.event(models.ReportPending, "Report received")}

	if in.Image != nil && in.Image.Data != nil {
		url, err := s.storeImage(ctx, r.TicketID, in.Image)
		if err != nil {
			return nil, err
		}
		r.ImageURL = url
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	metrics.ReportsCreated.Inc()
	logger.Infof("report %s created by %s (%s)", r.TicketID, userID, r.Category)

	s.notify(ctx, userID, models.Notification{
		Type:      models.AlertUtility,
		Title:     "Report received",
		Message:   fmt.Sprintf("Your %s report (%s) has been received.", strings.ToLower(r.Category), r.TicketID),
		ActionURL: "/report/" + r.TicketID,
	})
	return r, nil
}

func (s *service) storeImage(ctx context.Context, ticket string, img *Image) (string, error) {
	if s.images == nil {
		logger.Warnf("report %s: image dropped, no image store configured", ticket)
		return "", nil
	}
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	key := path.Join("reports", ticket, uuid.NewString()+strings.ToLower(path.Ext(img.Filename)))
	size := img.Size
	if size <= 0 {
		size = -1
	}
	if err := s.images.UploadFile(ctx, key, img.Data, size, ct); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	url, err := s.images.GetPresignedURL(ctx, key, imageURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign image: %w", err)
	}
	return url, nil
}

func (s *service) notify(ctx context.Context, userID string, n models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, n); err != nil {
		logger.Warnf("notify %s: %v", userID, err)
	}
}

// Get returns the report if it belongs to userID; other users' reports are not found.
func (s *service) Get(ctx context.Context, userID, ref string) (*models.Report, error) {
	r, err := s.repo.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, reports.ErrNotFound
	}
	return r, nil
}

func (s *service) List(ctx context.Context, userID string, f reports.Filter) ([]models.Report, error) {
	return s.repo.ListByUser(ctx, userID, f.Normalize())
}

func (s *service) Timeline(ctx context.Context, userID, ref string) ([]models.TimelineEvent, error) {
	r, err := s.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	if r.Timeline == nil {
		return []models.TimelineEvent{}, nil
	}
	return r.Timeline, nil
}

// UpdateStatus moves a report forward and notifies its owner.
func (s *service) UpdateStatus(ctx context.Context, ref, status, message string) (*models.Report, error) {
	r, err := s.repo.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !reports.CanTransition(r.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", reports.ErrInvalidTransition, r.Status, status)
	}
	if message == "" {
		message = "Status changed to " + strings.ReplaceAll(status, "_", " ")
	}
	ev := s.event(status, message)
	if err := s.repo.AppendEvent(ctx, r.ID, status, ev); err != nil {
		return nil, err
	}
	r.Status = status
	r.UpdatedAt = ev.Timestamp
	r.Timeline = append(r.Timeline, ev)

	s.notify(ctx, r.UserID, models.Notification{
		Type:      models.AlertUtility,
		Title:     "Report update",
		Message:   fmt.Sprintf("Your %s report (%s) is now %s.", strings.ToLower(r.Category), r.TicketID, strings.ReplaceAll(status, "_", " ")),
		ActionURL: "/report/" + r.TicketID,
	})
	return r, nil
}
