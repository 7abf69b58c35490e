package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to registration.
const MinPasswordLength = 8

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	cost int
}

// NewService returns a Service hashing passwords with the given bcrypt cost;
// out-of-range values use bcrypt.DefaultCost.
func NewService(r UserRepository, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: r, cost: bcryptCost}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validAge(age *int) bool {
	return age == nil || (*age >= 1 && *age <= 120)
}

// DefaultPreferences enables every alert topic and the requested channels.
func DefaultPreferences(notify bool) models.Preferences {
	return models.Preferences{
		NotificationPreferences: map[string]bool{"email": notify, "push": notify},
		AlertPreferences: map[string]bool{
			models.AlertAQI:     true,
			models.AlertTraffic: true,
			models.AlertUtility: true,
			models.AlertHealth:  true,
		},
	}
}

// Register creates an account. The email must be unused.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, invalid("name is required")
	case email == "":
		return nil, invalid("email is required")
	case len(req.Password) < MinPasswordLength:
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	case !validAge(req.Age):
		return nil, invalid("age must be between 1 and 120")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email is not valid")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	rec := &Record{
		User: models.User{
			ID:              uuid.NewString(),
			Email:           email,
			Name:            name,
			Age:             req.Age,
			MedicalFlags:    req.MedicalFlags,
			CommutePatterns: req.CommutePatterns,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		PasswordHash: string(hash),
		Preferences:  DefaultPreferences(req.NotificationsEnabled),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	u := rec.User
	return &u, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	rec, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	u := rec.User
	return &u, nil
}

func (s *Service) record(ctx context.Context, id string) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	u := rec.User
	return &u, nil
}

// UpdateProfile applies upd. A blank name, nil age or nil slice keeps the stored value.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	if !validAge(upd.Age) {
		return nil, invalid("age must be between 1 and 120")
	}
	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(upd.Name); name != "" {
		rec.Name = name
	}
	if upd.Age != nil {
		rec.Age = upd.Age
	}
	if upd.MedicalFlags != nil {
		rec.MedicalFlags = upd.MedicalFlags
	}
	if upd.CommutePatterns != nil {
		rec.CommutePatterns = upd.CommutePatterns
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	u := rec.User
	return &u, nil
}

func (s *Service) Preferences(ctx context.Context, id string) (*models.Preferences, error) {
	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	p := rec.Preferences
	return &p, nil
}

// UpdatePreferences merges prefs into the stored switches.
func (s *Service) UpdatePreferences(ctx context.Context, id string, prefs models.Preferences) (*models.Preferences, error) {
	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Preferences.NotificationPreferences == nil {
		rec.Preferences.NotificationPreferences = map[string]bool{}
	}
	if rec.Preferences.AlertPreferences == nil {
		rec.Preferences.AlertPreferences = map[string]bool{}
	}
	for k, v := range prefs.NotificationPreferences {
		rec.Preferences.NotificationPreferences[k] = v
	}
	for k, v := range prefs.AlertPreferences {
		rec.Preferences.AlertPreferences[k] = v
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	p := rec.Preferences
	return &p, nil
}

// UpsertFromClaims maps an OIDC identity to a local user, linking by email
// when an account already exists. Returns (nil, nil) without a subject.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	email = normalizeEmail(email)
	name, _ := claims["name"].(string)
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}

	rec, err := s.repo.GetBySubject(ctx, sub)
	if err != nil {
		return nil, err
	}
	if rec == nil && email != "" {
		if rec, err = s.repo.GetByEmail(ctx, email); err != nil {
			return nil, err
		}
	}

	if rec == nil {
		now := time.Now().UTC()
		rec = &Record{
			User:        models.User{ID: uuid.NewString(), Email: email, Name: name, CreatedAt: now, UpdatedAt: now},
			Subject:     sub,
			Preferences: DefaultPreferences(true),
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return nil, err
		}
		u := rec.User
		return &u, nil
	}

	rec.Subject = sub
	if name != "" {
		rec.Name = name
	}
	if email != "" {
		rec.Email = email
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	u := rec.User
	return &u, nil
}
