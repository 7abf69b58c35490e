package views

import (
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cityassist/cityassist/go-web/internal/models"
)

var (
	MedicalConditions = []string{"Asthma", "Heart Disease", "Respiratory Issues", "Elderly (65+)", "None"}
	CommuteOptions    = []string{"Daily Commuter", "Public Transit User", "Cyclist", "Pedestrian", "Occasional Traveler"}
	ReportCategories  = models.ReportCategories
	ServiceCategories = []string{"all", "hospital", "pharmacy", "police", "fire", "community", "utility"}
)

const (
	minPasswordLen    = 8
	minDescriptionLen = 10
	maxAge            = 120
)

// Toggle adds value to set when absent and removes it when present. Applying
// it twice with the same value restores the original set.
func Toggle(set []string, value string) []string {
	if i := slices.Index(set, value); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), value)
}

// onlyKnown drops values outside allowed, keeping order and removing duplicates.
func onlyKnown(values, allowed []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if slices.Contains(allowed, v) && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// applyToggle interprets a "medical:<value>" or "commute:<value>" button value.
func applyToggle(toggle string, medical, commute []string) ([]string, []string) {
	group, value, ok := strings.Cut(toggle, ":")
	if !ok {
		return medical, commute
	}
	switch group {
	case "medical":
		if slices.Contains(MedicalConditions, value) {
			medical = Toggle(medical, value)
		}
	case "commute":
		if slices.Contains(CommuteOptions, value) {
			commute = Toggle(commute, value)
		}
	}
	return medical, commute
}

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

func (fe FieldErrors) Any() bool { return len(fe) > 0 }

// parseAge accepts an empty string (not provided) or an integer in 1..120.
func parseAge(raw string) (*int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxAge {
		return nil, false
	}
	return &n, true
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// LoginForm is the login view's input.
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (f *LoginForm) Validate() FieldErrors {
	f.Email = strings.TrimSpace(f.Email)
	errs := FieldErrors{}
	if f.Email == "" {
		errs["email"] = "Email is required."
	}
	if f.Password == "" {
		errs["password"] = "Password is required."
	}
	return errs
}

// OnboardingForm carries both onboarding steps. Step 1 values travel as
// hidden fields while step 2 is shown.
type OnboardingForm struct {
	Step            int      `form:"step"`
	Action          string   `form:"action"`
	Toggle          string   `form:"toggle"`
	Name            string   `form:"name"`
	Email           string   `form:"email"`
	Password        string   `form:"password"`
	Age             string   `form:"age"`
	MedicalFlags    []string `form:"medicalFlags"`
	CommutePatterns []string `form:"commutePatterns"`
	Notifications   string   `form:"notifications"`
}

// normalize trims inputs and drops unknown selections.
func (f *OnboardingForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.MedicalFlags = onlyKnown(f.MedicalFlags, MedicalConditions)
	f.CommutePatterns = onlyKnown(f.CommutePatterns, CommuteOptions)
}

// NotificationsEnabled reads the opt-in, which defaults to on.
func (f *OnboardingForm) NotificationsEnabled() bool {
	return f.Notifications != "off"
}

// ValidateBasics checks step 1.
func (f *OnboardingForm) ValidateBasics() FieldErrors {
	errs := FieldErrors{}
	if f.Name == "" {
		errs["name"] = "Name is required."
	}
	if !validEmail(f.Email) {
		errs["email"] = "Enter a valid email address."
	}
	if utf8.RuneCountInString(f.Password) < minPasswordLen {
		errs["password"] = "Password must be at least 8 characters."
	}
	if _, ok := parseAge(f.Age); !ok {
		errs["age"] = "Age must be a number between 1 and 120."
	}
	return errs
}

// ReportForm is the report view's text input; the image arrives separately.
type ReportForm struct {
	Category    string `form:"category"`
	Description string `form:"description"`
	Latitude    string `form:"latitude"`
	Longitude   string `form:"longitude"`
}

func (f *ReportForm) Validate() FieldErrors {
	f.Description = strings.TrimSpace(f.Description)
	errs := FieldErrors{}
	if !slices.Contains(ReportCategories, f.Category) {
		errs["category"] = "Please select a category."
	}
	if utf8.RuneCountInString(f.Description) < minDescriptionLen {
		errs["description"] = "Please provide a description of at least 10 characters."
	}
	return errs
}

// ProfileForm is the profile editor's input.
type ProfileForm struct {
	Action          string   `form:"action"`
	Toggle          string   `form:"toggle"`
	Name            string   `form:"name"`
	Age             string   `form:"age"`
	MedicalFlags    []string `form:"medicalFlags"`
	CommutePatterns []string `form:"commutePatterns"`
}

func (f *ProfileForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.MedicalFlags = onlyKnown(f.MedicalFlags, MedicalConditions)
	f.CommutePatterns = onlyKnown(f.CommutePatterns, CommuteOptions)
}

func (f *ProfileForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if f.Name == "" {
		errs["name"] = "Name is required."
	}
	if _, ok := parseAge(f.Age); !ok {
		errs["age"] = "Age must be a number between 1 and 120."
	}
	return errs
}
