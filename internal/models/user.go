package models

import "time"

// User is the CityAssist identity plus optional profile attributes used for
// personalised alerts.
type User struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	Email           string    `bson:"email" json:"email"`
	Name            string    `bson:"name" json:"name"`
	Age             *int      `bson:"age,omitempty" json:"age,omitempty"`
	MedicalFlags    []string  `bson:"medicalFlags,omitempty" json:"medicalFlags,omitempty"`
	CommutePatterns []string  `bson:"commutePatterns,omitempty" json:"commutePatterns,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// HasMedicalFlag reports whether the user declared the given condition.
func (u *User) HasMedicalFlag(flag string) bool {
	if u == nil {
		return false
	}
	for _, f := range u.MedicalFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Preferences are the notification and alert switches stored per user.
type Preferences struct {
	NotificationPreferences map[string]bool `bson:"notificationPreferences,omitempty" json:"notificationPreferences"`
	AlertPreferences        map[string]bool `bson:"alertPreferences,omitempty" json:"alertPreferences"`
}

// AuthResult is what the auth endpoints return on login and registration.
type AuthResult struct {
	User         *User  `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
}

// RegisterRequest is the onboarding payload.
type RegisterRequest struct {
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Password             string   `json:"password"`
	Age                  *int     `json:"age,omitempty"`
	MedicalFlags         []string `json:"medicalFlags,omitempty"`
	CommutePatterns      []string `json:"commutePatterns,omitempty"`
	NotificationsEnabled bool     `json:"notifications"`
}

// ProfileUpdate carries editable profile fields. Nil slices/age leave the
// stored value unchanged.
type ProfileUpdate struct {
	Name            string   `json:"name"`
	Age             *int     `json:"age,omitempty"`
	MedicalFlags    []string `json:"medicalFlags,omitempty"`
	CommutePatterns []string `json:"commutePatterns,omitempty"`
}
