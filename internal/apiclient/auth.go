package apiclient

import (
	"context"
	"net/http"

	"github.com/cityassist/cityassist/go-web/internal/models"
)

// AuthAPI groups /auth endpoints.
type AuthAPI struct{ c *Client }

// Login exchanges credentials for a user and bearer token.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	in := map[string]string{"email": email, "password": password}
	var out models.AuthResult
	if err := a.c.doJSON(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := a.c.doJSON(ctx, http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	in := map[string]string{"refreshToken": refreshToken}
	var out models.AuthResult
	if err := a.c.doJSON(ctx, http.MethodPost, "/auth/refresh", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserAPI groups /users endpoints.
type UserAPI struct{ c *Client }

func (u *UserAPI) GetProfile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := u.c.doJSON(ctx, http.MethodGet, "/users/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UserAPI) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	var out models.User
	if err := u.c.doJSON(ctx, http.MethodPut, "/users/profile", nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UserAPI) GetPreferences(ctx context.Context) (*models.Preferences, error) {
	var out models.Preferences
	if err := u.c.doJSON(ctx, http.MethodGet, "/users/preferences", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UserAPI) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	return u.c.doJSON(ctx, http.MethodPut, "/users/preferences", nil, prefs, nil)
}
