package views

import (
	"errors"

	"github.com/cityassist/cityassist/go-web/internal/apiclient"
	"github.com/cityassist/cityassist/go-web/internal/authstore"
)

// errorMessage maps an API or session error to text shown to the user.
func errorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apiclient.ErrNetwork):
		return "Could not reach CityAssist. Check your connection and try again."
	case errors.Is(err, apiclient.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, apiclient.ErrValidation):
		if msg := apiclient.MessageOf(err); msg != "" {
			return msg
		}
		return "Some of the information you entered is not valid."
	case errors.Is(err, apiclient.ErrNotFound):
		return "We could not find what you were looking for."
	case errors.Is(err, authstore.ErrIncompleteResponse):
		return "The server sent an unexpected response. Please try again."
	default:
		return "Something went wrong on our side. Please try again later."
	}
}

// loginErrorMessage is errorMessage with wording for rejected credentials.
func loginErrorMessage(err error) string {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return "Invalid email or password."
	}
	return errorMessage(err)
}
