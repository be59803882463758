// Package auth orchestrates login and logout. The Authenticator interface
// is the boundary to the host's identity provider; this package owns what
// happens around it: seeding stores on success, mapping provider error
// codes to user-facing messages, and tearing everything down on logout.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Credentials identify the user to the authentication provider.
type Credentials struct {
	Email    string
	Password string
}

// Authenticator is implemented by the host's identity provider.
type Authenticator interface {
	// Login authenticates and returns the provider's user ID and display
	// name.
	Login(ctx context.Context, cred Credentials) (id, name string, err error)

	// Logout invalidates the provider session.
	Logout(ctx context.Context) error
}

// Provider error codes.
const (
	CodeAuthenticationDisabled = "AUTHENTICATION_DISABLED"
	CodeEmailTaken             = "EMAIL_TAKEN"
	CodeInvalidEmail           = "INVALID_EMAIL"
	CodeInvalidOrigin          = "INVALID_ORIGIN"
	CodeInvalidPassword        = "INVALID_PASSWORD"
	CodeInvalidUser            = "INVALID_USER"
	CodeAlreadyAuthenticating  = "ALREADY_AUTHENTICATING"
)

// ProviderError is a coded failure from the authentication provider.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

var userMessages = map[string]string{
	CodeAuthenticationDisabled: "This authentication method is currently disabled.",
	CodeEmailTaken:             "Email address unavailable.",
	CodeInvalidEmail:           "Please enter a valid email.",
	CodeInvalidOrigin:          "Login is not available from this domain.",
	CodeInvalidPassword:        "Please enter a valid password.",
	CodeInvalidUser:            "Invalid email or password.",
	CodeAlreadyAuthenticating:  "Already Authenticating",
}

// UserMessage translates a login failure into the message shown to the
// user. Coded provider errors map through a fixed table; anything else
// falls back to the error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		if msg, ok := userMessages[perr.Code]; ok {
			return msg
		}
		if perr.Message != "" {
			return perr.Message
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An unknown error occurred"
}
