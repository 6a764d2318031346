package models

import (
	"errors"
	"strings"
)

// AuthMode selects between the two forms of the account view.
type AuthMode string

const (
	AuthModeLogin  AuthMode = "login"
	AuthModeSignup AuthMode = "signup"
)

// Validation failures of AuthRequest. The messages double as i18n keys.
var (
	ErrAuthMissingFields    = errors.New("auth.fillAllFields")
	ErrAuthPasswordMismatch = errors.New("auth.passwordMismatch")
	ErrAuthUnknownMode      = errors.New("auth.unknownMode")
)

// AuthRequest is a login or sign-up submission.
// ConfirmPassword is only read in sign-up mode.
type AuthRequest struct {
	Mode            AuthMode `json:"mode"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirm_password"`
}

// Validate checks the required fields and, for sign-up, that the
// confirmation matches. An empty mode means login. The email is trimmed in
// place, so whitespace alone counts as missing; the password is not.
func (r *AuthRequest) Validate() error {
	if r.Mode == "" {
		r.Mode = AuthModeLogin
	}
	if r.Mode != AuthModeLogin && r.Mode != AuthModeSignup {
		return ErrAuthUnknownMode
	}

	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Password == "" {
		return ErrAuthMissingFields
	}
	if r.Mode == AuthModeSignup && r.Password != r.ConfirmPassword {
		return ErrAuthPasswordMismatch
	}
	return nil
}

// AuthResult reports a successful submission.
type AuthResult struct {
	NoticeKey string  `json:"-"`
	Notice    string  `json:"notice"`
	Session   Session `json:"session"`
}
