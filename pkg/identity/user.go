package identity

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// UserModel is the shape a caller asks the Fetcher to decode into.
// Validate reports missing or inconsistent fields after JSON decoding.
type UserModel interface {
	Validate() error
}

// User is the OpenID Connect userinfo payload.
type User struct {
	Sub               string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Name              string   `json:"name,omitempty"`
	GivenName         string   `json:"given_name,omitempty"`
	FamilyName        string   `json:"family_name,omitempty"`
	Email             string   `json:"email,omitempty"`
	EmailVerified     bool     `json:"email_verified,omitempty"`
	Picture           string   `json:"picture,omitempty"`
	Roles             []string `json:"roles,omitempty"`
}

func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Sub, validation.Required),
		validation.Field(&u.Email, is.EmailFormat),
		validation.Field(&u.Picture, is.URL),
	)
}

// DisplayName picks the most human-friendly name available.
func (u User) DisplayName() string {
	switch {
	case u.PreferredUsername != "":
		return u.PreferredUsername
	case u.Name != "":
		return u.Name
	}
	return u.Sub
}
