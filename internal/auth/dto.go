package auth

import (
	errs "github.com/frahmantamala/storefront/internal"
	"github.com/frahmantamala/storefront/internal/core/common/validation"
)

type SignupDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (d *SignupDTO) Normalize() {
	d.Email = validation.NormalizeEmail(d.Email)
}

func (d SignupDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().MaxLength(254).Email()
	v.Field("name", d.Name).Required().MaxLength(120)
	v.Field("password", d.Password).Required().
		MinLength(validation.MinPasswordLength).
		MaxLength(validation.MaxPasswordLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type SigninDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d *SigninDTO) Normalize() {
	d.Email = validation.NormalizeEmail(d.Email)
}

func (d SigninDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type RequestResetDTO struct {
	Email string `json:"email"`
}

func (d *RequestResetDTO) Normalize() {
	d.Email = validation.NormalizeEmail(d.Email)
}

func (d RequestResetDTO) Validate() error {
	if err := validation.ValidateEmail(d.Email); err != nil {
		return err
	}
	return nil
}

type ResetPasswordDTO struct {
	ResetToken      string `json:"reset_token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate rejects mismatched passwords before any other check, so a mismatch never
// reaches storage.
func (d ResetPasswordDTO) Validate() error {
	if d.Password != d.ConfirmPassword {
		return errs.ErrPasswordMismatch
	}
	v := validation.NewValidator()
	v.Field("reset_token", d.ResetToken).Required()
	v.Field("password", d.Password).Required().
		MinLength(validation.MinPasswordLength).
		MaxLength(validation.MaxPasswordLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// PrincipalResponse wraps the current principal; User is null for anonymous callers.
type PrincipalResponse struct {
	User *User `json:"user"`
}
