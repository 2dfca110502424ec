package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/megaqc-web/internal/models"
	"github.com/ayush/megaqc-web/internal/store"
)

// validateLogin checks the credentials and returns the matching user, or
// field errors describing why the login was refused.
func validateLogin(ctx context.Context, users UserStore, form models.LoginForm) (*models.User, []models.FieldError, error) {
	var errs []models.FieldError
	if strings.TrimSpace(form.Username) == "" {
		errs = append(errs, required("username", "Username"))
	}
	if form.Password == "" {
		errs = append(errs, required("password", "Password"))
	}
	if len(errs) > 0 {
		return nil, errs, nil
	}

	user, err := users.GetUserByUsername(ctx, strings.TrimSpace(form.Username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, []models.FieldError{{Field: "username", Label: "Username", Message: "Unknown username"}}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		return nil, []models.FieldError{{Field: "password", Label: "Password", Message: "Invalid password"}}, nil
	}
	if !user.Active {
		return nil, []models.FieldError{{Field: "username", Label: "Username", Message: "User not activated"}}, nil
	}
	return user, nil, nil
}

// validateRegister checks field constraints and username/email uniqueness.
func validateRegister(ctx context.Context, users UserStore, form models.RegisterForm) ([]models.FieldError, error) {
	var errs []models.FieldError

	username := strings.TrimSpace(form.Username)
	switch {
	case username == "":
		errs = append(errs, required("username", "Username"))
	case !lengthBetween(username, 3, 25):
		errs = append(errs, lengthError("username", "Username", 3, 25))
	}

	email := strings.TrimSpace(form.Email)
	switch {
	case email == "":
		errs = append(errs, required("email", "Email"))
	case !validEmail(email):
		errs = append(errs, models.FieldError{Field: "email", Label: "Email", Message: "Invalid email address."})
	case !lengthBetween(email, 6, 40):
		errs = append(errs, lengthError("email", "Email", 6, 40))
	}

	switch {
	case form.Password == "":
		errs = append(errs, required("password", "Password"))
	case !lengthBetween(form.Password, 6, 40):
		errs = append(errs, lengthError("password", "Password", 6, 40))
	}
	if form.Confirm != form.Password {
		errs = append(errs, models.FieldError{Field: "confirm", Label: "Verify password", Message: "Passwords must match"})
	}

	if utf8.RuneCountInString(form.FirstName) > 50 {
		errs = append(errs, models.FieldError{Field: "first_name", Label: "First Name", Message: "Field cannot be longer than 50 characters."})
	}
	if utf8.RuneCountInString(form.LastName) > 50 {
		errs = append(errs, models.FieldError{Field: "last_name", Label: "Last Name", Message: "Field cannot be longer than 50 characters."})
	}
	if len(errs) > 0 {
		return errs, nil
	}

	if _, err := users.GetUserByUsername(ctx, username); err == nil {
		errs = append(errs, models.FieldError{Field: "username", Label: "Username", Message: "Username already registered"})
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		errs = append(errs, models.FieldError{Field: "email", Label: "Email", Message: "Email already registered"})
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	return errs, nil
}

func required(field, label string) models.FieldError {
	return models.FieldError{Field: field, Label: label, Message: "This field is required."}
}

func lengthError(field, label string, min, max int) models.FieldError {
	return models.FieldError{
		Field:   field,
		Label:   label,
		Message: fmt.Sprintf("Field must be between %d and %d characters long.", min, max),
	}
}

func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, ".")
}
