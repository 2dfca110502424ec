package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/megaqc-web/internal/models"
	"github.com/ayush/megaqc-web/internal/store"
)

type stubUsers struct {
	byName map[string]*models.User
	err    error
}

func (s *stubUsers) CreateUser(context.Context, models.NewUser) (*models.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.byName[username]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byName {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func newStubUsers(t *testing.T) *stubUsers {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("lovelace1"), bcrypt.MinCost)
	require.NoError(t, err)
	return &stubUsers{byName: map[string]*models.User{
		"ada": {ID: 1, Username: "ada", Email: "ada@example.org", PasswordHash: string(hash), Active: true},
		"bob": {ID: 2, Username: "bob", Email: "bob@example.org", PasswordHash: string(hash), Active: false},
	}}
}

func messages(errs []models.FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.String())
	}
	return out
}

func TestValidateLogin(t *testing.T) {
	users := newStubUsers(t)
	ctx := context.Background()

	u, errs, err := validateLogin(ctx, users, models.LoginForm{Username: "ada", Password: "lovelace1"})
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.EqualValues(t, 1, u.ID)

	_, errs, err = validateLogin(ctx, users, models.LoginForm{Username: "ada", Password: "wrong"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Password - Invalid password"}, messages(errs))

	_, errs, _ = validateLogin(ctx, users, models.LoginForm{Username: "zed", Password: "x"})
	assert.Equal(t, []string{"Username - Unknown username"}, messages(errs))

	_, errs, _ = validateLogin(ctx, users, models.LoginForm{Username: "bob", Password: "lovelace1"})
	assert.Equal(t, []string{"Username - User not activated"}, messages(errs))

	_, errs, _ = validateLogin(ctx, users, models.LoginForm{})
	assert.Len(t, errs, 2)
}

func TestValidateLogin_StoreError(t *testing.T) {
	users := &stubUsers{err: errors.New("connection refused")}
	_, _, err := validateLogin(context.Background(), users, models.LoginForm{Username: "ada", Password: "x"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestValidateRegister(t *testing.T) {
	users := newStubUsers(t)
	ctx := context.Background()
	valid := models.RegisterForm{
		Username: "rosalind",
		Email:    "rosalind@example.org",
		Password: "secret123",
		Confirm:  "secret123",
	}

	errs, err := validateRegister(ctx, users, valid)
	require.NoError(t, err)
	assert.Empty(t, errs)

	cases := []struct {
		name   string
		mutate func(*models.RegisterForm)
		want   string
	}{
		{"short username", func(f *models.RegisterForm) { f.Username = "ro" }, "Username - Field must be between 3 and 25 characters long."},
		{"bad email", func(f *models.RegisterForm) { f.Email = "not-an-email" }, "Email - Invalid email address."},
		{"short password", func(f *models.RegisterForm) { f.Password, f.Confirm = "abc", "abc" }, "Password - Field must be between 6 and 40 characters long."},
		{"mismatch", func(f *models.RegisterForm) { f.Confirm = "other123" }, "Verify password - Passwords must match"},
		{"long name", func(f *models.RegisterForm) { f.FirstName = strings.Repeat("x", 51) }, "First Name - Field cannot be longer than 50 characters."},
		{"taken username", func(f *models.RegisterForm) { f.Username = "ada" }, "Username - Username already registered"},
		{"taken email", func(f *models.RegisterForm) { f.Email = "bob@example.org" }, "Email - Email already registered"},
		{"missing username", func(f *models.RegisterForm) { f.Username = "" }, "Username - This field is required."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := valid
			tc.mutate(&form)
			errs, err := validateRegister(ctx, users, form)
			require.NoError(t, err)
			assert.Contains(t, messages(errs), tc.want)
		})
	}
}

func TestLoadUser(t *testing.T) {
	users := newStubUsers(t)
	ctx := context.Background()

	u, err := LoadUser(ctx, users, 1)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	u, err = LoadUser(ctx, users, 2)
	require.NoError(t, err)
	assert.Nil(t, u, "inactive users are anonymous")

	u, err = LoadUser(ctx, users, 99)
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = LoadUser(ctx, &stubUsers{err: errors.New("boom")}, 1)
	assert.Error(t, err)
}
