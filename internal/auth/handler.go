package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/megaqc-web/internal/models"
	"github.com/ayush/megaqc-web/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Renderer renders a named page template.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	sessions *SessionStore
	flashes  *FlashStore
	pages    Renderer
	log      *slog.Logger
	cost     int
}

func NewHandler(users UserStore, sessions *SessionStore, flashes *FlashStore, pages Renderer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		users:    users,
		sessions: sessions,
		flashes:  flashes,
		pages:    pages,
		log:      log,
		cost:     bcrypt.DefaultCost,
	}
}

// LoadUser rehydrates the user behind a session. A missing or inactive
// user yields nil without error.
func LoadUser(ctx context.Context, users UserStore, id int64) (*models.User, error) {
	user, err := users.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	if !user.Active {
		return nil, nil
	}
	return user, nil
}

// Login renders the login form and authenticates submitted credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.pages.Render(w, r, http.StatusOK, "login", map[string]any{
			"Form": models.LoginForm{},
			"Next": r.URL.Query().Get("next"),
		})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}
	form := models.LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	user, errs, err := validateLogin(r.Context(), h.users, form)
	if err != nil {
		h.log.Error("login lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if len(errs) > 0 {
		h.pages.Render(w, r, http.StatusOK, "login", map[string]any{
			"Form":   models.LoginForm{Username: form.Username},
			"Errors": errs,
			"Next":   r.URL.Query().Get("next"),
		})
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		h.log.Error("session creation failed", "user_id", user.ID, "error", err)
		http.Error(w, "session creation failed", http.StatusInternalServerError)
		return
	}
	h.log.Info("user logged in", "user_id", user.ID)
	h.flashes.Add(w, r, FlashSuccess, fmt.Sprintf("Welcome %s! You are now logged in.", user.FirstName))
	http.Redirect(w, r, SafeRedirect(r.URL.Query().Get("next"), "/"), http.StatusSeeOther)
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid := SessionFromContext(r.Context()); sid != "" {
		if err := h.sessions.Delete(r.Context(), sid); err != nil {
			h.log.Warn("session delete failed", "error", err)
		}
	}
	http.SetCookie(w, h.sessions.ExpiredCookie())
	h.flashes.Add(w, r, FlashInfo, "You are logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Register creates a new active user and logs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.pages.Render(w, r, http.StatusOK, "register", map[string]any{"Form": models.RegisterForm{}})
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}
	form := models.RegisterForm{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  r.PostFormValue("password"),
		Confirm:   r.PostFormValue("confirm"),
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
	}

	errs, err := validateRegister(r.Context(), h.users, form)
	if err != nil {
		h.log.Error("register lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var user *models.User
	if len(errs) == 0 {
		user, err = h.createUser(r.Context(), form)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			errs = append(errs, models.FieldError{Message: "Username or email already registered"})
		case err != nil:
			h.log.Error("create user failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}
	if len(errs) > 0 {
		form.Password, form.Confirm = "", ""
		h.pages.Render(w, r, http.StatusOK, "register", map[string]any{
			"Form":   form,
			"Errors": errs,
		})
		return
	}

	h.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	if err := h.startSession(w, r, user); err != nil {
		h.log.Error("session creation failed", "user_id", user.ID, "error", err)
		http.Error(w, "session creation failed", http.StatusInternalServerError)
		return
	}
	h.flashes.Add(w, r, FlashSuccess, "Thanks for registering! You're now logged in.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) createUser(ctx context.Context, form models.RegisterForm) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password), h.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h.users.CreateUser(ctx, models.NewUser{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: string(hashed),
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Active:       true,
		APIToken:     uuid.New().String(),
	})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	if old, err := r.Cookie(SessionCookie); err == nil && old.Value != "" {
		_ = h.sessions.Delete(r.Context(), old.Value)
	}
	sid, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, h.sessions.Cookie(sid))
	return nil
}
