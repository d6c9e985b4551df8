package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mystic-aac/accountcenter/internal/auth"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/services"
	"github.com/mystic-aac/accountcenter/internal/views"
	pkgauth "github.com/mystic-aac/accountcenter/pkg/auth"
	pkghttp "github.com/mystic-aac/accountcenter/pkg/http"
)

// AuthServiceInterface defines the interface for login and registration
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, attempt services.LoginAttempt) (*models.SessionUser, error)
	CompleteLogin(ctx context.Context, user *models.SessionUser, attempt services.LoginAttempt)
	Register(ctx context.Context, req services.RegisterRequest, ipAddress string) (*models.Account, error)
	Logout(user *models.SessionUser, ipAddress string)
}

// AccountServiceInterface defines the interface for profile management
type AccountServiceInterface interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	UpdateEmail(ctx context.Context, id int64, email, ipAddress string) (*models.Account, error)
}

// AccountHandler handles registration, login, logout and the profile page
type AccountHandler struct {
	auth     AuthServiceInterface
	accounts AccountServiceInterface
	sessions SessionControl
	render   *Renderer
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(authService AuthServiceInterface, accounts AccountServiceInterface, sessions SessionControl, render *Renderer, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		auth:     authService,
		accounts: accounts,
		sessions: sessions,
		render:   render,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// Request DTOs

// LoginForm represents the login form
type LoginForm struct {
	Username string `form:"username" validate:"required,min=3,max=50"`
	Password string `form:"password" validate:"required,max=100"`
}

// CreateAccountForm represents the registration form
type CreateAccountForm struct {
	Username        string `form:"username" validate:"required,username"`
	Email           string `form:"email" validate:"required,email,max=255"`
	Password        string `form:"password" validate:"required,min=8,max=100"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

// ProfileForm represents the profile update form
type ProfileForm struct {
	Email string `form:"email" validate:"required,email,max=255"`
}

type profileData struct {
	Account *models.Account
}

const (
	msgInvalidCredentials = "Invalid username or password."
	msgAccountExists      = "Username or email already registered."
	msgAccountCreated     = "Account created! Log in to continue."
	msgProfileUpdated     = "Profile updated."
	msgEmailTaken         = "This email is already in use."
)

// CreatePage renders the registration form
func (h *AccountHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, views.PageAccountCreate, PageData{Title: "Create account", Data: CreateAccountForm{}})
}

// Create handles registration
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.RenderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	form := CreateAccountForm{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
	// Never echo passwords back into the page
	redisplay := CreateAccountForm{Username: form.Username, Email: form.Email}

	if err := ValidateRequest(form); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, views.PageAccountCreate, PageData{
			Title: "Create account", Error: err.Error(), Data: redisplay,
		})
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	_, err := h.auth.Register(r.Context(), services.RegisterRequest{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	}, ip)
	if err != nil {
		status, message := http.StatusInternalServerError, "Could not create the account."
		switch {
		case errors.Is(err, models.ErrConflict):
			status, message = http.StatusConflict, msgAccountExists
		case errors.Is(err, models.ErrBadRequest):
			status, message = http.StatusBadRequest, registrationMessage(err)
		}
		h.render.Render(w, r, status, views.PageAccountCreate, PageData{
			Title: "Create account", Error: message, Data: redisplay,
		})
		return
	}

	if err := h.sessions.AddFlash(w, r, msgAccountCreated); err != nil {
		h.logger.Warn("failed to queue flash message", slog.Any("error", err))
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

func registrationMessage(err error) string {
	var pve *pkgauth.PasswordValidationError
	if errors.As(err, &pve) {
		return "Password " + strings.Join(pve.Errors, ", ") + "."
	}
	return "Invalid registration data."
}

// LoginPage renders the login form
func (h *AccountHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, views.PageLogin, PageData{Title: "Login", Data: LoginForm{}})
}

// Login runs the guarded login flow: attempt guard, credential check,
// session install, then counter reset
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.RenderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	form := LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	redisplay := LoginForm{Username: form.Username}

	if err := ValidateRequest(form); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, views.PageLogin, PageData{
			Title: "Login", Error: msgInvalidCredentials, Data: redisplay,
		})
		return
	}

	attempt := services.LoginAttempt{
		Username:      form.Username,
		Password:      form.Password,
		IPAddress:     pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:     r.UserAgent(),
		Authenticated: currentUser(h.sessions, r) != nil,
	}

	user, err := h.auth.Authenticate(r.Context(), attempt)
	if err != nil {
		var rl *auth.RateLimitedError
		switch {
		case errors.As(err, &rl):
			w.Header().Set("Retry-After", strconv.Itoa(rl.RemainingMinutes*60))
			h.render.Render(w, r, http.StatusTooManyRequests, views.PageLogin, PageData{
				Title: "Login",
				Error: fmt.Sprintf("Too many login attempts. Try again in %d minutes.", rl.RemainingMinutes),
				Data:  redisplay,
			})
		case errors.Is(err, models.ErrInvalidCredentials):
			h.render.Render(w, r, http.StatusUnauthorized, views.PageLogin, PageData{
				Title: "Login", Error: msgInvalidCredentials, Data: redisplay,
			})
		default:
			h.render.RenderError(w, r, http.StatusInternalServerError, "Login is unavailable right now.")
		}
		return
	}

	if err := h.sessions.SetPrincipal(w, r, *user); err != nil {
		h.logger.Error("failed to start session", slog.Int64("account_id", user.ID), slog.Any("error", err))
		h.render.RenderError(w, r, http.StatusInternalServerError, "Could not start the session. Try again.")
		return
	}

	h.auth.CompleteLogin(r.Context(), user, attempt)
	http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
}

// Logout destroys the session
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(currentUser(h.sessions, r), pkghttp.ExtractClientIP(r, h.ipConfig))

	if err := h.sessions.Destroy(w, r); err != nil {
		h.logger.Warn("failed to destroy session", slog.Any("error", err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LegacyLogin redirects the old login path
func (h *AccountHandler) LegacyLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, auth.LoginPath, http.StatusMovedPermanently)
}

// ProfilePage renders the signed-in account with its email form
func (h *AccountHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.sessions, r)
	if user == nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), user.ID)
	if err != nil {
		h.render.RenderError(w, r, http.StatusInternalServerError, "Could not load your profile.")
		return
	}

	h.render.Render(w, r, http.StatusOK, views.PageProfile, PageData{Title: "Profile", Data: profileData{Account: account}})
}

// UpdateProfile changes the account email and refreshes the session principal
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(h.sessions, r)
	if user == nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render.RenderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	form := ProfileForm{Email: r.PostFormValue("email")}
	if err := ValidateRequest(form); err != nil {
		h.renderProfileError(w, r, user, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.UpdateEmail(r.Context(), user.ID, form.Email, pkghttp.ExtractClientIP(r, h.ipConfig))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			h.renderProfileError(w, r, user, http.StatusConflict, msgEmailTaken)
		case errors.Is(err, models.ErrBadRequest):
			h.renderProfileError(w, r, user, http.StatusBadRequest, "Invalid email.")
		default:
			h.render.RenderError(w, r, http.StatusInternalServerError, "Could not update your profile.")
		}
		return
	}

	if err := h.sessions.RefreshPrincipal(w, r, account.SessionUser()); err != nil {
		h.logger.Warn("failed to refresh session principal", slog.Int64("account_id", user.ID), slog.Any("error", err))
	}
	if err := h.sessions.AddFlash(w, r, msgProfileUpdated); err != nil {
		h.logger.Warn("failed to queue flash message", slog.Any("error", err))
	}
	http.Redirect(w, r, "/account/profile", http.StatusSeeOther)
}

func (h *AccountHandler) renderProfileError(w http.ResponseWriter, r *http.Request, user *models.SessionUser, status int, message string) {
	account, err := h.accounts.GetAccount(r.Context(), user.ID)
	if err != nil {
		h.render.RenderError(w, r, http.StatusInternalServerError, "Could not load your profile.")
		return
	}
	h.render.Render(w, r, status, views.PageProfile, PageData{Title: "Profile", Error: message, Data: profileData{Account: account}})
}
