package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stocklist-app/stocklist/internal/auth"
	"github.com/stocklist-app/stocklist/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the account lifecycle.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	tokens       *auth.TokenManager
	authmw       *auth.Middleware
	includeStack bool
}

// NewHandler constructs a Handler instance. includeStack controls whether
// error bodies carry a stack trace (non-production only).
func NewHandler(logger *slog.Logger, service *Service, tokens *auth.TokenManager, authmw *auth.Middleware, includeStack bool) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		tokens:       tokens,
		authmw:       authmw,
		includeStack: includeStack,
	}
}

// MountRoutes registers user routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
	r.Get("/loggedin", h.loginStatus)
	r.Post("/forgotpassword", h.forgotPassword)
	r.Put("/resetpassword/{resetToken}", h.resetPassword)

	r.Group(func(r chi.Router) {
		r.Use(h.authmw.RequireAuth)
		r.Get("/getuser", h.getUser)
		r.Patch("/updateuser", h.updateUser)
		r.Patch("/changepassword", h.changePassword)
	})
}

// authResponse is the register/login payload: the sanitized projection
// plus the session token.
type authResponse struct {
	Profile
	Token string `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, httpx.BadRequest("Invalid request body"))
		return
	}
	user, token, err := h.service.Register(r.Context(), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, authResponse{Profile: user.Profile(), Token: token})
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, httpx.BadRequest("Invalid request body"))
		return
	}
	user, token, err := h.service.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	auth.SetSessionCookie(w, token, h.tokens.TTL())
	httpx.JSON(w, http.StatusOK, authResponse{Profile: user.Profile(), Token: token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Successfully Logged Out"})
}

// loginStatus never fails: absent and invalid tokens both read as false.
func (h *Handler) loginStatus(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		httpx.JSON(w, http.StatusOK, false)
		return
	}
	if _, err := h.tokens.Verify(cookie.Value); err != nil {
		httpx.JSON(w, http.StatusOK, false)
		return
	}
	httpx.JSON(w, http.StatusOK, true)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Profile())
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, httpx.BadRequest("Invalid request body"))
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), auth.UserIDFromContext(r.Context()), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Profile())
}

type changePasswordInput struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var input changePasswordInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, httpx.BadRequest("Invalid request body"))
		return
	}
	err := h.service.ChangePassword(r.Context(), auth.UserIDFromContext(r.Context()), input.OldPassword, input.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.Text(w, http.StatusOK, "Password changed successfully")
}

type forgotPasswordInput struct {
	Email string `json:"email"`
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var input forgotPasswordInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, httpx.BadRequest("Invalid request body"))
		return
	}
	if err := h.service.ForgotPassword(r.Context(), input.Email); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Reset Email Sent"})
}

type resetPasswordInput struct {
	Password string `json:"password"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var input resetPasswordInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		h.fail(w, httpx.BadRequest("Invalid request body"))
		return
	}
	secret := chi.URLParam(r, "resetToken")
	if secret == "" {
		h.fail(w, httpx.NotFound("Invalid or expired token"))
		return
	}
	if err := h.service.ResetPassword(r.Context(), secret, input.Password); err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully. Please login."})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	httpx.RespondError(w, err, h.includeStack)
}
