// Package contact relays authenticated contact-us messages to the
// operator mailbox.
package contact

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stocklist-app/stocklist/internal/auth"
	"github.com/stocklist-app/stocklist/internal/mail"
	"github.com/stocklist-app/stocklist/internal/platform/httpx"
	"github.com/stocklist-app/stocklist/internal/users"
)

// Handler wires the contact-us endpoint.
type Handler struct {
	logger        *slog.Logger
	users         *users.Service
	mailer        mail.Mailer
	operatorEmail string
	authmw        *auth.Middleware
	includeStack  bool
}

// NewHandler constructs a Handler. Mails go to and from the operator
// address, with the caller's email as reply-to.
func NewHandler(logger *slog.Logger, usersService *users.Service, mailer mail.Mailer, operatorEmail string, authmw *auth.Middleware, includeStack bool) *Handler {
	return &Handler{
		logger:        logger,
		users:         usersService,
		mailer:        mailer,
		operatorEmail: operatorEmail,
		authmw:        authmw,
		includeStack:  includeStack,
	}
}

// MountRoutes registers the contact route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authmw.RequireAuth)
		r.Post("/", h.contactUs)
	})
}

type contactInput struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *Handler) contactUs(w http.ResponseWriter, r *http.Request) {
	var input contactInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, httpx.BadRequest("Invalid request body"), h.includeStack)
		return
	}

	// Existence before presence: matches the route's established contract.
	user, err := h.users.GetProfile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		var herr *httpx.Error
		if errors.As(err, &herr) && herr.Status == http.StatusBadRequest {
			err = httpx.BadRequest("User not found, please sign in")
		}
		httpx.RespondError(w, err, h.includeStack)
		return
	}

	if input.Subject == "" || input.Message == "" {
		httpx.RespondError(w, httpx.BadRequest("Please fill in the required fields"), h.includeStack)
		return
	}

	msg := mail.Message{
		Subject: input.Subject,
		Body:    input.Message,
		To:      h.operatorEmail,
		From:    h.operatorEmail,
		ReplyTo: user.Email,
	}
	if err := h.mailer.Send(r.Context(), msg); err != nil {
		h.logger.Error("send contact email", slog.Any("error", err))
		httpx.RespondError(w, httpx.Internal("Email not sent, please try again"), h.includeStack)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Email Sent"})
}
