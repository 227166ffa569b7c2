// Package httpapi provides HTTP handlers for the chatbot API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rids-cl/webchat/assistant"
	"github.com/rids-cl/webchat/chat"
	"github.com/rids-cl/webchat/internal/mail"
	"github.com/rids-cl/webchat/logging"
)

// Orchestrator is the chat surface the HTTP layer depends on.
type Orchestrator interface {
	Handle(ctx context.Context, req chat.Request) (chat.Result, error)
}

// Handler holds the API dependencies.
type Handler struct {
	orch   Orchestrator
	mailer mail.Mailer
	info   ServiceInfo
	logger logging.Logger
}

// ServiceInfo is the static metadata exposed on /api/info.
type ServiceInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Options configure a Handler.
type Options struct {
	// Mailer relays contact-form submissions; nil disables /api/contact.
	Mailer mail.Mailer
	// Logger receives request diagnostics.
	Logger logging.Logger
}

// NewHandler creates a Handler with its dependencies.
func NewHandler(orch Orchestrator, info ServiceInfo, optFns ...func(o *Options)) *Handler {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Handler{orch: orch, mailer: opts.Mailer, info: info, logger: opts.Logger}
}

// Routes mounts all API endpoints on a new chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Get("/api/info", h.Info)
	r.Get("/api/ia/health", h.ChatHealth)
	r.Post("/api/ia/chat", h.Chat)
	r.Post("/api/contact", h.Contact)
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]interface{}{"ok": false, "error": message})
}

// Health reports overall service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info reports static service metadata.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.info)
}

// ChatHealth reports liveness of the assistant subsystem.
func (h *Handler) ChatHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"provider": h.info.Provider,
		"model":    h.info.Model,
	})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Channel   string `json:"channel"`
}

type chatResponse struct {
	OK         bool    `json:"ok"`
	SessionID  string  `json:"sessionId"`
	Reply      string  `json:"reply"`
	Turns      int     `json:"turns"`
	RedirectTo *string `json:"redirectTo"`
}

// Chat runs one conversational turn.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.orch.Handle(r.Context(), chat.Request{
		SessionID: req.SessionID,
		Text:      req.Text,
		Channel:   req.Channel,
	})
	if err != nil {
		var chatErr *chat.Error
		if errors.As(err, &chatErr) && chatErr.Code != chat.CodeInternal {
			Error(w, statusForCode(chatErr.Code), chatErr.Reason)
			return
		}
		// Internal reasons stay in the logs, never on the wire.
		h.logger.Error("chat turn failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal_error")
		return
	}

	var redirect *string
	if res.Redirect != assistant.DirectiveNone {
		v := string(res.Redirect)
		redirect = &v
	}
	JSON(w, http.StatusOK, chatResponse{
		OK:         true,
		SessionID:  res.SessionID,
		Reply:      res.Reply,
		Turns:      res.Turns,
		RedirectTo: redirect,
	})
}

func statusForCode(code chat.ErrorCode) int {
	switch code {
	case chat.CodeInvalidInput:
		return http.StatusBadRequest
	case chat.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type contactRequest struct {
	Nombre    string `json:"nombre"`
	Email     string `json:"email"`
	Mensaje   string `json:"mensaje"`
	Categoria string `json:"categoria"`
}

var contactEmailRe = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// Contact relays a contact-form submission by mail.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	if h.mailer == nil {
		Error(w, http.StatusServiceUnavailable, "el formulario de contacto no está disponible")
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Nombre = strings.TrimSpace(req.Nombre)
	req.Email = strings.TrimSpace(req.Email)
	req.Mensaje = strings.TrimSpace(req.Mensaje)
	switch {
	case req.Nombre == "":
		Error(w, http.StatusBadRequest, "el nombre es obligatorio")
		return
	case !contactEmailRe.MatchString(req.Email):
		Error(w, http.StatusBadRequest, "el email no es válido")
		return
	case req.Mensaje == "":
		Error(w, http.StatusBadRequest, "el mensaje es obligatorio")
		return
	}

	err := h.mailer.Send(r.Context(), mail.Message{
		Nombre:    req.Nombre,
		Email:     req.Email,
		Mensaje:   req.Mensaje,
		Categoria: req.Categoria,
	})
	if err != nil {
		h.logger.Error("contact mail failed", "error", err)
		Error(w, http.StatusInternalServerError, "no pudimos enviar tu mensaje, inténtalo más tarde")
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
