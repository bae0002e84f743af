package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hopefoundation/backend/internal/services"
)

type CommunityHandler struct {
	service   *services.CommunityService
	validator *services.ValidationHelper
}

func NewCommunityHandler(service *services.CommunityService) *CommunityHandler {
	return &CommunityHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// SubmitContact handles contact-form submissions
// @Summary Submit a contact message
// @Tags community
// @Accept json
// @Produce json
// @Param request body services.ContactRequest true "Contact message"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Router /contact [post]
func (h *CommunityHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req services.ContactRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	ip := requestIP(r)
	if err := h.service.CheckRateLimit(r.Context(), ip); err != nil {
		services.SendErrorResponse(w, "Too many submissions, try again later", http.StatusTooManyRequests, nil)
		return
	}

	id, err := h.service.SubmitContact(r.Context(), &req)
	if err != nil {
		log.Printf("[COMMUNITY] Contact submission failed: %v", err)
		services.SendErrorResponse(w, "Failed to submit message", http.StatusInternalServerError, nil)
		return
	}

	h.service.IncrementRateLimit(r.Context(), ip)
	services.SendJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      id,
	})
}

// Subscribe handles newsletter signups
// @Summary Subscribe to the newsletter
// @Tags community
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Subscriber email"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} services.ErrorResponse
// @Router /newsletter/subscribe [post]
func (h *CommunityHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	ip := requestIP(r)
	if err := h.service.CheckRateLimit(r.Context(), ip); err != nil {
		services.SendErrorResponse(w, "Too many submissions, try again later", http.StatusTooManyRequests, nil)
		return
	}

	token, err := h.service.Subscribe(r.Context(), req.Email)
	if err != nil {
		log.Printf("[COMMUNITY] Newsletter signup failed: %v", err)
		services.SendErrorResponse(w, "Failed to subscribe", http.StatusInternalServerError, nil)
		return
	}

	h.service.IncrementRateLimit(r.Context(), ip)
	services.SendJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"message":          "Subscribed successfully",
		"unsubscribeToken": token,
	})
}

// Unsubscribe deactivates a newsletter subscription
// @Summary Unsubscribe from the newsletter
// @Tags community
// @Produce json
// @Param token path string true "Unsubscribe token"
// @Success 200 {object} map[string]string
// @Failure 404 {object} services.ErrorResponse
// @Router /newsletter/unsubscribe/{token} [get]
func (h *CommunityHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.service.Unsubscribe(r.Context(), token); err != nil {
		if err == services.ErrTokenNotFound {
			services.SendErrorResponse(w, "Subscription not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[COMMUNITY] Unsubscribe failed: %v", err)
			services.SendErrorResponse(w, "Failed to unsubscribe", http.StatusInternalServerError, nil)
		}
		return
	}

	services.SendJSON(w, http.StatusOK, map[string]string{"message": "Unsubscribed successfully"})
}

func requestIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
