package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bitjob/backend/internal/application/verification"
	"github.com/bitjob/backend/internal/pkg/validate"
)

// VerificationHandler handles the email code flows that gate registration
// and password reset.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// codeRequest accepts the code as either a JSON string or a JSON number.
type codeRequest struct {
	Email            string      `json:"email" validate:"required,email"`
	RegistrationCode json.Number `json:"registration_code"`
	ForgetCode       json.Number `json:"forget_code"`
}

func (h *VerificationHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := h.svc.CheckEmail(r.Context(), req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *VerificationHandler) SendRegistrationCode(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.svc.SendRegistrationCode)
}

func (h *VerificationHandler) SendForgetPasswordCode(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.svc.SendForgetPasswordCode)
}

func (h *VerificationHandler) VerifyRegistrationCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.VerifyRegistrationCode(r.Context(), req.Email, req.RegistrationCode.String()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "email verified"})
}

func (h *VerificationHandler) VerifyForgetPasswordCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.VerifyForgetPasswordCode(r.Context(), req.Email, req.ForgetCode.String()); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "email verified"})
}

func (h *VerificationHandler) send(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, email string) error) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := fn(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "code sent"})
}
