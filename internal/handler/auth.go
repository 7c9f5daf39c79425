package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/model"
	"github.com/BuzzLyutic/taskdesk/internal/service"
	"github.com/BuzzLyutic/taskdesk/pkg/respond"
)

type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(srv *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: srv, logger: logger}
}

func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	pair, err := h.service.Login(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Error(w, r, http.StatusUnauthorized, "no active account found with the given credentials")
	case err != nil:
		h.logger.Error("login failed", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	default:
		respond.JSON(w, r, http.StatusOK, pair)
	}
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		respond.Fields(w, r, model.FieldErrors{"refresh": {"This field is required."}})
		return
	}

	access, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		h.logger.Debug("refresh rejected", zap.Error(err))
		respond.Error(w, r, http.StatusUnauthorized, "token is invalid or expired")
		return
	}
	respond.JSON(w, r, http.StatusOK, model.AccessToken{Access: access})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	u, err := h.service.Register(r.Context(), req)
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		respond.Fields(w, r, ve.Fields)
	case err != nil:
		h.logger.Error("register failed", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	default:
		respond.JSON(w, r, http.StatusCreated, u)
	}
}
