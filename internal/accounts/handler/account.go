package handler

import (
	"errors"
	"io"
	"net/http"

	"milovat/internal/accounts/service"
	"milovat/pkg/auth"
	"milovat/pkg/contracts"
	apperrors "milovat/pkg/errors"
	httputil "milovat/pkg/http"
	"milovat/pkg/logger"
	"milovat/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type IdentityResponse struct {
	UserID string     `json:"userId"`
	Role   model.Role `json:"role"`
}

var _ contracts.Handler = (*AccountHandler)(nil)

type AccountHandler struct {
	service service.AccountService
	gate    auth.Gate
	log     *logger.Logger
}

func NewAccountHandler(service service.AccountService, gate auth.Gate, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		gate:    gate,
		log:     log,
	}
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var creds model.Credentials
	if !h.decode(w, r, &creds) {
		return
	}

	result, err := h.service.Login(r.Context(), &creds)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, _ := auth.FromContext(r.Context())
	if err := httputil.WriteSuccess(w, IdentityResponse{UserID: id.UserID, Role: id.Role}); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	users, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteList(w, users, total); err != nil {
		h.log.Error("failed to write list response", "handler", "GetAll", "operation", "WriteList", "error", err)
	}
}

func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.NewUser
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AccountHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := httputil.DecodeJSON(r, dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		err = apperrors.InvalidInput("Request body is required")
	}
	httputil.WriteError(w, err)
	return false
}

func (h *AccountHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/auth/login", h.Login)
	router.GET("/auth/me", auth.RequireAuth(h.gate, h.Me))

	router.GET("/users", auth.RequireAuth(h.gate, h.GetAll))
	router.GET("/users/:id", auth.RequireAuth(h.gate, h.GetByID))
	router.POST("/users", auth.RequireAuth(h.gate, auth.RequireRole(h.Register, model.RoleAdmin)))
	router.DELETE("/users/:id", auth.RequireAuth(h.gate, auth.RequireRole(h.Delete, model.RoleAdmin)))
}
