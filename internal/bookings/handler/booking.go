package handler

import (
	"errors"
	"io"
	"net/http"

	"milovat/internal/bookings/service"
	"milovat/pkg/auth"
	"milovat/pkg/contracts"
	apperrors "milovat/pkg/errors"
	httputil "milovat/pkg/http"
	"milovat/pkg/logger"
	"milovat/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// occupiedHoursSegment shares the /bookings/:id route; httprouter cannot hold a static
// sibling of a parameter segment.
const occupiedHoursSegment = "horarios"

var _ contracts.Handler = (*BookingHandler)(nil)

type BookingHandler struct {
	service service.BookingService
	gate    auth.Gate
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, gate auth.Gate, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		gate:    gate,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if !h.decode(w, r, &req, "Create") {
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

// GetByID also serves GET /bookings/horarios.
func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == occupiedHoursSegment {
		h.OccupiedHours(w, r, ps)
		return
	}

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteList(w, bookings, total); err != nil {
		h.log.Error("failed to write list response", "handler", "GetAll", "operation", "WriteList", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var req model.BookingRequest
	if !h.decode(w, r, &req, "Update") {
		return
	}

	booking, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// OccupiedHours accepts ?facility=&date= as well as the instalacion/fecha aliases.
func (h *BookingHandler) OccupiedHours(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	facility := httputil.FirstQueryValue(r, "facility", "instalacion")
	date := httputil.FirstQueryValue(r, "date", "fecha")

	slots, err := h.service.OccupiedHours(r.Context(), facility, date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "OccupiedHours", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, dst any, handler string) bool {
	err := httputil.DecodeJSON(r, dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		err = apperrors.InvalidInput("Request body is required")
	}
	h.log.Debug("rejected request body", "handler", handler, "error", err)
	httputil.WriteError(w, err)
	return false
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/bookings", auth.RequireAuth(h.gate, h.GetAll))
	router.POST("/bookings", auth.RequireAuth(h.gate, h.Create))
	router.GET("/bookings/:id", auth.RequireAuth(h.gate, h.GetByID))
	router.PATCH("/bookings/:id", auth.RequireAuth(h.gate, h.Update))
	router.DELETE("/bookings/:id", auth.RequireAuth(h.gate, h.Delete))
}
