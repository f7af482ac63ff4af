package residential

import (
	"errors"
	"io"
	"net/http"

	"milovat/pkg/auth"
	apperrors "milovat/pkg/errors"
	httputil "milovat/pkg/http"
	"milovat/pkg/logger"
	"milovat/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type Handler[T model.Record] struct {
	res     Resource[T]
	service Service[T]
	gate    auth.Gate
	log     *logger.Logger
}

func NewHandler[T model.Record](res Resource[T], service Service[T], gate auth.Gate, log *logger.Logger) *Handler[T] {
	return &Handler[T]{
		res:     res,
		service: service,
		gate:    gate,
		log:     log.With("resource", res.Name),
	}
}

func (h *Handler[T]) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filter := make(map[string]string, len(h.res.Filters))
	for param := range h.res.Filters {
		if v := httputil.FirstQueryValue(r, param); v != "" {
			filter[param] = v
		}
	}

	records, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteList(w, records, total); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func (h *Handler[T]) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rec, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, rec); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler[T]) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rec := h.res.New()
	if err := httputil.DecodeJSON(r, rec); err != nil {
		if errors.Is(err, io.EOF) {
			err = apperrors.InvalidInput("Request body is required")
		}
		httputil.WriteError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), rec)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *Handler[T]) Patch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, apperrors.PayloadTooLarge("Request body too large"))
			return
		}
		httputil.WriteError(w, apperrors.InvalidInput("failed to read request body"))
		return
	}

	rec, err := h.service.Patch(r.Context(), ps.ByName("id"), body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, rec); err != nil {
		h.log.Error("failed to write success response", "handler", "Patch", "operation", "WriteSuccess", "error", err)
	}
}

func (h *Handler[T]) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *Handler[T]) write(next httprouter.Handle) httprouter.Handle {
	if len(h.res.WriteRoles) > 0 {
		next = auth.RequireRole(next, h.res.WriteRoles...)
	}
	return auth.RequireAuth(h.gate, next)
}

func (h *Handler[T]) RegisterRoutes(router *httprouter.Router) {
	item := h.res.Path + "/:id"

	if h.res.Ops.Has(OpList) {
		router.GET(h.res.Path, auth.RequireAuth(h.gate, h.List))
	}
	if h.res.Ops.Has(OpGet) {
		router.GET(item, auth.RequireAuth(h.gate, h.Get))
	}
	if h.res.Ops.Has(OpCreate) {
		router.POST(h.res.Path, h.write(h.Create))
	}
	if h.res.Ops.Has(OpPatch) {
		router.PATCH(item, h.write(h.Patch))
	}
	if h.res.Ops.Has(OpDelete) {
		router.DELETE(item, h.write(h.Delete))
	}
}
