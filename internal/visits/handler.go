package visits

import (
	"net/http"

	"milovat/pkg/auth"
	"milovat/pkg/contracts"
	httputil "milovat/pkg/http"
	"milovat/pkg/logger"
	"milovat/pkg/model"

	"github.com/julienschmidt/httprouter"
)

var _ contracts.Handler = (*PassHandler)(nil)

type PassHandler struct {
	service PassService
	gate    auth.Gate
	log     *logger.Logger
}

func NewPassHandler(service PassService, gate auth.Gate, log *logger.Logger) *PassHandler {
	return &PassHandler{
		service: service,
		gate:    gate,
		log:     log,
	}
}

func (h *PassHandler) Issue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	pass, err := h.service.Issue(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, pass); err != nil {
		h.log.Error("failed to write created response", "handler", "Issue", "operation", "WriteCreated", "error", err)
	}
}

func (h *PassHandler) Verify(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	visit, err := h.service.Verify(r.Context(), ps.ByName("token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, visit); err != nil {
		h.log.Error("failed to write success response", "handler", "Verify", "operation", "WriteSuccess", "error", err)
	}
}

// RegisterRoutes uses /visit-passes for verification; httprouter cannot mix a static
// /visits/pass segment with /visits/:id.
func (h *PassHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/visits/:id/pass", auth.RequireAuth(h.gate, h.Issue))
	router.GET("/visit-passes/:token", auth.RequireAuth(h.gate, auth.RequireRole(h.Verify, model.RoleGuard, model.RoleAdmin)))
}
