package auth

import (
	"net/http"
	"strings"

	apperrors "milovat/pkg/errors"
	httputil "milovat/pkg/http"
	"milovat/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const bearerPrefix = "bearer "

// RequireAuth rejects requests without a valid bearer token and stores the Identity in the
// request context for next.
func RequireAuth(gate Gate, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			httputil.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
			return
		}

		id, err := gate.Authenticate(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		next(w, r.WithContext(WithIdentity(r.Context(), id)), ps)
	}
}

// RequireRole must run inside RequireAuth.
func RequireRole(next httprouter.Handle, roles ...model.Role) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, ok := FromContext(r.Context())
		if !ok {
			httputil.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
			return
		}
		if !id.HasRole(roles...) {
			httputil.WriteError(w, apperrors.Forbidden("Insufficient role for this operation"))
			return
		}
		next(w, r, ps)
	}
}
