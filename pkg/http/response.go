package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "milovat/pkg/errors"
)

const HeaderTotalCount = "X-Total-Count"

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// no recovery possible after WriteHeader, the caller logs
	return json.NewEncoder(w).Encode(data)
}

// WriteError renders err as {"code","message","details"} using the status carried by the AppError.
// Anything that is not an AppError becomes a 500 without leaking the cause.
func WriteError(w http.ResponseWriter, err error) {
	appErr := apperrors.AsAppError(err)
	_ = WriteJSON(w, appErr.StatusCode(), appErr.Response())
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, data)
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, data)
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteList writes items as a bare JSON array and exposes the unpaged total in X-Total-Count.
func WriteList[T any](w http.ResponseWriter, items []T, totalCount int64) error {
	if items == nil {
		items = []T{}
	}
	w.Header().Set(HeaderTotalCount, strconv.FormatInt(totalCount, 10))
	return WriteJSON(w, http.StatusOK, items)
}
