package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "milovat/pkg/errors"
)

const MaxPaginationLimit = 500

// ExtractLimitOffset reads ?limit=&offset=. A zero limit means no limit.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return NormalizePaginationLimit(limit), offset, nil
}

func NormalizePaginationLimit(limit int) int {
	if limit > MaxPaginationLimit {
		return MaxPaginationLimit
	}
	return max(0, limit)
}

// FirstQueryValue returns the first non-empty value among the given parameter names.
func FirstQueryValue(r *http.Request, names ...string) string {
	query := r.URL.Query()
	for _, name := range names {
		if v := strings.TrimSpace(query.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// DecodeJSON decodes the request body into dst. An empty body is reported through io.EOF
// so callers that accept bodiless requests can detect it.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}
