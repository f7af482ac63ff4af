package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"milovat/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type pingFunc func(ctx context.Context, rp *readpref.ReadPref) error

func (f pingFunc) Ping(ctx context.Context, rp *readpref.ReadPref) error { return f(ctx, rp) }

func TestHandler(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		ping   error
		status int
		want   Response
	}{
		{"health ignores database", "/health", errors.New("down"), http.StatusOK, Response{Status: "ok"}},
		{"ready", "/ready", nil, http.StatusOK, Response{Status: "ready", Database: "ok"}},
		{"not ready", "/ready", errors.New("no reachable servers"), http.StatusServiceUnavailable, Response{Status: "unavailable", Database: "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHandler(pingFunc(func(ctx context.Context, _ *readpref.ReadPref) error {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return tt.ping
			}), logger.Discard()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			var got Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
