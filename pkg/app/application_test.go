package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"milovat/pkg/config"
	"milovat/pkg/logger"
	"milovat/pkg/middleware"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

type routes func(*httprouter.Router)

func (f routes) RegisterRoutes(r *httprouter.Router) { f(r) }

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Log:                logger.Discard(),
		RateLimitRequests:  3,
		RateLimitWindow:    time.Minute,
		RequestTimeout:     time.Second,
		IdempotencyTTL:     time.Minute,
		MaxRequestSize:     1 << 10,
		CORSAllowedOrigins: []string{"https://app.example.com"},
		ShutdownTimeout:    time.Second,
	}
}

func TestApplication_Routing(t *testing.T) {
	health := routes(func(r *httprouter.Router) {
		r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		})
	})
	bookings := routes(func(r *httprouter.Router) {
		r.GET("/bookings", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		})
		r.GET("/bookings/:id", func(_ http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			panic("handler bug")
		})
	})

	a := NewApplication()
	a.SetApp(testConfig(), health, bookings)
	defer a.rateLimiter.Stop()
	defer a.idempotencyStore.Stop()

	serve := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := serve("/bookings")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))

	assert.Equal(t, http.StatusNotFound, serve("/nowhere").Code)
	assert.Equal(t, http.StatusInternalServerError, serve("/bookings/x").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve("/bookings").Code)

	for range 5 {
		assert.Equal(t, http.StatusOK, serve("/health").Code, "health is not rate limited")
	}
}
