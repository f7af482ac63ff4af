package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "milovat/pkg/errors"
	"milovat/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *BookingClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBookingClient(srv.URL, "test-token")
}

func TestBookingClient_Create(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bookings", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req model.BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Pool", req.Facility)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"665f1c2e9b1e8a0001a1b2c3","facility":"Pool","start":"2024-05-01T10:00:00Z","end":"2024-05-01T11:00:00Z"}`))
	})

	b, err := c.Create(context.Background(), model.BookingRequest{
		Facility: "Pool",
		Start:    "2024-05-01T10:00:00Z",
		End:      "2024-05-01T11:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "665f1c2e9b1e8a0001a1b2c3", b.ID)
	assert.Equal(t, 10, b.Start.Hour())
}

func TestBookingClient_ConflictBecomesAppError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"CONFLICT","message":"facility already booked for that time"}`))
	})

	_, err := c.Create(context.Background(), model.BookingRequest{Facility: "Pool"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, http.StatusConflict, apperrors.AsAppError(err).StatusCode())
}

func TestBookingClient_List(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("X-Total-Count", "12")
		_, _ = w.Write([]byte(`[{"id":"a","facility":"Gym"},{"id":"b","facility":"Pool"}]`))
	})

	bookings, total, err := c.List(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
	assert.EqualValues(t, 12, total)
}

func TestBookingClient_OccupiedHours(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookings/horarios", r.URL.Path)
		assert.Equal(t, "Pool", r.URL.Query().Get("facility"))
		assert.Equal(t, "2024-05-01", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`[{"start":10,"end":11},{"start":14,"end":16}]`))
	})

	slots, err := c.OccupiedHours(context.Background(), "Pool", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, []model.OccupiedSlot{{Start: 10, End: 11}, {Start: 14, End: 16}}, slots)
}

func TestBookingClient_DeleteNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"NOT_FOUND","message":"Booking not found"}`))
	})

	err := c.Delete(context.Background(), "665f1c2e9b1e8a0001a1b2c3")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestBookingClient_UnexpectedBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream down`))
	})

	_, err := c.Get(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.AsAppError(err).StatusCode())
}

func TestHttpClient_WaitForHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewHttpClient(srv.URL).WaitForHealthy(context.Background(), time.Second))
}

func TestHttpClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds model.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "s3cret-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"issued-token","tokenType":"Bearer"}`))
	}))
	t.Cleanup(srv.Close)

	hc := NewHttpClient(srv.URL)
	err := hc.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	assert.Empty(t, hc.Token)

	require.NoError(t, hc.Login(context.Background(), "admin", "s3cret-pass"))
	assert.Equal(t, "issued-token", hc.Token)
}
