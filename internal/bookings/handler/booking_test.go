package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"milovat/pkg/auth"
	apperrors "milovat/pkg/errors"
	httputil "milovat/pkg/http"
	"milovat/pkg/logger"
	"milovat/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret-0123456789"

type fakeService struct {
	created  *model.BookingRequest
	updated  *model.BookingRequest
	facility string
	date     string
	limit    int
	offset   int64
	err      error
}

func (f *fakeService) Create(_ context.Context, req *model.BookingRequest) (*model.Booking, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &model.Booking{Meta: model.Meta{ID: "65f000000000000000000001"}, Facility: req.Facility}, nil
}

func (f *fakeService) GetByID(_ context.Context, id string) (*model.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Booking{Meta: model.Meta{ID: id}, Facility: "Gym"}, nil
}

func (f *fakeService) GetAll(_ context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	f.limit, f.offset = limit, offset
	if f.err != nil {
		return nil, 0, f.err
	}
	return []*model.Booking{{Facility: "Gym"}, {Facility: "Pool"}}, 7, nil
}

func (f *fakeService) Update(_ context.Context, id string, req *model.BookingRequest) (*model.Booking, error) {
	f.updated = req
	if f.err != nil {
		return nil, f.err
	}
	return &model.Booking{Meta: model.Meta{ID: id}, Facility: req.Facility}, nil
}

func (f *fakeService) Delete(_ context.Context, _ string) error {
	return f.err
}

func (f *fakeService) OccupiedHours(_ context.Context, facility, date string) ([]model.OccupiedSlot, error) {
	f.facility, f.date = facility, date
	if f.err != nil {
		return nil, f.err
	}
	return []model.OccupiedSlot{{Start: 9, End: 10}, {Start: 23, End: 0}}, nil
}

func newTestRouter(t *testing.T, svc *fakeService) (*httprouter.Router, string) {
	t.Helper()
	gate := auth.NewService(testSecret, time.Hour)
	token, _, err := gate.Issue("65f0000000000000000000aa", model.RoleResident)
	require.NoError(t, err)

	router := httprouter.New()
	NewBookingHandler(svc, gate, logger.Discard()).RegisterRoutes(router)
	return router, token
}

func serve(router http.Handler, token, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestBookingHandler_Create(t *testing.T) {
	svc := &fakeService{}
	router, token := newTestRouter(t, svc)

	rec := serve(router, token, http.MethodPost, "/bookings",
		`{"facility":"Pool","start":"2024-05-01T10:00:00Z","end":"2024-05-01T11:00:00Z"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "Pool", svc.created.Facility)
	assert.Equal(t, "2024-05-01T10:00:00Z", svc.created.Start)

	var got model.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "65f000000000000000000001", got.ID)
}

func TestBookingHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"empty body", "", nil, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"malformed json", `{"facility":`, nil, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"validation", `{}`, apperrors.Validation("Invalid booking", map[string]any{"facility": "is required"}), http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"conflict", `{"facility":"Pool"}`, apperrors.Conflict("facility already booked for that time"), http.StatusConflict, apperrors.CodeConflict},
		{"unavailable", `{"facility":"Pool"}`, apperrors.Unavailable("Booking store"), http.StatusServiceUnavailable, apperrors.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, token := newTestRouter(t, &fakeService{err: tt.err})
			rec := serve(router, token, http.MethodPost, "/bookings", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestBookingHandler_RequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, &fakeService{})

	for _, target := range []string{"/bookings", "/bookings/horarios?facility=Pool&date=2024-05-01"} {
		rec := serve(router, "", http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestBookingHandler_GetAll(t *testing.T) {
	svc := &fakeService{}
	router, token := newTestRouter(t, svc)

	rec := serve(router, token, http.MethodGet, "/bookings?limit=2&offset=4", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Header().Get(httputil.HeaderTotalCount))
	assert.Equal(t, 2, svc.limit)
	assert.Equal(t, int64(4), svc.offset)

	var got []model.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	rec = serve(router, token, http.MethodGet, "/bookings?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandler_GetByID(t *testing.T) {
	router, token := newTestRouter(t, &fakeService{})
	rec := serve(router, token, http.MethodGet, "/bookings/65f000000000000000000009", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "65f000000000000000000009")

	router, token = newTestRouter(t, &fakeService{err: apperrors.NotFoundWithID("Booking", "x")})
	rec = serve(router, token, http.MethodGet, "/bookings/65f000000000000000000009", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingHandler_OccupiedHours(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		facility string
		date     string
	}{
		{"english params", "?facility=Pool&date=2024-05-01", "Pool", "2024-05-01"},
		{"spanish aliases", "?instalacion=Gym&fecha=2024-05-02", "Gym", "2024-05-02"},
		{"english wins", "?facility=Pool&instalacion=Gym&date=2024-05-01", "Pool", "2024-05-01"},
		{"missing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			router, token := newTestRouter(t, svc)

			rec := serve(router, token, http.MethodGet, "/bookings/horarios"+tt.query, "")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.facility, svc.facility)
			assert.Equal(t, tt.date, svc.date)

			var slots []model.OccupiedSlot
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
			assert.Equal(t, []model.OccupiedSlot{{Start: 9, End: 10}, {Start: 23, End: 0}}, slots)
		})
	}
}

func TestBookingHandler_OccupiedHoursInvalidQuery(t *testing.T) {
	svc := &fakeService{err: apperrors.InvalidInput("invalid query").WithDetails(map[string]any{"date": "must be YYYY-MM-DD"})}
	router, token := newTestRouter(t, svc)

	rec := serve(router, token, http.MethodGet, "/bookings/horarios?facility=Pool&date=May", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "must be YYYY-MM-DD", resp.Details["date"])
}

func TestBookingHandler_Update(t *testing.T) {
	svc := &fakeService{}
	router, token := newTestRouter(t, svc)

	rec := serve(router, token, http.MethodPatch, "/bookings/65f000000000000000000001",
		`{"facility":"Gym","start":"2024-05-01T10:00:00Z","end":"2024-05-01T11:00:00Z"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated)
	assert.Equal(t, "Gym", svc.updated.Facility)

	rec = serve(router, token, http.MethodPatch, "/bookings/65f000000000000000000001", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandler_Delete(t *testing.T) {
	router, token := newTestRouter(t, &fakeService{})
	rec := serve(router, token, http.MethodDelete, "/bookings/65f000000000000000000001", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	router, token = newTestRouter(t, &fakeService{err: apperrors.InvalidInput("invalid booking id")})
	rec = serve(router, token, http.MethodDelete, "/bookings/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
