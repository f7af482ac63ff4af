package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"milovat/internal/accounts/service"
	"milovat/pkg/auth"
	apperrors "milovat/pkg/errors"
	"milovat/pkg/logger"
	"milovat/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	service.AccountService
	registered *model.NewUser
}

func (f *fakeAccounts) Login(_ context.Context, creds *model.Credentials) (*service.LoginResult, error) {
	if creds.Password != "right" {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	return &service.LoginResult{Token: "tok", TokenType: "Bearer", UserID: "u1", Role: model.RoleGuard}, nil
}

func (f *fakeAccounts) Register(_ context.Context, req *model.NewUser) (*model.User, error) {
	f.registered = req
	return &model.User{Meta: model.Meta{ID: "65f000000000000000000001"}, Username: req.Username, PasswordHash: "hash"}, nil
}

func (f *fakeAccounts) GetAll(_ context.Context, _ int, _ int64) ([]*model.User, int64, error) {
	return []*model.User{{Username: "ana", PasswordHash: "hash"}}, 1, nil
}

func setup(t *testing.T) (*httprouter.Router, *fakeAccounts, *auth.Service) {
	t.Helper()
	gate := auth.NewService("accounts-handler-secret-0123", time.Hour)
	accounts := &fakeAccounts{}
	router := httprouter.New()
	NewAccountHandler(accounts, gate, logger.Discard()).RegisterRoutes(router)
	return router, accounts, gate
}

func call(router http.Handler, token, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	router, _, _ := setup(t)

	rec := call(router, "", http.MethodPost, "/auth/login", `{"username":"ana","password":"right"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result service.LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "tok", result.Token)
	assert.Equal(t, model.RoleGuard, result.Role)

	rec = call(router, "", http.MethodPost, "/auth/login", `{"username":"ana","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(router, "", http.MethodPost, "/auth/login", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	router, _, gate := setup(t)
	token, _, err := gate.Issue("65f0000000000000000000aa", model.RoleResident)
	require.NoError(t, err)

	rec := call(router, token, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"65f0000000000000000000aa","role":"resident"}`, rec.Body.String())

	rec = call(router, "", http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsers(t *testing.T) {
	router, accounts, gate := setup(t)
	resident, _, err := gate.Issue("u1", model.RoleResident)
	require.NoError(t, err)
	admin, _, err := gate.Issue("u2", model.RoleAdmin)
	require.NoError(t, err)

	rec := call(router, resident, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")
	assert.NotContains(t, rec.Body.String(), "password")

	body := `{"firstName":"Bob","username":"bob","password":"s3cret-pass","role":"guard"}`
	rec = call(router, resident, http.MethodPost, "/users", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(router, admin, http.MethodPost, "/users", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, accounts.registered)
	assert.Equal(t, model.RoleGuard, accounts.registered.Role)
	assert.NotContains(t, rec.Body.String(), "s3cret-pass")
}
