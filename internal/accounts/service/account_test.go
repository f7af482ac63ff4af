package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"milovat/pkg/auth"
	mongodb "milovat/pkg/db/mongo"
	apperrors "milovat/pkg/errors"
	"milovat/pkg/logger"
	"milovat/pkg/model"
	"milovat/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]*model.User
	seq   int
	err   error
	found int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*model.User{}}
}

func (f *fakeUsers) Insert(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: username", mongodb.ErrDuplicate)
		}
	}
	f.seq++
	u.ID = fmt.Sprintf("%024x", f.seq)
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := mongodb.ObjectID(id); err != nil {
		return nil, err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, mongodb.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsers) FindOne(_ context.Context, filter bson.M) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.found++
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Username == filter["username"] {
			out := *u
			return &out, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeUsers) Find(_ context.Context, _ bson.M, _ mongodb.FindOptions) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.User{}
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Count(_ context.Context, _ bson.M) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return mongodb.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func newTestService(t *testing.T) (AccountService, *fakeUsers, *auth.Service) {
	t.Helper()
	users := newFakeUsers()
	tokens := auth.NewService("accounts-secret-0123456789", time.Hour)
	return NewAccountService(users, tokens, validation.New(), logger.Discard()), users, tokens
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.StatusCode()
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users, tokens := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.NewUser{
		FirstName: " Ana ",
		Username:  " Ana.Lopez ",
		Email:     "ANA@example.com",
		Password:  "s3cret-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana.lopez", user.Username)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, model.RoleResident, user.Role)
	assert.NotEqual(t, "s3cret-pass", users.byID[user.ID].PasswordHash)

	result, err := svc.Login(ctx, &model.Credentials{Username: "ANA.LOPEZ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.UserID)
	assert.Equal(t, "Bearer", result.TokenType)

	id, err := tokens.Authenticate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: user.ID, Role: model.RoleResident}, id)
}

func TestLoginRejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.NewUser{FirstName: "Ana", Username: "ana", Password: "s3cret-pass"})
	require.NoError(t, err)

	tests := map[string]struct {
		creds  model.Credentials
		status int
	}{
		"wrong password":   {model.Credentials{Username: "ana", Password: "nope"}, http.StatusUnauthorized},
		"unknown user":     {model.Credentials{Username: "bob", Password: "s3cret-pass"}, http.StatusUnauthorized},
		"missing password": {model.Credentials{Username: "ana"}, http.StatusUnprocessableEntity},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			creds := tt.creds
			_, err := svc.Login(ctx, &creds)
			assert.Equal(t, tt.status, statusOf(t, err))
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.NewUser{Username: "x", Role: "janitor", Password: "short"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode())
	for _, field := range []string{"firstName", "username", "role", "password"} {
		assert.Contains(t, appErr.Details, field)
	}

	_, err = svc.Register(ctx, &model.NewUser{FirstName: "Ana", Username: "ana", Password: "s3cret-pass"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &model.NewUser{FirstName: "Ana", Username: "ANA", Password: "s3cret-pass"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestEnsureAdmin(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "Admin", "bootstrap-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "admin", "other-pass")
	require.NoError(t, err)
	assert.False(t, created)

	require.Len(t, users.byID, 1)
	for _, u := range users.byID {
		assert.Equal(t, model.RoleAdmin, u.Role)
	}
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.NewUser{FirstName: "Ana", Username: "ana", Password: "s3cret-pass"})
	require.NoError(t, err)

	self := auth.WithIdentity(ctx, auth.Identity{UserID: user.ID, Role: model.RoleAdmin})
	assert.Equal(t, http.StatusConflict, statusOf(t, svc.Delete(self, user.ID)))

	require.NoError(t, svc.Delete(ctx, user.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(t, svc.Delete(ctx, user.ID)))

	_, err = svc.GetByID(ctx, "bad")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}
