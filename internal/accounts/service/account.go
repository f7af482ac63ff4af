package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"milovat/pkg/auth"
	mongodb "milovat/pkg/db/mongo"
	apperrors "milovat/pkg/errors"
	"milovat/pkg/logger"
	"milovat/pkg/model"
	"milovat/pkg/sanitizer"
	"milovat/pkg/validation"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const CollectionName = "Users"

// UserRepository is satisfied by *mongodb.Store[*model.User].
type UserRepository interface {
	Insert(ctx context.Context, rec *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindOne(ctx context.Context, filter bson.M) (*model.User, error)
	Find(ctx context.Context, filter bson.M, opts mongodb.FindOptions) ([]*model.User, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	Delete(ctx context.Context, id string) error
}

func NewMongoUserRepository(db *mongo.Database, timeouts mongodb.Timeouts) *mongodb.Store[*model.User] {
	return mongodb.NewStore(db.Collection(CollectionName), func() *model.User { return &model.User{} }, timeouts)
}

type TokenIssuer interface {
	Issue(userID string, role model.Role) (string, time.Time, error)
}

type LoginResult struct {
	Token     string     `json:"token"`
	TokenType string     `json:"tokenType"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UserID    string     `json:"userId"`
	Role      model.Role `json:"role"`
}

type AccountService interface {
	Login(ctx context.Context, creds *model.Credentials) (*LoginResult, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Register(ctx context.Context, req *model.NewUser) (*model.User, error)
	Delete(ctx context.Context, id string) error
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

type accountService struct {
	repo      UserRepository
	issuer    TokenIssuer
	validator *validation.Validator
	log       *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(repo UserRepository, issuer TokenIssuer, v *validation.Validator, log *logger.Logger) AccountService {
	return &accountService{
		repo:      repo,
		issuer:    issuer,
		validator: v,
		log:       log,
	}
}

func (s *accountService) Login(ctx context.Context, creds *model.Credentials) (*LoginResult, error) {
	creds.Username = sanitizer.NormalizeUsername(creds.Username)
	if err := s.validator.Struct(creds); err != nil {
		return nil, validation.ToAppError(err, "Invalid credentials payload")
	}

	user, err := s.repo.FindOne(ctx, bson.M{"username": creds.Username})
	if err != nil && !errors.Is(err, mongodb.ErrNotFound) {
		return nil, s.storeError(ctx, "Login", "", err)
	}

	if user == nil {
		// compare anyway so unknown usernames cost the same as wrong passwords
		_ = auth.CheckPassword(creds.Password, s.dummy())
		s.log.FromContext(ctx).Warn("login rejected", "username", creds.Username, "reason", "unknown user")
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if err := auth.CheckPassword(creds.Password, user.PasswordHash); err != nil {
		s.log.FromContext(ctx).Warn("login rejected", "username", creds.Username, "reason", "password mismatch")
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	token, expires, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.log.FromContext(ctx).Info("login succeeded", "user_id", user.ID, "role", user.Role)
	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expires,
		UserID:    user.ID,
		Role:      user.Role,
	}, nil
}

func (s *accountService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	var (
		users []*model.User
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.repo.Find(gctx, bson.M{}, mongodb.FindOptions{
			Sort:   bson.D{{Key: "username", Value: 1}},
			Limit:  limit,
			Offset: offset,
		})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, bson.M{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, s.storeError(ctx, "GetAll", "", err)
	}
	return users, total, nil
}

func (s *accountService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "GetByID", id, err)
	}
	return user, nil
}

func (s *accountService) Register(ctx context.Context, req *model.NewUser) (*model.User, error) {
	user := &model.User{
		FirstName: sanitizer.NormalizeName(req.FirstName),
		LastName:  sanitizer.NormalizeName(req.LastName),
		Username:  sanitizer.NormalizeUsername(req.Username),
		Email:     sanitizer.NormalizeEmail(req.Email),
		Phone:     sanitizer.NormalizePhone(req.Phone),
		Role:      model.Role(sanitizer.NormalizeLabel(string(req.Role))),
	}
	if user.Role == "" {
		user.Role = model.RoleResident
	}

	var fieldErrs validation.FieldErrors
	for _, target := range []any{user, req} {
		if err := s.validator.Struct(target); err != nil {
			var fe validation.FieldErrors
			if !errors.As(err, &fe) {
				return nil, apperrors.Internal("Failed to validate user", err)
			}
			fieldErrs = append(fieldErrs, fe...)
		}
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs.AppError("Invalid user")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}
	user.PasswordHash = hash
	user.Touch(model.Now())

	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, s.storeError(ctx, "Register", "", err)
	}

	s.log.FromContext(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *accountService) Delete(ctx context.Context, id string) error {
	if caller, ok := auth.FromContext(ctx); ok && caller.UserID == id {
		return apperrors.Conflict("Cannot delete the current user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError(ctx, "Delete", id, err)
	}
	s.log.FromContext(ctx).Info("user deleted", "user_id", id)
	return nil
}

// EnsureAdmin creates the bootstrap administrator when no user holds that username yet.
func (s *accountService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	username = sanitizer.NormalizeUsername(username)
	_, err := s.repo.FindOne(ctx, bson.M{"username": username})
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, mongodb.ErrNotFound):
		return false, s.storeError(ctx, "EnsureAdmin", "", err)
	}

	_, err = s.Register(ctx, &model.NewUser{
		FirstName: "Administrator",
		Username:  username,
		Role:      model.RoleAdmin,
		Password:  password,
	})
	if apperrors.HasCode(err, apperrors.CodeConflict) {
		return false, nil
	}
	return err == nil, err
}

func (s *accountService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("milovat-timing-equalizer")
	})
	return s.dummyHash
}

func (s *accountService) storeError(ctx context.Context, op, id string, err error) error {
	switch {
	case errors.Is(err, mongodb.ErrInvalidID):
		return apperrors.InvalidInput("invalid user id: " + id)
	case errors.Is(err, mongodb.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, mongodb.ErrDuplicate):
		return apperrors.Conflict("Username already taken")
	case mongodb.IsUnavailable(err):
		s.log.FromContext(ctx).Error("user store unavailable", "operation", op, "error", err)
		return apperrors.Unavailable("User store")
	default:
		s.log.FromContext(ctx).Error("user store operation failed", "operation", op, "id", id, "error", err)
		return apperrors.Internal("Failed to access users", err)
	}
}
