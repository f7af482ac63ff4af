package residential

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	mongodb "milovat/pkg/db/mongo"
	apperrors "milovat/pkg/errors"
	"milovat/pkg/logger"
	"milovat/pkg/model"
	"milovat/pkg/validation"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

// Repository is satisfied by *mongodb.Store[T].
type Repository[T model.Record] interface {
	Insert(ctx context.Context, rec T) error
	FindByID(ctx context.Context, id string) (T, error)
	Find(ctx context.Context, filter bson.M, opts mongodb.FindOptions) ([]T, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	Replace(ctx context.Context, rec T) error
	Delete(ctx context.Context, id string) error
}

type Service[T model.Record] interface {
	List(ctx context.Context, filter map[string]string, limit int, offset int64) ([]T, int64, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, rec T) (T, error)
	Patch(ctx context.Context, id string, body []byte) (T, error)
	Delete(ctx context.Context, id string) error
}

// metaFields are owned by the store and ignored in patch bodies.
var metaFields = []string{"id", "createdAt", "updatedAt"}

type service[T model.Record] struct {
	res       Resource[T]
	repo      Repository[T]
	validator *validation.Validator
	log       *logger.Logger
}

func NewService[T model.Record](res Resource[T], repo Repository[T], v *validation.Validator, log *logger.Logger) Service[T] {
	return &service[T]{
		res:       res,
		repo:      repo,
		validator: v,
		log:       log.With("resource", res.Name),
	}
}

func (s *service[T]) List(ctx context.Context, filter map[string]string, limit int, offset int64) ([]T, int64, error) {
	query := bson.M{}
	for param, value := range filter {
		field, ok := s.res.Filters[param]
		if !ok || value == "" {
			continue
		}
		query[field] = value
	}

	var (
		records []T
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.repo.Find(gctx, query, mongodb.FindOptions{Sort: s.res.sort(), Limit: limit, Offset: offset})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, s.storeError(ctx, "List", "", err)
	}

	return records, total, nil
}

func (s *service[T]) Get(ctx context.Context, id string) (T, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		var zero T
		return zero, s.storeError(ctx, "Get", id, err)
	}
	return rec, nil
}

func (s *service[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T

	s.res.sanitize(rec)
	s.res.applyDefaults(rec)
	if err := s.validator.Struct(rec); err != nil {
		return zero, validation.ToAppError(err, "Invalid "+strings.ToLower(s.res.Name))
	}

	rec.Touch(model.Now())
	if err := s.repo.Insert(ctx, rec); err != nil {
		return zero, s.storeError(ctx, "Create", "", err)
	}

	s.log.FromContext(ctx).Info("record created", "id", rec.GetID())
	return rec, nil
}

// Patch merges the JSON body onto the stored record; fields absent from the body keep
// their stored values.
func (s *service[T]) Patch(ctx context.Context, id string, body []byte) (T, error) {
	var zero T

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return zero, s.storeError(ctx, "Patch", id, err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if s.res.EmptyPatch == nil {
			return zero, apperrors.InvalidInput("Request body is required")
		}
		s.res.EmptyPatch(rec)
	} else if err := mergeJSON(rec, body); err != nil {
		return zero, err
	}

	s.res.sanitize(rec)
	if err := s.validator.Struct(rec); err != nil {
		return zero, validation.ToAppError(err, "Invalid "+strings.ToLower(s.res.Name))
	}

	rec.SetID(id)
	rec.Touch(model.Now())
	if err := s.repo.Replace(ctx, rec); err != nil {
		return zero, s.storeError(ctx, "Patch", id, err)
	}

	s.log.FromContext(ctx).Info("record updated", "id", id)
	return rec, nil
}

func (s *service[T]) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError(ctx, "Delete", id, err)
	}
	s.log.FromContext(ctx).Info("record deleted", "id", id)
	return nil
}

func mergeJSON(dst any, body []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	for _, f := range metaFields {
		delete(fields, f)
	}

	cleaned, err := json.Marshal(fields)
	if err != nil {
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	if err := json.Unmarshal(cleaned, dst); err != nil {
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}

func (s *service[T]) storeError(ctx context.Context, op, id string, err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, mongodb.ErrInvalidID):
		return apperrors.InvalidInput("invalid " + strings.ToLower(s.res.Name) + " id: " + id)
	case errors.Is(err, mongodb.ErrNotFound):
		return apperrors.NotFoundWithID(s.res.Name, id)
	case errors.Is(err, mongodb.ErrDuplicate):
		return apperrors.Conflict(s.res.Name + " already exists")
	case mongodb.IsUnavailable(err):
		s.log.FromContext(ctx).Error("store unavailable", "operation", op, "id", id, "error", err)
		return apperrors.Unavailable(s.res.Name + " store")
	default:
		s.log.FromContext(ctx).Error("store operation failed", "operation", op, "id", id, "error", err)
		return apperrors.Internal("Failed to "+strings.ToLower(op)+" "+strings.ToLower(s.res.Name), err)
	}
}
