package visits

import (
	"context"
	"errors"
	"strconv"
	"time"

	mongodb "milovat/pkg/db/mongo"
	apperrors "milovat/pkg/errors"
	"milovat/pkg/logger"
	"milovat/pkg/model"
)

// VisitFinder is satisfied by *mongodb.Store[*model.Visit].
type VisitFinder interface {
	FindByID(ctx context.Context, id string) (*model.Visit, error)
}

type Sealer interface {
	Seal(parts ...string) (string, error)
	Open(token string, n int) ([]string, error)
}

type PassService interface {
	Issue(ctx context.Context, visitID string) (*model.VisitPass, error)
	Verify(ctx context.Context, token string) (*model.Visit, error)
}

type passService struct {
	visits VisitFinder
	sealer Sealer
	ttl    time.Duration
	now    func() time.Time
	log    *logger.Logger
}

func NewPassService(visits VisitFinder, sealer Sealer, ttl time.Duration, log *logger.Logger) PassService {
	return &passService{
		visits: visits,
		sealer: sealer,
		ttl:    ttl,
		now:    model.Now,
		log:    log,
	}
}

// Issue seals "visitID|expiryUnix" for a visit that has not ended.
func (s *passService) Issue(ctx context.Context, visitID string) (*model.VisitPass, error) {
	visit, err := s.find(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if visit.ExitTime != nil {
		return nil, apperrors.Conflict("Visit already ended")
	}

	expires := s.now().Add(s.ttl).Truncate(time.Second)
	token, err := s.sealer.Seal(visit.ID, strconv.FormatInt(expires.Unix(), 10))
	if err != nil {
		return nil, apperrors.Internal("Failed to issue visit pass", err)
	}

	s.log.FromContext(ctx).Info("visit pass issued", "visit_id", visit.ID, "expires_at", expires)
	return &model.VisitPass{VisitID: visit.ID, Token: token, ExpiresAt: expires}, nil
}

func (s *passService) Verify(ctx context.Context, token string) (*model.Visit, error) {
	parts, err := s.sealer.Open(token, 2)
	if err != nil {
		s.log.FromContext(ctx).Warn("visit pass rejected", "reason", "unreadable")
		return nil, apperrors.Unauthorized("Invalid visit pass")
	}

	unix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid visit pass")
	}
	if !s.now().Before(time.Unix(unix, 0)) {
		s.log.FromContext(ctx).Info("visit pass rejected", "reason", "expired", "visit_id", parts[0])
		return nil, apperrors.Unauthorized("Visit pass expired")
	}

	visit, err := s.find(ctx, parts[0])
	if err != nil {
		return nil, err
	}
	if visit.ExitTime != nil {
		return nil, apperrors.Unauthorized("Visit already ended")
	}
	return visit, nil
}

func (s *passService) find(ctx context.Context, id string) (*model.Visit, error) {
	visit, err := s.visits.FindByID(ctx, id)
	switch {
	case err == nil:
		return visit, nil
	case errors.Is(err, mongodb.ErrInvalidID):
		return nil, apperrors.InvalidInput("invalid visit id: " + id)
	case errors.Is(err, mongodb.ErrNotFound):
		return nil, apperrors.NotFoundWithID("Visit", id)
	case mongodb.IsUnavailable(err):
		s.log.FromContext(ctx).Error("visit store unavailable", "error", err)
		return nil, apperrors.Unavailable("Visit store")
	default:
		s.log.FromContext(ctx).Error("failed to load visit", "visit_id", id, "error", err)
		return nil, apperrors.Internal("Failed to load visit", err)
	}
}
