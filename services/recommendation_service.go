package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/ws"
)

// RecommendationService runs the recommendation flow and owns history.
//
// Recommend: validates the crop, waits the simulated latency, asks the
// advisor and appends one history entry on success.
// Crops: the selectable crop list.
// History: the session's entries oldest first, plus the trend insight.
type RecommendationService interface {
	Recommend(ctx context.Context, sessionID, crop string) (*models.RecommendResult, error)
	Crops() []string
	History(ctx context.Context, sessionID string) (*models.HistoryView, error)
}

type recommendationService struct {
	store   *SessionStore
	advisor Advisor
	content ContentService
	delay   time.Duration
	hub     ws.EventPublisher
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecommendationService creates the service. delay is the simulated
// latency before the advisor is asked.
func NewRecommendationService(
	store *SessionStore,
	advisor Advisor,
	content ContentService,
	delay time.Duration,
	hub ws.EventPublisher,
	logger *zap.Logger,
) RecommendationService {
	return &recommendationService{
		store:   store,
		advisor: advisor,
		content: content,
		delay:   delay,
		hub:     hub,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *recommendationService) Crops() []string {
	return models.Crops()
}

// Recommend runs one recommendation.
//
// Validation failures touch nothing. Once past validation the session is
// marked loading; every exit path clears it again. A cancelled run (view
// change or client gone) records no error and no history.
func (s *recommendationService) Recommend(ctx context.Context, sessionID, crop string) (*models.RecommendResult, error) {
	crop = strings.TrimSpace(crop)
	if crop == "" {
		return nil, pkg.NewNotice(pkg.ErrBadRequest, "recommend.selectCrop")
	}
	canonical, ok := models.LookupCrop(crop)
	if !ok {
		return nil, pkg.NewNotice(pkg.ErrBadRequest, "recommend.unknownCrop")
	}

	started := s.now().UTC()

	opCtx, done, err := s.store.BeginOp(ctx, sessionID, OpRecommend)
	if err != nil {
		return nil, err
	}
	defer done()

	if _, err := s.store.Mutate(sessionID, func(sess *models.Session) {
		sess.Loading = true
		sess.ErrorKey = ""
	}); err != nil {
		return nil, err
	}

	if err := wait(opCtx, s.delay); err != nil {
		return nil, s.cancelled(sessionID, canonical, err)
	}

	advice, err := s.advisor.Advise(opCtx, canonical)
	if err != nil {
		if opCtx.Err() != nil {
			return nil, s.cancelled(sessionID, canonical, opCtx.Err())
		}
		return nil, s.failed(sessionID, canonical, err)
	}

	entry := models.HistoryEntry{
		Crop:           canonical,
		Recommendation: advice.Recommendation,
		CreatedAt:      s.now().UTC(),
	}
	if entry.CreatedAt.Before(started) {
		entry.CreatedAt = started
	}

	// The cancellation check happens under the session lock so a view change
	// racing with completion either wins entirely or not at all.
	cancelled := false
	if _, err := s.store.Mutate(sessionID, func(sess *models.Session) {
		sess.Loading = false
		if opCtx.Err() != nil {
			cancelled = true
			return
		}
		sess.Recommendation = advice.Recommendation
		sess.Insight = advice.Insight
		sess.ErrorKey = ""
		sess.History = append(sess.History, entry)
	}); err != nil {
		return nil, err
	}
	if cancelled {
		return nil, pkg.WrapNotice(pkg.ErrCanceled, "recommend.canceled", opCtx.Err())
	}

	result := &models.RecommendResult{Advice: advice, Entry: entry}
	s.hub.PublishToSession(sessionID, ws.Event{Op: ws.OpRecommendationReady, Data: result})
	s.logger.Info("recommendation generated", zap.String("session", sessionID), zap.String("crop", canonical))

	return result, nil
}

func (s *recommendationService) cancelled(sessionID, crop string, cause error) error {
	_, _ = s.store.Mutate(sessionID, func(sess *models.Session) {
		sess.Loading = false
	})
	s.logger.Debug("recommendation cancelled", zap.String("session", sessionID), zap.String("crop", crop), zap.Error(cause))
	return pkg.WrapNotice(pkg.ErrCanceled, "recommend.canceled", cause)
}

func (s *recommendationService) failed(sessionID, crop string, cause error) error {
	const detailKey = "recommend.failedDetail"

	_, _ = s.store.Mutate(sessionID, func(sess *models.Session) {
		sess.Loading = false
		sess.ErrorKey = detailKey
	})
	s.hub.PublishToSession(sessionID, ws.Event{
		Op:   ws.OpRecommendationFailed,
		Data: ws.RecommendationFailedData{Crop: crop, ErrorKey: detailKey},
	})
	s.logger.Warn("recommendation failed", zap.String("session", sessionID), zap.String("crop", crop), zap.Error(cause))

	return pkg.WrapNotice(pkg.ErrInternal, "recommend.failed", cause)
}

func (s *recommendationService) History(_ context.Context, sessionID string) (*models.HistoryView, error) {
	session, err := s.store.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}

	view := &models.HistoryView{Entries: session.History}
	if len(session.History) > 0 {
		view.Trend = s.content.HistoryTrend()
	}
	return view, nil
}
