package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/repository"
	"github.com/quocanhngo/sportcast/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MatchService handles operator edits on matches
type MatchService struct {
	matchRepo *repository.MatchRepository
	sender    Sender
	events    Broadcaster
	now       func() time.Time
	log       *zap.Logger
}

// MatchServiceOption configures a MatchService
type MatchServiceOption func(*MatchService)

// WithMatchClock overrides the clock used for timelines and dispatch claims
func WithMatchClock(now func() time.Time) MatchServiceOption {
	return func(s *MatchService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMatchService(matchRepo *repository.MatchRepository, sender Sender, events Broadcaster, opts ...MatchServiceOption) *MatchService {
	s := &MatchService{
		matchRepo: matchRepo,
		sender:    sender,
		events:    orNop(events),
		now:       time.Now,
		log:       logger.WithModule("matches"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all matches, latest start time first
func (s *MatchService) List(ctx context.Context) ([]model.Match, error) {
	return s.matchRepo.List(ctx)
}

// Get returns one match or ErrMatchNotFound
func (s *MatchService) Get(ctx context.Context, id uuid.UUID) (*model.Match, error) {
	m, err := s.matchRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	return m, err
}

// Create stores a new active match with both one-shot flags cleared
func (s *MatchService) Create(ctx context.Context, req model.CreateMatchRequest) (*model.Match, error) {
	status := req.Status
	if status == "" {
		status = model.MatchStatusNotStarted
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	m := &model.Match{
		Title:         req.Title,
		CategoryID:    req.CategoryID,
		ChannelID:     req.ChannelID,
		Opponent1Name: req.Opponent1Name,
		Opponent1Img:  req.Opponent1Image,
		Opponent2Name: req.Opponent2Name,
		Opponent2Img:  req.Opponent2Image,
		MatchTime:     req.MatchTime.UTC(),
		VideoType:     req.VideoType,
		LiveURL:       req.LiveURL,
		LiveURLLow:    req.LiveURLLow,
		LiveURLHigh:   req.LiveURLHigh,
		ThumbnailURL:  req.ThumbnailURL,
		Status:        status,
		IsActive:      true,
	}
	if m.VideoType == "" {
		m.VideoType = "YouTube"
	}
	if err := s.matchRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	s.log.Info("match created", zap.String("match_id", m.ID.String()), zap.String("fixture", m.Fixture()))
	return m, nil
}

// Update applies an operator edit. Moving a match to live sends the live
// notification once, sharing the flag the scheduler uses.
func (s *MatchService) Update(ctx context.Context, id uuid.UUID, req model.UpdateMatchRequest) (*model.Match, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setString("title", req.Title)
	setString("opponent1_name", req.Opponent1Name)
	setString("opponent1_image", req.Opponent1Image)
	setString("opponent2_name", req.Opponent2Name)
	setString("opponent2_image", req.Opponent2Image)
	setString("video_type", req.VideoType)
	setString("live_url", req.LiveURL)
	setString("live_url_low", req.LiveURLLow)
	setString("live_url_high", req.LiveURLHigh)
	setString("thumbnail_url", req.ThumbnailURL)
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.ChannelID != nil {
		updates["channel_id"] = *req.ChannelID
	}
	if req.MatchTime != nil {
		updates["match_time"] = req.MatchTime.UTC()
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		updates["status"] = *req.Status
	}

	if err := s.matchRepo.Updates(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("update match: %w", err)
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wentLive := req.Status != nil && *req.Status == model.MatchStatusLive && current.Status != model.MatchStatusLive
	if wentLive && !updated.LiveNotificationSent {
		s.announceLive(ctx, updated)
	}
	return updated, nil
}

// announceLive sends the live push for a manual status change. It claims the
// notification first, so a pass already sending it wins and this call backs
// off. A failed send leaves the flag unset so the scheduler can still pick it
// up. The send outlives the operator's request.
func (s *MatchService) announceLive(ctx context.Context, m *model.Match) {
	ctx = context.WithoutCancel(ctx)
	fields := []zap.Field{zap.String("match_id", m.ID.String())}

	claimed, err := s.matchRepo.ClaimDispatch(ctx, m.ID, repository.DispatchLive, s.now().UTC(), DispatchClaimTTL)
	if err != nil {
		s.log.Warn("claim manual live notification", append(fields, zap.Error(err))...)
		return
	}
	if !claimed {
		s.log.Info("live notification already sent or in flight", fields...)
		return
	}

	if _, err := s.sender.Send(ctx, LiveMessage(m)); err != nil {
		s.log.Warn("manual live notification failed", append(fields, zap.Error(err))...)
		if err := s.matchRepo.ReleaseClaim(ctx, m.ID, repository.DispatchLive); err != nil {
			s.log.Warn("release dispatch claim", append(fields, zap.Error(err))...)
		}
		return
	}
	if err := s.matchRepo.MarkLiveNotified(ctx, m.ID); err != nil {
		s.log.Error("live notification sent but flag update failed", append(fields, zap.Error(err))...)
		return
	}
	m.LiveNotificationSent = true
	s.events.Broadcast(&model.WSEvent{
		Type:    model.WSEventMatchLive,
		Payload: model.MatchEvent{MatchID: m.ID, Title: m.Title, Status: m.Status},
	})
}

// SetActive toggles whether the scheduler processes the match
func (s *MatchService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Match, error) {
	if err := s.matchRepo.Updates(ctx, id, map[string]interface{}{"is_active": active}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a match
func (s *MatchService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.matchRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMatchNotFound
	}
	return err
}

// Timeline groups matches by calendar date (UTC), newest date first and
// matches within a date by start time
func (s *MatchService) Timeline(ctx context.Context) ([]model.TimelineDay, error) {
	matches, err := s.matchRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTimeline(matches, s.now().UTC()), nil
}

// BuildTimeline is the pure grouping used by Timeline
func BuildTimeline(matches []model.Match, now time.Time) []model.TimelineDay {
	byDate := make(map[string][]model.MatchView)
	for _, m := range matches {
		day := m.MatchTime.UTC().Format("2006-01-02")
		byDate[day] = append(byDate[day], model.MatchView{Match: m, IsLiveNow: m.IsLiveAt(now)})
	}

	days := make([]model.TimelineDay, 0, len(byDate))
	for date, views := range byDate {
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].MatchTime.Before(views[j].MatchTime)
		})
		days = append(days, model.TimelineDay{Date: date, Matches: views})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })
	return days
}
