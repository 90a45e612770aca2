package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quocanhngo/sportcast/internal/model"
	"gorm.io/gorm"
)

// MatchRepository handles database operations for Match
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a new match
func (r *MatchRepository) Create(ctx context.Context, match *model.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

// FindByID finds a match by UUID
func (r *MatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Match, error) {
	var match model.Match
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// List returns every match, most recent start time first
func (r *MatchRepository) List(ctx context.Context) ([]model.Match, error) {
	var matches []model.Match
	err := r.db.WithContext(ctx).Order("match_time DESC").Find(&matches).Error
	return matches, err
}

// Updates applies a column map to one match
func (r *MatchRepository) Updates(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Match{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a match
func (r *MatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Match{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindReminderDue returns active, not-started matches starting in [from, to]
// that have not been reminded yet
func (r *MatchRepository) FindReminderDue(ctx context.Context, from, to time.Time) ([]model.Match, error) {
	var matches []model.Match
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND reminder_sent = ? AND status = ?", true, false, model.MatchStatusNotStarted).
		Where("match_time >= ? AND match_time <= ?", from, to).
		Order("match_time ASC").
		Find(&matches).Error
	return matches, err
}

// FindLiveDue returns active matches that started in [from, to] without a live
// notification. Ended matches are excluded so a forced status is never reverted.
func (r *MatchRepository) FindLiveDue(ctx context.Context, from, to time.Time) ([]model.Match, error) {
	var matches []model.Match
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND live_notification_sent = ? AND status <> ?", true, false, model.MatchStatusEnded).
		Where("match_time >= ? AND match_time <= ?", from, to).
		Order("match_time ASC").
		Find(&matches).Error
	return matches, err
}

// DispatchKind names one of the one-shot match notifications
type DispatchKind string

const (
	DispatchReminder DispatchKind = "reminder"
	DispatchLive     DispatchKind = "live"
)

func (k DispatchKind) columns() (flag, claim string) {
	if k == DispatchLive {
		return "live_notification_sent", "live_claimed_until"
	}
	return "reminder_sent", "reminder_claimed_until"
}

// ClaimDispatch reserves the kind notification of one match for a single
// sender until now+ttl. It reports false when the notification already went
// out or another sender holds an unexpired claim.
func (r *MatchRepository) ClaimDispatch(ctx context.Context, id uuid.UUID, kind DispatchKind, now time.Time, ttl time.Duration) (bool, error) {
	flag, claim := kind.columns()
	res := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ? AND "+flag+" = ?", id, false).
		Where("("+claim+" IS NULL OR "+claim+" < ?)", now).
		Update(claim, now.Add(ttl))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseClaim drops a claim after a failed dispatch so the next pass retries
func (r *MatchRepository) ReleaseClaim(ctx context.Context, id uuid.UUID, kind DispatchKind) error {
	_, claim := kind.columns()
	return r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ?", id).
		Update(claim, nil).Error
}

// MarkReminderSent sets the one-shot reminder flag
func (r *MatchRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reminder_sent":          true,
			"reminder_claimed_until": nil,
		}).Error
}

// MarkLive sets the live flag and moves the match to live in one write
func (r *MatchRepository) MarkLive(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"live_notification_sent": true,
			"live_claimed_until":     nil,
			"status":                 model.MatchStatusLive,
		}).Error
}

// MarkLiveNotified sets only the live flag, leaving an operator-chosen status alone
func (r *MatchRepository) MarkLiveNotified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"live_notification_sent": true,
			"live_claimed_until":     nil,
		}).Error
}

// MarkEndedBefore ends every active match that started before cutoff
func (r *MatchRepository) MarkEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("is_active = ? AND status <> ? AND match_time < ?", true, model.MatchStatusEnded, cutoff).
		Update("status", model.MatchStatusEnded)
	return res.RowsAffected, res.Error
}

// Count returns the total number of matches
func (r *MatchRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Match{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of matches in the given status
func (r *MatchRepository) CountByStatus(ctx context.Context, status model.MatchStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Match{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
