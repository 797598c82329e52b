package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cybersms/numstore/internal/models"
)

// ErrNotFound indicates no record matched the query.
var ErrNotFound = errors.New("store: record not found")

// Default page sizes for the dashboard and history views.
const (
	activeListLimit  = 10
	historyListLimit = 50
)

// ActivationStore is the persistence gateway for activation records.
type ActivationStore struct {
	db *gorm.DB
}

// NewActivationStore constructs an ActivationStore.
func NewActivationStore(db *gorm.DB) *ActivationStore {
	return &ActivationStore{db: db}
}

// Create persists a new activation record.
func (s *ActivationStore) Create(ctx context.Context, activation *models.Activation) error {
	if errCreate := s.db.WithContext(ctx).Create(activation).Error; errCreate != nil {
		return fmt.Errorf("store: create activation: %w", errCreate)
	}
	return nil
}

// GetByID loads one activation by local identifier.
func (s *ActivationStore) GetByID(ctx context.Context, id string) (*models.Activation, error) {
	var activation models.Activation
	errFind := s.db.WithContext(ctx).Where("id = ?", id).First(&activation).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if errFind != nil {
		return nil, fmt.Errorf("store: get activation: %w", errFind)
	}
	return &activation, nil
}

// ListActiveByCustomer returns the customer's waiting activations, newest first.
func (s *ActivationStore) ListActiveByCustomer(ctx context.Context, customerID int64) ([]models.Activation, error) {
	var activations []models.Activation
	errFind := s.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, models.StatusWaiting).
		Order("created_at DESC").
		Limit(activeListLimit).
		Find(&activations).Error
	if errFind != nil {
		return nil, fmt.Errorf("store: list active activations: %w", errFind)
	}
	return activations, nil
}

// ListHistoryByCustomer returns the customer's terminal activations, newest first.
func (s *ActivationStore) ListHistoryByCustomer(ctx context.Context, customerID int64) ([]models.Activation, error) {
	var activations []models.Activation
	errFind := s.db.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", customerID,
			[]string{models.StatusCompleted, models.StatusCancelled, models.StatusExpired}).
		Order("created_at DESC").
		Limit(historyListLimit).
		Find(&activations).Error
	if errFind != nil {
		return nil, fmt.Errorf("store: list history activations: %w", errFind)
	}
	return activations, nil
}

// ListResumable returns every waiting activation that already has a remote
// identifier, so tracking can resume after a restart.
func (s *ActivationStore) ListResumable(ctx context.Context) ([]models.Activation, error) {
	var activations []models.Activation
	errFind := s.db.WithContext(ctx).
		Where("status = ? AND remote_id IS NOT NULL", models.StatusWaiting).
		Find(&activations).Error
	if errFind != nil {
		return nil, fmt.Errorf("store: list resumable activations: %w", errFind)
	}
	return activations, nil
}

// MarkCompleted records a received SMS code and the completion time.
func (s *ActivationStore) MarkCompleted(ctx context.Context, id string, code, text *string, completedAt *time.Time) error {
	now := time.Now().UTC()
	if completedAt == nil {
		completedAt = &now
	}
	errUpdate := s.db.WithContext(ctx).
		Model(&models.Activation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       models.StatusCompleted,
			"sms_code":     code,
			"sms_text":     text,
			"completed_at": completedAt,
		}).Error
	if errUpdate != nil {
		return fmt.Errorf("store: mark completed: %w", errUpdate)
	}
	return nil
}

// MarkCancelled records a cancellation.
func (s *ActivationStore) MarkCancelled(ctx context.Context, id string) error {
	errUpdate := s.db.WithContext(ctx).
		Model(&models.Activation{}).
		Where("id = ?", id).
		Update("status", models.StatusCancelled).Error
	if errUpdate != nil {
		return fmt.Errorf("store: mark cancelled: %w", errUpdate)
	}
	return nil
}

// MarkExpired records a local expiry with zero remaining minutes.
func (s *ActivationStore) MarkExpired(ctx context.Context, id string) error {
	errUpdate := s.db.WithContext(ctx).
		Model(&models.Activation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       models.StatusExpired,
			"minutes_left": 0,
		}).Error
	if errUpdate != nil {
		return fmt.Errorf("store: mark expired: %w", errUpdate)
	}
	return nil
}

// DeleteTerminalBefore removes a batch of finished activations created before
// the cutoff. A limited subquery keeps the delete short-lived.
func (s *ActivationStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM activations
		WHERE id IN (
			SELECT id FROM activations
			WHERE status IN (?, ?, ?) AND created_at < ?
			ORDER BY created_at ASC
			LIMIT ?
		)
	`, models.StatusCompleted, models.StatusCancelled, models.StatusExpired, cutoff, limit)
	if res.Error != nil {
		return 0, fmt.Errorf("store: delete terminal activations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateMinutesLeft persists the current countdown value.
func (s *ActivationStore) UpdateMinutesLeft(ctx context.Context, id string, minutes int) error {
	errUpdate := s.db.WithContext(ctx).
		Model(&models.Activation{}).
		Where("id = ?", id).
		Update("minutes_left", minutes).Error
	if errUpdate != nil {
		return fmt.Errorf("store: update minutes left: %w", errUpdate)
	}
	return nil
}
