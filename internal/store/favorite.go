package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cybersms/numstore/internal/models"
)

// FavoriteStore is the persistence gateway for favorite markings.
type FavoriteStore struct {
	db *gorm.DB
}

// NewFavoriteStore constructs a FavoriteStore.
func NewFavoriteStore(db *gorm.DB) *FavoriteStore {
	return &FavoriteStore{db: db}
}

// Add marks a service as favorite for a customer. Adding an existing favorite
// is a no-op.
func (s *FavoriteStore) Add(ctx context.Context, customerID, serviceID int64) error {
	var existing models.Favorite
	errFind := s.db.WithContext(ctx).
		Where("customer_id = ? AND service_id = ?", customerID, serviceID).
		First(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("store: query favorite: %w", errFind)
	}

	favorite := models.Favorite{CustomerID: customerID, ServiceID: serviceID}
	if errCreate := s.db.WithContext(ctx).Create(&favorite).Error; errCreate != nil {
		return fmt.Errorf("store: add favorite: %w", errCreate)
	}
	return nil
}

// Remove deletes a favorite marking.
func (s *FavoriteStore) Remove(ctx context.Context, customerID, serviceID int64) error {
	errDelete := s.db.WithContext(ctx).
		Where("customer_id = ? AND service_id = ?", customerID, serviceID).
		Delete(&models.Favorite{}).Error
	if errDelete != nil {
		return fmt.Errorf("store: remove favorite: %w", errDelete)
	}
	return nil
}

// ListServiceIDs returns the service ids the customer marked as favorite.
func (s *FavoriteStore) ListServiceIDs(ctx context.Context, customerID int64) ([]int64, error) {
	var ids []int64
	errFind := s.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("customer_id = ?", customerID).
		Order("service_id ASC").
		Pluck("service_id", &ids).Error
	if errFind != nil {
		return nil, fmt.Errorf("store: list favorites: %w", errFind)
	}
	return ids, nil
}
