package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cybersms/numstore/internal/models"
)

// CredentialStore is the persistence gateway for local login credentials.
type CredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore constructs a CredentialStore.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Create persists a new credential record.
func (s *CredentialStore) Create(ctx context.Context, credential *models.Credential) error {
	credential.Email = strings.ToLower(strings.TrimSpace(credential.Email))
	if errCreate := s.db.WithContext(ctx).Create(credential).Error; errCreate != nil {
		return fmt.Errorf("store: create credential: %w", errCreate)
	}
	return nil
}

// GetByEmail loads a credential by login email.
func (s *CredentialStore) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var credential models.Credential
	errFind := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&credential).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if errFind != nil {
		return nil, fmt.Errorf("store: get credential: %w", errFind)
	}
	return &credential, nil
}

// GetByCustomerID loads a credential by remote customer id.
func (s *CredentialStore) GetByCustomerID(ctx context.Context, customerID int64) (*models.Credential, error) {
	var credential models.Credential
	errFind := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&credential).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if errFind != nil {
		return nil, fmt.Errorf("store: get credential: %w", errFind)
	}
	return &credential, nil
}

// UpdateName changes the stored display name.
func (s *CredentialStore) UpdateName(ctx context.Context, customerID int64, name string) error {
	errUpdate := s.db.WithContext(ctx).
		Model(&models.Credential{}).
		Where("customer_id = ?", customerID).
		Updates(map[string]any{
			"name":       strings.TrimSpace(name),
			"updated_at": time.Now().UTC(),
		}).Error
	if errUpdate != nil {
		return fmt.Errorf("store: update credential name: %w", errUpdate)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *CredentialStore) UpdatePassword(ctx context.Context, customerID int64, hash string) error {
	errUpdate := s.db.WithContext(ctx).
		Model(&models.Credential{}).
		Where("customer_id = ?", customerID).
		Updates(map[string]any{
			"password":   hash,
			"updated_at": time.Now().UTC(),
		}).Error
	if errUpdate != nil {
		return fmt.Errorf("store: update credential password: %w", errUpdate)
	}
	return nil
}
