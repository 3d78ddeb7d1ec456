package database

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// KeyPrefix marks every key this instance issues.
const keyPrefix = "dl_"

// keyPrefixLen is how many leading characters are stored in clear for
// display and lookup narrowing (dl_ + 8 hex chars).
const keyPrefixLen = 11

// APIKeyService provides API key-related database operations
type APIKeyService struct {
	db *gorm.DB
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(db *gorm.DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// GenerateAPIKey creates a new API key. The clear-text key is returned
// exactly once; only its bcrypt hash is stored.
func (s *APIKeyService) GenerateAPIKey(name string, expiresAt *time.Time) (*APIKey, string, error) {
	maxKeys := GetSystemSettingInt("max_api_keys", 20)

	var existingCount int64
	if err := s.db.Model(&APIKey{}).Where("is_active = ?", true).Count(&existingCount).Error; err != nil {
		return nil, "", fmt.Errorf("failed to count existing API keys: %w", err)
	}
	if existingCount >= int64(maxKeys) {
		return nil, "", fmt.Errorf("maximum number of API keys (%d) reached", maxKeys)
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}
	apiKey := fmt.Sprintf("%s%x", keyPrefix, keyBytes)

	hashedKey, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash API key: %w", err)
	}

	record := &APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   string(hashedKey),
		KeyPrefix: apiKey[:keyPrefixLen],
		IsActive:  true,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create API key: %w", err)
	}

	return record, apiKey, nil
}

// ValidateAPIKey checks a presented key against the stored hashes,
// narrowed by the clear prefix, and stamps last_used on a match.
func (s *APIKeyService) ValidateAPIKey(providedKey string) (*APIKey, error) {
	if !strings.HasPrefix(providedKey, keyPrefix) || len(providedKey) < keyPrefixLen {
		return nil, errors.New("invalid API key format")
	}

	var apiKeys []APIKey
	err := s.db.Where("is_active = ? AND (expires_at IS NULL OR expires_at > ?)", true, time.Now().UTC()).
		Where("key_prefix = ?", providedKey[:keyPrefixLen]).
		Find(&apiKeys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}

	for _, key := range apiKeys {
		if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(providedKey)); err == nil {
			s.db.Model(&key).Update("last_used", time.Now().UTC())
			return &key, nil
		}
	}

	return nil, errors.New("invalid API key")
}

// ListAPIKeys retrieves all API keys, newest first.
func (s *APIKeyService) ListAPIKeys() ([]APIKey, error) {
	var apiKeys []APIKey
	if err := s.db.Order("created_at DESC").Find(&apiKeys).Error; err != nil {
		return nil, err
	}
	return apiKeys, nil
}

// DeactivateAPIKey disables a key without deleting its record.
func (s *APIKeyService) DeactivateAPIKey(id uuid.UUID) error {
	result := s.db.Model(&APIKey{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAPIKey removes a key permanently.
func (s *APIKeyService) DeleteAPIKey(id uuid.UUID) error {
	result := s.db.Delete(&APIKey{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasActiveKeys reports whether any usable key exists, used to decide
// whether a bootstrap key must be issued.
func (s *APIKeyService) HasActiveKeys() (bool, error) {
	var count int64
	if err := s.db.Model(&APIKey{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
