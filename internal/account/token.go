package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/doorkeep/doorkeep/internal/db/models"
	"github.com/doorkeep/doorkeep/internal/identity"
)

// resetTokenTTL bounds how long a password reset token stays usable.
const resetTokenTTL = 24 * time.Hour

// CreateResetToken issues a single-use password reset token for the
// principal. Delivery is up to the caller.
func (s *Service) CreateResetToken(p *identity.Principal) (*models.Token, error) {
	token := &models.Token{
		Key:           uuid.New(),
		PrincipalGUID: p.GUID,
	}

	if err := s.db.Create(token).Error; err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	return token, nil
}

// ResetPassword consumes a reset token and sets the new password. An
// unknown token reports ErrTokenInvalid; an aged-out token is deleted
// and reports ErrTokenExpired.
func (s *Service) ResetPassword(key uuid.UUID, password string) error {
	var token models.Token

	err := s.db.Where(&models.Token{Key: key}).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTokenInvalid
	}

	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if time.Since(token.CreatedAt) > resetTokenTTL {
		if errDel := s.db.Delete(&token).Error; errDel != nil {
			return fmt.Errorf("failed to delete expired token: %w", errDel)
		}

		return ErrTokenExpired
	}

	principal, err := s.resolver.Resolve(token.PrincipalGUID)
	if err != nil {
		return err
	}

	if err = s.SetPassword(principal, password); err != nil {
		return err
	}

	if err = s.db.Delete(&token).Error; err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	return nil
}
