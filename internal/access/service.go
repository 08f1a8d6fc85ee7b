// Package access decides whether a physical tag opens a resource and
// drives the actuator that unlocks it. Decisions come from local state
// only; no directory call happens on the check path. Every decision is
// recorded as an append-only event.
package access

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/doorkeep/doorkeep/internal/db/models"
)

var (
	// ErrResourceNotFound is returned when the named resource is not
	// registered.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrTagNotFound is returned when the tag number is not registered.
	ErrTagNotFound = errors.New("tag not found")

	// ErrNoActuator is returned when unlocking a resource that has no
	// actuator endpoint configured.
	ErrNoActuator = errors.New("resource has no actuator")
)

// decisions counts access decisions by resource and outcome.
var decisions = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "access_decisions_total",
		Help: "Number of access decisions, differentiated by resource and outcome.",
	},
	[]string{"resource", "outcome"},
)

// Service implements tag checks and unlocks over the local database.
type Service struct {
	db       *gorm.DB
	actuator Actuator
}

// NewService creates the access service.
func NewService(db *gorm.DB, actuator Actuator) *Service {
	return &Service{db: db, actuator: actuator}
}

// Check decides whether the tag may open the resource. A tag is admitted
// when it is enabled and the resource either allows all tags or carries
// a grant for the tag's principal. Unknown tags and resources report
// their sentinel after recording a not_found event.
func (s *Service) Check(tagNumber, resourceName string) (bool, error) {
	resource, err := s.findResource(resourceName)
	if err != nil {
		s.record(tagNumber, resourceName, models.OutcomeNotFound)

		return false, err
	}

	var tag models.AccessTag

	err = s.db.Where("tag_number = ?", tagNumber).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.record(tagNumber, resourceName, models.OutcomeNotFound)

		return false, ErrTagNotFound
	}

	if err != nil {
		return false, fmt.Errorf("failed to look up tag: %w", err)
	}

	allowed := tag.Enabled

	if allowed && !resource.AllowAllTags {
		var grants int64

		err = s.db.Model(&models.ResourceGrant{}).
			Where("resource_id = ? AND principal_guid = ?", resource.ID, tag.PrincipalGUID).
			Count(&grants).Error
		if err != nil {
			return false, fmt.Errorf("failed to look up grant: %w", err)
		}

		allowed = grants > 0
	}

	if allowed {
		s.record(tagNumber, resourceName, models.OutcomeAllowed)
	} else {
		s.record(tagNumber, resourceName, models.OutcomeDenied)
	}

	return allowed, nil
}

// Unlock drives the resource's actuator. Authorization is the caller's
// concern; web requests arrive already authenticated.
func (s *Service) Unlock(resourceName string) error {
	resource, err := s.findResource(resourceName)
	if err != nil {
		return err
	}

	if resource.UnlockURL == "" {
		return ErrNoActuator
	}

	if err = s.actuator.Unlock(resource.UnlockURL); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", resourceName, err)
	}

	s.record("", resourceName, models.OutcomeUnlocked)

	return nil
}

// RegisterTag binds a tag number to a principal. The schema enforces one
// tag per principal and unique tag numbers.
func (s *Service) RegisterTag(guid uuid.UUID, tagNumber string) (*models.AccessTag, error) {
	tag := &models.AccessTag{
		TagNumber:     tagNumber,
		PrincipalGUID: guid,
		Enabled:       true,
	}

	if err := s.db.Create(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to register tag: %w", err)
	}

	return tag, nil
}

// RemoveTag deletes a tag registration.
func (s *Service) RemoveTag(tagNumber string) error {
	result := s.db.Where("tag_number = ?", tagNumber).Delete(&models.AccessTag{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove tag: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}

	return nil
}

// SetTagEnabled turns a tag on or off without deleting it.
func (s *Service) SetTagEnabled(tagNumber string, enabled bool) error {
	result := s.db.Model(&models.AccessTag{}).
		Where("tag_number = ?", tagNumber).
		Update("enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("failed to update tag: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}

	return nil
}

// CreateResource registers a resource.
func (s *Service) CreateResource(name string, allowAllTags bool, unlockURL string) (*models.Resource, error) {
	resource := &models.Resource{
		Name:         name,
		AllowAllTags: allowAllTags,
		UnlockURL:    unlockURL,
	}

	if err := s.db.Create(resource).Error; err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return resource, nil
}

// Grant allows the principal's tag on the resource. Granting twice is a
// schema conflict; callers treat grants as set membership.
func (s *Service) Grant(resourceName string, guid uuid.UUID) error {
	resource, err := s.findResource(resourceName)
	if err != nil {
		return err
	}

	grant := &models.ResourceGrant{ResourceID: resource.ID, PrincipalGUID: guid}

	if err = s.db.Create(grant).Error; err != nil {
		return fmt.Errorf("failed to create grant: %w", err)
	}

	return nil
}

// Revoke removes the principal's grant on the resource. Revoking an
// absent grant is a no-op.
func (s *Service) Revoke(resourceName string, guid uuid.UUID) error {
	resource, err := s.findResource(resourceName)
	if err != nil {
		return err
	}

	err = s.db.
		Where("resource_id = ? AND principal_guid = ?", resource.ID, guid).
		Delete(&models.ResourceGrant{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke grant: %w", err)
	}

	return nil
}

func (s *Service) findResource(name string) (*models.Resource, error) {
	var resource models.Resource

	err := s.db.Where("name = ?", name).First(&resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResourceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up resource: %w", err)
	}

	return &resource, nil
}

// record appends an access event and bumps the decision counter. Event
// write failures are logged, not surfaced; the decision already stands.
func (s *Service) record(tagNumber, resourceName, outcome string) {
	decisions.WithLabelValues(resourceName, outcome).Inc()

	event := &models.AccessEvent{
		TagNumber:    tagNumber,
		ResourceName: resourceName,
		Outcome:      outcome,
	}

	if err := s.db.Create(event).Error; err != nil {
		log.Error().Err(err).Str("resource", resourceName).Str("outcome", outcome).Msg("failed to record access event")
	}
}
