// Package group manages directory groups and their membership. Both
// membership operations are idempotent: adding an existing member and
// removing an absent one succeed silently.
package group

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/doorkeep/doorkeep/internal/db/models"
	"github.com/doorkeep/doorkeep/internal/directory"
	"github.com/doorkeep/doorkeep/internal/identity"
)

// ErrGroupExists is returned when creating a group whose name is taken.
var ErrGroupExists = errors.New("group already exists")

// groupObjectClasses are the object classes of a group entry.
var groupObjectClasses = []string{"top", "group"}

// Service implements group operations against the directory and the
// local database.
type Service struct {
	dir      directory.Directory
	resolver *identity.Resolver
	db       *gorm.DB
}

// NewService creates the group service.
func NewService(dir directory.Directory, resolver *identity.Resolver, db *gorm.DB) *Service {
	return &Service{dir: dir, resolver: resolver, db: db}
}

// Create adds a group under the base DN and records it locally. The
// returned DN addresses the group in membership operations.
func (s *Service) Create(name string) (string, error) {
	dn := s.resolver.DNFor(name)

	attrs := map[string][]string{
		identity.AttrCN:             {name},
		identity.AttrSAMAccountName: {name},
		identity.AttrMsSFU30Name:    {name},
	}

	err := s.dir.Do(func(sess directory.Session) error {
		return sess.Add(dn, groupObjectClasses, attrs)
	})
	if err != nil {
		if errors.Is(err, directory.ErrEntryExists) {
			return "", ErrGroupExists
		}

		return "", fmt.Errorf("failed to create group: %w", err)
	}

	if errDB := s.db.Create(&models.Group{DN: dn, DisplayName: name}).Error; errDB != nil {
		return "", fmt.Errorf("failed to create group record: %w", errDB)
	}

	return dn, nil
}

// Delete removes a group from the directory and the local database.
// Member entries keep their GUIDs; only their memberOf view changes.
func (s *Service) Delete(dn string) error {
	err := s.dir.Do(func(sess directory.Session) error {
		return sess.Delete(dn)
	})
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	if errDB := s.db.Where("dn = ?", dn).Delete(&models.Group{}).Error; errDB != nil {
		return fmt.Errorf("failed to delete group record: %w", errDB)
	}

	return nil
}

// AddMember puts the principal in the group. Adding a principal that is
// already a member succeeds without change.
func (s *Service) AddMember(groupDN string, p *identity.Principal) error {
	fresh, err := s.resolver.Resolve(p.GUID)
	if err != nil {
		return err
	}

	err = s.dir.Do(func(sess directory.Session) error {
		errAdd := sess.ModifyAdd(groupDN, identity.AttrMember, []string{fresh.DN()})
		if errors.Is(errAdd, directory.ErrEntryExists) {
			return nil
		}

		return errAdd
	})
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	s.invalidate(p.GUID)

	return nil
}

// RemoveMember takes the principal out of the group. Removing a
// principal that is not a member succeeds without change.
func (s *Service) RemoveMember(groupDN string, p *identity.Principal) error {
	fresh, err := s.resolver.Resolve(p.GUID)
	if err != nil {
		return err
	}

	err = s.dir.Do(func(sess directory.Session) error {
		errDel := sess.ModifyDelete(groupDN, identity.AttrMember, []string{fresh.DN()})
		if errors.Is(errDel, directory.ErrNoSuchAttribute) {
			return nil
		}

		return errDel
	})
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.invalidate(p.GUID)

	return nil
}

// HasMember reports whether the principal belongs to the group, read
// from a fresh snapshot.
func (s *Service) HasMember(groupDN string, p *identity.Principal) (bool, error) {
	fresh, err := s.resolver.Resolve(p.GUID)
	if err != nil {
		return false, err
	}

	return fresh.HasGroup(groupDN), nil
}

// GroupsOf returns the locally registered groups the principal belongs
// to, read from a fresh snapshot. Directory groups without a local row
// are not reported.
func (s *Service) GroupsOf(p *identity.Principal) ([]models.Group, error) {
	fresh, err := s.resolver.Resolve(p.GUID)
	if err != nil {
		return nil, err
	}

	memberOf := fresh.MemberOf()
	if len(memberOf) == 0 {
		return nil, nil
	}

	var groups []models.Group

	if err = s.db.Where("dn IN ?", memberOf).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to look up groups: %w", err)
	}

	return groups, nil
}

func (s *Service) invalidate(guid uuid.UUID) {
	if err := s.resolver.Invalidate(guid); err != nil {
		log.Warn().Err(err).Str("guid", guid.String()).Msg("identity cache invalidation failed")
	}
}
