// Package account manages member accounts: creation, passwords,
// enable/disable state and authentication. Directory writes address
// entries by freshly resolved DN; the GUID stays the only stable key.
package account

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"
	"gorm.io/gorm"

	"github.com/doorkeep/doorkeep/internal/db/models"
	"github.com/doorkeep/doorkeep/internal/directory"
	"github.com/doorkeep/doorkeep/internal/identity"
)

// userObjectClasses are the object classes of a member entry.
var userObjectClasses = []string{"top", "person", "organizationalPerson", "user"}

// Config carries the directory-level settings the account service needs.
type Config struct {
	// Domain is the realm appended to usernames to form the
	// userPrincipalName.
	Domain string
	// AdminGroupDN is the group whose members are staff.
	AdminGroupDN string
}

// Service implements account operations against the directory and the
// local database.
type Service struct {
	dir      directory.Directory
	resolver *identity.Resolver
	db       *gorm.DB
	cfg      Config
	validate *validator.Validate
}

// NewService creates the account service.
func NewService(dir directory.Directory, resolver *identity.Resolver, db *gorm.DB, cfg Config) *Service {
	return &Service{
		dir:      dir,
		resolver: resolver,
		db:       db,
		cfg:      cfg,
		validate: newValidator(),
	}
}

// CreateInput is the data needed to create a member account. Password is
// optional; without it the account is created and enabled but cannot
// bind until a password is set.
type CreateInput struct {
	Username  string `validate:"required,username"`
	FirstName string
	LastName  string
	Email     string `validate:"omitempty,email"`
	Password  string
}

// Create provisions a member account. The directory entry is added
// disabled, its generated GUID is read back with a base-scope search and
// recorded locally, then the optional password is set and the account
// enabled. The returned principal is a fresh snapshot.
//
// The pre-flight username search is advisory; the directory remains the
// authority and a losing race surfaces as ErrUsernameTaken.
func (s *Service) Create(input CreateInput) (*identity.Principal, error) {
	if err := ValidateUsername(input.Username); err != nil {
		return nil, err
	}

	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	existing, err := s.resolver.FindGUIDs(identity.AttrSAMAccountName, input.Username)
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		return nil, ErrUsernameTaken
	}

	dn := s.resolver.DNFor(input.Username)

	attrs := map[string][]string{
		identity.AttrCN:             {input.Username},
		identity.AttrSAMAccountName: {input.Username},
		identity.AttrUPN:            {input.Username + "@" + s.cfg.Domain},
		identity.AttrAccountControl: {identity.ControlDisabledAccount},
	}

	if input.FirstName != "" {
		attrs[identity.AttrGivenName] = []string{input.FirstName}
	}

	if input.LastName != "" {
		attrs[identity.AttrSurname] = []string{input.LastName}
	}

	if input.Email != "" {
		attrs[identity.AttrMail] = []string{input.Email}
	}

	var guid uuid.UUID

	err = s.dir.Do(func(sess directory.Session) error {
		if errAdd := sess.Add(dn, userObjectClasses, attrs); errAdd != nil {
			return errAdd
		}

		// the directory generates the GUID; read it back from the new entry
		entries, errSearch := sess.Search(dn, "(objectClass=*)", directory.ScopeBase, []string{identity.AttrObjectGUID})
		if errSearch != nil {
			return errSearch
		}

		if len(entries) == 0 {
			return identity.ErrPrincipalNotFound
		}

		raw, ok := entries[0].RawValue(identity.AttrObjectGUID)
		if !ok {
			return identity.ErrPrincipalNotFound
		}

		var errParse error
		guid, errParse = identity.GUIDFromLE(raw)

		return errParse
	})
	if err != nil {
		if errors.Is(err, directory.ErrEntryExists) {
			return nil, ErrUsernameTaken
		}

		return nil, fmt.Errorf("failed to create directory entry: %w", err)
	}

	if errDB := s.db.Create(&models.Principal{ObjectGUID: guid}).Error; errDB != nil {
		return nil, fmt.Errorf("failed to create principal record: %w", errDB)
	}

	principal, err := s.resolver.Resolve(guid)
	if err != nil {
		return nil, err
	}

	if input.Password != "" {
		if errPwd := s.SetPassword(principal, input.Password); errPwd != nil {
			return nil, errPwd
		}
	}

	err = s.dir.Do(func(sess directory.Session) error {
		return sess.ModifyReplace(principal.DN(), identity.AttrAccountControl, []string{identity.ControlNormalAccount})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enable account: %w", err)
	}

	s.invalidate(guid)

	return s.resolver.Resolve(guid)
}

// CreateSuperuser creates a member account and adds it to the admin
// group.
func (s *Service) CreateSuperuser(input CreateInput) (*identity.Principal, error) {
	principal, err := s.Create(input)
	if err != nil {
		return nil, err
	}

	err = s.dir.Do(func(sess directory.Session) error {
		errAdd := sess.ModifyAdd(s.cfg.AdminGroupDN, identity.AttrMember, []string{principal.DN()})
		if errors.Is(errAdd, directory.ErrEntryExists) {
			return nil
		}

		return errAdd
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add to admin group: %w", err)
	}

	s.invalidate(principal.GUID)

	return s.resolver.Resolve(principal.GUID)
}

// SetPassword replaces the principal's password. The directory enforces
// its password policy; a rejection surfaces as
// directory.ErrConstraintViolation.
func (s *Service) SetPassword(p *identity.Principal, password string) error {
	fresh, err := s.resolver.Resolve(p.GUID)
	if err != nil {
		return err
	}

	encoded, err := encodePassword(password)
	if err != nil {
		return fmt.Errorf("failed to encode password: %w", err)
	}

	err = s.dir.Do(func(sess directory.Session) error {
		return sess.ModifyReplace(fresh.DN(), identity.AttrUnicodePwd, []string{encoded})
	})
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	s.invalidate(p.GUID)

	return nil
}

// CheckPassword verifies credentials with a bind as the principal. A
// wrong password reports false without an error; anything else, like an
// unreachable directory, propagates.
func (s *Service) CheckPassword(p *identity.Principal, password string) (bool, error) {
	err := s.dir.CheckBind(p.UPN(), password)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, directory.ErrInvalidCredentials) {
		return false, nil
	}

	return false, err
}

// Authenticate resolves a username and verifies the password. Disabled
// accounts are rejected before the bind is attempted.
func (s *Service) Authenticate(username, password string) (*identity.Principal, error) {
	principals, err := s.resolver.FindByField(identity.AttrSAMAccountName, username)
	if err != nil {
		return nil, err
	}

	switch {
	case len(principals) == 0:
		return nil, identity.ErrPrincipalNotFound
	case len(principals) > 1:
		return nil, ErrMultiplePrincipalsFound
	}

	principal := principals[0]

	if !principal.IsActive() {
		return nil, ErrAccountDisabled
	}

	ok, err := s.CheckPassword(principal, password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrInvalidPassword
	}

	return principal, nil
}

// Enable clears the account-disabled control bit.
func (s *Service) Enable(p *identity.Principal) error {
	return s.setControl(p, identity.ControlNormalAccount)
}

// Disable sets the account-disabled control bit. The entry stays in the
// directory and keeps its GUID.
func (s *Service) Disable(p *identity.Principal) error {
	return s.setControl(p, identity.ControlDisabledAccount)
}

// Delete removes the principal from the directory and then from the
// local database. A directory failure aborts before any local change.
func (s *Service) Delete(p *identity.Principal) error {
	fresh, err := s.resolver.Resolve(p.GUID)
	if err != nil {
		return err
	}

	err = s.dir.Do(func(sess directory.Session) error {
		return sess.Delete(fresh.DN())
	})
	if err != nil {
		return fmt.Errorf("failed to delete directory entry: %w", err)
	}

	if errDB := s.db.Where("object_guid = ?", p.GUID).Delete(&models.Principal{}).Error; errDB != nil {
		return fmt.Errorf("failed to delete principal record: %w", errDB)
	}

	s.invalidate(p.GUID)

	return nil
}

// IsStaff reports whether the principal belongs to the admin group.
func (s *Service) IsStaff(p *identity.Principal) bool {
	return p.HasGroup(s.cfg.AdminGroupDN)
}

func (s *Service) setControl(p *identity.Principal, control string) error {
	fresh, err := s.resolver.Resolve(p.GUID)
	if err != nil {
		return err
	}

	err = s.dir.Do(func(sess directory.Session) error {
		return sess.ModifyReplace(fresh.DN(), identity.AttrAccountControl, []string{control})
	})
	if err != nil {
		return fmt.Errorf("failed to change account control: %w", err)
	}

	s.invalidate(p.GUID)

	return nil
}

func (s *Service) invalidate(guid uuid.UUID) {
	if err := s.resolver.Invalidate(guid); err != nil {
		log.Warn().Err(err).Str("guid", guid.String()).Msg("identity cache invalidation failed")
	}
}

// encodePassword produces the quoted UTF-16LE form the directory expects
// for password replacement.
func encodePassword(password string) (string, error) {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

	return encoder.String(`"` + password + `"`)
}
