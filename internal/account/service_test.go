package account_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/doorkeep/doorkeep/internal/account"
	"github.com/doorkeep/doorkeep/internal/db/models"
	"github.com/doorkeep/doorkeep/internal/directory"
	"github.com/doorkeep/doorkeep/internal/directory/directorytest"
	"github.com/doorkeep/doorkeep/internal/identity"
)

const (
	testBaseDN       = "OU=Members,DC=example,DC=org"
	testAdminGroupDN = "CN=Domain Admins,OU=Members,DC=example,DC=org"
)

func newTestService(t *testing.T) (*account.Service, *directorytest.Fake, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Principal{}, &models.Token{}))

	fake := directorytest.New()
	fake.Seed(testAdminGroupDN, map[string][]string{"cn": {"Domain Admins"}})

	resolver := identity.NewResolver(fake, identity.NewMemoryCache(), testBaseDN, 0)

	svc := account.NewService(fake, resolver, db, account.Config{
		Domain:       "example.org",
		AdminGroupDN: testAdminGroupDN,
	})

	return svc, fake, db
}

func TestCreate(t *testing.T) {
	svc, fake, db := newTestService(t)

	principal, err := svc.Create(account.CreateInput{
		Username:  "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jdoe@example.org",
		Password:  "s3cret-Passw0rd",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, principal.GUID)
	assert.Equal(t, "CN=jdoe,"+testBaseDN, principal.DN())
	assert.Equal(t, "jdoe@example.org", principal.UPN())
	assert.Equal(t, "Jane Doe", principal.FullName())
	assert.Equal(t, "jdoe@example.org", principal.Email())
	assert.True(t, principal.IsActive())

	assert.Equal(t, []string{"512"}, fake.Attr(principal.DN(), identity.AttrAccountControl))

	ok, err := svc.CheckPassword(principal, "s3cret-Passw0rd")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CheckPassword(principal, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	var count int64

	require.NoError(t, db.Model(&models.Principal{}).Where("object_guid = ?", principal.GUID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateWithoutPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	principal, err := svc.Create(account.CreateInput{Username: "nopass"})
	require.NoError(t, err)

	assert.True(t, principal.IsActive())

	ok, err := svc.CheckPassword(principal, "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(account.CreateInput{Username: "jdoe"})
	require.NoError(t, err)

	_, err = svc.Create(account.CreateInput{Username: "jdoe"})
	assert.ErrorIs(t, err, account.ErrUsernameTaken)
}

func TestCreateInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, username := range []string{"", "JDoe", "9lives", "ab"} {
		_, err := svc.Create(account.CreateInput{Username: username})
		assert.ErrorIs(t, err, account.ErrInvalidUsername, username)
	}

	_, err := svc.Create(account.CreateInput{Username: "jdoe", Email: "not-an-address"})
	assert.Error(t, err)
}

func TestSetPasswordPolicyRejection(t *testing.T) {
	svc, fake, _ := newTestService(t)

	principal, err := svc.Create(account.CreateInput{Username: "jdoe"})
	require.NoError(t, err)

	fake.PasswordPolicy = func(password string) error {
		if len(password) < 8 {
			return directory.ErrConstraintViolation
		}

		return nil
	}

	err = svc.SetPassword(principal, "short")
	assert.ErrorIs(t, err, directory.ErrConstraintViolation)

	require.NoError(t, svc.SetPassword(principal, "long enough now"))

	ok, err := svc.CheckPassword(principal, "long enough now")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetPasswordInvalidatesCache(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Principal{}))

	fake := directorytest.New()
	resolver := identity.NewResolver(fake, identity.NewMemoryCache(), testBaseDN, 0)
	svc := account.NewService(fake, resolver, db, account.Config{Domain: "example.org"})

	principal, err := svc.Create(account.CreateInput{Username: "jdoe"})
	require.NoError(t, err)

	// warm the cache, then confirm a hit performs no directory search
	_, err = resolver.Resolve(principal.GUID)
	require.NoError(t, err)

	warm := fake.SearchCalls

	_, err = resolver.Resolve(principal.GUID)
	require.NoError(t, err)
	assert.Equal(t, warm, fake.SearchCalls)

	require.NoError(t, svc.SetPassword(principal, "fresh-Passw0rd"))

	// the mutation dropped the cached entry
	_, err = resolver.Resolve(principal.GUID)
	require.NoError(t, err)
	assert.Greater(t, fake.SearchCalls, warm)
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(account.CreateInput{Username: "jdoe", Password: "s3cret-Passw0rd"})
	require.NoError(t, err)

	principal, err := svc.Authenticate("jdoe", "s3cret-Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, created.GUID, principal.GUID)

	_, err = svc.Authenticate("jdoe", "wrong")
	assert.ErrorIs(t, err, account.ErrInvalidPassword)

	_, err = svc.Authenticate("nobody", "s3cret-Passw0rd")
	assert.ErrorIs(t, err, identity.ErrPrincipalNotFound)
}

func TestDisableEnable(t *testing.T) {
	svc, _, _ := newTestService(t)

	principal, err := svc.Create(account.CreateInput{Username: "jdoe", Password: "s3cret-Passw0rd"})
	require.NoError(t, err)

	require.NoError(t, svc.Disable(principal))

	_, err = svc.Authenticate("jdoe", "s3cret-Passw0rd")
	assert.ErrorIs(t, err, account.ErrAccountDisabled)

	require.NoError(t, svc.Enable(principal))

	_, err = svc.Authenticate("jdoe", "s3cret-Passw0rd")
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	svc, fake, db := newTestService(t)

	principal, err := svc.Create(account.CreateInput{Username: "jdoe"})
	require.NoError(t, err)

	dn := principal.DN()

	require.NoError(t, svc.Delete(principal))
	assert.False(t, fake.HasEntry(dn))

	var count int64

	require.NoError(t, db.Model(&models.Principal{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateSuperuser(t *testing.T) {
	svc, fake, _ := newTestService(t)

	principal, err := svc.CreateSuperuser(account.CreateInput{Username: "root"})
	require.NoError(t, err)

	assert.True(t, svc.IsStaff(principal))
	assert.Contains(t, fake.Attr(testAdminGroupDN, identity.AttrMember), principal.DN())
}

func TestResetPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	principal, err := svc.Create(account.CreateInput{Username: "jdoe"})
	require.NoError(t, err)

	token, err := svc.CreateResetToken(principal)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(token.Key, "fresh-Passw0rd"))

	ok, err := svc.CheckPassword(principal, "fresh-Passw0rd")
	require.NoError(t, err)
	assert.True(t, ok)

	// tokens are single use
	err = svc.ResetPassword(token.Key, "another-Passw0rd")
	assert.ErrorIs(t, err, account.ErrTokenInvalid)

	err = svc.ResetPassword(uuid.New(), "another-Passw0rd")
	assert.ErrorIs(t, err, account.ErrTokenInvalid)
}

func TestResetPasswordExpired(t *testing.T) {
	svc, _, db := newTestService(t)

	principal, err := svc.Create(account.CreateInput{Username: "jdoe"})
	require.NoError(t, err)

	token, err := svc.CreateResetToken(principal)
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.Token{}).Where("id = ?", token.ID).Update("created_at", stale).Error)

	err = svc.ResetPassword(token.Key, "fresh-Passw0rd")
	assert.ErrorIs(t, err, account.ErrTokenExpired)
}
