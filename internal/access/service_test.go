package access_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/doorkeep/doorkeep/internal/access"
	"github.com/doorkeep/doorkeep/internal/db/models"
)

type fakeActuator struct {
	urls []string
	err  error
}

func (a *fakeActuator) Unlock(url string) error {
	a.urls = append(a.urls, url)

	return a.err
}

func newTestService(t *testing.T) (*access.Service, *fakeActuator, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.AccessTag{},
		&models.Resource{},
		&models.ResourceGrant{},
		&models.AccessEvent{},
	))

	actuator := &fakeActuator{}

	return access.NewService(db, actuator), actuator, db
}

func lastEvent(t *testing.T, db *gorm.DB) models.AccessEvent {
	t.Helper()

	var event models.AccessEvent

	require.NoError(t, db.Order("id DESC").First(&event).Error)

	return event
}

func TestCheckOpenResource(t *testing.T) {
	svc, _, db := newTestService(t)

	_, err := svc.CreateResource("front-door", true, "")
	require.NoError(t, err)

	_, err = svc.RegisterTag(uuid.New(), "0006276739")
	require.NoError(t, err)

	allowed, err := svc.Check("0006276739", "front-door")
	require.NoError(t, err)
	assert.True(t, allowed)

	event := lastEvent(t, db)
	assert.Equal(t, "0006276739", event.TagNumber)
	assert.Equal(t, "front-door", event.ResourceName)
	assert.Equal(t, models.OutcomeAllowed, event.Outcome)
}

func TestCheckRestrictedResource(t *testing.T) {
	svc, _, db := newTestService(t)

	_, err := svc.CreateResource("laser-cutter", false, "")
	require.NoError(t, err)

	guid := uuid.New()
	_, err = svc.RegisterTag(guid, "0006276739")
	require.NoError(t, err)

	// no grant yet
	allowed, err := svc.Check("0006276739", "laser-cutter")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, models.OutcomeDenied, lastEvent(t, db).Outcome)

	require.NoError(t, svc.Grant("laser-cutter", guid))

	allowed, err = svc.Check("0006276739", "laser-cutter")
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, svc.Revoke("laser-cutter", guid))

	allowed, err = svc.Check("0006276739", "laser-cutter")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckDisabledTag(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateResource("front-door", true, "")
	require.NoError(t, err)

	_, err = svc.RegisterTag(uuid.New(), "0006276739")
	require.NoError(t, err)

	require.NoError(t, svc.SetTagEnabled("0006276739", false))

	allowed, err := svc.Check("0006276739", "front-door")
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, svc.SetTagEnabled("0006276739", true))

	allowed, err = svc.Check("0006276739", "front-door")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckNotFound(t *testing.T) {
	svc, _, db := newTestService(t)

	_, err := svc.Check("0006276739", "front-door")
	assert.ErrorIs(t, err, access.ErrResourceNotFound)
	assert.Equal(t, models.OutcomeNotFound, lastEvent(t, db).Outcome)

	_, err = svc.CreateResource("front-door", true, "")
	require.NoError(t, err)

	_, err = svc.Check("0006276739", "front-door")
	assert.ErrorIs(t, err, access.ErrTagNotFound)
	assert.Equal(t, models.OutcomeNotFound, lastEvent(t, db).Outcome)
}

func TestOneTagPerPrincipal(t *testing.T) {
	svc, _, _ := newTestService(t)

	guid := uuid.New()

	_, err := svc.RegisterTag(guid, "0006276739")
	require.NoError(t, err)

	// second tag for the same principal hits the unique index
	_, err = svc.RegisterTag(guid, "0009999999")
	assert.Error(t, err)

	// tag numbers are unique too
	_, err = svc.RegisterTag(uuid.New(), "0006276739")
	assert.Error(t, err)
}

func TestRemoveTag(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RegisterTag(uuid.New(), "0006276739")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveTag("0006276739"))
	assert.ErrorIs(t, svc.RemoveTag("0006276739"), access.ErrTagNotFound)
}

func TestUnlock(t *testing.T) {
	svc, actuator, db := newTestService(t)

	_, err := svc.CreateResource("front-door", true, "http://door-controller.local/open")
	require.NoError(t, err)

	require.NoError(t, svc.Unlock("front-door"))
	assert.Equal(t, []string{"http://door-controller.local/open"}, actuator.urls)
	assert.Equal(t, models.OutcomeUnlocked, lastEvent(t, db).Outcome)

	assert.ErrorIs(t, svc.Unlock("back-door"), access.ErrResourceNotFound)
}

func TestUnlockWithoutActuator(t *testing.T) {
	svc, actuator, _ := newTestService(t)

	_, err := svc.CreateResource("cage", true, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Unlock("cage"), access.ErrNoActuator)
	assert.Empty(t, actuator.urls)
}
