package session

import (
	"testing"
	"time"

	domainErrors "scanpay/internal/errors"
	"scanpay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(clock *fakeClock) Service {
	return NewService(clock, 15*time.Minute)
}

func testClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func torchCaps() models.BrowserCapabilities {
	return models.BrowserCapabilities{IsMobile: true, SupportsTorch: true}
}

func TestStart(t *testing.T) {
	clock := testClock()
	svc := newTestService(clock)

	t.Run("mobile faces the environment camera", func(t *testing.T) {
		sess := svc.Start(torchCaps(), models.ScannerConfig{FPS: 15})
		assert.NotEmpty(t, sess.ID)
		assert.True(t, sess.Running)
		assert.Equal(t, FacingEnvironment, sess.Facing)
		assert.Equal(t, clock.Now(), sess.StartedAt)
	})

	t.Run("desktop faces the user camera", func(t *testing.T) {
		sess := svc.Start(models.BrowserCapabilities{}, models.ScannerConfig{})
		assert.Equal(t, FacingUser, sess.Facing)
	})
}

func TestGet(t *testing.T) {
	svc := newTestService(testClock())
	sess := svc.Start(torchCaps(), models.ScannerConfig{})

	got, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
}

func TestStopAndRestart(t *testing.T) {
	svc := newTestService(testClock())
	sess := svc.Start(torchCaps(), models.ScannerConfig{})

	stopped, err := svc.Stop(sess.ID)
	require.NoError(t, err)
	assert.False(t, stopped.Running)

	restarted, err := svc.Restart(sess.ID)
	require.NoError(t, err)
	assert.True(t, restarted.Running)
	assert.Equal(t, 1, restarted.Restarts)
	assert.False(t, restarted.TorchOn)
}

func TestSetTorch(t *testing.T) {
	t.Run("gated on capability", func(t *testing.T) {
		svc := newTestService(testClock())
		sess := svc.Start(models.BrowserCapabilities{IsMobile: true}, models.ScannerConfig{})

		_, err := svc.SetTorch(sess.ID, true)
		assert.ErrorIs(t, err, domainErrors.ErrTorchUnsupported)
	})

	t.Run("toggles when supported", func(t *testing.T) {
		svc := newTestService(testClock())
		sess := svc.Start(torchCaps(), models.ScannerConfig{})

		on, err := svc.SetTorch(sess.ID, true)
		require.NoError(t, err)
		assert.True(t, on.TorchOn)

		off, err := svc.SetTorch(sess.ID, false)
		require.NoError(t, err)
		assert.False(t, off.TorchOn)
	})

	t.Run("rejected on stopped session", func(t *testing.T) {
		svc := newTestService(testClock())
		sess := svc.Start(torchCaps(), models.ScannerConfig{})
		_, err := svc.Stop(sess.ID)
		require.NoError(t, err)

		_, err = svc.SetTorch(sess.ID, true)
		assert.ErrorIs(t, err, domainErrors.ErrSessionStopped)
	})
}

func TestSwitchFacing(t *testing.T) {
	svc := newTestService(testClock())
	sess := svc.Start(torchCaps(), models.ScannerConfig{})

	t.Run("invalid mode rejected", func(t *testing.T) {
		_, err := svc.SwitchFacing(sess.ID, "sideways")
		assert.ErrorIs(t, err, domainErrors.ErrInvalidFacingMode)
	})

	t.Run("switching cameras drops the torch", func(t *testing.T) {
		_, err := svc.SetTorch(sess.ID, true)
		require.NoError(t, err)

		switched, err := svc.SwitchFacing(sess.ID, FacingUser)
		require.NoError(t, err)
		assert.Equal(t, FacingUser, switched.Facing)
		assert.False(t, switched.TorchOn)
	})
}

func TestUpdateConfig(t *testing.T) {
	svc := newTestService(testClock())
	sess := svc.Start(torchCaps(), models.ScannerConfig{FPS: 15})

	updated, err := svc.UpdateConfig(sess.ID, models.ScannerConfig{FPS: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Config.FPS)
}

func TestPruneIdle(t *testing.T) {
	clock := testClock()
	svc := newTestService(clock)

	stale := svc.Start(torchCaps(), models.ScannerConfig{})
	clock.Advance(16 * time.Minute)
	fresh := svc.Start(torchCaps(), models.ScannerConfig{})

	assert.Equal(t, 1, svc.PruneIdle())

	_, err := svc.Get(stale.ID)
	assert.ErrorIs(t, err, domainErrors.ErrSessionNotFound)
	_, err = svc.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSnapshotIsolation(t *testing.T) {
	svc := newTestService(testClock())
	sess := svc.Start(torchCaps(), models.ScannerConfig{FPS: 15})

	// Mutating the returned snapshot must not affect the registry.
	sess.Running = false
	got, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.True(t, got.Running)
}
