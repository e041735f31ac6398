package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_WithinBurst(t *testing.T) {
	l := New(time.Minute, 3)
	defer l.Stop()

	assert.True(t, l.Allow("1.2.3.4:/api/campaigns"))
	assert.True(t, l.Allow("1.2.3.4:/api/campaigns"))
	assert.True(t, l.Allow("1.2.3.4:/api/campaigns"))
	assert.False(t, l.Allow("1.2.3.4:/api/campaigns"))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := New(time.Minute, 1)
	defer l.Stop()

	assert.True(t, l.Allow("1.2.3.4:/a"))
	assert.False(t, l.Allow("1.2.3.4:/a"))
	assert.True(t, l.Allow("5.6.7.8:/a"))
	assert.True(t, l.Allow("1.2.3.4:/b"))
}

func TestAllow_RefillsOverTime(t *testing.T) {
	l := New(100*time.Millisecond, 1)
	defer l.Stop()

	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow("k"))
}

func TestNew_ClampsBadSettings(t *testing.T) {
	l := New(0, 0)
	defer l.Stop()

	assert.NotPanics(t, func() { l.Allow("k") })
	assert.True(t, l.Allow("k2"))
	assert.False(t, l.Allow("k2"))
}

func TestStop_Idempotent(t *testing.T) {
	l := New(time.Minute, 1)
	l.Stop()
	l.Stop()
}
