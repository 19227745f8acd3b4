package ghost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlightLock_SingleHolder(t *testing.T) {
	lock := NewFlightLock()

	assert.False(t, lock.Held())
	assert.True(t, lock.TryAcquire())
	assert.True(t, lock.Held())

	// Second attempt loses while held.
	assert.False(t, lock.TryAcquire())

	lock.Release()
	assert.False(t, lock.Held())
	assert.True(t, lock.TryAcquire())
}

func TestFlightLock_CountsEveryAttempt(t *testing.T) {
	lock := NewFlightLock()

	lock.TryAcquire()
	lock.TryAcquire()
	lock.Release()
	lock.TryAcquire()

	assert.Equal(t, uint64(3), lock.Requests())
}

func TestFlightLock_ReleaseWhenUnheldIsNoop(t *testing.T) {
	lock := NewFlightLock()

	lock.Release()
	assert.False(t, lock.Held())
	assert.True(t, lock.TryAcquire())
}
