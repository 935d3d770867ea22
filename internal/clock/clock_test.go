package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeadlineRemaining(t *testing.T) {
	now := time.Unix(1000, 0)
	d := NewDeadline(now, 30*time.Second)

	assert.Equal(t, 30*time.Second, d.Remaining(now))
	assert.Equal(t, 0, int(d.Remaining(now.Add(40*time.Second))))
	assert.False(t, d.Expired(now))
	assert.True(t, d.Expired(now.Add(31*time.Second)))
}

func TestDeadlineRemainingSecondsNeverNegative(t *testing.T) {
	now := time.Unix(2000, 0)
	d := NewDeadline(now, 5*time.Second)

	assert.Equal(t, 0, d.RemainingSeconds(now.Add(time.Minute)))
}
