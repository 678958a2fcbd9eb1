package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("disabled", func(t *testing.T) {
		th := newThrottle(0, time.Second)
		for i := 0; i < 100; i++ {
			assert.True(t, th.allow("k", start))
		}
	})

	t.Run("refills one token per interval", func(t *testing.T) {
		th := newThrottle(1, 30*time.Second)
		assert.True(t, th.allow("k", start))
		assert.False(t, th.allow("k", start.Add(10*time.Second)))
		assert.True(t, th.allow("k", start.Add(30*time.Second)))
		assert.False(t, th.allow("k", start.Add(31*time.Second)))
	})

	t.Run("no refill", func(t *testing.T) {
		th := newThrottle(2, 0)
		assert.True(t, th.allow("k", start))
		assert.True(t, th.allow("k", start))
		assert.False(t, th.allow("k", start.Add(time.Hour)))
	})

	t.Run("keys are independent", func(t *testing.T) {
		th := newThrottle(1, time.Minute)
		assert.True(t, th.allow("a", start))
		assert.False(t, th.allow("a", start))
		assert.True(t, th.allow("b", start))
	})
}
