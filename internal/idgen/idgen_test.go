package idgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducesShortLowercaseIDs(t *testing.T) {
	t.Parallel()

	id := New()
	require.NotEmpty(t, id)
	assert.GreaterOrEqual(t, len(id), 10)
	assert.LessOrEqual(t, len(id), 13)
	assert.Equal(t, id, string([]byte(id)), "id must be plain ASCII")

	for _, r := range id {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= '2' && r <= '7'),
			"unexpected character %q in id %q", r, id)
	}
}

func TestFromTimeIsDeterministic(t *testing.T) {
	t.Parallel()

	instant := time.Date(2016, 3, 15, 10, 26, 0, 123456000, time.UTC)
	assert.Equal(t, FromTime(instant), FromTime(instant))
}

func TestIDsSortChronologically(t *testing.T) {
	t.Parallel()

	base := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := FromTime(base)
	for i := 1; i <= 1000; i++ {
		next := FromTime(base.Add(time.Duration(i) * time.Hour))
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestSameMicrosecondCollides(t *testing.T) {
	t.Parallel()

	// Collision within one microsecond is documented behavior; the
	// datastore retries with a fresh id on unique-constraint errors.
	instant := time.UnixMicro(1458037560123456)
	assert.Equal(t, FromTime(instant), FromTime(instant))
}
