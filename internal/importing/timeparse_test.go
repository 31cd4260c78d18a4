package importing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAwareDatetime(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "naive datetime in source zone",
			input: "2014-05-10 09:30:00",
			want:  time.Date(2014, 5, 10, 9, 30, 0, 0, helsinki),
		},
		{
			name:  "naive iso datetime",
			input: "2014-05-10T09:30:00",
			want:  time.Date(2014, 5, 10, 9, 30, 0, 0, helsinki),
		},
		{
			name:  "microsecond precision",
			input: "2014-05-10 09:30:00.123456",
			want:  time.Date(2014, 5, 10, 9, 30, 0, 123456000, helsinki),
		},
		{
			name:  "bare date becomes midnight",
			input: "2014-05-12",
			want:  time.Date(2014, 5, 12, 0, 0, 0, 0, helsinki),
		},
		{
			name:  "aware rfc3339 keeps its offset",
			input: "2014-05-10T09:30:00+00:00",
			want:  time.Date(2014, 5, 10, 9, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAwareDatetime(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseAwareDatetimeRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "not a date", "10.5.2014"} {
		_, err := parseAwareDatetime(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestSortObjectsByField(t *testing.T) {
	objs := mustObjects(t, `[
		{"id": "10", "v": "c"},
		{"id": "2", "v": "a"},
		{"id": "9", "v": "b"}
	]`)
	sortObjectsByField(objs, "id")
	got := make([]string, 0, len(objs))
	for _, obj := range objs {
		s, err := obj.GetString("v")
		require.NoError(t, err)
		got = append(got, s)
	}
	// Numeric comparison: 2 < 9 < 10, not "10" < "2" < "9".
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
