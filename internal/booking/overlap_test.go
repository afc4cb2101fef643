package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func TestOverlaps(t *testing.T) {
	t.Run("overlapping ranges", func(t *testing.T) {
		assert.True(t, Overlaps(
			day(t, "2024-06-01"), day(t, "2024-06-05"),
			day(t, "2024-06-04"), day(t, "2024-06-06"),
		))
	})

	t.Run("touching boundary does not overlap", func(t *testing.T) {
		assert.False(t, Overlaps(
			day(t, "2024-06-01"), day(t, "2024-06-05"),
			day(t, "2024-06-05"), day(t, "2024-06-07"),
		))
		assert.False(t, Overlaps(
			day(t, "2024-06-05"), day(t, "2024-06-07"),
			day(t, "2024-06-01"), day(t, "2024-06-05"),
		))
	})

	t.Run("disjoint ranges", func(t *testing.T) {
		assert.False(t, Overlaps(
			day(t, "2024-06-01"), day(t, "2024-06-02"),
			day(t, "2024-06-10"), day(t, "2024-06-12"),
		))
	})

	t.Run("contained range", func(t *testing.T) {
		assert.True(t, Overlaps(
			day(t, "2024-06-01"), day(t, "2024-06-10"),
			day(t, "2024-06-03"), day(t, "2024-06-04"),
		))
	})

	t.Run("symmetry", func(t *testing.T) {
		cases := [][4]string{
			{"2024-06-01", "2024-06-05", "2024-06-04", "2024-06-06"},
			{"2024-06-01", "2024-06-05", "2024-06-05", "2024-06-07"},
			{"2024-06-01", "2024-06-02", "2024-06-10", "2024-06-12"},
			{"2024-06-01", "2024-06-10", "2024-06-03", "2024-06-04"},
		}
		for _, c := range cases {
			ab := Overlaps(day(t, c[0]), day(t, c[1]), day(t, c[2]), day(t, c[3]))
			ba := Overlaps(day(t, c[2]), day(t, c[3]), day(t, c[0]), day(t, c[1]))
			assert.Equal(t, ab, ba, "overlaps must be symmetric for %v", c)
		}
	})

	t.Run("range overlaps itself", func(t *testing.T) {
		assert.True(t, Overlaps(
			day(t, "2024-06-01"), day(t, "2024-06-05"),
			day(t, "2024-06-01"), day(t, "2024-06-05"),
		))
	})
}
