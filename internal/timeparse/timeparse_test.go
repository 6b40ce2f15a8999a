package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

func fixedNormalizer(now time.Time) *Normalizer {
	return New(kst).WithClock(func() time.Time { return now })
}

func TestNormalizeRelative(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, kst)
	n := fixedNormalizer(now)

	cases := map[string]time.Time{
		"3시간 전":      now.Add(-3 * time.Hour),
		"15분 전":      now.Add(-15 * time.Minute),
		"2일 전":       now.AddDate(0, 0, -2),
		"입력 5 분 전":   now.Add(-5 * time.Minute),
		"10 minutes ago": now.Add(-10 * time.Minute),
		"방금 전":       now,
	}
	for in, want := range cases {
		got := n.Normalize(in)
		assert.WithinDuration(t, want, got, time.Second, in)
	}
}

func TestNormalizeAbsoluteLayouts(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, kst)
	n := fixedNormalizer(now)

	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, kst), n.Normalize("2024-01-15 10:30"))
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, kst), n.Normalize("2024.01.15 10:30"))
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, kst), n.Normalize("2023-12-31"))
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, kst), n.Normalize(" 2023.12.31 "))
	assert.Equal(t, time.Date(2024, 2, 5, 9, 5, 0, 0, kst), n.Normalize("02-05 09:05"))
	assert.Equal(t, time.Date(2024, 2, 5, 9, 5, 0, 0, kst), n.Normalize("02.05 09:05"))
}

func TestNormalizeISO(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 10, 12, 0, 0, 0, kst))

	got := n.Normalize("2024-01-15T01:30:00Z")
	assert.True(t, got.Equal(time.Date(2024, 1, 15, 1, 30, 0, 0, time.UTC)))

	got = n.Normalize("2024-01-15T10:30:00+09:00")
	assert.True(t, got.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, kst)))

	got = n.Normalize("2024-01-15T10:30:00")
	assert.True(t, got.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, kst)))

	got = n.Normalize("2024-01-15T10:30:00+0900")
	assert.True(t, got.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, kst)), got)

	got = n.Normalize("2024-01-15T01:30:00.250+0000")
	assert.True(t, got.Equal(time.Date(2024, 1, 15, 1, 30, 0, 250_000_000, time.UTC)), got)

	got = n.Normalize("발행 2024-01-15T10:30 기준")
	assert.True(t, got.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, kst)), got)
}

func TestNormalizeEmbedded(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 10, 12, 0, 0, 0, kst))

	assert.Equal(t, time.Date(2024, 1, 15, 15, 20, 0, 0, kst), n.Normalize("2024.01.15. 오후 3:20"))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 5, 0, 0, kst), n.Normalize("입력 2024.01.15 오전 12:05"))
	assert.Equal(t, time.Date(2024, 1, 15, 8, 0, 0, 0, kst), n.Normalize("기사입력 2024-01-15 08:00 수정"))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, kst), n.Normalize("등록 2024/01/15"))
}

func TestNormalizeFallsBackToNow(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, kst)
	n := fixedNormalizer(now)

	for _, in := range []string{"", "   ", "garbage", "어제", "2024-13-45", "99:99", "99999999999999999999분 전", "\x00\xff"} {
		assert.Equal(t, now, n.Normalize(in), "input %q", in)
	}
}

func TestNormalizeAlwaysMarshalable(t *testing.T) {
	n := fixedNormalizer(time.Date(2024, 3, 10, 12, 0, 0, 0, kst))
	for _, in := range []string{"", "9999999일 전", "0001-01-01", "1.1 1:1", "2024-02-30", "오후"} {
		got := n.Normalize(in)
		_, err := got.MarshalJSON()
		require.NoError(t, err, in)
		assert.False(t, got.IsZero(), in)
	}
}
