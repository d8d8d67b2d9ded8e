package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	require.Equal(t, "0", Count(0))
	require.Equal(t, "999", Count(999))
	require.Equal(t, "1,000", Count(1000))
	require.Equal(t, "12,345,678", Count(12345678))
	require.Equal(t, "-4,821", Count(-4821))
}

func TestDigits(t *testing.T) {
	require.Equal(t, []string{"0", "0", "4", "2"}, Digits(42, 4))
	require.Equal(t, []string{"1", "2", "3"}, Digits(123, 2))
	require.Equal(t, []string{"0"}, Digits(-5, 0))
}

func TestFmtDate(t *testing.T) {
	d := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "2025년 3월 9일", FmtDate(d, "ko"))
	require.Equal(t, "Mar 9, 2025", FmtDate(d, "en"))
	require.Empty(t, FmtDate(time.Time{}, "en"))
}

func TestSeconds(t *testing.T) {
	require.Equal(t, "1.5s", Seconds(1500*time.Millisecond))
	require.Equal(t, "5s", Seconds(5*time.Second))
}
