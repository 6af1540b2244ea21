package braidsched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRangeClampsToRemaining(t *testing.T) {
	hs, he, rs, re := splitRange(0, 10, 100)
	require.Equal(t, int64(0), hs)
	require.Equal(t, int64(10), he)
	require.Equal(t, int64(10), rs)
	require.Equal(t, int64(10), re)
}

func TestSplitRangeNormal(t *testing.T) {
	hs, he, rs, re := splitRange(0, 10, 3)
	require.Equal(t, int64(0), hs)
	require.Equal(t, int64(3), he)
	require.Equal(t, int64(3), rs)
	require.Equal(t, int64(10), re)
}

func TestSplitRangeMinimumGrainOne(t *testing.T) {
	hs, he, _, _ := splitRange(5, 10, 0)
	require.Equal(t, int64(5), hs)
	require.Equal(t, int64(6), he)
}

func TestPartitionsNum(t *testing.T) {
	require.Equal(t, int64(1), partitionsNum(1))
	require.Equal(t, int64(12), partitionsNum(4)) // T*(T-1)
}

func TestPartitionsInitNum(t *testing.T) {
	require.Equal(t, int64(1), partitionsInitNum(1, 8))
	require.Equal(t, int64(3), partitionsInitNum(4, 8))  // min(T-1, max)
	require.Equal(t, int64(8), partitionsInitNum(20, 8)) // min(T-1, max)
}

func TestNormalizeRange(t *testing.T) {
	size, minRange := normalizeRange(0, 0)
	require.Equal(t, int64(1), size)
	require.Equal(t, int64(1), minRange)

	size, minRange = normalizeRange(100, -5)
	require.Equal(t, int64(100), size)
	require.Equal(t, int64(1), minRange)
}
