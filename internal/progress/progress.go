package progress

import (
	"fmt"
	"math"
	"strconv"

	"github.com/desertthunder/vidtrack/internal/shared"
)

// CacheKeyPrefix namespaces persisted snapshots by segment identifier.
const CacheKeyPrefix = "partsWatched"

// CacheKey returns the persisted cache key for a segment identifier.
func CacheKey(segmentID int64) string {
	return CacheKeyPrefix + strconv.FormatInt(segmentID, 10)
}

// Compute returns round(100 × watched / len(watched)) with halves rounded up.
//
// Empty input is rejected with [shared.ErrInvalidArgument].
func Compute(watched []bool) (int, error) {
	if len(watched) == 0 {
		return 0, fmt.Errorf("%w: no segments to compute progress from", shared.ErrInvalidArgument)
	}

	count := 0
	for _, w := range watched {
		if w {
			count++
		}
	}

	// Integer form of floor(100*count/n + 0.5), exact for any n.
	return (200*count + len(watched)) / (2 * len(watched)), nil
}

// PrefixLength returns how many leading segments a server percentage accounts for: floor(p/100 × n).
//
// Percentages outside 0..100 are clamped.
func PrefixLength(percent float64, n int) int {
	if percent <= 0 || n <= 0 {
		return 0
	}
	if percent >= 100 {
		return n
	}
	return int(math.Floor(percent / 100 * float64(n)))
}

// SegmentIndex returns the smallest i such that fraction < (i+1)/n, clamped to [0, n-1].
func SegmentIndex(fraction float64, n int) int {
	if n <= 0 || fraction <= 0 || math.IsNaN(fraction) {
		return 0
	}
	for i := 0; i < n; i++ {
		if fraction < float64(i+1)/float64(n) {
			return i
		}
	}
	return n - 1
}
