package game

import "math"

// trollDistance and trollFactor define the escape hatch for wildly
// implausible entries: an offending number more than 72 off from the current
// count and more than 7 times it skips the curve entirely.
const (
	trollDistance = 72
	trollFactor   = 7
)

// Penalize computes a ban duration in minutes for an incorrect attempt.
//
// The smooth part is an exponential curve anchored to the guild's historical
// average: curveBase raised to the distance between the reached count and the
// average, clamped to [minBan, maxBan]. Attempts near the average are barely
// punished; outliers approach the cap quickly.
//
// The troll override returns maxBan × trollMultiplier unconditionally, even
// above the normal cap, when the raw number the offender typed is implausibly
// far from the actual count (e.g. "999999" at count 3). offendingNumber is
// the parsed leading number of the offending message, not the reached count.
func Penalize(currentCount int, averageCount float64, minBan, maxBan int, curveBase float64, trollMultiplier int, offendingNumber int) int {
	jump := currentCount - offendingNumber
	if jump < 0 {
		jump = -jump
	}
	if jump > trollDistance && offendingNumber > trollFactor*currentCount {
		return maxBan * trollMultiplier
	}

	distance := math.Abs(float64(currentCount) - averageCount)
	base := math.Pow(curveBase, distance)
	if math.IsNaN(base) {
		base = float64(maxBan)
	}
	// +Inf from exponent blow-up clamps to the cap here, never raises.
	base = math.Min(float64(maxBan), math.Max(float64(minBan), base))
	return int(math.Round(base))
}
