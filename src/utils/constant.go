package utils

// asxSessionMinutes is the length of the ASX continuous trading session
// (10:00 to 16:00 Sydney).
const asxSessionMinutes = 6 * 60

// -----------------------------------------------------------------------------

// HistoryPointsForSession returns the per-code ring capacity needed to hold
// one full trading session of snapshots at the given poll interval, with ~10%
// headroom for auction prints and manual refreshes.
func HistoryPointsForSession(updateIntervalSeconds int) int {
	if updateIntervalSeconds <= 0 {
		updateIntervalSeconds = 60
	}

	points := asxSessionMinutes * 60 / updateIntervalSeconds
	if points < 50 {
		points = 50
	}
	return points + points/10
}
