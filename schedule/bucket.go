package schedule

import "fmt"

// Default rounding window: a sample taken from minute 57 onwards counts for the
// next hour, a sample taken up to minute 12 counts for its own hour.
const DEFAULT_START_WINDOW = 57
const DEFAULT_END_WINDOW = 12

// BucketWindow is the rounding window used to assign a raw (hour, minute) to
// the hour mark it belongs to.
type BucketWindow struct {
	StartWindow int
	EndWindow   int
}

// DefaultBucketWindow returns the 57/12 window.
func DefaultBucketWindow() BucketWindow {
	return BucketWindow{StartWindow: DEFAULT_START_WINDOW, EndWindow: DEFAULT_END_WINDOW}
}

// Validate checks that both bounds are minutes and that the dead zone is not inverted.
func (w BucketWindow) Validate() error {
	if w.StartWindow < 0 || w.StartWindow > 59 || w.EndWindow < 0 || w.EndWindow > 59 {
		return fmt.Errorf("bucket window %d/%d: minutes must be within 0..59", w.StartWindow, w.EndWindow)
	}
	if w.EndWindow >= w.StartWindow {
		return fmt.Errorf("bucket window %d/%d: end window must precede start window", w.StartWindow, w.EndWindow)
	}
	return nil
}

// BucketHour maps a raw hour/minute to its target hour.
//
// Minutes >= StartWindow belong to the next hour (rollover is set when that
// wraps to 00:00), minutes <= EndWindow belong to rawHour, anything in between
// is discarded and ok is false.
func (w BucketWindow) BucketHour(rawHour, rawMinute int) (targetHour int, rollover bool, ok bool) {
	switch {
	case rawMinute >= w.StartWindow:
		targetHour = (rawHour + 1) % 24
		return targetHour, targetHour == 0, true
	case rawMinute <= w.EndWindow:
		return rawHour, false, true
	default:
		return 0, false, false
	}
}
