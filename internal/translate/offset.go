package translate

import (
	"fmt"
	"math"
	"time"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/errors"
)

// OffsetBlocks converts a standard-time offset in seconds west of UTC to
// 15 minute blocks, rounding toward negative infinity.
func OffsetBlocks(secondsWest int) (int8, error) {
	q := secondsWest / config.QuarterHourSeconds
	if secondsWest%config.QuarterHourSeconds != 0 && secondsWest < 0 {
		q--
	}
	if q < math.MinInt8 || q > math.MaxInt8 {
		return 0, fmt.Errorf("%d seconds: %w", secondsWest, errors.ErrOffsetRange)
	}
	return int8(q), nil
}

// Offset returns the tz value stored for an entry at t seconds since the
// epoch: the base offset, shifted one hour east when DST is applied and
// the location observes daylight time at t.
func (o Options) Offset(t int64) (int8, error) {
	tz := int(o.BaseOffset)
	if o.ApplyDST && time.Unix(t, 0).In(o.location()).IsDST() {
		tz -= config.DSTShift
	}
	if tz < math.MinInt8 || tz > math.MaxInt8 {
		return 0, fmt.Errorf("offset %d at %d: %w", tz, t, errors.ErrOffsetRange)
	}
	return int8(tz), nil
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}
