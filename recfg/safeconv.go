package recfg

import (
	"fmt"
	"math"
)

// safeUint64ToInt converts a tape offset to an int for slicing, failing
// rather than silently wrapping when the offset does not fit (only
// relevant on 32-bit platforms, but the buffers this package handles are
// file-sized so the conversion is not guaranteed to be a no-op).
func safeUint64ToInt(v uint64) (int, error) {
	if v > math.MaxInt {
		return 0, fmt.Errorf("offset 0x%x exceeds platform int range", v)
	}
	return int(v), nil
}

// safeIntToUint64 converts a user-supplied length/offset argument (parsed
// as a signed int64 from the CLI) into the unsigned position space the
// checker and walker operate in. Negative inputs are rejected outright —
// per §4.2 of the wire format spec, buffer-end tests must be expressed as
// unsigned comparisons, never signed arithmetic, so a negative offset has
// no meaning here.
func safeIntToUint64(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative offset %d is not valid on a tape", v)
	}
	return uint64(v), nil
}
