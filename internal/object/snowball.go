package object

import (
	"fmt"
	"sync/atomic"
)

var snowballSeq uint64

// NextSnowballID mints a canonically-shaped snowball id
// "snowball_<playerId>_<seq>" (spec §3) from a monotonic per-process
// counter, so a single player throwing repeatedly never collides ids.
func NextSnowballID(ownerID string) string {
	seq := atomic.AddUint64(&snowballSeq, 1)
	return fmt.Sprintf("snowball_%s_%d", ownerID, seq)
}

// IsSnowballID reports whether id parses as a canonical snowball id.
func IsSnowballID(id string) bool {
	_, ok := OwnerIDFromSnowballID(id)
	return ok
}
