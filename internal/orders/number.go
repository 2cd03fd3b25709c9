package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewOrderNumber produces a human-readable order reference. The millisecond
// timestamp plus a 0..999 suffix is not collision-free; callers retry on the
// unique constraint.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%d", time.Now().UnixMilli(), rand.IntN(1000))
}
