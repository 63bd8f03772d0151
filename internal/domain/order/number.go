package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NumberPrefix starts every order number
const NumberPrefix = "ORD"

// GenerateNumber returns a candidate order number such as ORD-20260115-9F3A61C2.
// The random part makes collisions unlikely; the unique index on order_number
// is what actually guarantees uniqueness, and callers retry on conflict.
func GenerateNumber(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return NumberPrefix + "-" + now.Format("20060102") + "-" + random
}
