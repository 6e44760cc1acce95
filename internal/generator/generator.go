// Package generator synthesizes fresh report records, either through the
// hosted Gemini endpoint or an offline fake-data fallback.
package generator

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newReportID mints the short upper-hex id format used by report-level
// records.
func newReportID() string {
	return strings.ToUpper(fmt.Sprintf("%x", uuid.New()))[:10]
}

// newTransactionID mints the longer id format used by line items.
func newTransactionID() string {
	return strings.ToUpper(fmt.Sprintf("%x", uuid.New()))[:16]
}

// randomDatetime picks a uniformly random instant between start and end.
// When the interval is empty it returns start.
func randomDatetime(start, end time.Time) time.Time {
	delta := int64(end.Sub(start).Seconds())
	if delta <= 0 {
		return start
	}
	return start.Add(time.Duration(rand.Int64N(delta)) * time.Second)
}
