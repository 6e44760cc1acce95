package schemas

import (
	"fmt"
	"strings"
	"time"
)

// Record is the constraint shared by every report shape the store can hold:
// a unique identifier plus an orderable date used for descending sort.
type Record interface {
	RecordID() string
	SortKey() time.Time
	Validate() error
}

// Page identifies which view a session is currently on.
type Page string

const (
	PageReportSelection Page = "report_selection"
	PageReportView      Page = "report_view"
	PageMapView         Page = "map_view"
)

// ValidPage reports whether p is one of the recognized page states.
func ValidPage(p Page) bool {
	switch p {
	case PageReportSelection, PageReportView, PageMapView:
		return true
	}
	return false
}

// ChatRole is the speaker of one conversation turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the assistant conversation, as stored in
// session state and sent to the generation endpoint as history.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD, matching the seed file
// format. The zero Date is invalid.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), t.UTC().Month(), t.UTC().Day())
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts a quoted YYYY-MM-DD string. Full RFC3339 timestamps
// are tolerated because some seed generators emit them for date fields.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
		}
	}
	d.Time = t.UTC()
	return nil
}
