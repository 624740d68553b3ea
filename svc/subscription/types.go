package subscription

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Status represents the current state of a subscription record.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Credits is a metered allowance counter. The UnlimitedCredits sentinel
// marks plans without a cap and serializes as the literal string "Unlimited"
// so clients never confuse it with a real balance.
type Credits int64

// UnlimitedCredits indicates no credit cap (-1 chosen for storage compatibility).
const UnlimitedCredits Credits = -1

// IsUnlimited reports whether the value is the unlimited sentinel.
func (c Credits) IsUnlimited() bool { return c == UnlimitedCredits }

func (c Credits) String() string {
	if c.IsUnlimited() {
		return "Unlimited"
	}
	return strconv.FormatInt(int64(c), 10)
}

// MarshalJSON writes "Unlimited" for the sentinel and a plain number otherwise.
func (c Credits) MarshalJSON() ([]byte, error) {
	if c.IsUnlimited() {
		return json.Marshal("Unlimited")
	}
	return json.Marshal(int64(c))
}

// UnmarshalJSON accepts either a number or the "Unlimited" string.
func (c *Credits) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*c = Credits(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("credits: cannot unmarshal %s", data)
	}
	if s != "Unlimited" && s != "unlimited" {
		return fmt.Errorf("credits: unexpected value %q", s)
	}
	*c = UnlimitedCredits
	return nil
}

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component. Expiry is evaluated at
// date granularity: a plan expiring "2026-03-15" is valid through that day.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{year: year, month: month, day: day}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses an ISO-8601 calendar date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("date: invalid value %q: %w", s, err)
	}
	return DateOf(t), nil
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// Time returns the date at UTC midnight.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// MarshalJSON writes the date as an ISO-8601 string, or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON reads an ISO-8601 date string; null and "" leave the date unset.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: cannot unmarshal %s", data)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
