package doctor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day, stored as minutes after midnight.
type ClockTime int

const minutesPerDay = 24 * 60

func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidWorkingHours, s)
	}
	// 24:00 closes a range at midnight
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidWorkingHours, s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Offset is the time elapsed since midnight on a day without clock shifts.
func (c ClockTime) Offset() time.Duration {
	return time.Duration(c) * time.Minute
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimeRange is a half-open [Open, Close) block of working time.
type TimeRange struct {
	Weekday time.Weekday `json:"weekday"`
	Open    ClockTime    `json:"open"`
	Close   ClockTime    `json:"close"`
}

// WorkingHours lists every open range of a doctor's week. A weekday without ranges is closed.
type WorkingHours []TimeRange

// OnDay returns the ranges for weekday ordered by opening time.
func (w WorkingHours) OnDay(day time.Weekday) []TimeRange {
	var out []TimeRange
	for _, r := range w {
		if r.Weekday == day {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Open < out[j].Open })
	return out
}

func (w WorkingHours) Validate() error {
	for _, r := range w {
		if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidWorkingHours, r.Weekday)
		}
		if r.Open < 0 || r.Close > minutesPerDay || r.Open >= r.Close {
			return fmt.Errorf("%w: %s %s-%s", ErrInvalidWorkingHours, r.Weekday, r.Open, r.Close)
		}
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		ranges := w.OnDay(day)
		for i := 1; i < len(ranges); i++ {
			if ranges[i].Open < ranges[i-1].Close {
				return fmt.Errorf("%w: overlapping ranges on %s", ErrInvalidWorkingHours, day)
			}
		}
	}
	return nil
}

// Covers reports whether [start, end) fits inside a single working range, comparing
// wall-clock times in loc.
func (w WorkingHours) Covers(start, end time.Time, loc *time.Location) bool {
	if !end.After(start) {
		return false
	}
	local := start.In(loc)
	h, m, s := local.Clock()
	from := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(local.Nanosecond())
	to := from + end.Sub(start)

	for _, r := range w.OnDay(local.Weekday()) {
		if r.Open.Offset() <= from && to <= r.Close.Offset() {
			return true
		}
	}
	return false
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// weekOrder lists weekdays Monday first, the order used when formatting.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// ParseWorkingHours reads the practice's text form, e.g.
//
//	Monday-Friday: 08:00-18:00, Saturday: 09:00-15:00, Sunday: Closed
//
// Several ranges for the same days are joined with "&" ("Monday: 08:00-12:00 & 13:00-17:00").
func ParseWorkingHours(text string) (WorkingHours, error) {
	var hours WorkingHours
	for _, entry := range strings.Split(text, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		daysPart, rangesPart, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("%w: missing ':' in %q", ErrInvalidWorkingHours, entry)
		}
		days, err := parseDays(daysPart)
		if err != nil {
			return nil, err
		}
		rangesPart = strings.TrimSpace(rangesPart)
		if strings.EqualFold(rangesPart, "closed") {
			continue
		}
		for _, spec := range strings.Split(rangesPart, "&") {
			openText, closeText, ok := strings.Cut(strings.TrimSpace(spec), "-")
			if !ok {
				return nil, fmt.Errorf("%w: bad range %q", ErrInvalidWorkingHours, spec)
			}
			open, err := ParseClock(openText)
			if err != nil {
				return nil, err
			}
			closing, err := ParseClock(closeText)
			if err != nil {
				return nil, err
			}
			for _, d := range days {
				hours = append(hours, TimeRange{Weekday: d, Open: open, Close: closing})
			}
		}
	}
	if err := hours.Validate(); err != nil {
		return nil, err
	}
	return hours, nil
}

func parseDays(s string) ([]time.Weekday, error) {
	fromText, toText, isSpan := strings.Cut(strings.TrimSpace(s), "-")
	from, ok := weekdayNames[strings.ToLower(strings.TrimSpace(fromText))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidWorkingHours, fromText)
	}
	if !isSpan {
		return []time.Weekday{from}, nil
	}
	to, ok := weekdayNames[strings.ToLower(strings.TrimSpace(toText))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidWorkingHours, toText)
	}
	var days []time.Weekday
	for d := from; ; d = (d + 1) % 7 {
		days = append(days, d)
		if d == to {
			break
		}
	}
	return days, nil
}

// String renders the schedule in the form ParseWorkingHours accepts, grouping consecutive
// days with identical hours.
func (w WorkingHours) String() string {
	describe := func(day time.Weekday) string {
		ranges := w.OnDay(day)
		if len(ranges) == 0 {
			return "Closed"
		}
		parts := make([]string, len(ranges))
		for i, r := range ranges {
			parts[i] = r.Open.String() + "-" + r.Close.String()
		}
		return strings.Join(parts, " & ")
	}

	var entries []string
	for i := 0; i < len(weekOrder); {
		desc := describe(weekOrder[i])
		j := i
		for j+1 < len(weekOrder) && describe(weekOrder[j+1]) == desc {
			j++
		}
		days := weekOrder[i].String()
		if j > i {
			days += "-" + weekOrder[j].String()
		}
		entries = append(entries, days+": "+desc)
		i = j + 1
	}
	return strings.Join(entries, ", ")
}
