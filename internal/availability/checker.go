// Package availability decides whether a doctor can take an appointment at a given time.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/google/uuid"
)

// CalendarSource opens a read-only view of a doctor's calendar.
type CalendarSource interface {
	Calendar(ctx context.Context, doctorID uuid.UUID) (appointment.CalendarReader, error)
}

type Checker struct {
	src CalendarSource
	loc *time.Location
	now func() time.Time
}

func NewChecker(src CalendarSource, loc *time.Location) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{src: src, loc: loc, now: time.Now}
}

// Location is the zone working hours are evaluated in.
func (c *Checker) Location() *time.Location {
	return c.loc
}

// Check opens the doctor's calendar without locking it and evaluates the slot.
// The answer is advisory; bookings re-check under the doctor's lock.
func (c *Checker) Check(ctx context.Context, doctorID uuid.UUID, start time.Time, durationMins int, excludeID *uuid.UUID) (bool, error) {
	if durationMins <= 0 {
		return false, appointment.ErrInvalidDuration
	}
	cal, err := c.src.Calendar(ctx, doctorID)
	if err != nil {
		return false, err
	}
	return c.IsAvailable(ctx, cal, start, durationMins, excludeID)
}

// IsAvailable reports whether [start, start+duration) lies inside one of the doctor's
// working ranges and overlaps no slot-holding appointment other than excludeID.
func (c *Checker) IsAvailable(ctx context.Context, cal appointment.CalendarReader, start time.Time, durationMins int, excludeID *uuid.UUID) (bool, error) {
	if durationMins <= 0 {
		return false, appointment.ErrInvalidDuration
	}
	doc := cal.Doctor()
	if !doc.IsActive {
		return false, nil
	}

	end := start.Add(time.Duration(durationMins) * time.Minute)
	if !doc.WorkingHours.Covers(start, end, c.loc) {
		return false, nil
	}

	existing, err := cal.ListActive(ctx, start, end, excludeID)
	if err != nil {
		return false, fmt.Errorf("listing appointments: %w", err)
	}
	return !Overlaps(existing, start, end, excludeID), nil
}

// Overlaps reports whether any slot-holding appointment other than excludeID
// intersects [start, end).
func Overlaps(existing []*appointment.Appointment, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, a := range existing {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Status.HoldsSlot() && a.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// FreeSlots lists the bookable start times on date (a calendar day in the practice zone)
// for an appointment of durationMins, stepping through each working range by step.
// Times already in the past are left out.
func (c *Checker) FreeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, durationMins int, step time.Duration) ([]time.Time, error) {
	if durationMins <= 0 {
		return nil, appointment.ErrInvalidDuration
	}
	if step <= 0 {
		step = 15 * time.Minute
	}

	cal, err := c.src.Calendar(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	doc := cal.Doctor()
	if !doc.IsActive {
		return []time.Time{}, nil
	}

	local := date.In(c.loc)
	y, m, d := local.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, c.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	existing, err := cal.ListActive(ctx, dayStart, dayEnd, nil)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	duration := time.Duration(durationMins) * time.Minute
	now := c.now()
	slots := []time.Time{}
	for _, r := range doc.WorkingHours.OnDay(dayStart.Weekday()) {
		for offset := r.Open.Offset(); offset+duration <= r.Close.Offset(); offset += step {
			start := time.Date(y, m, d, 0, 0, 0, 0, c.loc).Add(offset)
			end := start.Add(duration)
			if start.Before(now) || !doc.WorkingHours.Covers(start, end, c.loc) {
				continue
			}
			if !Overlaps(existing, start, end, nil) {
				slots = append(slots, start)
			}
		}
	}
	return slots, nil
}
