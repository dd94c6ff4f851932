// Package booking owns the appointment booking flow: time-slot
// derivation and the cascading form state machine that feeds the
// upstream hospital API.
package booking

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-date form used across the flow.
	DateLayout = "2006-01-02"
	// TimeLayout is the time-of-day form of a slot.
	TimeLayout = "15:04"

	openingMinute = 9 * 60  // 09:00
	closingMinute = 17 * 60 // 17:00, itself a valid slot
	slotStep      = 30      // minutes
)

// MinSelectableDate returns today's date; past dates are never bookable.
func MinSelectableDate(now time.Time) string {
	return now.Format(DateLayout)
}

// EarliestSlot returns the first selectable slot for date. On today's
// date that is the next 30-minute boundary strictly after now (10:00
// rounds to 10:30, like the form it replaces); on any other date the
// fixed opening time.
func EarliestSlot(date string, now time.Time) string {
	return minuteString(earliestMinute(date, now))
}

// Slots enumerates the 30-minute slots from EarliestSlot(date) through
// closing time inclusive. Empty when today's earliest slot is already
// past closing. An empty date is treated like a future date.
func Slots(date string, now time.Time) []string {
	start := earliestMinute(date, now)
	if start > closingMinute {
		return nil
	}
	out := make([]string, 0, (closingMinute-start)/slotStep+1)
	for m := start; m <= closingMinute; m += slotStep {
		out = append(out, minuteString(m))
	}
	return out
}

// CombineDateTime assembles the upstream's naive datetime form.
func CombineDateTime(date, timeOfDay string) string {
	return date + "T" + timeOfDay
}

// SplitDateTime splits a naive datetime back into date and time-of-day,
// used to pre-fill the form when editing an existing appointment.
func SplitDateTime(datetime string) (date, timeOfDay string) {
	if t, err := time.Parse(DateLayout+"T"+TimeLayout, datetime); err == nil {
		return t.Format(DateLayout), t.Format(TimeLayout)
	}
	if t, err := time.Parse(time.RFC3339, datetime); err == nil {
		return t.Format(DateLayout), t.Format(TimeLayout)
	}
	return "", ""
}

func earliestMinute(date string, now time.Time) int {
	if date != MinSelectableDate(now) {
		return openingMinute
	}
	return (minuteOfDay(now)/slotStep + 1) * slotStep
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func minuteString(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
