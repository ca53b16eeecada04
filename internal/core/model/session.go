package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for logged sessions.
const DateLayout = "2006-01-02"

// LoggedSession is a completed meditation record.
type LoggedSession struct {
	ID              string
	DurationMinutes int
	Date            string
	Location        string
	Notes           string
	CreatedAt       time.Time
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses a YYYY-MM key.
func ParseYearMonth(value string) (YearMonth, error) {
	parsed, err := time.Parse("2006-01", value)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse month %q: %w", value, err)
	}
	return YearMonthOf(parsed), nil
}

// String renders the month as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Month returns the month the session was logged for.
func (session LoggedSession) Month() (YearMonth, error) {
	date, err := time.Parse(DateLayout, session.Date)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse session date %q: %w", session.Date, err)
	}
	return YearMonthOf(date), nil
}
