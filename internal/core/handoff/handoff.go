// Package handoff turns a finished timer into a logged session.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stillpoint/internal/core/model"
)

// MonthlyQuotaMinutes caps the minutes that can be logged in one calendar month.
const MonthlyQuotaMinutes = 1800

var (
	// ErrQuotaExceeded is wrapped by every *QuotaError.
	ErrQuotaExceeded = errors.New("monthly quota exceeded")
	// ErrInvalidEntry indicates the form fields cannot be logged.
	ErrInvalidEntry = errors.New("invalid session entry")
)

// QuotaError reports how much of the month's allowance is left.
type QuotaError struct {
	Month      model.YearMonth
	MonthTotal int
	Requested  int
	Remaining  int
}

func (err *QuotaError) Error() string {
	return fmt.Sprintf("%s: %s already logged in %s, only %s more allowed",
		ErrQuotaExceeded, FormatMinutes(err.MonthTotal), err.Month, FormatMinutes(err.Remaining))
}

func (err *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}

// FormatMinutes renders minutes as "1h 5m" or "45m".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	hours := minutes / 60
	rest := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", rest)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// CheckQuota fails when requested would push the month past the quota.
func CheckQuota(existing []model.LoggedSession, month model.YearMonth, requested int) error {
	total := 0
	for _, session := range existing {
		total += session.DurationMinutes
	}
	if total+requested <= MonthlyQuotaMinutes {
		return nil
	}
	remaining := MonthlyQuotaMinutes - total
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaError{Month: month, MonthTotal: total, Requested: requested, Remaining: remaining}
}

// Fields are the user-editable parts of a log entry.
type Fields struct {
	DurationMinutes int
	Date            string
	Location        string
	Notes           string
}

// Validate checks the fields can be stored. Zero minutes is allowed so a
// session shorter than a minute can still be logged from its pre-filled form.
func (fields Fields) Validate() error {
	if fields.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidEntry)
	}
	if _, err := time.Parse(model.DateLayout, fields.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, fields.Date)
	}
	return nil
}

// ValidateManual checks a hand-entered session, which must have a length.
func (fields Fields) ValidateManual() error {
	if fields.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidEntry)
	}
	return fields.Validate()
}

// Form is the pre-filled log form shown after a completed session.
type Form struct {
	ElapsedSeconds int
	Fields         Fields
}

// NewForm pre-fills whole minutes of elapsed and today's date.
func NewForm(elapsedSeconds int, now time.Time) Form {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	return Form{
		ElapsedSeconds: elapsedSeconds,
		Fields: Fields{
			DurationMinutes: elapsedSeconds / 60,
			Date:            now.Format(model.DateLayout),
		},
	}
}

// Stats describes the completed session, e.g. "10 minutes of meditation".
func (form Form) Stats() string {
	minutes := form.ElapsedSeconds / 60
	seconds := form.ElapsedSeconds % 60
	var parts []string
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || minutes == 0 {
		parts = append(parts, plural(seconds, "second"))
	}
	return strings.Join(parts, " ") + " of meditation"
}

func plural(count int, unit string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, unit)
	}
	return fmt.Sprintf("%d %ss", count, unit)
}

// Store is the persistence collaborator.
type Store interface {
	PersistSession(ctx context.Context, session model.LoggedSession) (string, error)
	ListSessionsForMonth(ctx context.Context, month model.YearMonth) ([]model.LoggedSession, error)
}

// Recorder validates, quota-checks and persists log entries.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a recorder backed by store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record persists fields and returns the new session id.
func (recorder *Recorder) Record(ctx context.Context, fields Fields) (string, error) {
	if err := fields.Validate(); err != nil {
		return "", err
	}
	session := model.LoggedSession{
		DurationMinutes: fields.DurationMinutes,
		Date:            fields.Date,
		Location:        strings.TrimSpace(fields.Location),
		Notes:           strings.TrimSpace(fields.Notes),
		CreatedAt:       recorder.now().UTC(),
	}
	month, err := session.Month()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	existing, err := recorder.store.ListSessionsForMonth(ctx, month)
	if err != nil {
		return "", fmt.Errorf("list sessions for %s: %w", month, err)
	}
	if err := CheckQuota(existing, month, session.DurationMinutes); err != nil {
		return "", err
	}

	id, err := recorder.store.PersistSession(ctx, session)
	if err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return id, nil
}

// MonthTotal sums the minutes logged in month.
func (recorder *Recorder) MonthTotal(ctx context.Context, month model.YearMonth) (int, []model.LoggedSession, error) {
	sessions, err := recorder.store.ListSessionsForMonth(ctx, month)
	if err != nil {
		return 0, nil, fmt.Errorf("list sessions for %s: %w", month, err)
	}
	total := 0
	for _, session := range sessions {
		total += session.DurationMinutes
	}
	return total, sessions, nil
}
