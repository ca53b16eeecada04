package timerview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stillpoint/internal/core/handoff"
)

// parseFields reads the log form entries.
func parseFields(minutes, date, location, notes string) (handoff.Fields, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(minutes))
	if err != nil {
		return handoff.Fields{}, fmt.Errorf("%w: minutes must be a whole number", handoff.ErrInvalidEntry)
	}
	fields := handoff.Fields{
		DurationMinutes: parsed,
		Date:            strings.TrimSpace(date),
		Location:        location,
		Notes:           notes,
	}
	if err := fields.Validate(); err != nil {
		return handoff.Fields{}, err
	}
	return fields, nil
}

// describeSubmitError turns a Submit failure into form feedback.
func describeSubmitError(err error) string {
	var quotaErr *handoff.QuotaError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &quotaErr):
		return fmt.Sprintf("Monthly limit reached. %s logged in %s, %s left.",
			handoff.FormatMinutes(quotaErr.MonthTotal), quotaErr.Month, handoff.FormatMinutes(quotaErr.Remaining))
	case errors.Is(err, handoff.ErrInvalidEntry):
		return strings.TrimPrefix(err.Error(), handoff.ErrInvalidEntry.Error()+": ")
	default:
		return "Session could not be saved."
	}
}
