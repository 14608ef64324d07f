package intake

import (
	"time"

	"aircrew/internal/policy"
	derrors "aircrew/pkg/domain-errors"
)

const (
	isoDate     = "2006-01-02"
	displayDate = "02.01.2006"
)

// parseDate accepts the storage form (YYYY-MM-DD) and the everyday form
// (DD.MM.YYYY).
func parseDate(text string) (time.Time, error) {
	for _, layout := range []string{isoDate, displayDate} {
		if t, err := time.Parse(layout, text); err == nil {
			return policy.DateOnly(t), nil
		}
	}
	return time.Time{}, derrors.Newf(derrors.CodeValidation, "unrecognized date %q", text)
}
