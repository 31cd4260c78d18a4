package importing

import (
	"time"
	// The legacy archives come from Helsinki; embed tzdata so the
	// importer works on hosts without a system zone database.
	_ "time/tzdata"

	"github.com/civicvoice/hearing-go/internal/errors"
)

// sourceTimezone is the timezone of the legacy archive. Naive
// datetimes and bare dates are interpreted in this zone.
var sourceTimezone = mustLoadLocation("Europe/Helsinki")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// datetimeLayouts are tried in order for datetime values. The archive
// mostly uses naive ISO datetimes with microsecond precision.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseAwareDatetime parses an ISO datetime or bare date into an aware
// UTC instant. Naive values are interpreted in the source timezone;
// bare dates become midnight in the source timezone.
func parseAwareDatetime(value string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, value, sourceTimezone); err == nil {
			return t.UTC(), nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", value, sourceTimezone); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.Newf("%q is not a datetime or a date", value).
		Category(errors.CategoryImport).
		Component("importing").
		Build()
}
