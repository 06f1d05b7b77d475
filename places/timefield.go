package places

import (
	"fmt"

	"github.com/araddon/dateparse"

	"github.com/xcube-dev/xcube-vdc-places/errors"
)

// TimeKey is the canonical time property name.
const TimeKey = "time"

// timeLayout renders timestamps in ISO-8601 form with a numeric UTC offset
// ("+00:00" for UTC).
const timeLayout = "2006-01-02T15:04:05-07:00"

// timeFieldAlternates are the reserved alternate time property names, in
// precedence order.
var timeFieldAlternates = [...]string{"datetime", "timestamp", "date-time", "date"}

// NormalizeTimeField rewrites the first alternate time property found in the
// mapping to the canonical "time" key in canonical ISO-8601 form, removing
// the original key. At most one substitution occurs; remaining alternates
// are left untouched. A value that is not a parseable date/time string is a
// hard error.
func NormalizeTimeField(properties map[string]any) error {
	for _, key := range timeFieldAlternates {
		raw, ok := properties[key]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return errors.WrapInvalid(errors.ErrParsingFailed, "Places", "NormalizeTimeField",
				fmt.Sprintf("property %q is not a string", key))
		}
		parsed, err := dateparse.ParseAny(value)
		if err != nil {
			return errors.WrapInvalid(err, "Places", "NormalizeTimeField",
				fmt.Sprintf("parse property %q value %q", key, value))
		}
		properties[TimeKey] = parsed.Format(timeLayout)
		delete(properties, key)
		break
	}
	return nil
}
