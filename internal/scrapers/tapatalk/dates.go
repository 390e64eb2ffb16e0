package tapatalk

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// layouts phpBB renders with its default date formats, dateparse does not know the
// "Mon Jan 02, 2006 3:04 pm" family.
var phpbbLayouts = []string{
	"Mon Jan 02, 2006 3:04 pm",
	"Mon Jan 02, 2006 15:04",
	"Mon Jan 2, 2006 3:04 pm",
	"Jan 02, 2006, 3:04 pm",
	"02 Jan 2006, 15:04",
	"Mon Jan 02, 2006",
	"Jan 02, 2006",
}

// ParseTime reads a timestamp as rendered by the forum. Dates without a zone are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range phpbbLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseTimePtr(s string, loc *time.Location) *time.Time {
	t, ok := ParseTime(s, loc)
	if !ok {
		return nil
	}
	return &t
}
