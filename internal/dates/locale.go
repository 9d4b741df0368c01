package dates

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// monthFirstRegions write short dates with the month ahead of the day,
// either as M/D/Y or as Y-M-D.
var monthFirstRegions = map[string]bool{
	"US": true, "AS": true, "GU": true, "MP": true, "PR": true, "UM": true, "VI": true,
	"PH": true, "FM": true, "MH": true, "PW": true, "CA": true,
	"CN": true, "JP": true, "KR": true, "KP": true, "TW": true,
	"HU": true, "LT": true, "MN": true, "SE": true, "ZA": true, "IR": true, "BT": true,
}

// localeEnv is the precedence POSIX uses for LC_TIME.
var localeEnv = []string{"LC_ALL", "LC_TIME", "LANG"}

// SystemOrder infers the preferred day/month order from the process locale.
func SystemOrder() FieldOrder {
	for _, key := range localeEnv {
		if v := os.Getenv(key); v != "" {
			return OrderForLocale(v)
		}
	}
	return MonthFirst
}

// OrderForLocale maps a POSIX or BCP 47 locale name (en_GB.UTF-8, fr-CA) to a
// field order. Locales without a recognizable region are month-first.
func OrderForLocale(locale string) FieldOrder {
	name := locale
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "_", "-")
	if name == "" || name == "C" || name == "POSIX" {
		return MonthFirst
	}

	tag, err := language.Parse(name)
	if err != nil {
		return MonthFirst
	}

	region, confidence := tag.Region()
	if confidence == language.No {
		return MonthFirst
	}
	if monthFirstRegions[region.String()] {
		return MonthFirst
	}
	return DayFirst
}
