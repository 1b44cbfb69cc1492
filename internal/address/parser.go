// Package address normalizes raw postal addresses into the parsed
// StreetAddress form used for cache keys and street-file lookups.
package address

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stefancrain/GeoApi/internal/model"
)

var (
	poBoxRe = regexp.MustCompile(`(?i)^\s*P\.?\s*O\.?\s*BOX\s*#?\s*(\w+)`)
	zipRe   = regexp.MustCompile(`(\d{5})(?:-(\d{4}))?\s*$`)
	bldgRe  = regexp.MustCompile(`^(\d+)([A-Za-z]?)(?:-\d+[A-Za-z]?)?$`)

	titleCaser = cases.Title(language.AmericanEnglish)
)

// TitleCase converts an upper-case canonical name to title case for display.
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(s))
}

// NormalizeState converts a state name or abbreviation to a two-letter code.
// Unrecognized input is returned upper-cased as-is.
func NormalizeState(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if abbr, ok := stateAbbrs[strings.ToLower(s)]; ok {
		return abbr
	}
	upper := strings.ToUpper(s)
	if validAbbrs[upper] {
		return upper
	}
	return upper
}

// clean strips punctuation that carries no parsing signal and collapses
// whitespace. The '#' marker is preserved for unit detection.
func clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ',' || r == '.' || r == ';':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Parse normalizes an Address into its parsed StreetAddress form. Street
// name and type come out upper-case canonical; a building number of 0 means
// the address had none.
func Parse(addr *model.Address) *model.StreetAddress {
	sa := &model.StreetAddress{}
	if addr == nil {
		return sa
	}

	sa.Location = strings.ToUpper(strings.TrimSpace(addr.City))
	sa.State = NormalizeState(addr.State)
	sa.Zip5 = strings.TrimSpace(addr.Zip5)
	sa.Zip4 = strings.TrimSpace(addr.Zip4)

	line := clean(addr.Addr1)

	// Zip may be embedded at the end of the street line when callers pass
	// one-line addresses.
	if sa.Zip5 == "" {
		if m := zipRe.FindStringSubmatch(line); m != nil {
			sa.Zip5 = m[1]
			if m[2] != "" {
				sa.Zip4 = m[2]
			}
			line = strings.TrimSpace(line[:len(line)-len(m[0])])
		}
	}

	if m := poBoxRe.FindStringSubmatch(line); m != nil {
		sa.PoBox = strings.ToUpper(m[1])
		return sa
	}

	tokens := strings.Fields(strings.ToUpper(line))
	if len(tokens) == 0 {
		parseUnit(clean(addr.Addr2), sa)
		return sa
	}

	// Building number, with optional letter suffix ("123A") or range ("123-125").
	if m := bldgRe.FindStringSubmatch(tokens[0]); m != nil && len(tokens) > 1 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			sa.BldgNum = n
			sa.BldgChar = m[2]
			tokens = tokens[1:]
		}
	}

	// Trailing unit on the street line, e.g. "APT 2B" or "# 5".
	for i := 1; i < len(tokens)-1; i++ {
		if ut, ok := unitTypes[tokens[i]]; ok {
			sa.UnitType = ut
			sa.UnitNum = strings.Join(tokens[i+1:], " ")
			tokens = tokens[:i]
			break
		}
	}

	// Pre-directional only when more tokens follow (avoid eating the street
	// name of "North St").
	if len(tokens) > 1 {
		if dir, ok := directionals[tokens[0]]; ok {
			sa.PreDir = dir
			tokens = tokens[1:]
		}
	}

	// Post-directional.
	if len(tokens) > 1 {
		if dir, ok := directionals[tokens[len(tokens)-1]]; ok {
			sa.PostDir = dir
			tokens = tokens[:len(tokens)-1]
		}
	}

	// Street type is the last remaining token when it is a known suffix.
	if len(tokens) > 1 {
		if st, ok := streetTypes[tokens[len(tokens)-1]]; ok {
			sa.StreetType = st
			tokens = tokens[:len(tokens)-1]
		}
	}

	sa.StreetName = strings.Join(tokens, " ")

	if sa.UnitType == "" {
		parseUnit(strings.ToUpper(clean(addr.Addr2)), sa)
	}

	return sa
}

// parseUnit extracts a secondary unit designator from an addr2-style line.
func parseUnit(line string, sa *model.StreetAddress) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return
	}
	if ut, ok := unitTypes[tokens[0]]; ok {
		sa.UnitType = ut
		sa.UnitNum = strings.Join(tokens[1:], " ")
		return
	}
	if strings.HasPrefix(tokens[0], "#") {
		sa.UnitType = "#"
		sa.UnitNum = strings.TrimPrefix(strings.Join(tokens, " "), "#")
		sa.UnitNum = strings.TrimSpace(sa.UnitNum)
	}
}

// Cacheable reports whether the parsed address identifies either a unique
// street-level location or a PO-box-like (city/zip only) location. Only
// cacheable addresses are persisted to the geocode cache.
func Cacheable(sa *model.StreetAddress) bool {
	if sa == nil {
		return false
	}
	if !sa.StreetEmpty() && !strings.HasPrefix(sa.StreetName, "[") && sa.BldgNum > 0 {
		return true
	}
	return sa.StreetEmpty() && sa.BldgNum == 0 &&
		((sa.Location != "" && sa.State != "") || sa.Zip5 != "")
}

// Retrievable reports whether the parsed address has enough data to be
// looked up in the geocode cache. Shares the cacheability predicate.
func Retrievable(sa *model.StreetAddress) bool {
	return Cacheable(sa)
}

// BlankPoBox returns a copy of the address with the box line removed.
// Geocoders resolve PO-box addresses better at zip/city granularity.
func BlankPoBox(addr *model.Address) *model.Address {
	blanked := *addr
	blanked.Addr1 = ""
	blanked.Addr2 = ""
	return &blanked
}
