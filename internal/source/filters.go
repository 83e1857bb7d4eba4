package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/volsource/internal/decoder"
)

// Filter is a selectable file-name pattern for folder mode.
type Filter struct {
	Pattern     string
	Description string
}

func (f Filter) String() string {
	if f.Description == "" {
		return f.Pattern
	}
	return fmt.Sprintf("%s (%s)", f.Description, f.Pattern)
}

// Matches reports whether a file name matches the pattern, ignoring case.
func (f Filter) Matches(name string) bool {
	ok, err := filepath.Match(strings.ToLower(f.Pattern), strings.ToLower(filepath.Base(name)))
	return err == nil && ok
}

// AvailableFilters derives the selectable filters from decoder capabilities,
// keeping the order in which they are supplied.
func AvailableFilters(exts []decoder.Extension) []Filter {
	seen := make(map[string]struct{}, len(exts))
	out := make([]Filter, 0, len(exts))
	for _, ext := range exts {
		pattern := ext.Pattern()
		if _, dup := seen[pattern]; dup {
			continue
		}
		seen[pattern] = struct{}{}
		out = append(out, Filter{Pattern: pattern, Description: ext.Description})
	}
	return out
}

// SelectFilter keeps active when it is one of filters and otherwise falls back
// to the first filter. changed reports a substitution.
func SelectFilter(filters []Filter, active string) (selected Filter, changed bool) {
	if f, ok := lookupFilter(filters, active); ok {
		return f, false
	}
	if len(filters) == 0 {
		return Filter{}, active != ""
	}
	return filters[0], true
}

func lookupFilter(filters []Filter, pattern string) (Filter, bool) {
	for _, f := range filters {
		if strings.EqualFold(f.Pattern, pattern) {
			return f, true
		}
	}
	return Filter{}, false
}
