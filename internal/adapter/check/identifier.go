package check

import (
	"regexp"

	"github.com/arturoeanton/supabase-guard/internal/port"
)

// identifierPattern admits unquoted-style Postgres identifiers up to the
// 63 byte limit. Anything else is refused rather than escaped.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]{0,62}$`)

// quoteIdent validates name and returns it double-quoted for interpolation
// into DDL.
func quoteIdent(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", port.InvalidArgument("%q is not a valid table name", name)
	}
	return `"` + name + `"`, nil
}
