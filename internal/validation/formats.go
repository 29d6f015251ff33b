package validation

import "regexp"

// Built-in format patterns. Domain identifiers (GST, PAN, pincode) follow
// the fixed Indian formats.
var (
	emailRe        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlRe          = regexp.MustCompile(`^https?://[^\s]+$`)
	gstRe          = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	panRe          = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	pincodeRe      = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	alphanumericRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaRe        = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	numericRe      = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
)

// compilePattern compiles a user-supplied pattern. Kept separate from the
// built-in table so compilation failures stay an explicit outcome.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}
