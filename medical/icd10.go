package medical

import (
	"regexp"
	"strings"
)

var icd10Pattern = regexp.MustCompile(`^[A-Z][0-9]{2}(\.[0-9]{1,2})?$`)

// ValidICD10 reports whether code has the letter, two digits, optional
// one or two decimal digits shape. Codes failing it are kept but flagged.
func ValidICD10(code string) bool {
	return icd10Pattern.MatchString(code)
}

// NormalizeICD10 trims and uppercases code.
func NormalizeICD10(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
