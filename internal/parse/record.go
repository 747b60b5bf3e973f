package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	cedulaSeparatorsRe = regexp.MustCompile(`[.,\s]`)
	cedulaDigitsRe     = regexp.MustCompile(`^\d+$`)
	plateNoiseRe       = regexp.MustCompile(`[\s\-_.]`)
)

// Cedula normalises a national-ID number typed on the edit form or read back
// from a numeric column: "12.345.678" and "12345678.0" both become "12345678".
func Cedula(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}

	// numeric columns come back as floats
	s = strings.TrimSuffix(s, ".0")
	s = cedulaSeparatorsRe.ReplaceAllString(s, "")

	if !cedulaDigitsRe.MatchString(s) {
		return "", fmt.Errorf("invalid cedula: %q", raw)
	}
	return s, nil
}

// Plate normalises a vehicle or trailer plate: "abc-123 " becomes "ABC123".
func Plate(raw string) string {
	return strings.ToUpper(plateNoiseRe.ReplaceAllString(strings.TrimSpace(raw), ""))
}
