// Package address validates the textual server address values read from configuration.
package address

import "regexp"

// ipPattern accepts four dot-separated groups of one to three digits.
// Octet magnitude is not checked: "999.999.999.999" is syntactically valid.
var ipPattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

const (
	MinPort = 1024
	MaxPort = 65535
)

// ValidIP reports whether text has the dotted-quad shape. It is a format check only.
func ValidIP(text string) bool {
	return ipPattern.MatchString(text)
}

// ValidPort reports whether n is a non-privileged port.
func ValidPort(n int) bool {
	return n >= MinPort && n <= MaxPort
}
