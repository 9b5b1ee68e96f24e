// Package units formats and parses byte sizes in decimal (SI) units.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Decimal byte multiples.
const (
	KB = 1000
	MB = 1000 * KB
	GB = 1000 * MB
	TB = 1000 * GB
	PB = 1000 * TB
)

var (
	sizeAbbrs   = []string{"B", "kB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}
	multipliers = map[byte]int64{'k': KB, 'm': MB, 'g': GB, 't': TB, 'p': PB}
)

// HumanSize returns size with four significant digits and a decimal unit
// suffix, e.g. "1.049MB".
func HumanSize(size float64) string {
	return HumanSizeWithPrecision(size, 4)
}

func HumanSizeWithPrecision(size float64, precision int) string {
	unit := 0
	for size >= 1000 && unit < len(sizeAbbrs)-1 {
		size /= 1000
		unit++
	}

	return fmt.Sprintf("%.*g%s", precision, size, sizeAbbrs[unit])
}

// FromHumanSize parses sizes like "32", "32b", "32.5 kB" or "1Mb" into bytes.
// A single space is allowed between the number and the suffix; any other
// whitespace, negative values and unknown suffixes are rejected.
func FromHumanSize(s string) (int64, error) {
	sep := strings.LastIndexAny(s, "0123456789. ")
	if sep == -1 {
		return -1, fmt.Errorf("invalid size: %q", s)
	}

	num, suffix := s[:sep+1], s[sep+1:]
	if s[sep] == ' ' {
		num = s[:sep]
	}

	size, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return -1, fmt.Errorf("invalid size: %q", s)
	}
	if size < 0 {
		return -1, fmt.Errorf("negative size: %q", s)
	}

	mul, err := suffixMultiplier(strings.ToLower(suffix))
	if err != nil {
		return -1, err
	}

	return int64(size * float64(mul)), nil
}

// suffixMultiplier accepts "", "b", "<unit>" and "<unit>b".
func suffixMultiplier(suffix string) (int64, error) {
	switch {
	case suffix == "", suffix == "b":
		return 1, nil
	case len(suffix) > 2, len(suffix) == 2 && suffix[1] != 'b':
		return -1, fmt.Errorf("invalid suffix: %q", suffix)
	}

	mul, ok := multipliers[suffix[0]]
	if !ok {
		return -1, fmt.Errorf("invalid suffix: %q", suffix)
	}
	return mul, nil
}
