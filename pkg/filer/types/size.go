package types

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Size constants for binary units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// sizeUnits are the display units, smallest first. GB is the ceiling unit.
var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize converts a byte count to a display label.
// It picks the largest unit among B, KB, MB and GB (base 1024) in which the
// value is below 1024, with GB as the ceiling unit. Bytes render as an
// integer, every other unit with two decimals.
//
// Examples:
//   - FormatSize(0) returns "0 B"
//   - FormatSize(1023) returns "1023 B"
//   - FormatSize(1024) returns "1.00 KB"
//   - FormatSize(1536*1024) returns "1.50 MB"
//   - FormatSize(1024*1024-1) returns "1.00 MB", never "1024.00 KB"
func FormatSize(bytes int64) string {
	if bytes < KiB {
		if bytes < 0 {
			bytes = 0
		}
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes)
	unit := 0
	for unit < len(sizeUnits)-1 && value >= 1024 {
		value /= 1024
		unit++
	}

	// Rounding to two decimals can carry into the next unit.
	if unit < len(sizeUnits)-1 && math.Round(value*100)/100 >= 1024 {
		value /= 1024
		unit++
	}

	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}

// sizePattern matches size strings like "100M", "2G", "1.50 KB", "512 B", "1GiB".
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It accepts everything FormatSize produces ("0 B", "1.50 KB") as well as
// the shorthand forms "100M", "2g", "1TiB" and plain byte counts. All units
// are binary (1 KB = 1024 bytes). Decimal values are rounded to the nearest
// byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value*float64(multiplier) + 0.5), nil
}
