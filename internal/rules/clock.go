/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses an "HH:mm" or "HH:mm:ss" wall-clock string into seconds
// since local midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:mm or HH:mm:ss, got %q", value)
	}

	limits := []int{24, 60, 60}
	seconds := 0
	for i, part := range parts {
		if len(part) != 2 {
			return 0, fmt.Errorf("expected two digits in %q", value)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n >= limits[i] {
			return 0, fmt.Errorf("component %q out of range in %q", part, value)
		}
		switch i {
		case 0:
			seconds += n * 3600
		case 1:
			seconds += n * 60
		default:
			seconds += n
		}
	}
	return seconds, nil
}
