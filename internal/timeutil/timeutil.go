package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTime is returned by Parse for anything that is not HH:MM:SS or
// HH:MM with numeric groups.
var ErrInvalidTime = errors.New("invalid time format, expected HH:MM:SS or HH:MM")

// Format renders a non-negative second count as zero-padded HH:MM:SS.
// Hours are not wrapped at 24.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Parse converts HH:MM:SS or HH:MM (seconds assumed zero) to a second count.
// Any other shape, a non-numeric group or an empty string yields
// ErrInvalidTime; nothing is clamped or wrapped.
func Parse(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, ErrInvalidTime
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, ErrInvalidTime
		}
		nums[i] = n
	}

	total := nums[0]*3600 + nums[1]*60
	if len(nums) == 3 {
		total += nums[2]
	}
	return total, nil
}

// Short renders a second count as "Xh Ym", the compact form used in report
// tables and CSV.
func Short(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
