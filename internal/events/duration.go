package events

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDuration parses a "HH:MM:SS" string into total seconds. Components
// must be unsigned integers; minutes and seconds must be below 60.
func ParseDuration(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration %q: want HH:MM:SS", s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duration %q: bad component %q", s, p)
		}
		vals[i] = n
	}
	if vals[1] >= 60 || vals[2] >= 60 {
		return 0, fmt.Errorf("duration %q: minutes and seconds must be below 60", s)
	}
	return vals[0]*3600 + vals[1]*60 + vals[2], nil
}

// TotalMinutes sums a set of "HH:MM:SS" durations and returns whole minutes,
// rounded to nearest. Unparseable entries are skipped.
func TotalMinutes(durations []string) int {
	total := 0
	for _, d := range durations {
		if d == "" {
			continue
		}
		secs, err := ParseDuration(d)
		if err != nil {
			continue
		}
		total += secs
	}
	return (total + 30) / 60
}
