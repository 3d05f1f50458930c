package youtube

import (
	"fmt"
	"regexp"
	"strconv"
)

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// FormatDuration renders an ISO-8601 duration such as PT1H2M3S as H:MM:SS,
// or M:SS when under an hour. Unparseable input yields "0:00".
func FormatDuration(iso string) string {
	m := isoDuration.FindStringSubmatch(iso)
	if m == nil {
		return "0:00"
	}
	part := func(i int) int {
		n, _ := strconv.Atoi(m[i])
		return n
	}
	hours := part(1)*24 + part(2)
	minutes, seconds := part(3), part(4)
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
