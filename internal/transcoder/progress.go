package transcoder

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// parseProgress reads ffmpeg "-progress" key=value output and calls report
// with the completed fraction whenever out_time_us advances. duration is the
// source length in seconds; without it no fractions can be computed.
func parseProgress(r io.Reader, duration float64, report func(float64)) error {
	scanner := bufio.NewScanner(r)
	last := -1.0
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}

		var fraction float64
		switch key {
		case "out_time_us", "out_time_ms":
			// out_time_ms is microseconds as well, an ffmpeg quirk.
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || duration <= 0 {
				continue
			}
			fraction = float64(us) / 1e6 / duration
		case "progress":
			if value != "end" {
				continue
			}
			fraction = 1
		default:
			continue
		}

		fraction = min(max(fraction, 0), 1)
		if fraction > last {
			last = fraction
			report(fraction)
		}
	}
	return scanner.Err()
}
