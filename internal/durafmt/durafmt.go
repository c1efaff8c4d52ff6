package durafmt

import (
	"fmt"
	"time"
)

// Format renders an elapsed duration as MM:SS, growing to H:MM:SS once an
// hour of airtime is reached.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	secs := int(d / time.Second)

	h := secs / 3600
	m := secs % 3600 / 60
	s := secs % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%02d:%02d", m, s)
}
