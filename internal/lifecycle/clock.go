package lifecycle

import "time"

// Clock supplies event timestamps in unix seconds.
type Clock interface {
	Now() int64
}

// SystemClock reads wall time.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() int64 {
	return time.Now().Unix()
}
