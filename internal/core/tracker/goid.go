package tracker

import "runtime"

// goroutineID returns the current goroutine's ID by parsing the header of
// runtime.Stack ("goroutine NNN [..."). Only used for owner checks.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
