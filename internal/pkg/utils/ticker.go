package utils

import (
	"time"
)

// Poll 每隔 interval 执行一次 f, 直到 f 返回 true、返回错误或者超过 duration
func Poll(duration time.Duration, interval time.Duration, f func() (bool, error), immediate bool) bool {
	startTime := time.Now()
	if immediate {
		if ok, err := f(); err == nil && ok {
			return true
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if time.Since(startTime) >= duration {
			return false
		}

		<-ticker.C
		result, err := f()

		if err != nil {
			return false
		}
		if result {
			return true
		}
	}
}
