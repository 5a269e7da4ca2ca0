package sleeper

import (
	"time"
)

// 系统定时器精度有限，短按键时长需要靠忙等保证

const busyWindow = 15 * time.Millisecond

// SleepBusyLoop 大头交给 time.Sleep，最后 busyWindow 内忙等
func SleepBusyLoop(d time.Duration) {
	start := time.Now()
	if d <= 0 {
		return
	}

	if d > busyWindow {
		time.Sleep(d - busyWindow)
	}
	for time.Since(start) < d {
	}
}

// SleepUntil 睡眠 d，stop 被关闭时提前返回 false
func SleepUntil(d time.Duration, stop <-chan struct{}) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}
