package bot

import (
	"sync"
	"sync/atomic"
	"time"

	"reel/internal/pkg/sleeper"
)

// Clock 循环里所有的时间读取与停顿都经过这里
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration) // 普通停顿，收到停止信号时提前结束
	Hold(d time.Duration)  // 按键按压时长，需要精确
}

type realClock struct {
	stop <-chan struct{}
}

func (c realClock) Now() time.Time {
	return time.Now()
}

func (c realClock) Sleep(d time.Duration) {
	sleeper.SleepUntil(d, c.stop)
}

func (c realClock) Hold(d time.Duration) {
	sleeper.SleepBusyLoop(d)
}

// StopFlag 外部可设置的运行标志，每一轮循环开始时检查
type StopFlag struct {
	running atomic.Bool
	once    sync.Once
	done    chan struct{}
}

func NewStopFlag() *StopFlag {
	f := &StopFlag{done: make(chan struct{})}
	f.running.Store(true)
	return f
}

func (f *StopFlag) Running() bool {
	return f.running.Load()
}

func (f *StopFlag) Stop() {
	f.once.Do(func() {
		f.running.Store(false)
		close(f.done)
	})
}

// Done 停止后关闭，用于唤醒停顿
func (f *StopFlag) Done() <-chan struct{} {
	return f.done
}
