package listener

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog/log"
)

// 负责监听用户输入的 F9/F10 按键指令
type Listener struct {
	state int32
	Open  chan struct{} // F9
	Close chan struct{} // F10

	// 退出时需要松开的按键
	ResetKeys []string
}

const (
	STATE_CREATE int32 = iota
	STATE_READY
	STATE_RUNNING
	STATE_STOPPING
)

func New() *Listener {
	return &Listener{
		state:     STATE_CREATE,
		Open:      make(chan struct{}, 1),
		Close:     make(chan struct{}, 1),
		ResetKeys: []string{"shift", "ctrl", "alt", "space", "esc", "s", "t"},
	}
}

// Start 阻塞直到 ctx 结束或收到退出信号
func (l *Listener) Start(ctx context.Context) {
	if ok := atomic.CompareAndSwapInt32(&l.state, STATE_CREATE, STATE_READY); ok {
		l.run0(ctx)
	}
}

func (l *Listener) run0(ctx context.Context) {
	hook.Register(hook.KeyDown, []string{"f9"}, func(e hook.Event) {
		l.onStart()
	})
	hook.Register(hook.KeyDown, []string{"f10"}, func(e hook.Event) {
		l.onStop()
	})

	fmt.Println("[状态控制器] 状态控制器已装载 F9:开始 F10:停止 Ctrl+C:退出")
	fmt.Printf("\n")

	chain := hook.Start()
	defer l.Release()

	go func() {
		<-hook.Process(chain) // 这东西会永久阻塞当前协程，所以放到单独的协程里
		log.Info().Msg("[状态控制器] 状态控制器已卸载")
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case <-signals:
	case <-ctx.Done():
	}
}

func (l *Listener) onStart() bool {
	if ok := atomic.CompareAndSwapInt32(&l.state, STATE_READY, STATE_RUNNING); !ok {
		return false
	}
	select {
	case l.Open <- struct{}{}:
	default:
	}
	log.Info().Msg("[状态控制器] 检测到F9输入, 开始执行任务.")
	return true
}

func (l *Listener) onStop() bool {
	if ok := atomic.CompareAndSwapInt32(&l.state, STATE_RUNNING, STATE_STOPPING); !ok {
		return false
	}
	select {
	case l.Close <- struct{}{}:
	default:
	}
	log.Info().Msg("[状态控制器] 检测到F10输入, 开始停止逻辑.")
	return true
}

// Ready 会话结束后调用, 之后可以再次按 F9
func (l *Listener) Ready() {
	if atomic.CompareAndSwapInt32(&l.state, STATE_RUNNING, STATE_READY) ||
		atomic.CompareAndSwapInt32(&l.state, STATE_STOPPING, STATE_READY) {
		// 清掉会话期间没有被消费的 F10
		select {
		case <-l.Close:
		default:
		}
	}
}

func (l *Listener) Release() {
	hook.End()
	time.Sleep(1 * time.Second) // 很奇怪的东西，hook关闭不彻底会导致下次启动失败(重启进程也不行)

	for _, key := range l.ResetKeys {
		robotgo.KeyToggle(key, "up")
	}
	time.Sleep(200 * time.Millisecond)
}

func (l *Listener) IsRunning() bool {
	return atomic.LoadInt32(&l.state) == STATE_RUNNING
}
