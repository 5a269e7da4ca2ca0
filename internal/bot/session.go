package bot

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"reel/internal/humanize"

	"github.com/rs/zerolog/log"
)

var (
	ErrWindowNotFound = errors.New("未找到游戏窗口")
	ErrAlreadyStarted = errors.New("会话已经启动")
)

// Resources 在工作协程内获取, 会话结束时释放
type Resources struct {
	Perceiver Perceiver
	Input     Executor
	Release   func() error
}

type Window interface {
	BringToFront() bool
}

// History 会话记录, 写入失败只记日志不影响运行
type History interface {
	StartSession(startedAt time.Time) (int64, error)
	RecordCycle(sessionID int64, record CycleRecord) error
	FinishSession(sessionID int64, summary SessionSummary) error
}

type Alerter interface {
	Alarm()
}

type SessionSummary struct {
	StartedAt time.Time
	EndedAt   time.Time
	Status    State
	Stats     Stats
	Err       error
}

type SessionOptions struct {
	Config    Config
	Humanizer *humanize.Humanizer
	Acquire   func() (*Resources, error)
	Window    Window
	Notifier  Notifier
	History   History
	Alerter   Alerter
	NewClock  func(stop <-chan struct{}) Clock
}

// Session 一次 F9 到 F10 之间的运行
type Session struct {
	opts    SessionOptions
	stop    *StopFlag
	done    chan struct{}
	started atomic.Bool

	mu      sync.Mutex
	summary SessionSummary
}

func NewSession(opts SessionOptions) *Session {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Humanizer == nil {
		opts.Humanizer = humanize.New(humanize.DefaultProfile())
	}
	if opts.NewClock == nil {
		opts.NewClock = func(stop <-chan struct{}) Clock { return realClock{stop: stop} }
	}
	return &Session{
		opts: opts,
		stop: NewStopFlag(),
		done: make(chan struct{}),
	}
}

// Start 启动工作协程, 不阻塞
func (s *Session) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go s.run()
	return nil
}

// Stop 只设置停止标志, 工作协程在下一次检查时退出
func (s *Session) Stop() {
	s.stop.Stop()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait 等待工作协程结束, 返回致命错误
func (s *Session) Wait() error {
	<-s.done
	return s.Err()
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary.Err
}

func (s *Session) Summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

func (s *Session) run() {
	defer close(s.done)

	startedAt := time.Now()
	historyID := s.startHistory(startedAt)

	state, stats, err := s.work(historyID)
	if err != nil {
		log.Error().Err(err).Msg("[会话] 会话异常结束")
	}

	summary := SessionSummary{StartedAt: startedAt, EndedAt: time.Now(), Status: state, Stats: stats, Err: err}
	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()

	if s.opts.History != nil && historyID > 0 {
		if herr := s.opts.History.FinishSession(historyID, summary); herr != nil {
			log.Warn().Err(herr).Msg("[会话] 写入会话记录失败")
		}
	}
	if state == Failed && s.opts.Alerter != nil {
		s.opts.Alerter.Alarm()
	}

	log.Info().Stringer("status", state).Int("casts", stats.Casts).Int("bites", stats.Bites).
		Int("strikes", stats.Strikes).Msg("[会话] 会话已结束")
	s.opts.Notifier.OnStatus(state.String())
	s.opts.Notifier.OnFinished()
}

// work 资源获取与释放都在这里完成, 返回之前资源已经释放
func (s *Session) work(historyID int64) (state State, stats Stats, err error) {
	var engine *Engine
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("[会话] 工作协程异常")
			s.opts.Notifier.OnLog(fmt.Sprintf("❌ 运行异常: %v", r))
			state, err = Failed, fmt.Errorf("工作协程异常: %v", r)
			if engine != nil {
				stats = engine.Stats()
			}
		}
	}()

	if s.opts.Window != nil && !s.opts.Window.BringToFront() {
		s.opts.Notifier.OnLog("❌ 未找到游戏窗口")
		return Failed, stats, ErrWindowNotFound
	}

	res, err := s.opts.Acquire()
	if err != nil {
		s.opts.Notifier.OnLog("❌ 初始化失败")
		return Failed, stats, fmt.Errorf("初始化资源失败: %w", err)
	}
	// 在 recover 之前执行, 异常时也会释放
	defer s.release(res)

	engine = NewEngine(s.opts.Config, res.Perceiver, res.Input, s.opts.Humanizer,
		s.opts.NewClock(s.stop.Done()), s.opts.Notifier, s.stop)
	if s.opts.History != nil && historyID > 0 {
		engine.OnCycle(func(rec CycleRecord) {
			if herr := s.opts.History.RecordCycle(historyID, rec); herr != nil {
				log.Warn().Err(herr).Msg("[会话] 写入钓鱼记录失败")
			}
		})
	}

	if err := engine.Run(); err != nil {
		return Failed, engine.Stats(), err
	}
	return Stopped, engine.Stats(), nil
}

func (s *Session) release(res *Resources) {
	if r, ok := res.Input.(interface{ ReleaseAll() }); ok {
		r.ReleaseAll()
	}
	if res.Release != nil {
		if err := res.Release(); err != nil {
			log.Warn().Err(err).Msg("[会话] 释放资源失败")
		}
	}
}

func (s *Session) startHistory(startedAt time.Time) int64 {
	if s.opts.History == nil {
		return 0
	}
	id, err := s.opts.History.StartSession(startedAt)
	if err != nil {
		log.Warn().Err(err).Msg("[会话] 创建会话记录失败")
		return 0
	}
	return id
}

type nopNotifier struct{}

func (nopNotifier) OnLog(string)    {}
func (nopNotifier) OnStatus(string) {}
func (nopNotifier) OnFinished()     {}
