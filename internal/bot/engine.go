package bot

import (
	"errors"
	"fmt"
	"image"
	"time"

	"reel/internal/humanize"
	"reel/internal/vision"

	"github.com/rs/zerolog/log"
)

var ErrClearingFailed = errors.New("无法清理背包")

// Perceiver 感知管线
type Perceiver interface {
	MatchTemplate(name string, opts vision.MatchOptions) (image.Point, bool)
	Frame(region vision.Region) (vision.Frame, error)
}

// Executor 键鼠输入
type Executor interface {
	KeyDown(key string) error
	KeyUp(key string) error
	Click(x, y int) error
}

// Notifier 单向通知，不允许阻塞工作协程
type Notifier interface {
	OnLog(text string)
	OnStatus(text string)
	OnFinished()
}

// Stats 会话内计数
type Stats struct {
	Casts    int
	Bites    int
	Strikes  int
	Results  int
	Clears   int
	PosFixes int
}

// CycleRecord 一次咬钩到小游戏结束
type CycleRecord struct {
	StartedAt time.Time
	Duration  time.Duration
	Strikes   int
	Reason    string
	Skipped   bool // 未配置小游戏区域
}

// rule 每一轮按顺序检查，先命中的先处理
type rule struct {
	name   string
	detect func() (image.Point, bool)
	handle func(p image.Point) error
}

// Engine 主决策循环
type Engine struct {
	cfg    Config
	vision Perceiver
	input  Executor
	human  *humanize.Humanizer
	clock  Clock
	notify Notifier
	stop   *StopFlag

	state        State
	awaitingBite bool
	stats        Stats
	onCycle      func(CycleRecord)
	rules        []rule
}

func NewEngine(cfg Config, perceiver Perceiver, input Executor, human *humanize.Humanizer, clock Clock, notify Notifier, stop *StopFlag) *Engine {
	e := &Engine{
		cfg:    cfg,
		vision: perceiver,
		input:  input,
		human:  human,
		clock:  clock,
		notify: notify,
		stop:   stop,
		state:  Idle,
	}
	e.rules = e.newRules()
	return e
}

// newRules 顺序即优先级: 结算 > 位置错误 > 背包满 > 咬钩 > 抛竿
// 每一轮正常情况下只会有一个条件成立，顺序表达的是严重程度
func (e *Engine) newRules() []rule {
	msg := regionOrNil(e.cfg.MessageRegion)
	bite := regionOrNil(e.cfg.BiteRegion)

	return []rule{
		{
			name:   TemplateResult,
			detect: e.matcher(TemplateResult, vision.MatchOptions{Confidence: resultConf, Grayscale: true}),
			handle: e.onResult,
		},
		{
			name:   TemplatePosError,
			detect: e.matcher(TemplatePosError, vision.MatchOptions{Region: msg, Confidence: posErrorConf}),
			handle: e.onPosError,
		},
		{
			name:   TemplateFullWarning,
			detect: e.matcher(TemplateFullWarning, vision.MatchOptions{Region: msg, Confidence: fullWarningConf}),
			handle: e.onInventoryFull,
		},
		{
			name:   TemplateBite,
			detect: e.matcher(TemplateBite, vision.MatchOptions{Region: bite}),
			handle: e.onBite,
		},
		{
			name:   TemplateCast,
			detect: e.matcher(TemplateCast, vision.MatchOptions{Confidence: castConf, Grayscale: true}),
			handle: e.onCast,
		},
	}
}

func (e *Engine) matcher(name string, opts vision.MatchOptions) func() (image.Point, bool) {
	return func() (image.Point, bool) {
		return e.vision.MatchTemplate(name, opts)
	}
}

// Run 直到停止标志被清除或出现致命错误
func (e *Engine) Run() error {
	e.logf("🚀 自动化系统已启动")
	for e.stop.Running() {
		if err := e.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) tick() error {
	for _, r := range e.rules {
		p, ok := r.detect()
		if !ok {
			continue
		}
		log.Debug().Str("rule", r.name).Int("x", p.X).Int("y", p.Y).Msg("[钓鱼] 命中检测项")
		return r.handle(p)
	}

	// 没什么事发生，稍微休息，降低CPU占用
	if !e.awaitingBite {
		e.setState(Idle)
	}
	e.clock.Sleep(idlePause)
	return nil
}

func (e *Engine) onResult(image.Point) error {
	e.logf("💰 检测到结算画面")
	e.stats.Results++
	e.tap(e.cfg.Keys.Back)
	e.pause(resultPause)
	e.clearAwaiting()
	return nil
}

func (e *Engine) onPosError(image.Point) error {
	e.logf("⚠️ 位置错误，尝试修正...")
	e.stats.PosFixes++
	e.hold(e.cfg.Keys.StepBack, posErrorStep)
	e.pause(posErrorPause)
	e.clearAwaiting()
	return nil
}

func (e *Engine) onInventoryFull(image.Point) error {
	if ok := e.clearInventory(); !ok {
		if !e.stop.Running() {
			return nil
		}
		e.logf("❌ 无法清理背包，脚本停止")
		e.stop.Stop()
		return ErrClearingFailed
	}
	e.stats.Clears++
	e.clearAwaiting()
	return nil
}

func (e *Engine) onBite(image.Point) error {
	e.logf("🎣 咬钩！拉杆！")
	e.stats.Bites++
	e.tap(e.cfg.Keys.Strike)

	start := e.clock.Now()
	record := CycleRecord{StartedAt: start}
	if e.cfg.MinigameRegion.IsSet() {
		e.setState(InMinigame)
		result := e.playMinigame(e.cfg.MinigameRegion)
		record.Strikes = result.Strikes
		record.Reason = result.Reason
	} else {
		log.Warn().Msg("[钓鱼] 未配置小游戏区域")
		e.logf("❌ 未配置小游戏区域 ROI")
		record.Skipped = true
	}
	record.Duration = e.clock.Now().Sub(start)
	if e.onCycle != nil {
		e.onCycle(record)
	}

	e.awaitingBite = true
	e.setState(AwaitingBite)
	return nil
}

func (e *Engine) onCast(image.Point) error {
	// 之前在等鱼，说明鱼脱钩了或者上一轮结束了
	if e.awaitingBite {
		e.awaitingBite = false
		e.logf("↩️ 上一轮已结束，重新抛竿")
	}

	e.setState(Casting)
	e.logf("🌊 抛竿...")
	e.stats.Casts++
	e.hold(e.cfg.Keys.Strike, e.human.Delay(e.cfg.CastDuration, humanize.Proportional))

	// 抛竿后会有动画
	e.pause(castAnimation)
	e.setState(Idle)
	return nil
}

func (e *Engine) clearAwaiting() {
	e.awaitingBite = false
	e.setState(Idle)
}

func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	prev := e.state
	e.state = s
	log.Debug().Stringer("from", prev).Stringer("to", s).Msg("[钓鱼] 状态切换")
	e.notify.OnStatus(s.String())
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) AwaitingBite() bool {
	return e.awaitingBite
}

func (e *Engine) Stats() Stats {
	return e.stats
}

// OnCycle 每次咬钩流程结束后回调
func (e *Engine) OnCycle(f func(CycleRecord)) {
	e.onCycle = f
}

// ---------------------------------------- 动作 ----------------------------------------

func (e *Engine) hold(key string, d time.Duration) {
	if err := e.input.KeyDown(key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("[钓鱼] 按下按键失败")
	}
	e.clock.Hold(d)
	if err := e.input.KeyUp(key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("[钓鱼] 松开按键失败")
	}
}

// tap 快速点击，但也有一点点持续时间
func (e *Engine) tap(key string) {
	e.hold(key, e.human.TapHold())
}

func (e *Engine) click(p image.Point) {
	target := e.human.ClickPoint(p)
	if err := e.input.Click(target.X, target.Y); err != nil {
		log.Warn().Err(err).Int("x", target.X).Int("y", target.Y).Msg("[钓鱼] 点击失败")
	}
}

// pause 动作之后的停顿
// 开启随机延迟时在固定停顿之上叠加反应时间波动, 关闭后就是固定停顿
func (e *Engine) pause(base time.Duration) {
	e.clock.Sleep(e.human.Delay(base, humanize.Reaction))
}

func (e *Engine) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Info().Str("state", e.state.String()).Msg("[钓鱼] " + msg)
	e.notify.OnLog(msg)
}
