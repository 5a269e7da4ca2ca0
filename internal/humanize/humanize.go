// Package humanize 给动作加入时间和位置上的随机扰动，避免每次操作完全一致
package humanize

import (
	"image"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

type Kind int

const (
	Reaction     Kind = iota // 反应延迟: base + U[min, max]
	Proportional             // 比例波动: base ± variance*base
)

// Profile 单次会话内只读
type Profile struct {
	Enabled      bool
	ReactionMin  time.Duration
	ReactionMax  time.Duration
	CastVariance float64
	ClickOffset  int

	StrikeHoldMin time.Duration
	StrikeHoldMax time.Duration
	TapHoldMin    time.Duration
	TapHoldMax    time.Duration
}

func DefaultProfile() Profile {
	return Profile{
		Enabled:       true,
		ReactionMin:   50 * time.Millisecond,
		ReactionMax:   150 * time.Millisecond,
		CastVariance:  0.1,
		ClickOffset:   5,
		StrikeHoldMin: 20 * time.Millisecond,
		StrikeHoldMax: 50 * time.Millisecond,
		TapHoldMin:    50 * time.Millisecond,
		TapHoldMax:    100 * time.Millisecond,
	}
}

type Humanizer struct {
	profile Profile

	mu  sync.Mutex
	rnd *rand.Rand
}

func New(profile Profile) *Humanizer {
	return NewWithSource(profile, rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewWithSource 测试时传入固定种子
func NewWithSource(profile Profile, src rand.Source) *Humanizer {
	return &Humanizer{profile: profile, rnd: rand.New(src)}
}

func (h *Humanizer) Profile() Profile {
	return h.profile
}

// Delay 关闭随机延迟时原样返回 base
func (h *Humanizer) Delay(base time.Duration, kind Kind) time.Duration {
	p := h.profile
	if !p.Enabled {
		return base
	}

	var jitter time.Duration
	switch kind {
	case Reaction:
		jitter = h.between(p.ReactionMin, p.ReactionMax)
	case Proportional:
		v := p.CastVariance
		jitter = time.Duration(h.uniform(-v, v) * float64(base))
	}

	d := base + jitter
	if d < 0 {
		return 0
	}
	return d
}

// Point 每个轴叠加 N(0, radius/2) 的偏移，并限制在 ±radius 内
func (h *Humanizer) Point(target image.Point, radius int) image.Point {
	if radius <= 0 {
		return target
	}
	dx := h.gauss(radius)
	dy := h.gauss(radius)
	return image.Point{X: target.X + dx, Y: target.Y + dy}
}

// ClickPoint 使用配置中的点击偏移半径
func (h *Humanizer) ClickPoint(target image.Point) image.Point {
	return h.Point(target, h.profile.ClickOffset)
}

// StrikeHold 小游戏命中时的按压时长
func (h *Humanizer) StrikeHold() time.Duration {
	return h.between(h.profile.StrikeHoldMin, h.profile.StrikeHoldMax)
}

// TapHold 普通点按的按压时长
func (h *Humanizer) TapHold() time.Duration {
	return h.between(h.profile.TapHoldMin, h.profile.TapHoldMax)
}

func (h *Humanizer) gauss(radius int) int {
	h.mu.Lock()
	sample := h.rnd.NormFloat64() * float64(radius) / 2
	h.mu.Unlock()

	d := int(math.Trunc(sample))
	if d > radius {
		return radius
	}
	if d < -radius {
		return -radius
	}
	return d
}

func (h *Humanizer) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return time.Duration(h.uniform(float64(lo), float64(hi)))
}

func (h *Humanizer) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo + h.rnd.Float64()*(hi-lo)
}
