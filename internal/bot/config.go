package bot

import (
	"time"

	"reel/internal/vision"
)

// 模板名称
const (
	TemplateResult      = "result"
	TemplatePosError    = "pos_error"
	TemplateFullWarning = "full_warning"
	TemplateBite        = "bite"
	TemplateCast        = "cast"

	TemplateSellMode  = "btn_sell_mode"
	TemplateSelectAll = "btn_select_all"
	TemplateCheck     = "btn_check"
	TemplateConfirm   = "btn_confirm"
)

// 颜色名称
const (
	ColorCursor = "cursor"
	ColorTarget = "yellow"
)

// 固定停顿
const (
	resultPause     = 2 * time.Second
	posErrorPause   = time.Second
	posErrorStep    = 300 * time.Millisecond
	castAnimation   = 2 * time.Second
	idlePause       = 100 * time.Millisecond
	inventoryHold   = 100 * time.Millisecond
	inventoryOpen   = 2500 * time.Millisecond
	inventoryClose  = 1500 * time.Millisecond
	resultConf      = 0.7
	posErrorConf    = 0.7
	fullWarningConf = 0.75
	castConf        = 0.7
)

type Keys struct {
	Strike    string // 抛竿/拉杆/小游戏命中
	Back      string
	StepBack  string
	Inventory string
}

// Config 单次会话的只读配置快照
type Config struct {
	WindowTitle string
	Keys        Keys

	MinigameRegion vision.Region // 未设置时跳过小游戏并告警
	BiteRegion     vision.Region // 未设置时全屏查找
	MessageRegion  vision.Region // 未设置时全屏查找

	CursorColor string
	TargetColor string

	CastDuration  time.Duration
	HitCooldown   time.Duration
	CursorTimeout time.Duration

	ClearingSteps []ClearingStep
}

func DefaultConfig() Config {
	return Config{
		WindowTitle: "BrownDust II",
		Keys: Keys{
			Strike:    "space",
			Back:      "esc",
			StepBack:  "s",
			Inventory: "t",
		},
		CursorColor:   ColorCursor,
		TargetColor:   ColorTarget,
		CastDuration:  500 * time.Millisecond,
		HitCooldown:   20 * time.Millisecond,
		CursorTimeout: time.Second,
		ClearingSteps: DefaultClearingSteps(),
	}
}

func regionOrNil(r vision.Region) *vision.Region {
	if !r.IsSet() {
		return nil
	}
	return &r
}
