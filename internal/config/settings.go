package config

import (
	"path/filepath"

	"reel/internal/bot"
	"reel/internal/humanize"
	"reel/internal/vision"
)

const DefaultPath = "config/settings.ini"

// General [general] 与 [alert]
type General struct {
	WindowTitle    string
	ProcessName    string
	CaptureBackend string
	Screen         vision.Region // 未设置时使用主屏幕
	TemplateDir    string
	ClearingScript string
	HistoryDB      string
	LogDir         string
	Language       string
	AlertEnabled   bool
}

func (s *Store) General() General {
	return General{
		WindowTitle:    s.GetString(SectionGeneral, "window_title", "BrownDust II"),
		ProcessName:    s.GetString(SectionGeneral, "process_name", ""),
		CaptureBackend: s.GetString(SectionGeneral, "capture_backend", "robotgo"),
		Screen:         s.Region("screen"),
		TemplateDir:    s.resolve(s.GetString(SectionGeneral, "template_dir", "assets/images")),
		ClearingScript: s.resolve(s.GetString(SectionGeneral, "clearing_script", "")),
		HistoryDB:      s.resolve(s.GetString(SectionGeneral, "history_db", "data/history.db")),
		LogDir:         s.resolve(s.GetString(SectionGeneral, "log_dir", "logs")),
		Language:       s.GetString(SectionGeneral, "language", "zh"),
		AlertEnabled:   s.GetBool(SectionAlert, "enabled", true),
	}
}

func (s *Store) Thresholds() vision.Thresholds {
	def := vision.DefaultThresholds()
	return vision.Thresholds{
		Text:   s.GetFloat(SectionGameParams, "confidence_text", def.Text),
		Common: s.GetFloat(SectionGameParams, "confidence_common", def.Common),
	}
}

func (s *Store) Profile() humanize.Profile {
	p := humanize.DefaultProfile()
	p.Enabled = s.GetBool(SectionHumanization, "enable_random_delay", p.Enabled)
	p.ReactionMin = s.GetSeconds(SectionHumanization, "reaction_delay_min", p.ReactionMin)
	p.ReactionMax = s.GetSeconds(SectionHumanization, "reaction_delay_max", p.ReactionMax)
	p.CastVariance = s.GetFloat(SectionHumanization, "cast_variance", p.CastVariance)
	p.ClickOffset = s.GetInt(SectionHumanization, "click_offset_pixels", p.ClickOffset)
	p.StrikeHoldMin = s.GetSeconds(SectionHumanization, "strike_hold_min", p.StrikeHoldMin)
	p.StrikeHoldMax = s.GetSeconds(SectionHumanization, "strike_hold_max", p.StrikeHoldMax)
	p.TapHoldMin = s.GetSeconds(SectionHumanization, "tap_hold_min", p.TapHoldMin)
	p.TapHoldMax = s.GetSeconds(SectionHumanization, "tap_hold_max", p.TapHoldMax)

	if p.ReactionMax < p.ReactionMin {
		p.ReactionMax = p.ReactionMin
	}
	if p.CastVariance < 0 {
		p.CastVariance = 0
	}
	return p
}

// BotConfig 单次会话的只读快照, 每次 F9 启动时重新生成
func (s *Store) BotConfig() bot.Config {
	cfg := bot.DefaultConfig()
	g := s.General()

	cfg.WindowTitle = g.WindowTitle
	cfg.Keys = bot.Keys{
		Strike:    s.GetString(SectionKeys, "strike", cfg.Keys.Strike),
		Back:      s.GetString(SectionKeys, "back", cfg.Keys.Back),
		StepBack:  s.GetString(SectionKeys, "step_back", cfg.Keys.StepBack),
		Inventory: s.GetString(SectionKeys, "inventory", cfg.Keys.Inventory),
	}
	cfg.MinigameRegion = s.Region("minigame")
	cfg.BiteRegion = s.Region("bite")
	cfg.MessageRegion = s.Region("msg_tips")

	cfg.CastDuration = s.GetSeconds(SectionGameParams, "cast_duration", cfg.CastDuration)
	cfg.HitCooldown = s.GetSeconds(SectionGameParams, "hit_cooldown", cfg.HitCooldown)
	cfg.CursorTimeout = s.GetSeconds(SectionGameParams, "cursor_timeout", cfg.CursorTimeout)
	cfg.ClearingSteps = bot.LoadClearingSteps(g.ClearingScript)
	return cfg
}

// resolve 相对路径以配置文件所在目录的上一级为基准
func (s *Store) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.path == "" {
		return path
	}
	return filepath.Join(filepath.Dir(filepath.Dir(s.path)), path)
}
