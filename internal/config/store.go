package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reel/internal/vision"

	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

const (
	SectionGeneral      = "general"
	SectionGameParams   = "game_params"
	SectionHumanization = "humanization"
	SectionRois         = "rois"
	SectionColors       = "colors"
	SectionImages       = "images"
	SectionKeys         = "keys"
	SectionAlert        = "alert"
)

var ErrNoPath = errors.New("配置文件路径为空")

// Store 以 section.key 读写 ini 配置, 修改后需要显式 Save
type Store struct {
	path string
	file *ini.File
}

func Load(path string) (*Store, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}
	return &Store{path: path, file: file}, nil
}

// New 空配置, 全部使用默认值
func New() *Store {
	return &Store{file: ini.Empty()}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) key(section, key string) (*ini.Key, bool) {
	sec, err := s.file.GetSection(section)
	if err != nil {
		return nil, false
	}
	k, err := sec.GetKey(key)
	if err != nil {
		return nil, false
	}
	return k, true
}

func (s *Store) GetString(section, key, def string) string {
	k, ok := s.key(section, key)
	if !ok || k.String() == "" {
		return def
	}
	return k.String()
}

func (s *Store) GetFloat(section, key string, def float64) float64 {
	k, ok := s.key(section, key)
	if !ok {
		return def
	}
	return k.MustFloat64(def)
}

func (s *Store) GetInt(section, key string, def int) int {
	k, ok := s.key(section, key)
	if !ok {
		return def
	}
	return k.MustInt(def)
}

func (s *Store) GetBool(section, key string, def bool) bool {
	k, ok := s.key(section, key)
	if !ok {
		return def
	}
	return k.MustBool(def)
}

// GetSeconds 配置里的时间统一以秒为单位
func (s *Store) GetSeconds(section, key string, def time.Duration) time.Duration {
	sec := s.GetFloat(section, key, def.Seconds())
	if sec < 0 {
		log.Warn().Str("section", section).Str("key", key).Float64("value", sec).Msg("[配置] 时间不能为负数, 使用默认值")
		return def
	}
	return time.Duration(sec * float64(time.Second))
}

func (s *Store) Set(section, key, value string) {
	s.file.Section(section).Key(key).SetValue(value)
}

// Region 读取 [rois] name = x,y,w,h, 缺失或格式错误时返回未设置的区域
func (s *Store) Region(name string) vision.Region {
	k, ok := s.key(SectionRois, name)
	if !ok || strings.TrimSpace(k.String()) == "" {
		return vision.Region{}
	}

	v, err := k.StrictInts(",")
	if err != nil || len(v) != 4 {
		log.Warn().Str("roi", name).Str("value", k.String()).Msg("[配置] 区域格式错误, 应为 x,y,w,h")
		return vision.Region{}
	}
	return vision.NewRegion(v[0], v[1], v[2], v[3])
}

func (s *Store) SetRegion(name string, r vision.Region) {
	s.Set(SectionRois, name, fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.W, r.H))
}

// ColorRange 读取 <name>_lower 与 <name>_upper
func (s *Store) ColorRange(name string) (vision.ColorRange, bool) {
	lower, ok := s.hsv(name + "_lower")
	if !ok {
		return vision.ColorRange{}, false
	}
	upper, ok := s.hsv(name + "_upper")
	if !ok {
		return vision.ColorRange{}, false
	}
	return vision.ColorRange{Name: name, Lower: lower, Upper: upper}, true
}

func (s *Store) SetColorRange(c vision.ColorRange) {
	s.Set(SectionColors, c.Name+"_lower", formatHSV(c.Lower))
	s.Set(SectionColors, c.Name+"_upper", formatHSV(c.Upper))
}

// Colors 所有同时配置了上下限的颜色
func (s *Store) Colors() map[string]vision.ColorRange {
	colors := make(map[string]vision.ColorRange)
	sec, err := s.file.GetSection(SectionColors)
	if err != nil {
		return colors
	}
	for _, k := range sec.Keys() {
		name, ok := strings.CutSuffix(k.Name(), "_lower")
		if !ok {
			continue
		}
		if c, ok := s.ColorRange(name); ok {
			colors[name] = c
		}
	}
	return colors
}

// Images 模板名称 -> 文件名
func (s *Store) Images() map[string]string {
	sec, err := s.file.GetSection(SectionImages)
	if err != nil {
		return map[string]string{}
	}
	return sec.KeysHash()
}

func (s *Store) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	return s.SaveTo(s.path)
}

func (s *Store) SaveTo(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}
	if err := s.file.SaveTo(path); err != nil {
		return fmt.Errorf("保存配置失败: %w", err)
	}
	s.path = path
	log.Info().Str("path", path).Msg("[配置] 配置已保存")
	return nil
}

func (s *Store) hsv(key string) (vision.HSV, bool) {
	k, ok := s.key(SectionColors, key)
	if !ok {
		return vision.HSV{}, false
	}
	v, err := k.StrictInts(",")
	if err != nil || len(v) != 3 {
		log.Warn().Str("key", key).Str("value", k.String()).Msg("[配置] 颜色格式错误, 应为 h,s,v")
		return vision.HSV{}, false
	}
	return vision.NewHSV(v[0], v[1], v[2]), true
}

func formatHSV(c vision.HSV) string {
	return fmt.Sprintf("%d,%d,%d", c.H, c.S, c.V)
}
