package bot

import (
	"fmt"
	"os"
	"time"

	"reel/internal/vision"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ClearingStep 清理背包时依次点击的按钮
type ClearingStep struct {
	Template    string
	Description string
	Pause       time.Duration
}

func DefaultClearingSteps() []ClearingStep {
	return []ClearingStep{
		{Template: TemplateSellMode, Description: "点击贩卖模式", Pause: time.Second},
		{Template: TemplateSelectAll, Description: "点击全选", Pause: 500 * time.Millisecond},
		{Template: TemplateCheck, Description: "点击确认选择", Pause: time.Second},
		{Template: TemplateConfirm, Description: "确认贩卖", Pause: 2 * time.Second},
	}
}

type yamlStep struct {
	Template    string  `yaml:"template"`
	Description string  `yaml:"description"`
	Pause       float64 `yaml:"pause"` // 秒
}

type yamlScript struct {
	Steps []yamlStep `yaml:"steps"`
}

// ParseClearingSteps 解析清理脚本
func ParseClearingSteps(data []byte) ([]ClearingStep, error) {
	var script yamlScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("解析清理脚本失败: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("清理脚本没有任何步骤")
	}

	steps := make([]ClearingStep, 0, len(script.Steps))
	for i, s := range script.Steps {
		if s.Template == "" {
			return nil, fmt.Errorf("第%d步缺少模板名称", i+1)
		}
		if s.Pause < 0 {
			return nil, fmt.Errorf("第%d步停顿时间为负数", i+1)
		}
		steps = append(steps, ClearingStep{
			Template:    s.Template,
			Description: s.Description,
			Pause:       time.Duration(s.Pause * float64(time.Second)),
		})
	}
	return steps, nil
}

// LoadClearingSteps 读取失败时回退到默认步骤
func LoadClearingSteps(path string) []ClearingStep {
	if path == "" {
		return DefaultClearingSteps()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("[清理] 读取清理脚本失败, 使用默认步骤")
		return DefaultClearingSteps()
	}
	steps, err := ParseClearingSteps(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("[清理] 清理脚本无效, 使用默认步骤")
		return DefaultClearingSteps()
	}

	log.Info().Int("steps", len(steps)).Str("path", path).Msg("[清理] 已加载清理脚本")
	return steps
}

// clearInventory 打开背包并卖掉所有物品
// 第一步找不到按钮说明背包没打开, 退出并返回失败; 后面的步骤找不到就跳过
func (e *Engine) clearInventory() bool {
	// 停止后不再打开背包
	if !e.stop.Running() {
		return false
	}
	e.setState(Clearing)
	e.logf("🎒 背包已满，开始清理...")

	e.hold(e.cfg.Keys.Inventory, inventoryHold)
	e.clock.Sleep(inventoryOpen)

	steps := e.cfg.ClearingSteps
	if len(steps) == 0 {
		steps = DefaultClearingSteps()
	}

	for i, step := range steps {
		if !e.stop.Running() {
			return false
		}

		p, ok := e.vision.MatchTemplate(step.Template, vision.MatchOptions{})
		if !ok {
			if i == 0 {
				e.logf("⚠️ 未找到 %s, 可能背包没打开", step.Template)
				e.tap(e.cfg.Keys.Back)
				return false
			}
			log.Debug().Str("template", step.Template).Msg("[清理] 未找到按钮, 跳过")
			continue
		}

		e.logf("👉 %s", step.Description)
		e.click(p)
		e.pause(step.Pause)
	}

	e.tap(e.cfg.Keys.Back)
	e.clock.Sleep(inventoryClose)
	e.logf("✨ 清理完成")
	return true
}
