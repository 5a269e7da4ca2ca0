package game

import (
	"sync"

	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog/log"
)

// Input 基于 robotgo 的键鼠输入
type Input struct {
	mu      sync.Mutex
	pressed map[string]bool
}

// NewInput 全局调低 robotgo 的动作间隔，小游戏需要尽快响应
func NewInput() *Input {
	robotgo.KeySleep = 1
	robotgo.MouseSleep = 1
	return &Input{pressed: make(map[string]bool)}
}

func (in *Input) KeyDown(key string) error {
	in.mu.Lock()
	in.pressed[key] = true
	in.mu.Unlock()
	return robotgo.KeyDown(key)
}

func (in *Input) KeyUp(key string) error {
	in.mu.Lock()
	delete(in.pressed, key)
	in.mu.Unlock()
	return robotgo.KeyUp(key)
}

func (in *Input) Click(x, y int) error {
	robotgo.MoveClick(x, y)
	return nil
}

// ReleaseAll 松开所有仍处于按下状态的按键，退出时防止按键卡住
func (in *Input) ReleaseAll() {
	in.mu.Lock()
	keys := make([]string, 0, len(in.pressed))
	for key := range in.pressed {
		keys = append(keys, key)
	}
	in.pressed = make(map[string]bool)
	in.mu.Unlock()

	for _, key := range keys {
		if err := robotgo.KeyUp(key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("[输入] 松开按键失败")
		}
	}
}
