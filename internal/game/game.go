package game

import (
	"errors"
	"time"

	"reel/internal/pkg/utils"

	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog/log"
)

// Game 目标游戏窗口
type Game struct {
	Pid   int
	Name  string // 进程名称，例如 BrownDust II.exe，可为空
	Title string // 窗口标题
}

// 窗口切换动画时间
var activateSettle = 500 * time.Millisecond

func NewGame(name string, title string) (*Game, error) {
	if len(title) == 0 && len(name) == 0 {
		return nil, errors.New("游戏窗口标题与进程名称不能同时为空")
	}
	return &Game{Name: name, Title: title}, nil
}

// BringToFront 尽力把游戏窗口切到前台
// 系统可能限制抢占焦点，失败时先按一下 alt 再重试一次
func (g *Game) BringToFront() bool {
	if ok := g.activate(); ok {
		time.Sleep(activateSettle)
		return true
	}

	robotgo.KeyTap("alt")
	if ok := g.activate(); ok {
		time.Sleep(activateSettle)
		return true
	}

	log.Warn().Str("title", g.Title).Msg("[初始器] 游戏窗口激活失败")
	return false
}

func (g *Game) GetPid() (int, error) {
	if g.Pid != 0 {
		return g.Pid, nil
	}
	if len(g.Name) == 0 {
		return -1, errors.New("未配置游戏进程名称")
	}

	pidList, err := robotgo.FindIds(g.Name)
	if err != nil || len(pidList) <= 0 {
		return -1, errors.New("未发现目标游戏进程")
	}

	g.Pid = pidList[0]
	log.Info().Str("title", g.Title).Int("pid", g.Pid).Str("name", g.Name).Msg("[初始器] 找到游戏进程")
	return g.Pid, nil
}

// activateByPid 没有窗口句柄时按进程激活
func (g *Game) activateByPid() bool {
	pid, err := g.GetPid()
	if err != nil {
		return false
	}
	if err := robotgo.ActivePid(pid); err != nil {
		log.Debug().Err(err).Int("pid", pid).Msg("[初始器] 按进程激活窗口失败")
		return false
	}
	return true
}

// WaitForProcess 等待游戏进程出现, 未配置进程名称时直接返回
func (g *Game) WaitForProcess(timeout time.Duration) bool {
	if len(g.Name) == 0 {
		return true
	}
	log.Info().Str("name", g.Name).Msg("[初始器] 等待游戏进程启动...")
	return utils.Poll(timeout, time.Second, func() (bool, error) {
		_, err := g.GetPid()
		return err == nil, nil
	}, true)
}
