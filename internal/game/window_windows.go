//go:build windows

package game

import (
	"github.com/go-vgo/robotgo"
	"github.com/tailscale/win"
)

func (g *Game) activate() bool {
	hwnd := robotgo.FindWindow(g.Title)
	if hwnd == 0 {
		return g.activateByPid()
	}

	// 最小化的窗口需要先还原
	if win.IsIconic(hwnd) {
		win.ShowWindow(hwnd, win.SW_RESTORE)
	}
	return win.SetForegroundWindow(hwnd)
}
