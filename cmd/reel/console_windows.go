//go:build windows

package main

import (
	"syscall"
	"unsafe"

	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog/log"
	"github.com/tailscale/win"
)

var (
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procSetConsoleTitleW = kernel32.NewProc("SetConsoleTitleW")
)

func SetConsoleTitle(title string) {
	titlePtr, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		log.Warn().Err(err).Msg("[启动器] 获取窗口标题失败")
		return
	}
	ret, _, _ := procSetConsoleTitleW.Call(uintptr(unsafe.Pointer(titlePtr)))
	if ret == 0 {
		log.Warn().Msg("[启动器] 修改窗口标题失败")
	}
}

// resizeCli 把控制台挪到屏幕右上角, 尽量不遮挡游戏画面
func resizeCli() {
	hwnd := robotgo.FindWindow(Title)
	if hwnd == 0 {
		return
	}
	w, _ := robotgo.GetScreenSize()
	if !win.SetWindowPos(hwnd, win.HWND_TOP, int32(w-640), 0, 640, 800, win.SWP_SHOWWINDOW) {
		log.Warn().Msg("[启动器] 调整当前窗口大小失败")
	}
}
