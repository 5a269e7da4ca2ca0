package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"reel/internal/alert"
	"reel/internal/bot"
	"reel/internal/config"
	"reel/internal/detector"
	"reel/internal/game"
	"reel/internal/history"
	"reel/internal/humanize"
	"reel/internal/listener"
	"reel/internal/logging"
	"reel/internal/notify"
	"reel/internal/pkg/paths"

	"github.com/rs/zerolog/log"
)

const Title string = "钓鱼小助手"

func main() {
	defer handlePanic()

	configPath := flag.String("config", config.DefaultPath, "配置文件路径")
	flag.Parse()

	SetConsoleTitle(Title)
	showReadMe()

	path := paths.Resolve(*configPath)
	store, err := config.Load(path)
	if err != nil {
		fmt.Println("[启动器]", err)
		waitExit()
		return
	}
	general := store.General()

	cleanup, err := logging.Init(general.LogDir)
	if err != nil {
		fmt.Println("[启动器] 初始化日志失败:", err)
		waitExit()
		return
	}
	defer cleanup()
	log.Info().Str("config", path).Str("backend", general.CaptureBackend).Msg("[启动器] 配置已加载")

	fmt.Printf("[启动器] 参数识别 [窗口:%s] [截图方式:%s] [模板目录:%s]\n",
		general.WindowTitle, general.CaptureBackend, general.TemplateDir)
	resizeCli()

	// 游戏窗体 或 进程
	g, err := game.NewGame(general.ProcessName, general.WindowTitle)
	if err != nil {
		fmt.Println("[启动器]", err)
		waitExit()
		return
	}
	if !g.WaitForProcess(time.Minute) {
		fmt.Println("[启动器] 未发现目标游戏进程, 请启动游戏后重试!")
		waitExit()
		return
	}

	console := notify.NewConsole(os.Stdout, general.Language)
	sink := notify.NewAsync(console, 256)
	defer sink.Close()

	var records bot.History
	db, err := history.Open(general.HistoryDB)
	if err != nil {
		log.Warn().Err(err).Msg("[启动器] 历史记录不可用")
	} else {
		defer db.Close()
		records = db
	}
	alerter := alert.New(general.AlertEnabled)

	// 特殊按键监听器
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := listener.New()
	keys := store.BotConfig().Keys
	l.ResetKeys = append(l.ResetKeys, keys.Strike, keys.Back, keys.StepBack, keys.Inventory)

	exited := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(exited)
	}()

	for {
		// 等待F9
		select {
		case <-exited:
			return
		case <-l.Open:
		}

		// 每次启动都重新读取配置, 方便在两次运行之间修改
		if reloaded, err := config.Load(path); err != nil {
			log.Warn().Err(err).Msg("[启动器] 重新读取配置失败, 沿用上一次的配置")
		} else {
			store = reloaded
			general = store.General()
		}

		session := bot.NewSession(bot.SessionOptions{
			Config:    store.BotConfig(),
			Humanizer: humanize.New(store.Profile()),
			Acquire:   acquire(store, general),
			Window:    g,
			Notifier:  sink,
			History:   records,
			Alerter:   alerter,
		})
		if err := session.Start(); err != nil {
			log.Error().Err(err).Msg("[启动器] 启动会话失败")
			l.Ready()
			continue
		}

		select {
		case <-l.Close:
			session.Stop()
			session.Wait()
		case <-session.Done():
		case <-exited:
			session.Stop()
			session.Wait()
			return
		}

		showSummary(session.Summary(), db)
		l.Ready()
	}
}

// acquire 截图源与模板都在工作协程内创建, 会话结束时释放
func acquire(store *config.Store, general config.General) func() (*bot.Resources, error) {
	return func() (*bot.Resources, error) {
		source, err := game.NewSource(general.CaptureBackend, general.Screen)
		if err != nil {
			return nil, err
		}
		log.Info().Str("backend", source.Backend()).Stringer("bounds", source.Bounds()).Msg("[启动器] 截图源已创建")

		pipeline := detector.NewPipeline(source, detector.PipelineConfig{
			TemplateDir: general.TemplateDir,
			Images:      store.Images(),
			Colors:      store.Colors(),
			Thresholds:  store.Thresholds(),
		})
		if pipeline.TemplateCount() == 0 {
			pipeline.Close()
			return nil, errors.New("没有加载到任何模板图片")
		}

		return &bot.Resources{
			Perceiver: pipeline,
			Input:     game.NewInput(),
			Release:   pipeline.Close,
		}, nil
	}
}

func showSummary(summary bot.SessionSummary, db *history.DB) {
	s := summary.Stats
	fmt.Printf("[启动器] 本次运行 %s, 抛竿%d次 咬钩%d次 命中%d次 清理背包%d次\n",
		summary.EndedAt.Sub(summary.StartedAt).Round(time.Second), s.Casts, s.Bites, s.Strikes, s.Clears)
	if db == nil {
		return
	}
	if totals, err := db.Totals(); err == nil {
		fmt.Printf("[启动器] 累计 %d 次会话, %d 次上钩, %d 次命中\n\n", totals.Sessions, totals.Cycles, totals.Strikes)
	}
}

func showReadMe() {
	fmt.Println("声明: 本软件仅供个人学习使用。")
	fmt.Println("软件使用须知: ")
	fmt.Println("- 请将游戏改为窗口化, 并在 config/settings.ini 中配置小游戏、咬钩提示、消息提示的区域")
	fmt.Println("- 模板图片放在 template_dir 配置的目录中, 文件名在 [images] 中配置")
	fmt.Println("- 颜色阈值在 [colors] 中配置, 格式为 h,s,v (OpenCV 约定, 色相 0~179)")
	fmt.Println("补充: ")
	fmt.Println("- 程序完全基于图像识别进行, 使用时切换窗口会影响识别;")
	fmt.Println("- 程序使用时会占用键盘、鼠标, 使用期间自行操控可能遇到程序抢手现象;")
	fmt.Println("- 按下F10停止后可以再次按F9开始, Ctrl+C 退出程序;")
	fmt.Printf("\n\n")
}

func waitExit() {
	fmt.Print("按回车键退出程序...")
	bufio.NewReader(os.Stdin).ReadString('\n')
}

func handlePanic() {
	if r := recover(); r != nil {
		fmt.Println("\n============ 异常捕获 ===============")
		fmt.Printf("异常信息: %v\n", r)
		waitExit()
	}
}
