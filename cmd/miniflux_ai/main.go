package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/digest"
	"github.com/iWorld-y/miniflux_ai/internal/engine"
	"github.com/iWorld-y/miniflux_ai/internal/logger"
	"github.com/iWorld-y/miniflux_ai/internal/scheduler"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name = "miniflux_ai"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

// jobs 一次性命令用到的组件
type jobs struct {
	Engine   *engine.Engine
	Composer *digest.Composer
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "miniflux_ai",
		Short:   "LLM enrichment for Miniflux entries",
		Version: Version,
		// 不带子命令时等同于 serve
		RunE: runServe,
	}
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", "config.yml", "config path, eg: --conf config.yml")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(pollCmd())
	rootCmd.AddCommand(digestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook/RSS server and the scheduler",
		RunE:  runServe,
	}
}

func pollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Process unread entries once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			j, err := initJobs(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			res, err := j.Engine.PollUnread(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("processed=%d failed=%d duration=%s\n", res.Processed, res.Failed, res.Duration)
			return nil
		},
	}
}

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Compose the daily news digest once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			j, err := initJobs(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			out, err := j.Composer.Compose(ctx)
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Println("summary cache is empty, nothing composed")
				return nil
			}
			fmt.Println(out)
			return nil
		},
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// 初始化日志记录器，包含时间戳、调用者信息、服务ID等上下文
	klog := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	app, cleanup, err := initApp(cfg, klog)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Log.Infof("服务启动，监听 %s", cfg.Server.Addr)
	return app.Run()
}

// loadConfig 读取配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	logger.Log.Infof("配置已加载: %s, agents=%d", flagconf, len(cfg.Agents))
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newApp(logger log.Logger, hs *http.Server, sch *scheduler.Scheduler) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs, sch),
	)
}
