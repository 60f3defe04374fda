package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smallnest/wechat-intercom/config"
	"github.com/smallnest/wechat-intercom/gateway"
	"github.com/smallnest/wechat-intercom/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Start the HTTP server that receives callbacks on /wechat and /intercom.

Point the WeChat gateway's post url at http://<host>:<port>/wechat?client=<name>
and the Intercom webhook at http://<host>:<port>/intercom.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := buildBridgeService(cfg, reg)
	if err != nil {
		return fmt.Errorf("failed to build bridge: %w", err)
	}

	server, err := gateway.NewServer(cfg.Server, gateway.Options{
		Router:        svc,
		WebhookSecret: cfg.Intercom.WebhookSecret,
		Gatherer:      reg,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting wechat-intercom",
		zap.String("addr", server.Addr()),
		zap.String("wechat", cfg.WeChat.BaseURL),
		zap.Bool("bot", svc.BotConfigured()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		return nil
	})

	return g.Wait()
}
