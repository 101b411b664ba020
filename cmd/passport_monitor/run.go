package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"passportwatch/pkg/availability"
	"passportwatch/pkg/browser"
	"passportwatch/pkg/config"
	"passportwatch/pkg/logger"
	"passportwatch/pkg/notifier"
	"passportwatch/pkg/poller"
	"passportwatch/pkg/status"
)

const shutdownTimeout = 5 * time.Second

func runMonitor(cmd *cobra.Command, opts *cliOptions, cookie string) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cmd, opts, cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	log, err := logger.New(logOptions(cfg.Log))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			log.Info("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	err = monitor(ctx, cfg, cookie, log, newChromeDriver)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// driverFactory opens the browser session a run polls with
type driverFactory func(ctx context.Context, cfg *config.BrowserConfig, log *zap.Logger) (browser.Driver, error)

// newChromeDriver resolves the Chrome binary and launches it
func newChromeDriver(ctx context.Context, cfg *config.BrowserConfig, log *zap.Logger) (browser.Driver, error) {
	execPath, err := browser.ResolveChromePath(cfg.ChromePath)
	if err != nil {
		log.Error("Chrome not available", zap.String("chrome_path", cfg.ChromePath), zap.Error(err))
		return nil, err
	}

	return browser.NewChromeDriver(ctx, browser.Options{
		Headless:  cfg.Headless,
		ExecPath:  execPath,
		UserAgent: cfg.UserAgent,
	}, log)
}

// logOptions maps the log section onto logger options
func logOptions(cfg *config.LogConfig) logger.Options {
	return logger.Options{
		Level:       cfg.Level,
		File:        cfg.File,
		CallerMode:  logger.ParseCallerMode(cfg.Caller),
		MaxSizeMB:   cfg.MaxSizeMB,
		MaxBackups:  cfg.MaxBackups,
		MaxAgeDays:  cfg.MaxAgeDays,
		Development: cfg.Development,
	}
}

// monitor owns every resource of one run and releases them on return
func monitor(ctx context.Context, cfg *config.Config, cookie string, log *zap.Logger, newDriver driverFactory) error {
	driver, err := newDriver(ctx, cfg.Browser, log.Named("browser"))
	if err != nil {
		log.Error("Failed to start browser", zap.Error(err))
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Warn("Failed to close browser", zap.Error(err))
		}
	}()

	alerter, closeAlerters, err := buildAlerters(cfg, log)
	if err != nil {
		return err
	}
	defer closeAlerters()

	store, closeStore := buildStore(cfg)
	defer closeStore()

	if cfg.Status.ListenAddr != "" {
		srv := status.NewServer(cfg.Status.ListenAddr, store, log.Named("status"))
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("Status server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("Status server shutdown failed", zap.Error(err))
			}
		}()
	}

	p, err := poller.New(poller.Config{
		TargetURL:        cfg.Monitor.TargetURL,
		CookieName:       cfg.Monitor.CookieName,
		Cookie:           cookie,
		Interval:         cfg.Monitor.Interval.Std(),
		Cooldown:         cfg.Monitor.Cooldown.Std(),
		TableWaitTimeout: cfg.Monitor.TableWaitTimeout.Std(),
		Classifier:       availability.NewClassifier(cfg.Monitor.UnavailablePhrase),
	}, driver,
		poller.WithAlerter(alerter),
		poller.WithStore(store),
		poller.WithLogger(log.Named("poller")),
	)
	if err != nil {
		return err
	}

	log.Info("Passport appointment monitor starting",
		zap.String("run_id", p.RunID()),
		zap.Strings("alerters", alerter.Names()),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.String("status_addr", cfg.Status.ListenAddr))

	return p.Run(ctx)
}

// buildAlerters assembles the enabled channels, the tone first
func buildAlerters(cfg *config.Config, log *zap.Logger) (*notifier.Multi, func(), error) {
	var alerters []notifier.Alerter
	var closers []func() error

	if !cfg.Alert.Silent {
		alerters = append(alerters, notifier.NewBeeper(cfg.Alert.BeepFrequency, cfg.Alert.BeepDuration.Std()))
	}

	if cfg.Telegram.Enabled {
		tg, err := notifier.NewTelegramNotifier(notifier.TelegramOptions{
			BotToken:  cfg.Telegram.BotToken,
			ChatID:    cfg.Telegram.ChatID,
			Timeout:   cfg.Telegram.Timeout.Std(),
			TargetURL: cfg.Monitor.TargetURL,
		})
		if err != nil {
			return nil, nil, err
		}
		alerters = append(alerters, tg)
		log.Info("Telegram alerts enabled", zap.String("bot_token", logger.MaskSecret(cfg.Telegram.BotToken)))
	}

	if cfg.WeChat.Enabled {
		wc, err := notifier.NewWeChatNotifier(notifier.WeChatOptions{
			WebhookURL:   cfg.WeChat.WebhookURL,
			MentionUsers: cfg.WeChat.MentionUsers,
			MaxRetries:   cfg.WeChat.MaxRetries,
			RetryDelay:   cfg.WeChat.RetryDelay.Std(),
			TargetURL:    cfg.Monitor.TargetURL,
		})
		if err != nil {
			return nil, nil, err
		}
		alerters = append(alerters, wc)
	}

	if cfg.Kafka.Enabled {
		kn := notifier.NewKafkaNotifier(cfg.Kafka.Broker, cfg.Kafka.Topic, cfg.Monitor.TargetURL)
		alerters = append(alerters, kn)
		closers = append(closers, kn.Close)
		log.Info("Kafka events enabled", zap.String("broker", cfg.Kafka.Broker), zap.String("topic", cfg.Kafka.Topic))
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("Failed to close alerter", zap.Error(err))
			}
		}
	}
	return notifier.NewMulti(notifier.DefaultAlertTimeout, alerters...), closeAll, nil
}

// buildStore picks Redis when an address is configured, memory otherwise
func buildStore(cfg *config.Config) (status.Store, func()) {
	if cfg.Status.RedisAddr == "" {
		return status.NewMemoryStore(), func() {}
	}

	rs := status.NewRedisStore(cfg.Status.RedisAddr, cfg.Status.RedisPrefix, cfg.Status.TTL.Std())
	return rs, func() { _ = rs.Close() }
}
