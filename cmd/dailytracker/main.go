package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.uber.org/zap"

	"daily-tracker/internal/bot"
	"daily-tracker/internal/cache"
	"daily-tracker/internal/config"
	"daily-tracker/internal/handler"
	"daily-tracker/internal/logger"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/router"
	"daily-tracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("tracker stopped with error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var locker cache.Locker = cache.NopLocker{}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		locker = cache.NewRedisLocker(client, cfg.RedisPrefix)
		log.Info("processing lock enabled", zap.String("redis", cfg.RedisAddr))
	}

	store := repository.NewStore(db)
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	logRepo := repository.NewDailyLogRepository(db)
	lifestyleRepo := repository.NewLifestyleRepository(db)

	taskSvc := service.NewTaskService(taskRepo, cfg, log)
	logSvc := service.NewLogService(logRepo, cfg, log)
	lifestyleSvc := service.NewLifestyleService(lifestyleRepo, taskRepo, cfg, log)
	recurringSvc := service.NewRecurringService(store, locker, cfg, log)
	perfSvc := service.NewPerformanceService(store, cfg, log)
	reportSvc := service.NewReportService(taskSvc, logSvc, perfSvc, lifestyleSvc, cfg, log)

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, userRepo, taskSvc, logSvc, recurringSvc, reportSvc, log)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped with error", zap.Error(err))
			}
		}()
	}

	scheduler := service.NewSchedulerService(cfg.Location(), log)
	if _, err := scheduler.ScheduleDaily("daily-report", cfg.ReportTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		users, err := userRepo.ListLinked(jobCtx)
		if err != nil {
			log.Error("list users for report", zap.Error(err))
			return
		}
		var notify service.Notifier
		if telegramBot != nil {
			notify = telegramBot
		}
		if err := reportSvc.SendDailyReports(jobCtx, users, notify, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("daily report", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule reports: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	h := server.Default(server.WithHostPorts(cfg.Addr()))
	router.Register(h.Engine, handler.New(taskSvc, logSvc, lifestyleSvc, recurringSvc, perfSvc, log), log)

	log.Info("daily tracker started", zap.String("addr", cfg.Addr()), zap.Bool("bot", telegramBot != nil))
	// Spin blocks until SIGINT/SIGTERM and shuts the server down gracefully.
	h.Spin()
	return nil
}
