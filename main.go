package main

import (
	"context"
	"os"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/overseerbot/overseer/internal/bot"
	"github.com/overseerbot/overseer/internal/config"
	"github.com/overseerbot/overseer/internal/db/sqlite"
	"github.com/overseerbot/overseer/internal/event"
	"github.com/overseerbot/overseer/internal/flood"
	"github.com/overseerbot/overseer/internal/handlers"
	"github.com/overseerbot/overseer/internal/infra"
	"github.com/overseerbot/overseer/internal/observability"
	"github.com/overseerbot/overseer/internal/policy"
	"github.com/overseerbot/overseer/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetFormatter(&config.OvFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	infra.GoRecoverable(-1, "main", func() {
		ctx, cancelFunc := context.WithCancel(context.Background())
		defer cancelFunc()

		telegram.RegisterNoticeJanitor()
		defer event.RunWorker()()

		botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
		if err != nil {
			log.WithError(err).Errorln("cant initialize bot api")
			time.Sleep(1 * time.Second)
			log.Fatalln("exiting")
		}
		if log.Level(cfg.LogLevel) == log.TraceLevel {
			botAPI.Debug = true
		}
		defer botAPI.StopReceivingUpdates()

		dbClient, err := sqlite.NewSQLiteClient(infra.GetWorkDir(), "overseer.db")
		if err != nil {
			log.WithError(err).Fatalln("cant initialize database")
		}
		defer func() { _ = dbClient.Close() }()

		observability.Init(cfg.MetricsAddr)

		tracker := flood.NewTracker()
		ops := telegram.NewOperations(botAPI)
		engine := policy.NewEngine(dbClient, tracker, ops, policy.Limits{
			MuteDuration:     cfg.Flood.MuteDuration,
			DefaultThreshold: cfg.Flood.Threshold,
			DefaultWindow:    cfg.Flood.Window,
		})
		service := bot.NewService(botAPI, dbClient, engine)

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			log.WithError(err).Fatalln("cant create scheduler")
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Flood.TrackerMaxAge),
			gocron.NewTask(func() {
				pruned := tracker.Prune(time.Now(), cfg.Flood.TrackerMaxAge)
				log.WithField("windows", pruned).Trace("pruned idle flood windows")
			}),
		)
		if err != nil {
			log.WithError(err).Fatalln("cant schedule tracker pruning")
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()

		bot.RegisterUpdateHandler("moderation", handlers.NewModeration(service))
		bot.RegisterUpdateHandler("admin", handlers.NewAdmin(service, ops))
		bot.RegisterUpdateHandler("welcome", handlers.NewWelcome(service))
		bot.RegisterUpdateHandler("utilities", handlers.NewUtilities(service))
		bot.RegisterUpdateHandler("info", handlers.NewInfo(service))
		bot.RegisterUpdateHandler("search", handlers.NewSearch(service))

		updateConfig := api.NewUpdate(0)
		updateConfig.Timeout = 60
		updateProcessor := bot.NewUpdateProcessor(service)

		updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for {
				select {
				case err := <-errorChan:
					return err
				case update := <-updateChan:
					if err := updateProcessor.Process(gctx, &update); err != nil {
						log.WithError(err).Errorln("cant process update")
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
		g.Go(func() error {
			select {
			case <-infra.MonitorExecutable(gctx):
				log.Errorln("executable file was modified")
				cancelFunc()
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})

		if err := g.Wait(); err != nil && err != context.Canceled {
			log.WithError(err).Errorln("no more updates")
		}
	})
	os.Exit(0)
}
