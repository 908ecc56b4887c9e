package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fieldcollect/collection-engine/internal/config"
	"github.com/fieldcollect/collection-engine/internal/repository"
	"github.com/fieldcollect/collection-engine/internal/service"
	"github.com/fieldcollect/collection-engine/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logrus.New()
	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	logRepo := repository.NewCollectionLogRepository(db)
	collectionService := service.NewCollectionService(loanRepo, logRepo, redisClient, cfg, log)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone: %v", err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Daily arrears refresh. "Today" is the local collection date for the
	// configured timezone; the engine itself never consults a clock.
	_, err = c.AddFunc(cfg.Scheduler.ArrearsCron, func() {
		today := utils.DateOnly(time.Now().In(location))
		log.WithField("as_of", utils.FormatDate(today)).Info("running arrears refresh")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := collectionService.RefreshArrears(ctx, today); err != nil {
			log.WithError(err).Error("arrears refresh failed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule arrears refresh: %v", err)
	}

	c.Start()
	log.Info("Scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}
