package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/deptstore/internal/app"
	"github.com/vladislavdragonenkov/deptstore/internal/version"
)

// setupLogger настраивает формат и уровень логирования консоли.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if v := os.Getenv("DEPTSTORE_LOG_LEVEL"); v != "" {
		if level, err := log.ParseLevel(v); err == nil {
			log.SetLevel(level)
		}
	}
}

// readConfig формирует конфигурацию, позволяя переопределить значения
// через переменные окружения.
func readConfig() app.Config {
	cfg := app.DefaultConfig()
	if v := os.Getenv("DEPTSTORE_ADMIN_ADDR"); v != "" {
		cfg.AdminAddr = v
	}
	cfg.PostgresDSN = os.Getenv("DEPTSTORE_POSTGRES_DSN")
	cfg.KafkaBrokers = os.Getenv("DEPTSTORE_KAFKA_BROKERS")
	return cfg
}

func main() {
	// .env в рабочем каталоге необязателен; переменные окружения важнее.
	_ = godotenv.Load()

	setupLogger()
	cfg := readConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"admin_addr": cfg.AdminAddr,
		"postgres":   cfg.PostgresDSN != "",
		"kafka":      cfg.KafkaBrokers != "",
		"version":    version.String(),
	}).Info("запускаем консоль магазина")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("консоль магазина остановлена")
}
