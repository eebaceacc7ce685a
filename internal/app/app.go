package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/deptstore/internal/console"
	"github.com/vladislavdragonenkov/deptstore/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/deptstore/internal/health"
	"github.com/vladislavdragonenkov/deptstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/deptstore/internal/service/checkout"
	"github.com/vladislavdragonenkov/deptstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/deptstore/internal/storage/postgres"
	"github.com/vladislavdragonenkov/deptstore/internal/version"
)

// Config описывает настройки запуска консоли магазина.
type Config struct {
	// AdminAddr — адрес HTTP-сервера метрик и health-проверок.
	AdminAddr string
	// PostgresDSN — строка подключения; пустая строка включает
	// in-memory хранилище с демонстрационным инвентарём.
	PostgresDSN string
	// KafkaBrokers — список брокеров через запятую; пустая строка
	// отключает публикацию событий заказов.
	KafkaBrokers string

	// In/Out — терминал оператора; по умолчанию stdin/stdout.
	In  io.Reader
	Out io.Writer
}

// DefaultConfig возвращает конфигурацию локального запуска.
func DefaultConfig() Config {
	return Config{
		AdminAddr: ":9090",
		In:        os.Stdin,
		Out:       os.Stdout,
	}
}

// Run собирает зависимости и крутит консольную сессию до выхода оператора
// или сигнала остановки.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	healthHandler := healthcheck.NewHandler(version.String())

	store, reports, closeStore, err := initStore(ctx, cfg, logger, healthHandler)
	if err != nil {
		return err
	}
	defer closeStore()

	var producer *kafka.Producer
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		p, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			producer = p
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}
	defer func() {
		if producer == nil {
			return
		}
		if err := producer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		}
	}()

	var executor *checkout.Executor
	if producer != nil {
		executor = checkout.NewExecutorWithKafka(store, producer, logger.WithField("layer", "checkout"))
	} else {
		executor = checkout.NewExecutor(store, logger.WithField("layer", "checkout"))
	}

	adminSrv := startAdminServer(ctx, cfg.AdminAddr, logger, healthHandler)
	defer shutdownHTTP(adminSrv, logger)

	src := console.NewPromptSource(cfg.In, cfg.Out)
	menu := console.NewMenu(src, cfg.Out, executor, reports, logger.WithField("layer", "console"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- menu.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, завершаем сессию")
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("console session terminated")
		}
		return err
	}
}

// initStore выбирает хранилище: PostgreSQL при наличии DSN, иначе
// in-memory с демонстрационными данными.
func initStore(ctx context.Context, cfg Config, logger *log.Entry, health *healthcheck.Handler) (domain.Store, domain.Reports, func(), error) {
	if cfg.PostgresDSN != "" {
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, nil, err
		}
		logger.Info("postgres store initialized")

		health.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pg.Ping(checkCtx)
		}))

		closeFn := func() {
			if err := pg.Close(); err != nil {
				logger.WithError(err).Warn("failed to close postgres store")
			}
		}
		return pg, pg, closeFn, nil
	}

	mem := memory.NewStore()
	seedDemoData(mem)
	logger.Info("in-memory store initialized with demo inventory")

	health.RegisterChecker("memory", healthcheck.NewSimpleChecker("memory", func() error {
		return nil
	}))
	return mem, mem, func() {}, nil
}

// seedDemoData наполняет in-memory хранилище стартовым инвентарём,
// чтобы консоль была пригодна для работы сразу после запуска.
func seedDemoData(store *memory.Store) {
	store.SeedProduct(101, "Electric Kettle", 2499, 25)
	store.SeedProduct(102, "Toaster", 1899, 18)
	store.SeedProduct(103, "Table Lamp", 3250, 12)
	store.SeedProduct(104, "Bath Towel Set", 1575, 40)
	store.SeedProduct(105, "Cutlery Set", 4999, 9)

	store.SeedStaff(1, "Margaret", "Hill")
	store.SeedStaff(2, "Derek", "Owens")
	store.SeedStaff(3, "Priya", "Sharma")
}

// startAdminServer поднимает HTTP-обработчики /metrics и health-проверок.
func startAdminServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("admin server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("admin server shutdown with error")
	}
}
