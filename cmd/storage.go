package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/health"
	"github.com/m04kA/SMC-ClinicBooking/internal/config"
	bookingRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/memory"
	policyRepo "github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/policy"
	bookingsService "github.com/m04kA/SMC-ClinicBooking/internal/service/bookings"
	policyService "github.com/m04kA/SMC-ClinicBooking/internal/service/policy"
	createBookingUC "github.com/m04kA/SMC-ClinicBooking/internal/usecase/create_booking"
	resolveSelectionUC "github.com/m04kA/SMC-ClinicBooking/internal/usecase/resolve_selection"
	"github.com/m04kA/SMC-ClinicBooking/migrations"
	"github.com/m04kA/SMC-ClinicBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-ClinicBooking/pkg/logger"
	"github.com/m04kA/SMC-ClinicBooking/pkg/metrics"
	"github.com/m04kA/SMC-ClinicBooking/pkg/txmanager"
)

// storage репозитории и менеджер транзакций выбранного драйвера
type storage struct {
	bookings interface {
		createBookingUC.BookingRepository
		bookingsService.BookingRepository
	}
	catalog interface {
		createBookingUC.CatalogRepository
		resolveSelectionUC.CatalogRepository
	}
	policies  policyService.PolicyRepository
	txManager interface {
		createBookingUC.TransactionManager
		bookingsService.TransactionManager
	}

	pinger health.Pinger // nil для memory
	close  func() error
}

// openStorage подключает хранилище по database.driver
func openStorage(cfg *config.Config, metricsCollector *metrics.Metrics, stopMetricsCh <-chan struct{}, log *logger.Logger) (*storage, error) {
	if cfg.Database.Driver == config.DriverMemory {
		store := memory.NewStore()
		if err := memory.SeedDemo(store); err != nil {
			return nil, fmt.Errorf("seed demo catalog: %w", err)
		}
		log.Warn("Using in-memory storage with the demo catalog, data is lost on restart")

		return &storage{
			bookings:  store.Bookings(),
			catalog:   store.Catalog(),
			policies:  store.Policies(),
			txManager: store.TxManager(),
			close:     func() error { return nil },
		}, nil
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(context.Background(), db); err != nil {
			db.Close()
			return nil, err
		}
		version, _ := migrations.Version(context.Background(), db)
		log.Info("Database schema is up to date (version=%d)", version)
	}

	// Оборачиваем БД метриками, если они включены
	var wrappedDB *dbmetrics.DB
	if metricsCollector != nil {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db)
	}

	return &storage{
		bookings:  bookingRepo.NewRepository(wrappedDB),
		catalog:   catalogRepo.NewRepository(wrappedDB),
		policies:  policyRepo.NewRepository(wrappedDB),
		txManager: txmanager.NewTransactionManager(wrappedDB),
		pinger:    db,
		close:     db.Close,
	}, nil
}
