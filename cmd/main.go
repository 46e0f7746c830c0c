package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/get_booking"
	getPoliciesHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/get_policies"
	getSpecialistBookingsHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/get_specialist_bookings"
	getSpecialistConfigHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/get_specialist_config"
	healthHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/health"
	resolveSelectionHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/resolve_selection"
	updateBookingStatusHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/update_booking_status"
	updatePaymentStatusHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/update_payment_status"
	upsertPolicyHandler "github.com/m04kA/SMC-ClinicBooking/internal/api/handlers/upsert_policy"
	"github.com/m04kA/SMC-ClinicBooking/internal/api/middleware"
	"github.com/m04kA/SMC-ClinicBooking/internal/config"
	"github.com/m04kA/SMC-ClinicBooking/internal/integrations/notifier"
	bookingsService "github.com/m04kA/SMC-ClinicBooking/internal/service/bookings"
	policyService "github.com/m04kA/SMC-ClinicBooking/internal/service/policy"
	createBookingUC "github.com/m04kA/SMC-ClinicBooking/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-ClinicBooking/internal/usecase/get_available_slots"
	guestBookingUC "github.com/m04kA/SMC-ClinicBooking/internal/usecase/guest_booking"
	resolveSelectionUC "github.com/m04kA/SMC-ClinicBooking/internal/usecase/resolve_selection"
	"github.com/m04kA/SMC-ClinicBooking/pkg/logger"
	"github.com/m04kA/SMC-ClinicBooking/pkg/metrics"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ClinicBooking...")
	log.Info("Configuration loaded from config.toml (storage=%s)", cfg.Database.Driver)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаем хранилище
	store, err := openStorage(cfg, metricsCollector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to open storage: %v", err)
	}
	defer store.close()

	// Публикация событий бронирований
	var events interface {
		createBookingUC.Notifier
		Close() error
	} = notifier.Nop{}
	if cfg.RabbitMQ.Enabled {
		publisher, err := notifier.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		events = publisher
		log.Info("Booking events are published to queue %s", cfg.RabbitMQ.Queue)
	}
	defer events.Close()

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		store.bookings,
		store.catalog,
		store.txManager,
		events,
		metricsCollector,
		log,
	)
	policySvc := policyService.NewService(
		store.policies,
		store.catalog,
		store.txManager,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		store.bookings,
		store.catalog,
		store.policies,
		store.txManager,
		events,
		metricsCollector,
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		store.bookings,
		store.catalog,
		store.policies,
		metricsCollector,
		cfg.Booking.MaxHorizonDays,
		log,
	)

	resolveSelectionUseCase := resolveSelectionUC.NewUseCase(store.catalog, log)

	guestBookingUseCase := guestBookingUC.NewUseCase(
		resolveSelectionUseCase,
		createBookingUseCase,
		store.catalog,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	resolveSelection := resolveSelectionHandler.NewHandler(resolveSelectionUseCase, log)
	createBooking := createBookingHandler.NewHandler(guestBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	updatePaymentStatus := updatePaymentStatusHandler.NewHandler(bookingSvc, log)
	getSpecialistBookings := getSpecialistBookingsHandler.NewHandler(bookingSvc, log)
	getSpecialistConfig := getSpecialistConfigHandler.NewHandler(policySvc, log)
	getPolicies := getPoliciesHandler.NewHandler(policySvc, log)
	upsertPolicy := upsertPolicyHandler.NewHandler(policySvc, log)
	health := healthHandler.NewHandler(store.pinger, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/healthz", health.Handle).Methods(http.MethodGet)

	// API prefix; X-User-ID необязателен, гостевые запросы проходят без него
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.OptionalUser)

	// --- Выбор услуг и слотов ---
	api.HandleFunc("/selection/resolve", resolveSelection.Handle).Methods(http.MethodPost)
	api.HandleFunc("/specialists/{specialistId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/specialists/{specialistId}/config", getSpecialistConfig.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	api.HandleFunc("/bookings/guest", createBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}", cancelBooking.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/payment-status", updatePaymentStatus.Handle).Methods(http.MethodPatch)

	// --- Для сотрудников клиники ---
	api.HandleFunc("/specialists/{specialistId}/bookings", getSpecialistBookings.Handle).Methods(http.MethodGet)
	api.HandleFunc("/policies", getPolicies.Handle).Methods(http.MethodGet)
	api.HandleFunc("/policies", upsertPolicy.Handle).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
