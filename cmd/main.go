package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	blockedPeriodsHandler "github.com/m04kA/TourBookingService/internal/api/handlers/blocked_periods"
	checkAvailabilityHandler "github.com/m04kA/TourBookingService/internal/api/handlers/check_availability"
	conductorStatusHandler "github.com/m04kA/TourBookingService/internal/api/handlers/conductor_status"
	createReservationHandler "github.com/m04kA/TourBookingService/internal/api/handlers/create_reservation"
	deleteReservationHandler "github.com/m04kA/TourBookingService/internal/api/handlers/delete_reservation"
	getAlternativeTimesHandler "github.com/m04kA/TourBookingService/internal/api/handlers/get_alternative_times"
	getDaySlotsHandler "github.com/m04kA/TourBookingService/internal/api/handlers/get_day_slots"
	getReservationHandler "github.com/m04kA/TourBookingService/internal/api/handlers/get_reservation"
	listReservationsHandler "github.com/m04kA/TourBookingService/internal/api/handlers/list_reservations"
	updateReservationStatusHandler "github.com/m04kA/TourBookingService/internal/api/handlers/update_reservation_status"
	watchConductorHandler "github.com/m04kA/TourBookingService/internal/api/handlers/watch_conductor"
	"github.com/m04kA/TourBookingService/internal/api/middleware"
	"github.com/m04kA/TourBookingService/internal/config"
	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/internal/infra/realtime"
	blockedPeriodRepo "github.com/m04kA/TourBookingService/internal/infra/storage/blocked_period"
	conductorRepo "github.com/m04kA/TourBookingService/internal/infra/storage/conductor"
	reservationRepo "github.com/m04kA/TourBookingService/internal/infra/storage/reservation"
	blocksService "github.com/m04kA/TourBookingService/internal/service/blocks"
	conductorService "github.com/m04kA/TourBookingService/internal/service/conductor"
	reservationsService "github.com/m04kA/TourBookingService/internal/service/reservations"
	checkAvailabilityUC "github.com/m04kA/TourBookingService/internal/usecase/check_availability"
	createReservationUC "github.com/m04kA/TourBookingService/internal/usecase/create_reservation"
	projectDayUC "github.com/m04kA/TourBookingService/internal/usecase/project_day"
	"github.com/m04kA/TourBookingService/pkg/dbmetrics"
	"github.com/m04kA/TourBookingService/pkg/logger"
	"github.com/m04kA/TourBookingService/pkg/metrics"
	"github.com/m04kA/TourBookingService/pkg/txmanager"
	"github.com/m04kA/TourBookingService/pkg/types"
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

	log.Info("Starting TourBookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены). Nil-коллектор ничего не пишет
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	reservationRepository := reservationRepo.NewRepository(wrappedDB)
	blockedPeriodRepository := blockedPeriodRepo.NewRepository(wrappedDB)
	conductorRepository := conductorRepo.NewRepository(wrappedDB)

	// Канал изменений кондуктора (без Redis остаётся только опрос)
	var (
		publisher  conductorService.ChangePublisher
		subscriber conductorService.ChangeSubscriber
	)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis ping failed, conductor updates will rely on polling until it recovers: %v", err)
		}
		pingCancel()

		feed := realtime.NewFeed(redisClient, cfg.Redis.Channel, log)
		publisher = feed
		subscriber = feed
		log.Info("Conductor change feed enabled (addr=%s, channel=%s)", cfg.Redis.Addr, cfg.Redis.Channel)
	}

	// Справочники: длительности туров и сетка слотов
	durations := domain.NewDurationTable(cfg.Tours)
	catalog, err := buildCatalog(cfg.Schedule)
	if err != nil {
		log.Fatal("Failed to build slot catalog: %v", err)
	}
	log.Info("Slot catalog: %d slots between %s and %s, tour types: %v",
		len(catalog.Slots()), catalog.Opening(), catalog.Closing(), durations.TourTypes())

	evaluator := checkAvailabilityUC.NewEvaluator(durations, catalog)
	projector := projectDayUC.NewProjector(durations, catalog, cfg.Schedule.SlotSpanMinutes)

	// Инициализируем сервисы
	tracker := conductorService.NewTracker(conductorRepository, publisher, txMgr, conductorService.SystemClock{}, log)
	liveState := conductorService.NewLiveState(
		conductorRepository,
		subscriber,
		cfg.Conductor.WatchedIDs,
		time.Duration(cfg.Conductor.PollIntervalSeconds)*time.Second,
		conductorService.SystemClock{},
		metricsCollector,
		log,
	)
	blocksSvc := blocksService.NewService(
		blockedPeriodRepository,
		reservationRepository,
		txMgr,
		durations,
		catalog,
		metricsCollector,
		log,
	)
	reservationsSvc := reservationsService.NewService(reservationRepository, txMgr, durations, log)

	// Инициализируем use cases
	checkAvailabilityUseCase := checkAvailabilityUC.NewUseCase(
		reservationRepository,
		blockedPeriodRepository,
		evaluator,
		metricsCollector,
		log,
	)
	projectDayUseCase := projectDayUC.NewUseCase(
		reservationRepository,
		blockedPeriodRepository,
		tracker,
		projector,
		log,
	)
	createReservationUseCase := createReservationUC.NewUseCase(
		reservationRepository,
		blockedPeriodRepository,
		evaluator,
		durations,
		txMgr,
		log,
	)

	// Инициализируем handlers
	checkAvailability := checkAvailabilityHandler.NewHandler(checkAvailabilityUseCase, log)
	getAlternativeTimes := getAlternativeTimesHandler.NewHandler(checkAvailabilityUseCase, log)
	getDaySlots := getDaySlotsHandler.NewHandler(projectDayUseCase, log)
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationsSvc, log)
	listReservations := listReservationsHandler.NewHandler(reservationsSvc, log)
	updateReservationStatus := updateReservationStatusHandler.NewHandler(reservationsSvc, log)
	deleteReservation := deleteReservationHandler.NewHandler(reservationsSvc, log)
	blockedPeriods := blockedPeriodsHandler.NewHandler(blocksSvc, log)
	conductorStatus := conductorStatusHandler.NewHandler(tracker, log)
	watchConductor := watchConductorHandler.NewHandler(liveState, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Проверка доступности и альтернативные времена
	api.HandleFunc("/availability", checkAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability/alternatives", getAlternativeTimes.Handle).Methods(http.MethodGet)

	// Календарь дня
	api.HandleFunc("/days/{date}/slots", getDaySlots.Handle).Methods(http.MethodGet)

	// Живой кондуктор
	api.HandleFunc("/conductors/active", conductorStatus.GetActive).Methods(http.MethodGet)
	api.HandleFunc("/conductors/{id}/watch", watchConductor.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// Создание бронирования
	protected.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)

	// ============================================================
	// ADMIN ROUTES (X-User-ID из списка администраторов)
	// ============================================================

	admin := api.PathPrefix("").Subrouter()
	admin.Use(middleware.Auth, middleware.AdminOnly(cfg.Auth.AdminUserIDs))

	// --- Бронирования ---
	admin.HandleFunc("/reservations", listReservations.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/reservations/{id}", getReservation.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/reservations/{id}/status", updateReservationStatus.Handle).Methods(http.MethodPatch)
	admin.HandleFunc("/reservations/{id}", deleteReservation.Handle).Methods(http.MethodDelete)

	// --- Блокировки ---
	admin.HandleFunc("/blocks", blockedPeriods.List).Methods(http.MethodGet)
	admin.HandleFunc("/blocks", blockedPeriods.Create).Methods(http.MethodPost)
	admin.HandleFunc("/blocks", blockedPeriods.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/blocks/range", blockedPeriods.BlockRange).Methods(http.MethodPost)
	admin.HandleFunc("/blocks/clean-duplicates", blockedPeriods.CleanDuplicates).Methods(http.MethodPost)

	// --- Кондукторы ---
	admin.HandleFunc("/conductors/{id}/status", conductorStatus.Get).Methods(http.MethodGet)
	admin.HandleFunc("/conductors/{id}/status", conductorStatus.UpdateStatus).Methods(http.MethodPut)
	admin.HandleFunc("/conductors/{id}/active", conductorStatus.UpdateActive).Methods(http.MethodPut)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		// long poll /watch держит соединение до MaxWaitSeconds
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout+watchConductorHandler.MaxWaitSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Ожидаем сигнал завершения
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("Starting conductor live state (poll every %ds, watched=%v)",
			cfg.Conductor.PollIntervalSeconds, cfg.Conductor.WatchedIDs)
		return liveState.Run(gCtx)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}

// buildCatalog фиксированный список слотов или сетка от открытия до закрытия с шагом
func buildCatalog(s config.ScheduleConfig) (*domain.TimeSlotCatalog, error) {
	opening, err := types.NewTimeStringFromString(s.Opening)
	if err != nil {
		return nil, err
	}
	closing, err := types.NewTimeStringFromString(s.Closing)
	if err != nil {
		return nil, err
	}

	fixed := make([]types.TimeString, 0, len(s.FixedSlots))
	for _, slot := range s.FixedSlots {
		t, err := types.NewTimeStringFromString(slot)
		if err != nil {
			return nil, err
		}
		fixed = append(fixed, t)
	}

	return domain.NewTimeSlotCatalog(opening, closing, s.StepMinutes, fixed)
}
