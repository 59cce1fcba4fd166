package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	checkAvailabilityHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/check_availability"
	createAllocationHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/create_allocation"
	createEventAllocationsHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/create_event_allocations"
	deleteAllocationHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/delete_allocation"
	deleteEventAllocationsHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/delete_event_allocations"
	getAllocationHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/get_allocation"
	getEventAllocationsHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/get_event_allocations"
	getResourceHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/get_resource"
	getStockLedgerHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/get_stock_ledger"
	listResourcesHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/list_resources"
	reportsHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/reports"
	restockResourceHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/restock_resource"
	updateAllocationHandler "github.com/m04kA/SMC-ResourceService/internal/api/handlers/update_allocation"
	"github.com/m04kA/SMC-ResourceService/internal/api/middleware"
	"github.com/m04kA/SMC-ResourceService/internal/config"
	allocationRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/allocation"
	attendanceRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/attendance"
	eventRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/event"
	resourceRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/resource"
	stockledgerRepo "github.com/m04kA/SMC-ResourceService/internal/infra/storage/stockledger"
	allocationsService "github.com/m04kA/SMC-ResourceService/internal/service/allocations"
	reportsService "github.com/m04kA/SMC-ResourceService/internal/service/reports"
	resourcesService "github.com/m04kA/SMC-ResourceService/internal/service/resources"
	checkAvailabilityUC "github.com/m04kA/SMC-ResourceService/internal/usecase/check_availability"
	createAllocationUC "github.com/m04kA/SMC-ResourceService/internal/usecase/create_allocation"
	updateAllocationUC "github.com/m04kA/SMC-ResourceService/internal/usecase/update_allocation"
	"github.com/m04kA/SMC-ResourceService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ResourceService/pkg/logger"
	"github.com/m04kA/SMC-ResourceService/pkg/metrics"
	"github.com/m04kA/SMC-ResourceService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-ResourceService/pkg/txmanager"
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

	log.Info("Starting SMC-ResourceService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
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

	// Инициализируем репозитории (с метриками или без)
	var (
		resourceRepository    *resourceRepo.Repository
		allocationRepository  *allocationRepo.Repository
		eventRepository       *eventRepo.Repository
		attendanceRepository  *attendanceRepo.Repository
		stockLedgerRepository *stockledgerRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases и сервисах)
	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		resourceRepository = resourceRepo.NewRepository(wrappedDB)
		allocationRepository = allocationRepo.NewRepository(wrappedDB)
		eventRepository = eventRepo.NewRepository(wrappedDB)
		attendanceRepository = attendanceRepo.NewRepository(wrappedDB)
		stockLedgerRepository = stockledgerRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		resourceRepository = resourceRepo.NewRepository(db)
		allocationRepository = allocationRepo.NewRepository(db)
		eventRepository = eventRepo.NewRepository(db)
		attendanceRepository = attendanceRepo.NewRepository(db)
		stockLedgerRepository = stockledgerRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	allocationsSvc := allocationsService.NewService(
		allocationRepository,
		resourceRepository,
		stockLedgerRepository,
		txMgr,
		log,
	)
	resourcesSvc := resourcesService.NewService(
		resourceRepository,
		stockLedgerRepository,
		txMgr,
		log,
	)
	reportsSvc := reportsService.NewService(
		allocationRepository,
		resourceRepository,
		eventRepository,
		attendanceRepository,
		log,
		cfg.Reports.UnderutilizedThresholdPercent,
		cfg.Reports.DefaultExternalAttendeeThreshold,
	)

	// Инициализируем use cases
	checkAvailabilityUseCase := checkAvailabilityUC.NewUseCase(
		resourceRepository,
		allocationRepository,
		log,
	)
	createAllocationUseCase := createAllocationUC.NewUseCase(
		resourceRepository,
		allocationRepository,
		eventRepository,
		stockLedgerRepository,
		txMgr,
		log,
	)
	updateAllocationUseCase := updateAllocationUC.NewUseCase(
		resourceRepository,
		allocationRepository,
		eventRepository,
		stockLedgerRepository,
		txMgr,
		log,
	)

	// Инициализируем handlers
	checkAvailability := checkAvailabilityHandler.NewHandler(checkAvailabilityUseCase, log)
	getResource := getResourceHandler.NewHandler(resourcesSvc, log)
	listResources := listResourcesHandler.NewHandler(resourcesSvc, log)
	getStockLedger := getStockLedgerHandler.NewHandler(resourcesSvc, log)
	getAllocation := getAllocationHandler.NewHandler(allocationsSvc, log)
	deleteEventAllocations := deleteEventAllocationsHandler.NewHandler(allocationsSvc, log)
	createAllocation := createAllocationHandler.NewHandler(createAllocationUseCase, log)
	createEventAllocations := createEventAllocationsHandler.NewHandler(createAllocationUseCase, log)
	updateAllocation := updateAllocationHandler.NewHandler(updateAllocationUseCase, log)
	deleteAllocation := deleteAllocationHandler.NewHandler(allocationsSvc, log)
	getEventAllocations := getEventAllocationsHandler.NewHandler(allocationsSvc, log)
	restockResource := restockResourceHandler.NewHandler(resourcesSvc, log)
	reports := reportsHandler.NewHandler(reportsSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Сквозной идентификатор запроса
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Проверка доступности ресурса в окне
	api.HandleFunc("/resources/{resourceId}/availability",
		checkAvailability.Handle).Methods(http.MethodGet)

	// Каталог ресурсов
	api.HandleFunc("/resources", listResources.Handle).Methods(http.MethodGet)

	// Карточка ресурса
	api.HandleFunc("/resources/{resourceId}", getResource.Handle).Methods(http.MethodGet)

	// Аллокация по ID
	api.HandleFunc("/allocations/{allocationId}", getAllocation.Handle).Methods(http.MethodGet)

	// Аллокации события
	api.HandleFunc("/events/{eventId}/allocations",
		getEventAllocations.Handle).Methods(http.MethodGet)

	// --- Отчеты целостности ---
	api.HandleFunc("/reports/double-booked-users",
		reports.HandleDoubleBookedUsers).Methods(http.MethodGet)
	api.HandleFunc("/reports/violated-constraints",
		reports.HandleViolatedConstraints).Methods(http.MethodGet)
	api.HandleFunc("/reports/parent-child-violations",
		reports.HandleParentChildViolations).Methods(http.MethodGet)
	api.HandleFunc("/reports/resource-utilization",
		reports.HandleResourceUtilization).Methods(http.MethodGet)
	api.HandleFunc("/reports/external-attendees",
		reports.HandleExternalAttendees).Methods(http.MethodGet)
	api.HandleFunc("/reports/integrity-summary",
		reports.HandleSummary).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Аллокации ---
	// Создание аллокации для существующего события
	protected.HandleFunc("/allocations", createAllocation.Handle).Methods(http.MethodPost)

	// Атомарное создание события вместе с аллокациями
	protected.HandleFunc("/events-with-allocations",
		createEventAllocations.Handle).Methods(http.MethodPost)

	// Изменение аллокации (количество или перенос на другой ресурс)
	protected.HandleFunc("/allocations/{allocationId}",
		updateAllocation.Handle).Methods(http.MethodPatch)

	// Удаление аллокации
	protected.HandleFunc("/allocations/{allocationId}",
		deleteAllocation.Handle).Methods(http.MethodDelete)

	// Снятие всех броней события разом
	protected.HandleFunc("/events/{eventId}/allocations",
		deleteEventAllocations.Handle).Methods(http.MethodDelete)

	// --- Управление запасами (для операторов) ---
	// Пополнение запаса расходуемого ресурса
	protected.HandleFunc("/resources/{resourceId}/restock",
		restockResource.Handle).Methods(http.MethodPost)

	// История журнала запаса расходуемого ресурса
	protected.HandleFunc("/resources/{resourceId}/stock-ledger",
		getStockLedger.Handle).Methods(http.MethodGet)

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
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

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
