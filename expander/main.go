package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expander/expander/config"
	"expander/expander/controllers"
	"expander/expander/orchestration"
	"expander/expander/routes"
	"expander/expander/services/llm"
	"expander/expander/sources/psql"
	"expander/expander/sources/psql/dao"
	"expander/expander/sources/storage"
	"expander/expander/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const dayCheckInterval = 5 * time.Minute

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	prompts, err := config.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		logging.ErrorLogger.Error("loading prompts", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	convDAO := dao.NewConversationDAO(db.DB, cfg.JourneyEpoch)
	stateDAO := dao.NewDailyStateDAO(db.DB)

	llmService := llm.NewService(cfg)
	defer llmService.Close()

	chatOrch := orchestration.NewChatOrchestrator(convDAO, llmService)
	dailyOrch := orchestration.NewDailyOrchestrator(convDAO, stateDAO, llmService, prompts)

	// Object storage is optional; the export endpoint degrades without it.
	var archive *storage.MinIOClient
	if cfg.MinIOEndpoint != "" {
		archive, err = storage.NewMinIOClient(cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			archive = nil
		}
	}

	chatCtrl := controllers.NewChatController(convDAO, chatOrch, prompts.Chat)
	dailyCtrl := controllers.NewDailyController(convDAO, dailyOrch, archive)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Mount("/health", routes.HealthRoutes(healthCtrl))
	r.Mount("/chat", routes.ChatRoutes(chatCtrl, cfg))
	r.Mount("/daily", routes.DailyRoutes(dailyCtrl, cfg))

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	dailyOrch.ProcessCurrentDay(monitorCtx)
	monitorDone := dailyOrch.StartDayMonitoring(monitorCtx, dayCheckInterval)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stopMonitor()
	<-monitorDone
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
