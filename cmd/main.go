package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/adapters/mq/bus"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/adapters/remote"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/adapters/repository"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/adapters/robot"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/adapters/syncq"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/app"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/config"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/policy"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/scoring"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/logger"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second

	statusTickInterval = time.Minute
)

func main() {
	// Disable default Go metrics collection; the custom registry holds
	// only our own metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Durable local store: outcome log and policy snapshots.
	store, err := repository.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open local store", logger.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	// Remote classroom server and the sync queue in front of it.
	client := remote.NewClient(cfg.RemoteURL, cfg.RobotID)
	queue := syncq.New(store, client,
		syncq.WithProbeInterval(cfg.ProbeInterval),
		syncq.WithBackoff(cfg.BackoffInitial, cfg.BackoffMax),
	)
	go queue.Run(ctx)

	// Policy learner, rehydrated from snapshots.
	learner := policy.NewLearner(store,
		policy.WithHistoryWindow(cfg.HistoryWindow),
		policy.WithEpsilon(cfg.Epsilon),
		policy.WithLearningRate(cfg.LearningRate),
		policy.WithDiscount(cfg.Discount),
		policy.WithReplay(cfg.ReplayCapacity, cfg.ReplayBatch),
	)
	if students, err := store.SnapshotStudents(ctx); err != nil {
		log.Warn(ctx, "listing policy snapshots failed", logger.Error(err))
	} else {
		learner.Restore(ctx, students)
	}

	scorer := scoring.NewAlignmentScorer(
		scoring.WithEditCosts(cfg.SubCost, cfg.InsCost, cfg.DelCost),
	)

	eventBus := bus.NewPriorityBus(bus.WithCapacity(cfg.BusCapacity))
	defer func() { _ = eventBus.Close() }()

	svc := app.New(
		eventBus,
		scorer,
		learner,
		queue,
		robot.NewSpeech(),
		robot.NewVision("student-demo", "Asha"),
		robot.NewActuator(),
		client,
		app.NewStaticCurriculum(),
		app.WithLogger(log),
		app.WithRecipients(cfg.NotifyRecipients),
		app.WithFallbackPrompt(cfg.FallbackPrompt),
		app.WithStatusPusher(client),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start scheduler", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Periodic timer events drive background work like status pushes.
	go publishTimerEvents(ctx, eventBus)

	// Health and metrics endpoints.
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	// Stop intake, let the scheduler drain, then give queued outcomes
	// one last chance to reach the server before the process exits.
	_ = eventBus.Close()
	svc.Stop()
	queue.Flush(shutdownCtx)

	log.Info(ctx, "stopped")
}

// publishTimerEvents feeds low-priority timer ticks into the bus.
func publishTimerEvents(ctx context.Context, b bus.Bus) {
	ticker := time.NewTicker(statusTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ts := <-ticker.C:
			b.Publish(model.Event{
				ID:       uuid.NewString(),
				Kind:     model.KindTimer,
				Priority: model.DefaultPriority(model.KindTimer),
				TS:       ts.UTC(),
			})
		}
	}
}
