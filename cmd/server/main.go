// Command server runs the letter workflow service. main wires dependencies
// from configuration, registers the HTTP surface, and owns the process
// lifecycle; all workflow rules live in internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"suratdesa/internal/attachment"
	"suratdesa/internal/audit"
	"suratdesa/internal/jwttoken"
	letterhandler "suratdesa/internal/letter/handler"
	"suratdesa/internal/letter/service"
	"suratdesa/internal/letter/store"
	"suratdesa/internal/notify"
	"suratdesa/internal/platform/config"
	"suratdesa/internal/platform/httpserver"
	"suratdesa/internal/platform/logger"
	"suratdesa/internal/platform/metrics"
	pg "suratdesa/internal/platform/postgres"
	platformredis "suratdesa/internal/platform/redis"
	"suratdesa/internal/profile"
	"suratdesa/internal/refnum"
	"suratdesa/internal/template"
	templatehandler "suratdesa/internal/template/handler"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	db, err := pg.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := pg.Migrate(ctx, db); err != nil {
			return err
		}
	}

	var (
		requests store.Store
		trail    audit.Trail
		mappings template.MappingStore
	)
	if db != nil {
		requests = store.NewPostgres(db)
		trail = audit.NewPostgresTrail(db)
		mappings = template.NewPostgresMappingStore(db)
		log.Info("persistence: postgres")
	} else {
		requests = store.NewInMemory()
		trail = audit.NewInMemoryTrail()
		mappings = template.NewInMemoryMappingStore()
		log.Warn("persistence: in-memory, data is lost on restart")
	}

	types := store.NewInMemoryTypeStore()
	store.SeedLetterTypes(types)

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	var refnums service.ReferenceNumberGenerator
	if redisClient != nil {
		defer redisClient.Close()
		refnums = refnum.NewRedisGenerator(redisClient.Client)
		log.Info("reference numbers: redis sequence")
	} else {
		refnums = refnum.NewInMemoryGenerator()
		log.Warn("reference numbers: in-memory sequence, single instance only")
	}

	var dispatcher notify.Dispatcher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaDispatcher, err := notify.NewKafkaDispatcher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaDispatcher.Close()
		dispatcher = kafkaDispatcher
		log.Info("notifications: kafka", "topic", cfg.KafkaTopic)
	} else {
		dispatcher = notify.NewSlogDispatcher(log)
		log.Info("notifications: log only")
	}

	profiles := profile.NewInMemorySource()
	attachments := attachment.NewInMemoryStore()
	fieldSource := template.NewStaticFieldSource()

	letters, err := service.New(requests, types, trail,
		service.WithLogger(log),
		service.WithMappingStore(mappings),
		service.WithProfileSource(profiles),
		service.WithAttachmentStore(attachments),
		service.WithReferenceNumbers(refnums),
		service.WithDispatcher(dispatcher),
		service.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	admin := template.NewAdmin(mappings, fieldSource, profile.KnownAttributeNames())
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "suratdesa")

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	letterhandler.New(letters, attachments, log, m, jwtService).Register(router)
	templatehandler.New(admin, log, m, jwtService).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting suratdesa", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
