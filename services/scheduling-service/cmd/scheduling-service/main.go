package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/o-sarhan/salonbook/libs/config"
	"github.com/o-sarhan/salonbook/libs/db"
	"github.com/o-sarhan/salonbook/libs/httpx"
	"github.com/o-sarhan/salonbook/libs/kafkax"
	otelx "github.com/o-sarhan/salonbook/libs/otel"
	"github.com/o-sarhan/salonbook/libs/redisx"
	"github.com/o-sarhan/salonbook/libs/runtime"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/consumer"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/handlers"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/inbox"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/notify"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/outbox"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/storage"
	"github.com/o-sarhan/salonbook/services/scheduling-service/internal/sweeper"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb, err = redisx.Open(ctx, redisx.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		if err != nil {
			logger.Error("redis connection failed; cache and change bridge disabled", "err", err)
			rdb = nil
		} else {
			defer func() { _ = rdb.Close() }()
		}
	} else {
		logger.Warn("REDIS_ADDR not set; cache and change bridge disabled")
	}

	appointmentRepo := storage.NewAppointmentRepository(pool)
	holdRepo := storage.NewHoldRepository(pool)
	scheduleRepo := storage.NewScheduleRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)

	bridge := notify.NewBridge(rdb, logger)
	cacheTTL := time.Duration(config.Int("SLOT_CACHE_TTL_SECONDS", 30)) * time.Second
	slotCache := notify.NewSlotCache(rdb, cacheTTL, logger)

	// Signals are hints: invalidate and let the next read recompute.
	go bridge.Listen(ctx, func(ctx context.Context, sig notify.Signal) {
		slotCache.Invalidate(ctx, sig)
	})

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	// Other writers (back-office cancellation flows) publish appointment
	// mutations on Kafka; fold them into the same invalidation path.
	if topic := strings.TrimSpace(config.String("KAFKA_CONSUME_TOPIC", "salon.appointment.changed.v1")); topic != "" && config.String("KAFKA_BROKERS", "") != "" {
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "scheduling-service"),
			Topic:   topic,
		}, func(ctx context.Context, msg kafka.Message) error {
			var payload struct {
				SalonID string `json:"salon_id"`
				StaffID string `json:"staff_id"`
				Date    string `json:"date"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil || payload.SalonID == "" {
				logger.Error("invalid event payload", "topic", msg.Topic)
				return nil
			}
			sig := notify.Signal{SalonID: payload.SalonID, StaffID: payload.StaffID, Date: payload.Date}
			slotCache.Invalidate(ctx, sig)
			bridge.Publish(ctx, sig)
			return nil
		})
		go eventConsumer.Run(ctx)
	}

	holdSweeper := sweeper.New(holdRepo, logger, sweeper.Config{
		Interval:  time.Duration(config.Int("HOLD_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		Grace:     time.Duration(config.Int("HOLD_SWEEP_GRACE_SECONDS", 60)) * time.Second,
		BatchSize: config.Int("HOLD_SWEEP_BATCH_SIZE", 500),
	})
	go holdSweeper.Run(ctx)

	minNotice := time.Duration(config.Int("MIN_ADVANCE_MINUTES", 0)) * time.Minute
	availabilityHandler := handlers.NewAvailabilityHandler(appointmentRepo, holdRepo, scheduleRepo, slotCache, logger, minNotice)
	holdHandler := handlers.NewHoldHandler(holdRepo, appointmentRepo, scheduleRepo, outboxRepo, bridge, logger, minNotice)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentRepo, outboxRepo, bridge, logger)
	calendarHandler := handlers.NewCalendarHandler(config.Int("CALENDAR_MAX_COLUMNS", 4))

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if config.String("KAFKA_BROKERS", "") != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))})
	}
	if rdb != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: redisx.ReadyCheck(rdb)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	mux.HandleFunc("/api/v1/public/availability", availabilityHandler.Slots)
	mux.HandleFunc("/api/v1/public/staff-availability", availabilityHandler.StaffAvailability)
	mux.HandleFunc("/api/v1/public/holds", holdHandler.Create)
	mux.HandleFunc("/api/v1/public/holds/release", holdHandler.Release)
	mux.HandleFunc("/api/v1/public/holds/confirm", holdHandler.Confirm)
	mux.HandleFunc("/api/v1/appointments", appointmentHandler.List)
	mux.HandleFunc("/api/v1/appointments/cancel", appointmentHandler.Cancel)
	mux.HandleFunc("/api/v1/calendar/layout", calendarHandler.Layout)

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var rateLimitMW httpx.Middleware
	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl:sched"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id,X-Owner-Token,X-Salon-Id")),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 10))*time.Second),
		rateLimitMW,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
