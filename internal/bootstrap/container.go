package bootstrap

import (
	"context"
	"log"
	"time"

	"cleaning-reservation-be/internal/config"
	"cleaning-reservation-be/internal/controller"
	"cleaning-reservation-be/internal/handler"
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/internal/pkg/mailer"
	"cleaning-reservation-be/internal/pkg/serverutils"
	"cleaning-reservation-be/internal/repository/cache"
	"cleaning-reservation-be/internal/repository/contract"
	"cleaning-reservation-be/internal/repository/implementation"
	"cleaning-reservation-be/internal/repository/memory"
	"cleaning-reservation-be/internal/repository/unitofwork"
	"cleaning-reservation-be/internal/service"
	"cleaning-reservation-be/internal/websocket"
	"cleaning-reservation-be/pkg/clock"
	pktNats "cleaning-reservation-be/pkg/nats"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ReservationController controller.IReservationController
	NotificationHandler   *handler.NotificationHandler
	AuthMiddleware        fiber.Handler

	// Background Services (Exposed for main.go to run)
	OutboxDispatcher service.IOutboxDispatcher
	WebSocketHub     *websocket.Hub

	Logger  logger.ILogger
	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	notifLogger := logger.NewIsolatedLogger(cfg.App.NotificationLog)
	c.Logger = sysLogger

	loc := cfg.Reservation.Location()
	rules := reservation.NewRules(reservation.NewCalculator(loc))
	clk := clock.New()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS
	var emitter service.NotificationEmitter
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v. Notifications are only logged", err)
		emitter = service.NewLogNotificationEmitter(notifLogger)
	} else {
		emitter = service.NewNatsNotificationEmitter(natsPub)
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	rdb := newRedisClient(cfg, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	quotaCache := newQuotaCache(rdb, cfg, sysLogger)

	wsLogger := logger.NewIsolatedLogger(cfg.App.WebSocketLog)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 4. Services
	c.OutboxDispatcher = service.NewOutboxDispatcher(
		pubSub,
		cfg.Reservation.OutboxTopic,
		uowFactory,
		emitter,
		clk,
		notifLogger,
		cfg.Reservation.OutboxRelayBatch,
	)

	reservationService := service.NewReservationService(
		uowFactory,
		rules,
		clk,
		quotaCache,
		c.OutboxDispatcher,
		sysLogger,
	)

	// 4.5 Notification System Infrastructure
	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
			cfg.App.FrontendURL,
		)
	}

	notifRepo := implementation.NewNotificationRepository(db)
	var notifService *service.NotificationService
	if natsSub != nil {
		notifService = service.NewNotificationService(notifRepo, natsSub, emailService, c.WebSocketHub, notifLogger)
		if err := notifService.Start(); err != nil {
			log.Printf("[WARN] Notification worker not started: %v", err)
		}
		// stop consuming before the publisher connection goes away
		c.closers = append([]func(){natsSub.Close}, c.closers...)
	} else {
		notifService = service.NewNotificationService(notifRepo, nil, emailService, c.WebSocketHub, notifLogger)
	}

	// 5. Controllers
	c.ReservationController = controller.NewReservationController(reservationService)
	c.NotificationHandler = handler.NewNotificationHandler(notifService, c.WebSocketHub, wsLogger)
	c.AuthMiddleware = serverutils.NewJwtMiddleware(cfg.App.JwtSecret)

	return c
}

// newRedisClient returns nil when redis is unreachable. The quota cache then
// falls back to an in-process one and the websocket hub runs single-instance.
func newRedisClient(cfg *config.Config, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		log.Warn("BOOTSTRAP", "Redis unavailable", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return rdb
}

func newQuotaCache(rdb *redis.Client, cfg *config.Config, log logger.ILogger) contract.QuotaCache {
	ttl := cfg.Reservation.QuotaCacheTTL
	if rdb != nil {
		quotaCache, err := cache.NewRedisQuotaCache(rdb, ttl, log)
		if err == nil {
			return quotaCache
		}
		log.Warn("BOOTSTRAP", "Redis quota cache unavailable, using in-process cache", map[string]interface{}{"error": err.Error()})
	}
	return memory.NewQuotaCache(ttl, 2*ttl)
}

// Close releases the bus connections in reverse dependency order.
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
	c.OutboxDispatcher.Wait()
	_ = c.Logger.Sync()
}
