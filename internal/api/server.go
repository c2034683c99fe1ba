package api

import (
	"fmt"
	"log"
	"time"

	"campushub/internal/cache"
	"campushub/internal/checkout"
	"campushub/internal/config"
	"campushub/internal/database"
	"campushub/internal/external"
	"campushub/internal/handlers"
	"campushub/internal/messaging"
	"campushub/internal/middleware"
	"campushub/internal/repository"
	"campushub/internal/search"
	"campushub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server with all its backing connections.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	redis    *cache.RedisClient
	services *service.Services
	repos    *repository.Repositories
}

// NewServer connects the backing services and builds the router.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Search is an optional surface. The API degrades to catalog reads
	// when Elasticsearch is not reachable at startup.
	var indexer service.EventIndexer
	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		log.Printf("Elasticsearch unavailable, search disabled: %v", err)
	} else {
		indexer = esClient
	}

	settlementClient := external.NewSettlementClient(cfg.Settlement)

	repos := repository.NewRepositories(db)

	poller := checkout.NewPoller(settlementClient, cfg.CheckoutPollInterval, cfg.CheckoutMaxAttempts)

	services := service.NewServices(service.Deps{
		Events:         repos.Events,
		Tickets:        repos.Tickets,
		Registrations:  repos.Registrations,
		Accounts:       repos.Accounts,
		Reminders:      repos.Reminders,
		Publisher:      natsClient,
		Indexer:        indexer,
		Processor:      settlementClient,
		Cache:          redisClient,
		Poller:         poller,
		ReminderOffset: cfg.ReminderOffset,
	})

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		redis:    redisClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.db)

	api := s.router.Group("/api")
	api.Use(middleware.RateLimit(s.redis, s.config.RateLimitPerMinute, time.Minute))
	api.Use(middleware.CurrentUser())
	{
		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/search", h.SearchEvents)
			events.GET("/:id", h.GetEvent)
			events.PUT("/:id", h.UpdateEvent)
			events.DELETE("/:id", h.DeleteEvent)
			events.POST("/:id/tickets", h.CreateTicketType)
			events.GET("/:id/tickets/current", h.CurrentTicket)
			events.GET("/:id/capacity", h.CheckCapacity)
			events.POST("/:id/register", h.Register)
			events.POST("/:id/deregister", h.Deregister)
			events.GET("/:id/registrations", h.ListRegistrations)
		}

		settlement := api.Group("/settlement")
		{
			settlement.POST("/accounts", h.CreateSettlementAccount)
			settlement.GET("/status", h.SettlementStatus)
		}

		sessions := api.Group("/checkout/sessions")
		{
			sessions.POST("", h.CreateCheckoutSession)
			sessions.GET("/:id", h.CheckoutSessionStatus)
			sessions.POST("/:id/confirm", h.ConfirmCheckout)
		}
	}

	s.router.GET("/health", h.HealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes all backing connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
