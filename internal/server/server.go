package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/luggagehub/internal/config"
	conversationdomain "github.com/smallbiznis/luggagehub/internal/conversation/domain"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	"github.com/smallbiznis/luggagehub/internal/observability"
	obsmiddleware "github.com/smallbiznis/luggagehub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/luggagehub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/luggagehub/internal/observability/tracing"
	"github.com/smallbiznis/luggagehub/internal/ratelimit"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
	reservationdomain "github.com/smallbiznis/luggagehub/internal/reservation/domain"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	"github.com/smallbiznis/luggagehub/internal/telegram"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterRoutes()
	}),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine             *gin.Engine
	cfg                config.Config
	log                *zap.Logger
	userSvc            userdomain.Service
	listingSvc         listingdomain.Service
	reservationSvc     reservationdomain.Service
	subscriptionSvc    subscriptiondomain.Service
	requestSvc         requestdomain.Service
	conversationSvc    conversationdomain.Service
	bot                *telegram.Dispatcher
	reservationLimiter *ratelimit.ReservationLimiter
	updateDeduper      *ratelimit.UpdateDeduper
	obsMetrics         *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin                *gin.Engine
	Cfg                config.Config
	Log                *zap.Logger
	UserSvc            userdomain.Service
	ListingSvc         listingdomain.Service
	ReservationSvc     reservationdomain.Service
	SubscriptionSvc    subscriptiondomain.Service
	RequestSvc         requestdomain.Service
	ConversationSvc    conversationdomain.Service
	Bot                *telegram.Dispatcher
	ReservationLimiter *ratelimit.ReservationLimiter `optional:"true"`
	UpdateDeduper      *ratelimit.UpdateDeduper      `optional:"true"`
	ObsMetrics         *obsmetrics.Metrics           `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:             p.Gin,
		cfg:                p.Cfg,
		log:                p.Log.Named("http.server"),
		userSvc:            p.UserSvc,
		listingSvc:         p.ListingSvc,
		reservationSvc:     p.ReservationSvc,
		subscriptionSvc:    p.SubscriptionSvc,
		requestSvc:         p.RequestSvc,
		conversationSvc:    p.ConversationSvc,
		bot:                p.Bot,
		reservationLimiter: p.ReservationLimiter,
		updateDeduper:      p.UpdateDeduper,
		obsMetrics:         p.ObsMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	s.registerAPIRoutes()
	s.registerTelegramRoutes()
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Marketplace --------
	public := api.Group("", s.UserOptional())
	public.GET("/listings", s.ListMarketplace)
	public.GET("/listings/:id", s.GetListing)
	public.GET("/requests", s.ListActiveRequests)
	public.GET("/requests/:id", s.GetRequest)

	authed := api.Group("", s.UserRequired())

	// -------- Listings --------
	authed.POST("/listings", s.CreateListing)
	authed.GET("/listings/mine", s.ListMyListings)
	authed.PATCH("/listings/:id", s.UpdateListing)
	authed.DELETE("/listings/:id", s.DeleteListing)
	authed.POST("/listings/:id/active", s.SetListingActive)
	authed.POST("/listings/:id/telegram-notify", s.ToggleListingNotify)

	// -------- Reservations --------
	authed.POST("/listings/:id/reservations", s.ReservationRateLimit(), s.CreateReservation)
	authed.GET("/listings/:id/reservations", s.ListListingReservations)
	authed.GET("/reservations/mine", s.ListMyReservations)
	authed.GET("/reservations/:id", s.GetReservation)
	authed.POST("/reservations/:id/status", s.TransitionReservation)

	// -------- Subscriptions --------
	authed.GET("/subscriptions", s.ListSubscriptions)
	authed.PUT("/subscriptions/:id", s.UpdateSubscription)

	// -------- Exchange requests --------
	authed.POST("/requests", s.CreateRequest)
	authed.GET("/requests/mine", s.ListMyRequests)
	authed.PATCH("/requests/:id", s.UpdateRequest)
	authed.POST("/requests/:id/complete", s.CompleteRequest)
	authed.DELETE("/requests/:id", s.DeleteRequest)
	authed.POST("/requests/:id/conversations", s.StartConversation)

	// -------- Conversations --------
	authed.GET("/conversations", s.ListConversations)
	authed.GET("/conversations/unread", s.UnreadMessageCount)
	authed.GET("/conversations/:id", s.GetConversation)
	authed.POST("/conversations/:id/messages", s.SendMessage)
	authed.DELETE("/conversations/:id", s.DeleteConversation)

	// -------- Me --------
	authed.GET("/me", s.Me)
	authed.POST("/me/telegram/link", s.IssueTelegramLink)
}

func (s *Server) registerTelegramRoutes() {
	s.engine.POST("/telegram/webhook", s.TelegramWebhook)
}
