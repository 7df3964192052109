package main

import (
	"context"
	"log"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-divvit-tracking/internal/aws"
	"github.com/imrishuroy/go-divvit-tracking/internal/categories"
	"github.com/imrishuroy/go-divvit-tracking/internal/config"
	"github.com/imrishuroy/go-divvit-tracking/internal/events"
	"github.com/imrishuroy/go-divvit-tracking/internal/handlers"
	"github.com/imrishuroy/go-divvit-tracking/internal/logger"
	"github.com/imrishuroy/go-divvit-tracking/internal/metrics"
	"github.com/imrishuroy/go-divvit-tracking/internal/plugin"
	"github.com/imrishuroy/go-divvit-tracking/internal/shopconfig"
	"github.com/imrishuroy/go-divvit-tracking/internal/tracking"
)

func setupRouter(cfg handlers.HandlerConfig, zl *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logger.RequestID(), logger.GinMiddleware(zl), logger.Recovery(zl))

	handlers.RegisterRoutes(r, cfg)

	return r
}

// buildHandlerConfig wires stores, the tracking builder and the plugin from
// cfg. Stores whose table or address is not configured are left out.
func buildHandlerConfig(cfg *config.Config, clients *aws.AWSClients, zl *zap.Logger) (handlers.HandlerConfig, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hc := handlers.HandlerConfig{
		DefaultShopID: cfg.Tracking.DefaultShopID,
		Metrics:       m,
		Gatherer:      reg,
		Logger:        zl,
	}
	cleanup := func() {}

	var (
		configStore tracking.ConfigStore = shopconfig.Static{ID: cfg.Tracking.MerchantSiteID}
		elements    plugin.ElementStore
		state       plugin.StateStore
	)
	if cfg.Tables.ShopConfig != "" {
		hc.ShopConfig = shopconfig.NewStore(clients.DynamoDB, cfg.Tables.ShopConfig)
		configStore = hc.ShopConfig
		elements = hc.ShopConfig
		state = hc.ShopConfig
	}

	var lookup tracking.CategoryLookup
	if cfg.Tables.Categories != "" {
		hc.Categories = categories.NewStore(clients.DynamoDB, cfg.Tables.Categories)
		lookup = hc.Categories

		if cfg.Redis.Addr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			cleanup = func() { client.Close() }
			hc.CategoryCache = categories.NewRedisCache(client, hc.Categories, cfg.Redis.TTL, zl.Named("category-cache"))
			lookup = hc.CategoryCache
		}
	}

	var publisher plugin.OrderPublisher
	if cfg.Queue.OrdersURL != "" {
		publisher = aws.NewPublisher(clients.SQS, cfg.Queue.OrdersURL)
	}

	hc.Dispatcher = events.NewDispatcher()
	hc.Plugin = plugin.New(plugin.Options{
		Dispatcher: hc.Dispatcher,
		Builder:    tracking.NewBuilder(configStore, lookup, zl.Named("tracking")),
		Elements:   elements,
		State:      state,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     zl,
	})

	return hc, cleanup
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.New(cfg.Log)
	defer zl.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx, cfg.AWS)
	if err != nil {
		zl.Fatal("failed to init aws clients", zap.Error(err))
	}

	hc, cleanup := buildHandlerConfig(cfg, clients, zl)
	defer cleanup()

	if err := hc.Plugin.Start(ctx); err != nil {
		zl.Fatal("failed to start plugin", zap.Error(err))
	}

	r := setupRouter(hc, zl)

	// run a plain HTTP server for local development
	if cfg.App.RunLocal {
		addr := ":" + cfg.App.Port
		zl.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			zl.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req lambdaevents.APIGatewayProxyRequest) (lambdaevents.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
