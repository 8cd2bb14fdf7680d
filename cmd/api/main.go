package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/nexly/go-shop-api/internal/cache"
	"github.com/nexly/go-shop-api/internal/config"
	"github.com/nexly/go-shop-api/internal/handler"
	"github.com/nexly/go-shop-api/internal/mailer"
	"github.com/nexly/go-shop-api/internal/middleware"
	"github.com/nexly/go-shop-api/internal/payment"
	"github.com/nexly/go-shop-api/internal/repository"
	"github.com/nexly/go-shop-api/internal/service"
	"github.com/nexly/go-shop-api/internal/storage"
	"github.com/nexly/go-shop-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB
	db, err := repository.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Error("connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = db.Client().Disconnect(disconnectCtx)
	}()

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Error("ensure indexes", "error", err)
		os.Exit(1)
	}
	log.Info("connected to MongoDB")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// External services
	gateway := payment.NewStripe(cfg.Stripe.SecretKey)
	images, err := storage.NewCloudinary(cfg.Cloudinary.URL)
	if err != nil {
		log.Error("init Cloudinary", "error", err)
		os.Exit(1)
	}
	mail := mailer.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, mail, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.App.BaseURL, log)
	userSvc := service.NewUserService(userRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, categoryRepo, cache.NewRedis(redisClient), images, cfg.Cloudinary.Folder, log)
	cartSvc := service.NewCartService(cartRepo)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, productRepo, gateway, amqpCh, cfg.Stripe.Currency, log)
	reviewSvc := service.NewReviewService(reviewRepo, productRepo)
	wishlistSvc := service.NewWishlistService(wishlistRepo, productRepo)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	categoryH := handler.NewCategoryHandler(categorySvc, productSvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	wishlistH := handler.NewWishlistHandler(wishlistSvc)
	healthH := handler.NewHealthHandler(db, redisClient, amqpConn)

	// Worker
	orderWorker := worker.NewOrderWorker(amqpCh, orderRepo, userRepo, mail, redisClient, log)

	// Router
	binding.EnableDecoderDisallowUnknownFields = true
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	authRequired := middleware.AuthMiddleware(cfg.JWT.Secret, userRepo)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/forgot-password", authH.ForgotPassword)
		auth.PATCH("/reset-password/:token", authH.ResetPassword)

		users := v1.Group("/users", authRequired)
		users.GET("/me", userH.GetMe)
		users.PATCH("/me", userH.UpdateMe)
		users.DELETE("/me", userH.DeactivateMe)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/:id", productH.GetByID)
		products.GET("/:id/reviews", reviewH.ListByProduct)
		products.POST("/:id/reviews", authRequired, reviewH.Create)

		productsAdmin := products.Group("", authRequired, middleware.AdminOnly())
		productsAdmin.POST("", productH.Create)
		productsAdmin.PATCH("/:id", productH.Update)
		productsAdmin.DELETE("/:id", productH.Delete)
		productsAdmin.POST("/:id/image", productH.UploadImage)

		categories := v1.Group("/categories")
		categories.GET("", categoryH.List)
		categories.GET("/:id", categoryH.GetByID)
		categories.GET("/:id/products", categoryH.ListProducts)

		categoriesAdmin := categories.Group("", authRequired, middleware.AdminOnly())
		categoriesAdmin.POST("", categoryH.Create)
		categoriesAdmin.PATCH("/:id", categoryH.Update)
		categoriesAdmin.DELETE("/:id", categoryH.Delete)

		reviews := v1.Group("/reviews", authRequired)
		reviews.GET("/:id", reviewH.GetByID)
		reviews.PATCH("/:id", reviewH.Update)
		reviews.DELETE("/:id", reviewH.Delete)

		cart := v1.Group("/cart", authRequired)
		cart.POST("", cartH.AddItems)
		cart.GET("", cartH.GetCart)
		cart.DELETE("", cartH.ClearCart)
		cart.PATCH("/:itemId", cartH.UpdateItem)
		cart.DELETE("/:itemId", cartH.RemoveItem)

		orders := v1.Group("/orders", authRequired)
		orders.POST("", orderH.CreateOrder)
		orders.GET("/my-orders", orderH.ListMine)
		orders.GET("/:orderId", orderH.GetOrder)
		orders.POST("/:orderId/pay", orderH.Pay)
		orders.PATCH("/:orderId/cancel", orderH.Cancel)
		orders.POST("/:orderId/reorder", orderH.Reorder)

		ordersAdmin := orders.Group("", middleware.AdminOnly())
		ordersAdmin.GET("", orderH.ListAll)
		ordersAdmin.PATCH("/:orderId/shipping", orderH.UpdateShippingStatus)
		ordersAdmin.POST("/:orderId/refund", orderH.Refund)

		wishlist := v1.Group("/wishlist", authRequired)
		wishlist.POST("", wishlistH.Add)
		wishlist.GET("", wishlistH.ListMine)
		wishlist.DELETE("/:productId", wishlistH.Remove)
	}

	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
