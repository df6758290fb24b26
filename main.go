package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/techcare-io/techcare-api/config"
	"github.com/techcare-io/techcare-api/controllers"
	"github.com/techcare-io/techcare-api/middleware"
	"github.com/techcare-io/techcare-api/models"
	"github.com/techcare-io/techcare-api/services"
	"github.com/techcare-io/techcare-api/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	appLog.Info("Starting TechCare API server", "env", cfg.GoEnv)

	if err := config.ConnectDatabase(); err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}

	db := config.GetDB()
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		appLog.Fatal("Failed to migrate database", "error", err)
	}
	appLog.Info("Database migration completed successfully")

	services.InitAuth0Service(cfg)

	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitS3Service(); err != nil {
			appLog.Warn("S3 not available, photo uploads disabled", "error", err)
		}
	} else {
		appLog.Warn("AWS_S3_BUCKET not set, photo uploads disabled")
	}

	var provider services.PaymentProvider
	if stripe := services.NewStripeProvider(cfg.StripeSecretKey); stripe != nil {
		provider = stripe
	} else {
		appLog.Warn("STRIPE_SECRET_KEY not set, payments disabled")
	}

	controllers.Init(db, provider, cfg.LoyaltyPointsPer, appLog)

	// Background outbox drain. Notifications are written inside workflow
	// transactions and delivered here.
	dispatcher := services.NewNotificationDispatcher(
		db,
		services.NewLogNotifier(appLog),
		10*time.Second,
		appLog,
	)
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	go dispatcher.Run(dispatcherCtx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowOrigins, ",")
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	registerRoutes(router, cfg)

	addr := ":" + cfg.Port
	appLog.Info("Server is running", "addr", addr)
	if err := router.Run(addr); err != nil {
		appLog.Fatal("Failed to start server", "error", err)
	}
}

// registerRoutes mounts the full API surface under /api.
func registerRoutes(router *gin.Engine, cfg *config.Config) {
	api := router.Group("/api")

	// Public endpoints: no token required.
	api.GET("/health", healthCheck)
	api.GET("/database/status", databaseStatus)
	api.GET("/technicians/search", controllers.SearchTechnicians)
	api.GET("/technicians/nearby", controllers.NearbyTechnicians)
	api.GET("/reviews/stats/:technicianId", controllers.ReviewStats)
	api.GET("/reviews/technician/:technicianId", controllers.ListTechnicianReviews)
	api.GET("/services", controllers.ListServices)
	api.GET("/gigs", controllers.ListGigs)
	api.POST("/payment/webhook", controllers.PaymentWebhook)

	// Provisioning only needs a valid token; the profile row does not
	// exist yet.
	authed := api.Group("")
	authed.Use(middleware.EnsureValidToken(cfg))
	authed.POST("/users", controllers.CreateUser)

	// Everything below also needs the profile row loaded.
	protected := authed.Group("")
	protected.Use(middleware.LoadProfile())
	protected.GET("/users/me", controllers.GetMyProfile)
	protected.PUT("/users/me", controllers.UpdateMyProfile)
	protected.GET("/bookings/:id", controllers.GetBooking)
	protected.GET("/notifications", controllers.ListNotifications)
	protected.PATCH("/notifications/:id/read", controllers.MarkNotificationRead)
	protected.PATCH("/notifications/read-all", controllers.MarkAllNotificationsRead)

	// Customer endpoints. Plain users act as customers; admins pass every
	// role guard.
	customer := protected.Group("")
	customer.Use(middleware.RequireRole(models.RoleUser, models.RoleCustomer))
	customer.POST("/bookings", controllers.CreateBooking)
	customer.GET("/bookings", controllers.ListBookings)
	customer.POST("/bookings/:id/select-bid", controllers.SelectBid)
	customer.POST("/bookings/:id/cancel", controllers.CancelBooking)
	customer.POST("/bookings/:id/photo", controllers.UploadBookingPhoto)
	customer.POST("/payment/create-payment-intent", controllers.CreatePaymentIntent)
	customer.POST("/payment/confirm-payment", controllers.ConfirmPayment)
	customer.POST("/payment/refund", controllers.Refund)
	customer.POST("/reviews", controllers.CreateReview)
	customer.PUT("/reviews/:id", controllers.UpdateReview)
	customer.DELETE("/reviews/:id", controllers.DeleteReview)
	customer.GET("/customers/me", controllers.GetCustomerProfile)
	customer.GET("/customers/favorites", controllers.ListFavorites)
	customer.POST("/customers/favorites", controllers.AddFavorite)
	customer.DELETE("/customers/favorites/:technicianId", controllers.RemoveFavorite)

	technician := protected.Group("/technicians")
	technician.Use(middleware.RequireRole(models.RoleTechnician))
	technician.POST("/bids", controllers.SubmitBid)
	technician.GET("/bids", controllers.ListMyBids)
	technician.GET("/available", controllers.ListAvailableJobs)
	technician.GET("/jobs", controllers.ListMyJobs)
	technician.PATCH("/bookings/:id/accept", controllers.AcceptBooking)
	technician.PATCH("/bookings/:id/status", controllers.UpdateBookingStatus)
	technician.PATCH("/bookings/:id/complete", controllers.CompleteBooking)
	technician.POST("/gigs", controllers.CreateGig)
	technician.GET("/gigs", controllers.ListMyGigs)
	technician.PUT("/gigs/:id", controllers.UpdateGig)
	technician.DELETE("/gigs/:id", controllers.DeleteGig)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.GET("/users", controllers.AdminListUsers)
	admin.PATCH("/users/:id/role", controllers.AdminUpdateUserRole)
	admin.PATCH("/technicians/:id/verify", controllers.AdminVerifyTechnician)
	admin.GET("/bookings", controllers.AdminListBookings)
	admin.GET("/reviews", controllers.AdminListReviews)
	admin.PATCH("/reviews/:id/status", controllers.AdminSetReviewStatus)
	admin.DELETE("/reviews/:id", controllers.AdminDeleteReview)
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "TechCare API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
