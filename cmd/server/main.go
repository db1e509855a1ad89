package main

import (
	"fmt"
	"log"

	"github.com/vcarvalho/energy-invoice-service/internal/config"
	"github.com/vcarvalho/energy-invoice-service/internal/database"
	"github.com/vcarvalho/energy-invoice-service/internal/extraction"
	"github.com/vcarvalho/energy-invoice-service/internal/handler"
	"github.com/vcarvalho/energy-invoice-service/internal/middleware"
	"github.com/vcarvalho/energy-invoice-service/internal/repository"
	"github.com/vcarvalho/energy-invoice-service/internal/server"
	"github.com/vcarvalho/energy-invoice-service/internal/service"
	"github.com/vcarvalho/energy-invoice-service/internal/storage"

	_ "github.com/vcarvalho/energy-invoice-service/docs"
)

// @title Energy Invoice Service API
// @version 1.0
// @description Ingestion and querying of CEMIG electricity bills
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to PostgreSQL
	log.Println("Connecting to database...")
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize object storage for the original documents
	docStorage, err := storage.NewS3Storage(&storage.Config{
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		AccessKeySecret: cfg.S3AccessKeySecret,
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Text acquisition: PDF text layer with OCR fallback
	acquirer := extraction.NewAcquirer(extraction.OCRConfig{
		TesseractBin: cfg.TesseractBin,
		Language:     cfg.TesseractLanguage,
		PSM:          cfg.TesseractPSM,
		DPI:          cfg.OCRDPI,
	})

	// Initialize repositories
	log.Println("Initializing repositories...")
	pool := db.GetPool()
	invoiceRepo := repository.NewPostgresInvoiceRepository(pool)
	userRepo := repository.NewPostgresUserRepository(pool)
	companyRepo := repository.NewPostgresCompanyRepository(pool)

	// Create services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	companyService := service.NewCompanyService(companyRepo)
	invoiceService := service.NewInvoiceService(acquirer, invoiceRepo, companyRepo, docStorage)

	// Create handlers
	authHandler := handler.NewAuthHandler(authService)
	companyHandler := handler.NewCompanyHandler(companyService, authService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, authService)

	// Create and configure server
	log.Println("Configuring server...")
	appServer := server.NewServer(cfg, db)

	v1 := appServer.GetRouter().Group("/v1")
	authHandler.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	authHandler.RegisterProtectedRoutes(protected)
	companyHandler.RegisterRoutes(protected)
	invoiceHandler.RegisterRoutes(protected)

	// Start server (blocking call)
	log.Printf("Starting server on port %d...", cfg.Port)
	if err := appServer.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server shutdown complete")
}
