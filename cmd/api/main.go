package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/oakmontvc/dealdesk/internal/application/analysis"
	appdocs "github.com/oakmontvc/dealdesk/internal/application/documents"
	appportfolio "github.com/oakmontvc/dealdesk/internal/application/portfolio"
	"github.com/oakmontvc/dealdesk/internal/config"
	domai "github.com/oakmontvc/dealdesk/internal/domain/ai"
	"github.com/oakmontvc/dealdesk/internal/domain/analyses"
	"github.com/oakmontvc/dealdesk/internal/domain/companies"
	"github.com/oakmontvc/dealdesk/internal/domain/documents"
	"github.com/oakmontvc/dealdesk/internal/domain/investments"
	"github.com/oakmontvc/dealdesk/internal/domain/pipelineerrors"
	aioffline "github.com/oakmontvc/dealdesk/internal/infra/ai/offline"
	aiopenai "github.com/oakmontvc/dealdesk/internal/infra/ai/openai"
	mysqldb "github.com/oakmontvc/dealdesk/internal/infra/db/mysql"
	postgresdb "github.com/oakmontvc/dealdesk/internal/infra/db/postgres"
	"github.com/oakmontvc/dealdesk/internal/infra/extract"
	"github.com/oakmontvc/dealdesk/internal/infra/fetch"
	"github.com/oakmontvc/dealdesk/internal/infra/httpserver"
	minioStore "github.com/oakmontvc/dealdesk/internal/infra/storage"
	"github.com/oakmontvc/dealdesk/internal/middleware"
)

// repos groups the per-driver repository set so the driver switch stays in
// one place.
type repos struct {
	companies   companies.Repository
	investments investments.Repository
	documents   documents.Repository
	analyses    analyses.Repository
	committer   analyses.Committer
	errors      pipelineerrors.Repository
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database (postgres default, mysql optional)
	db, r, err := connectDB(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init AI client
	var aiClient domai.Client
	switch cfg.AI.Provider {
	case "offline":
		aiClient = aioffline.NewAnalyzer()
	default:
		if cfg.AI.APIKey == "" {
			log.Fatal("ai.apiKey is required when ai.provider is openai")
		}
		aiClient = aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	}

	// init services
	docsSvc := &appdocs.Service{
		Repo:  r.documents,
		Blobs: store,
		Clock: appdocs.SystemClock{},
	}
	analysisSvc := &appanalysis.Service{
		Docs:      r.documents,
		Fetcher:   fetch.NewFetcher(),
		Extractor: extract.NewExtractor(),
		AI:        aiClient,
		Analyses:  r.analyses,
		Committer: r.committer,
		Errors:    r.errors,
		Clock:     appanalysis.SystemClock{},
	}
	portfolioSvc := &appportfolio.Service{
		Investments: r.investments,
		Companies:   r.companies,
		Documents:   r.documents,
		Clock:       appportfolio.SystemClock{},
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"storage":  &middleware.BlobHealthChecker{Store: store},
	}

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(60, 10))
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Mount("/", httpserver.NewRouter(docsSvc, analysisSvc, portfolioSvc, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// analysis requests block on the model, so the write timeout is long
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, repos, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, repos{}, err
		}
		return db, repos{
			companies:   mysqldb.NewCompanyRepository(db),
			investments: mysqldb.NewInvestmentRepository(db),
			documents:   mysqldb.NewDocumentRepository(db),
			analyses:    mysqldb.NewAnalysisRepository(db),
			committer:   mysqldb.NewCommitter(db),
			errors:      mysqldb.NewPipelineErrorRepository(db),
		}, nil
	default:
		db, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, repos{}, err
		}
		return db, repos{
			companies:   postgresdb.NewCompanyRepository(db),
			investments: postgresdb.NewInvestmentRepository(db),
			documents:   postgresdb.NewDocumentRepository(db),
			analyses:    postgresdb.NewAnalysisRepository(db),
			committer:   postgresdb.NewCommitter(db),
			errors:      postgresdb.NewPipelineErrorRepository(db),
		}, nil
	}
}
