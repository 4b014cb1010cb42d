package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
	"github.com/awatson1978/personal-health-record-sub000/internal/auth"
	"github.com/awatson1978/personal-health-record-sub000/internal/classifier"
	"github.com/awatson1978/personal-health-record-sub000/internal/config"
	"github.com/awatson1978/personal-health-record-sub000/internal/database"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/jobs"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/resources"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/users"
	http_controllers "github.com/awatson1978/personal-health-record-sub000/internal/http"
	"github.com/awatson1978/personal-health-record-sub000/internal/importers"
	"github.com/awatson1978/personal-health-record-sub000/internal/progress"
	"github.com/awatson1978/personal-health-record-sub000/internal/scheduler"
	"github.com/awatson1978/personal-health-record-sub000/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting uploads before the workers drain
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting health record importer v%s", version)

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory %s: %v", cfg.Uploads.Dir, err)
	}

	c, err := classifier.FromFile(cfg.Import.ClassifierConfig)
	if err != nil {
		log.Fatalf("Failed to load classifier config: %v", err)
	}
	if cfg.Import.ClassifierConfig != "" {
		log.Printf("Classifier tables loaded from %s", cfg.Import.ClassifierConfig)
	}

	if err := scheduler.ValidateSchedule(cfg.Import.SweepSchedule); err != nil {
		log.Fatalf("Invalid IMPORT_SWEEP_SCHEDULE '%s': %v", cfg.Import.SweepSchedule, err)
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	ctx := context.Background()

	userRepo := users.NewRepository(db.DB)
	defaultUser, err := userRepo.EnsureUser(ctx, cfg.Auth.DefaultUserName, cfg.Auth.DefaultUserEmail)
	if err != nil {
		log.Fatalf("Failed to prepare default account: %v", err)
	}
	jobRepo := jobs.NewRepository(db.DB)
	resourceRepo := resources.NewRepository(db.DB, cfg.Import.SourceLabel)

	orch := importers.NewOrchestrator(jobRepo, userRepo, resourceRepo, c, cfg.Import.SourceLabel)
	orch.SetProgressInterval(cfg.Import.ProgressInterval)

	// Optional Redis progress mirror
	var mirror *progress.Mirror
	if cfg.Redis.Addr != "" {
		client, err := progress.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("WARNING: progress mirror disabled: %v", err)
		} else {
			defer client.Close()
			mirror = progress.NewMirror(client, cfg.Redis.ProgressTTL)
			orch.SetProgressObserver(mirror)
			log.Printf("Progress mirror connected to %s", cfg.Redis.Addr)
		}
	}

	scanner := archive.NewScanner(cfg.Import.ScanBudgetMB * 1024 * 1024)
	runner := importers.NewRunner(orch, archive.NewLoader(scanner), cfg.Tasks.ImportTimeout)

	// Imports run on the task queue when enabled, otherwise in-process
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var queue http_controllers.ImportQueue = runner
	var sweepTrigger scheduler.SweepTrigger = scheduler.DirectSweep{Sweeper: jobRepo}
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			ConcurrentImports: cfg.Tasks.ConcurrentImports,
			ImportTimeout:     cfg.Tasks.ImportTimeout,
			ReleaseGrace:      cfg.Tasks.ReleaseGrace,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewRunImportQueue(runner),
			tasks.NewSweepStaleJobsQueue(jobRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		queue = taskClient
		sweepTrigger = taskClient
	} else {
		log.Printf("Task queue disabled, imports run in-process")
	}

	sweeps := scheduler.NewStaleJobScheduler(sweepTrigger, cfg.Import.SweepSchedule, cfg.Import.StaleAfter)
	if err := sweeps.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start stale job scheduler: %v", err)
	}
	// Jobs left processing by a previous process
	sweeps.RunNow()

	var authMiddleware *auth.Middleware
	switch cfg.Auth.Mode {
	case config.AuthModeToken:
		log.Printf("Authentication mode: token")
		authMiddleware = auth.NewMiddleware(userRepo, config.AuthModeToken, defaultUser.ID)
	default:
		log.Printf("Authentication mode: none (all requests use account '%s')", defaultUser.Username)
		authMiddleware = auth.NewMiddleware(userRepo, config.AuthModeNone, defaultUser.ID)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Jobs:           jobRepo,
		Resources:      resourceRepo,
		Queue:          queue,
		Stopper:        orch,
		Scanner:        scanner,
		AuthMiddleware: authMiddleware,
		UploadDir:      cfg.Uploads.Dir,
		MaxUploadBytes: cfg.HTTP.MaxUploadMB * 1024 * 1024,
		TaskClient:     taskClient,
		StaleAfter:     cfg.Import.StaleAfter,
		Version:        version,
	}
	if mirror != nil {
		routerCfg.Progress = mirror
		routerCfg.Redis = mirror
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		sweeps.Stop()

		g, gctx := errgroup.WithContext(ctx)
		if taskClient != nil {
			g.Go(func() error {
				defer taskCtxCancel()
				if !taskClient.Stop(gctx) {
					return errors.New("task queue did not drain")
				}
				return nil
			})
		}
		g.Go(func() error {
			if !runner.Wait(gctx) {
				return errors.New("in-process imports still running")
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			log.Printf("Shutdown incomplete: %v", err)
		}
	}

	Serve(router, cfg, onShutdown)
}
