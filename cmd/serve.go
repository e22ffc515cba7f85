package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dpaola2/show-notes/api"
	"github.com/dpaola2/show-notes/api/types"
	"github.com/dpaola2/show-notes/internal/database"
	"github.com/dpaola2/show-notes/internal/services/anthropic"
	"github.com/dpaola2/show-notes/internal/services/assemblyai"
	"github.com/dpaola2/show-notes/internal/services/episodes"
	"github.com/dpaola2/show-notes/internal/services/jobs"
	"github.com/dpaola2/show-notes/internal/services/library"
	"github.com/dpaola2/show-notes/internal/services/processing"
	"github.com/dpaola2/show-notes/internal/services/sweeper"
	"github.com/dpaola2/show-notes/internal/services/throttle"
	"github.com/dpaola2/show-notes/internal/services/units"
	"github.com/dpaola2/show-notes/internal/services/workers"
	"github.com/dpaola2/show-notes/pkg/config"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and processing workers",
	Long: `Start the Show Notes API server with the configured settings.

Alongside the HTTP API this starts the background worker pool that
drives episode transcription and summarization, and the sweeper that
fails stuck units and prunes old job rows.

Example:
  show-notes serve
  show-notes serve --port 9090`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.LogQueries)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	if err := migrateModels(db); err != nil {
		return err
	}

	deps, pool, sweep := buildServices(db, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("starting worker pool: %w", err)
	}
	defer pool.Stop()

	sweep.Start(ctx)
	defer sweep.Stop()

	address := fmt.Sprintf("%s:%d", serverHost, serverPort)
	server := api.NewServer(address, cfg.Server.RateLimitRPS)
	server.SetDatabase(db)
	server.SetDependencies(deps)
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	fmt.Printf("Server is ready to handle requests at %s\n", address)

	select {
	case <-stop:
		fmt.Println("\nShutting down server...")
	case err := <-serverErr:
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		fmt.Println("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Server forced to shutdown: %v\n", err)
		return err
	}

	fmt.Println("Server gracefully stopped")
	return nil
}

// buildServices wires the full dependency graph for the serve command
func buildServices(db *database.DB, cfg *config.Config) (*types.Dependencies, *workers.WorkerPool, *sweeper.Service) {
	episodeService := episodes.NewService(episodes.NewRepository(db.DB))
	jobService := jobs.NewService(jobs.NewRepository(db.DB))
	unitStore := units.NewStore(db.DB)

	transcriber := assemblyai.NewClient(assemblyai.Config{
		APIKey:            cfg.AssemblyAI.APIKey,
		BaseURL:           cfg.AssemblyAI.BaseURL,
		Timeout:           cfg.AssemblyAI.Timeout,
		RequestsPerMinute: cfg.AssemblyAI.RequestsPerMinute,
		PollInterval:      cfg.AssemblyAI.PollInterval,
		MaxPollTime:       cfg.AssemblyAI.MaxPollTime,
	})

	summarizer := anthropic.NewClient(anthropic.Config{
		APIKey:            cfg.Anthropic.APIKey,
		BaseURL:           cfg.Anthropic.BaseURL,
		Model:             cfg.Anthropic.Model,
		MaxTokens:         cfg.Anthropic.MaxTokens,
		Timeout:           cfg.Anthropic.Timeout,
		RequestsPerMinute: cfg.Anthropic.RequestsPerMinute,
		ChunkDelay:        cfg.Anthropic.ChunkDelay,
	})

	limiter := throttle.NewLimiter(map[string]int64{
		throttle.KeyTranscription: int64(cfg.Processing.TranscriptionConcurrency),
	})

	orchestrator := processing.NewOrchestrator(processing.OrchestratorConfig{
		Units:       unitStore,
		Episodes:    episodeService,
		Transcriber: transcriber,
		Summarizer:  summarizer,
		Limiter:     limiter,
		Jobs:        jobService,
		Notifier:    processing.LogNotifier{},
		MaxRetries:  cfg.Processing.MaxRetries,
		BaseDelay:   cfg.Processing.BaseRetryDelay,
	})
	pipeline := processing.NewService(orchestrator, jobService)

	libraryService := library.NewService(db.DB, pipeline)

	pool := workers.NewWorkerPool(jobService, cfg.Processing.Workers, cfg.Processing.PollInterval)
	pool.RegisterProcessor(workers.NewEpisodeProcessor(pipeline, jobService))

	sweep := sweeper.NewService(sweeper.Config{
		Units:            unitStore,
		Jobs:             jobService,
		Threshold:        cfg.Processing.StuckThreshold,
		Interval:         cfg.Processing.SweepInterval,
		JobRetentionDays: cfg.Processing.JobRetentionDays,
	})

	deps := &types.Dependencies{
		DB:             db,
		EpisodeService: episodeService,
		LibraryService: libraryService,
		Pipeline:       pipeline,
		JobService:     jobService,
		WorkerPool:     pool,
	}
	return deps, pool, sweep
}
