package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/facerecognx/internal/auth"
	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/faceapi"
	"github.com/kozaktomas/facerecognx/internal/metrics"
	"github.com/kozaktomas/facerecognx/internal/recognition"
	"github.com/kozaktomas/facerecognx/internal/web"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the FaceRecognX web server.
The web server provides the admin and teacher dashboards, student enrollment
from camera captures, and live attendance marking.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 8080)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 0.0.0.0)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (default WEB_SESSION_SECRET)")
}

// applyServeFlags overrides the environment configuration with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Web.Host = mustGetString(cmd, "host")
	}
	if cmd.Flags().Changed("session-secret") {
		cfg.Web.SessionSecret = mustGetString(cmd, "session-secret")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyServeFlags(cmd, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Shutdown(); err != nil {
			fmt.Printf("Warning: failed to close database: %v\n", err)
		}
	}()

	if err := auth.EnsureAdmin(ctx, store.Teachers, cfg.Admin); err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}
	fmt.Printf("Admin account %q ready\n", cfg.Admin.ID)

	sessionRepo, closeSessions, err := openSessionRepository(ctx, cfg, pool)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer closeSessions()

	if cfg.Web.SessionSecret == "" {
		fmt.Println("Warning: WEB_SESSION_SECRET is not set, using the development secret")
	}
	sessions := middleware.NewSessionManager(cfg.Web.SessionSecret, sessionRepo)

	m := metrics.New()
	faceClient := faceapi.NewClient(cfg.FaceService.URL, cfg.FaceService.Timeout)
	fmt.Printf("Using face service at %s (match index: %s, threshold %.2f)\n",
		cfg.FaceService.URL, cfg.Recognition.Index, cfg.Recognition.MatchThreshold)

	enroller := recognition.NewEnroller(store.Students, faceClient, cfg.Recognition, m)
	recognizer := recognition.NewRecognizer(store.Students, store.Attendance, faceClient, cfg.Recognition, cfg.Location(), m)

	server, err := web.NewServer(web.Dependencies{
		Config:     cfg,
		Store:      store,
		Sessions:   sessions,
		Enroller:   enroller,
		Recognizer: recognizer,
		FaceHealth: faceClient.Health,
		Metrics:    m,
	})
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting FaceRecognX on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
