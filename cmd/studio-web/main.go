package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fpang/gemini-studio/internal/auth"
	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/fpang/gemini-studio/internal/config"
	"github.com/fpang/gemini-studio/internal/logging"
	"github.com/fpang/gemini-studio/internal/metrics"
	"github.com/fpang/gemini-studio/internal/session"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Set at build time with -ldflags "-X main.version=... -X main.commitHash=..."
var (
	version    = "dev"
	commitHash = ""
	buildTime  = ""
)

// CLI flags
var (
	addrFlag       string
	envFileFlag    string
	ttlFlag        time.Duration
	modelFlag      string
	imageModelFlag string
	validateFlag   bool
	noPickerFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "studio-web",
	Short: "HTTP server for the Gemini image studio and chat",
	Long: `Studio Web starts a local HTTP server exposing image workspaces
(upload, enhance, auto-enhance, adjust, remove objects, compare, download)
and chat sessions backed by Gemini.

Configuration is read from a .env file and the environment; flags win.

Examples:
  studio-web
  studio-web --addr :9090
  studio-web --image-model gemini-3-pro-image-preview --ttl 1h`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVar(&addrFlag, "addr", config.DefaultAddr, "Address to listen on")
	rootCmd.Flags().StringVar(&envFileFlag, "env-file", ".env", "Dotenv file to load if present")
	rootCmd.Flags().DurationVar(&ttlFlag, "ttl", config.DefaultSessionTTL, "Idle time before a workspace or chat expires")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", chat.DefaultModelName, "Gemini model for chat")
	rootCmd.Flags().StringVar(&imageModelFlag, "image-model", chat.DefaultImageModelName, "Gemini model for image editing")
	rootCmd.Flags().BoolVar(&validateFlag, "validate-key", true, "Validate the API key at startup")
	rootCmd.Flags().BoolVar(&noPickerFlag, "no-picker", false, "Disable the native file dialog endpoint")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	start := time.Now()
	logging.Init()
	metrics.SetService("studio-web")

	cfg, err := config.Load(envFileFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	closeMetrics, err := metrics.Open(cmp.Or(cfg.Metrics, "stdout"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open metrics output")
	}
	defer closeMetrics()

	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get API key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := chat.NewGeminiClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	if validateFlag {
		if err := auth.ValidateAPIKey(ctx, client, cfg.Model); err != nil {
			log.Fatal().Err(err).Msg("Invalid API key")
		}
		log.Info().Msg("API key validated")
	}

	g, groupCtx := errgroup.WithContext(ctx)

	reg := session.NewRegistry(groupCtx, cfg.SessionTTL)
	srv := &server{
		reg:       reg,
		images:    chat.NewImageService(client, cfg.ImageModel),
		chats:     chat.NewClient(client, cfg.Model),
		pick:      zenityPicker,
		maxUpload: cfg.MaxUploadBytes(),
		now:       time.Now,
	}
	if noPickerFlag {
		srv.pick = nil
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withLogging(withCORS(gzhttp.GzipHandler(srv.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		return reg.Run(groupCtx, session.JanitorInterval(cfg.SessionTTL))
	})
	g.Go(func() error {
		go func() {
			<-groupCtx.Done()
			log.Info().Msg("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("HTTP server shutdown failed")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	logging.NewStartupLogger("studio-web").
		Version(version).
		CommitHash(commitHash).
		BuildTime(buildTime).
		Listener("http", cfg.Addr).
		Model("chat", cfg.Model).
		Model("image", cfg.ImageModel).
		Feature("gzip", true).
		Feature("filePicker", srv.pick != nil).
		Feature("keyValidation", validateFlag).
		Config("sessionTTL", cfg.SessionTTL.String()).
		Config("maxUploadMB", fmt.Sprint(cfg.MaxUploadMB)).
		Config("envFile", cfg.EnvFile).
		Config("metrics", cmp.Or(cfg.Metrics, "stdout")).
		InitDuration(time.Since(start)).
		Log()
	fmt.Printf("\n  Gemini Studio: http://%s\n\n", displayAddr(cfg.Addr))

	gracefulShutdown(cancel, g)
}

// applyFlags overrides configuration with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = addrFlag
	}
	if flags.Changed("ttl") {
		cfg.SessionTTL = ttlFlag
	}
	if flags.Changed("model") {
		cfg.Model = modelFlag
	}
	if flags.Changed("image-model") {
		cfg.ImageModel = imageModelFlag
	}
}

// gracefulShutdown waits for SIGINT/SIGTERM or for a service to fail, cancels
// the group and waits for every service to stop.
func gracefulShutdown(cancel context.CancelFunc, g *errgroup.Group) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	case err := <-done:
		if err != nil {
			log.Fatal().Err(err).Msg("Service failed")
		}
		return
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
			os.Exit(1)
		}
		log.Info().Msg("All services stopped")
	case <-time.After(15 * time.Second):
		log.Error().Msg("Shutdown timed out, forcing exit")
		os.Exit(1)
	}
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only local origins may call the API.
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
