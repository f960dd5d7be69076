package main

import (
	"context"
	"embed"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/jamsniper/causeway.report/internal/analyzer"
	"github.com/jamsniper/causeway.report/internal/api"
	"github.com/jamsniper/causeway.report/internal/camera"
	"github.com/jamsniper/causeway.report/internal/config"
	"github.com/jamsniper/causeway.report/internal/db"
	"github.com/jamsniper/causeway.report/internal/detect"
	"github.com/jamsniper/causeway.report/internal/httputil"
	"github.com/jamsniper/causeway.report/internal/version"
	"github.com/jamsniper/causeway.report/internal/ws"
)

var (
	//go:embed static/*
	staticFiles embed.FS
	devMode     = flag.Bool("dev", false, "Run in dev mode (fixture frame, no camera or detector calls)")
	listen      = flag.String("listen", ":8080", "Listen address")
	configPath  = flag.String("config", "", "Path to a tuning config JSON file (defaults to the bundled config)")
	dbPath      = flag.String("db", "causeway_data.db", "Path to the sqlite database")
)

// fixtureSource replays a single frame from disk, standing in for the live
// camera feed during development.
type fixtureSource struct {
	path     string
	cameraID string
}

func (f *fixtureSource) Fetch(ctx context.Context) (*camera.Frame, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	frame, err := camera.FrameFromJPEG(f.cameraID, raw)
	if err != nil {
		return nil, err
	}
	frame.Fetched = time.Now().UTC()
	return frame, nil
}

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Printf("causeway.report %s", version.String())

	// Secrets come from the environment; a local .env is a convenience,
	// not a requirement.
	_ = godotenv.Load()

	var tuning *config.TuningConfig
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	} else {
		tuning = config.MustLoadDefaultConfig()
	}

	httpClient := httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second})

	var source analyzer.FrameSource
	var detector detect.Detector
	if *devMode {
		source = &fixtureSource{path: "fixtures/frame.jpg", cameraID: tuning.GetCameraID()}
		detector = detect.NewMockDetector(nil)
	} else {
		apiKey := os.Getenv("LTA_API_KEY")
		if apiKey == "" {
			log.Fatal("LTA_API_KEY is required outside dev mode")
		}
		source = camera.NewClient(apiKey, tuning.GetCameraID(), httpClient)

		detectorURL := tuning.GetDetectorURL()
		if fromEnv := os.Getenv("DETECTOR_URL"); fromEnv != "" {
			detectorURL = fromEnv
		}
		detector = detect.NewHTTPDetector(detect.Config{
			URL:                 detectorURL,
			ConfidenceThreshold: tuning.GetConfidenceThreshold(),
			IOUThreshold:        tuning.GetIOUThreshold(),
			ImageSize:           tuning.GetImageSize(),
			ClassIDs:            tuning.GetClassIDs(),
		}, httpClient)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	hub := ws.NewHub()

	a := analyzer.New(analyzer.Config{
		Source:       source,
		Detector:     detector,
		DB:           database,
		Hub:          hub,
		Filter:       tuning.FilterConfig(),
		Calibration:  tuning.Calibration(),
		StatusLowMax: tuning.GetStatusLowMax(),
		StatusMidMax: tuning.GetStatusMidMax(),
		PollInterval: tuning.GetPollInterval(),
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// websocket hub routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
		log.Print("websocket hub terminated")
	}()

	// analysis polling routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("analysis loop error: %v", err)
		}
		log.Print("analysis routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		apiMux := api.NewServer(a, database, hub, tuning.GetDisplayTimezone(), tuning.GetHistoryWindow()).ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/charts/", apiMux)
		mux.Handle("/health", apiMux)
		mux.Handle("/ws", apiMux)

		// read static files from the embedded filesystem in production or
		// from the local ./static in dev for easier iteration without
		// restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticHandler = http.FileServer(http.FS(staticFiles))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
