package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/generate"
	"github.com/ayusman/mudra/internal/mode"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("Mudra - hand gesture drawing")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "mudra.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	camera := capture.NewCamera(capture.Options{
		Device: cfg.Camera.Device,
		FPS:    cfg.Camera.FPS,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
	})
	application := app.New(app.Config{
		Engine:         cfg.Engine(),
		Generator:      newGenerator(cfg),
		Camera:         camera,
		DetectorConfig: cfg.Detector(),
		Store:          st,
		FrameInterval:  cfg.FrameInterval(),
		ExportDir:      filepath.Join(dataDir, "exports"),
	})
	if err := application.Start(); err != nil {
		log.Printf("Camera unavailable, pipeline not started: %v", err)
	}
	defer application.Stop()

	webDir := findWebDir(cfg.Server.StaticDir, dataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       application,
	})
	defer srv.Close()

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if *headless {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return
	}

	t := tray.New()
	t.OnToggle(application.SetEnabled)
	t.OnToolbar(application.Toolbar().SetVisible)
	controls := application.Controls()
	t.OnEdit(controls.Undo, controls.Redo, controls.Clear)
	t.OnOpen(func() { openBrowser(browserURL(cfg.Server.Addr)) })
	application.Controller().OnEvent(func(ev mode.Event) { t.SetMode(ev.To) })
	t.Run()
}

// newGenerator returns the generation client, or a local mock when mock
// mode is configured or no API key is set.
func newGenerator(cfg *config.Config) generate.Generator {
	if cfg.Generation.Mock {
		log.Println("Using mock generation")
		return generate.NewMockGenerator()
	}
	client, err := generate.NewClient(nil, cfg.Generate())
	if err != nil {
		log.Printf("Generation unavailable (%v), using mock generation", err)
		return generate.NewMockGenerator()
	}
	return client
}

// findWebDir returns the configured static directory if it exists, then
// tries "web" relative to the working directory and the data directory.
func findWebDir(configured, dataDir string) string {
	candidates := []string{configured, "web", "../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func browserURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
