package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/mkjmk-alt/label-engine/internal/api"
	"github.com/mkjmk-alt/label-engine/internal/chat"
	"github.com/mkjmk-alt/label-engine/internal/command"
	"github.com/mkjmk-alt/label-engine/internal/history"
	"github.com/mkjmk-alt/label-engine/internal/jobs"
	"github.com/mkjmk-alt/label-engine/internal/renderer"
	"github.com/mkjmk-alt/label-engine/internal/tui"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	port := getPort()
	outputDir := getOutputDir()
	noTUI := hasFlag("--no-tui")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// History store next to the rendered sheets
	store, err := history.New(filepath.Join(outputDir, "history.json"))
	if err != nil {
		log.Fatalf("Failed to create history store: %v", err)
	}

	rend := renderer.New()

	// Render queue with 3 retries
	queue := jobs.NewQueue(rend, outputDir, 3)
	defer queue.Stop()

	chatbot := chat.NewClient()

	// Create API server
	server := api.NewServer(rend, queue, store, chatbot)

	// Forward job events to WebSocket clients
	go server.PumpJobEvents()

	// Start server in goroutine
	serverErrChan := make(chan error, 1)
	addr := fmt.Sprintf("0.0.0.0:%s", port)
	go func() {
		if err := server.Run(addr); err != nil {
			serverErrChan <- err
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if noTUI {
		log.Printf("🏷️  Label Engine %s", Version)
		log.Printf("🚀 API server on %s", addr)
		log.Printf("📁 Sheets written to %s", outputDir)
		if !chatbot.Configured() {
			log.Printf("ℹ️  Chat disabled: GEMINI_API_KEY is not set")
		}

		select {
		case err := <-serverErrChan:
			log.Fatalf("Server error: %v", err)
		case <-sigChan:
			log.Println("🛑 Shutting down...")
			return
		}
	}

	// Create monitor TUI (using tview)
	executor := command.NewExecutor(queue, store, chatbot, outputDir)
	monitor := tui.NewMonitor(queue, store, executor, port)

	// Set up log capture to TUI
	logWriter := monitor.LogWriter()
	log.SetOutput(io.MultiWriter(os.Stderr, logWriter))

	monitor.AddLog(fmt.Sprintf("🚀 Starting API server on %s", addr), "info")
	monitor.AddLog(fmt.Sprintf("📁 Sheets written to %s", outputDir), "info")
	if !chatbot.Configured() {
		monitor.AddLog("Chat disabled: GEMINI_API_KEY is not set", "warning")
	}

	// Run TUI (blocking)
	tuiDone := make(chan struct{})
	go func() {
		if err := monitor.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
		close(tuiDone)
	}()

	// Wait for either TUI to quit, server error, or signal
	select {
	case err := <-serverErrChan:
		log.Fatalf("Server error: %v", err)
	case <-sigChan:
		// Signal received, shutdown gracefully
		monitor.App.Stop()
		os.Exit(0)
	case <-tuiDone:
		// TUI quit, shutdown gracefully
		os.Exit(0)
	}
}

func getPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}

	// Check command line args
	for i, arg := range os.Args {
		if arg == "--port" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}

	return "12212"
}

func hasFlag(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

// getOutputDir returns the directory rendered sheets and history are
// written to. It tries LABEL_OUTPUT_DIR, then a directory next to the
// executable, then a per-user config directory.
func getOutputDir() string {
	if dir := os.Getenv("LABEL_OUTPUT_DIR"); dir != "" {
		return dir
	}

	// Try to place output next to the executable
	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		if info, err := os.Stat(exeDir); err == nil && info.IsDir() {
			// Try to create a test file to check write permissions
			testFile := filepath.Join(exeDir, ".label-engine-write-test")
			if f, err := os.Create(testFile); err == nil {
				f.Close()
				os.Remove(testFile)
				return filepath.Join(exeDir, "sheets")
			}
		}
	}

	// Fallback: use current directory
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "sheets")
	}

	// Last resort: per-user config directory
	var configDir string
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			configDir = filepath.Join(appData, "label-engine")
		} else {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "label-engine")
		}
	} else {
		if home := os.Getenv("HOME"); home != "" {
			configDir = filepath.Join(home, ".config", "label-engine")
		}
	}

	if configDir != "" {
		os.MkdirAll(configDir, 0755)
		return filepath.Join(configDir, "sheets")
	}

	return "sheets"
}
