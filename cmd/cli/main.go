package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mkjmk-alt/label-engine/internal/tui"
)

const (
	defaultServerURL = "http://localhost:12212"
)

func main() {
	var serverURL string
	flag.StringVar(&serverURL, "server", defaultServerURL, "Server URL")
	flag.StringVar(&serverURL, "s", defaultServerURL, "Server URL (short)")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	args := flag.Args()

	// Local subcommands that talk to the server directly
	switch args[0] {
	case "watch":
		if err := runWatch(serverURL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	case "download":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: label-cli download <job-id> [output.zip]")
			os.Exit(1)
		}
		out := args[1] + ".zip"
		if len(args) >= 3 {
			out = args[2]
		}
		if err := downloadArchive(serverURL, args[1], out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %s\n", out)
		return
	}

	// Check if this is a sheet command with --compose flag
	var command string
	var tempFile string
	var err error

	if len(args) >= 2 && args[0] == "sheet" {
		// Look for --compose flag
		composeIndex := -1
		for i, arg := range args {
			if arg == "--compose" {
				composeIndex = i
				break
			}
		}

		if composeIndex >= 0 {
			// Parse compose arguments and create a temporary .label file
			composeArgs := args[composeIndex+1:]
			tempFile, err = createComposedSheet(composeArgs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating composed sheet: %v\n", err)
				os.Exit(1)
			}
			defer os.Remove(tempFile) // Clean up temp file

			// Reconstruct command with temp file path instead of --compose args
			newArgs := append(args[:composeIndex], tempFile)
			command = strings.Join(newArgs, " ")
		} else {
			command = strings.Join(args, " ")
		}
	} else {
		command = strings.Join(args, " ")
	}

	result := executeCommand(serverURL, command)

	if result.Success {
		printSuccess(result)
		os.Exit(0)
	} else {
		printError(result)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Label Engine CLI

Usage:
  label-cli [flags] <command>

Flags:
  -s, -server <url>    Server URL (default: %s)

Commands:
  sheet <label-path-or-url>
    Queue a label sheet render job

  sheet --compose <fields...>
    Compose and queue a sheet from command-line arguments
    Compose fields:
      value:8801234567893             - Code content (required)
      type:qrcode                     - Code type (barcode or qrcode)
      format:EAN13                    - Barcode format
      rows:7 cols:5                   - Grid dimensions (required)
      hmargin:20 vmargin:20           - Cell margins in pixels
      name:"일반 감자칩 120g"          - Product name printed per cell
      expiry:"2026.12.01"             - Expiry date printed per cell
      copies:3                        - Number of pages

  jobs [clear]
    List render jobs / clear completed

  job <job-id>
    Show one render job

  watch
    Live view of the render queue

  download <job-id> [output.zip]
    Download a completed job's pages as a ZIP

  history [clear]
    List recorded codes / clear history

  chat <question>
    Ask the label assistant

  help
    Show help message

Examples:
  label-cli sheet ./chips.label
  label-cli sheet --compose value:8801234567893 format:EAN13 rows:7 cols:5 name:"감자칩" expiry:"2026.12.01"
  label-cli job job_1756600000000000000
  label-cli download job_1756600000000000000 chips.zip
  label-cli -s http://localhost:8080 jobs

`, defaultServerURL)
}

type CommandResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func executeCommand(serverURL, command string) *CommandResult {
	url := strings.TrimSuffix(serverURL, "/") + "/command"

	reqBody := map[string]string{
		"command": command,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to marshal request: %v", err),
		}
	}

	resp, err := http.Post(url, "application/json", strings.NewReader(string(jsonData)))
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to connect to server: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to read response: %v", err),
		}
	}

	var result CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		return &CommandResult{
			Success: false,
			Error:   fmt.Sprintf("failed to parse response: %v", err),
		}
	}

	// The command endpoint flattens data into the top-level object
	if result.Data == nil {
		var flat map[string]interface{}
		if err := json.Unmarshal(body, &flat); err == nil {
			delete(flat, "success")
			delete(flat, "message")
			delete(flat, "error")
			if len(flat) > 0 {
				result.Data = flat
			}
		}
	}

	return &result
}

func printSuccess(result *CommandResult) {
	if result.Message != "" {
		fmt.Println(result.Message)
	}

	if result.Data != nil {
		// Pretty print data
		if jobs, ok := result.Data["jobs"].([]interface{}); ok {
			fmt.Println("\nJobs:")
			for _, j := range jobs {
				if job, ok := j.(map[string]interface{}); ok {
					fmt.Printf("  %s: %s (pages: %v, retries: %v)\n",
						job["id"], job["status"], job["pages"], job["retries"])
				}
			}
		}

		if entries, ok := result.Data["history"].([]interface{}); ok {
			fmt.Println("\nHistory:")
			for _, e := range entries {
				if entry, ok := e.(map[string]interface{}); ok {
					line := fmt.Sprintf("  %s: %s", entry["kind"], entry["value"])
					if format, ok := entry["format"].(string); ok && format != "" {
						line += fmt.Sprintf(" (%s)", format)
					}
					if name, ok := entry["product_name"].(string); ok && name != "" {
						line += " " + name
					}
					fmt.Println(line)
				}
			}
		}

		if jobID, ok := result.Data["job_id"].(string); ok {
			fmt.Printf("Job ID: %s\n", jobID)
		}
	}
}

func printError(result *CommandResult) {
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
	} else if result.Message != "" {
		fmt.Fprintf(os.Stderr, "%s\n", result.Message)
	}
}

// createComposedSheet parses compose fields and creates a temporary .label file
func createComposedSheet(composeArgs []string) (string, error) {
	if len(composeArgs) == 0 {
		return "", fmt.Errorf("no compose fields provided")
	}

	code := map[string]interface{}{}
	layout := map[string]interface{}{}
	label := map[string]interface{}{}
	sheet := map[string]interface{}{
		"version": "1.0",
		"code":    code,
		"layout":  layout,
		"label":   label,
	}

	for _, arg := range composeArgs {
		colonIndex := strings.Index(arg, ":")
		if colonIndex == -1 {
			return "", fmt.Errorf("field must be in format 'name:value', got: %s", arg)
		}

		name := arg[:colonIndex]
		value := strings.Trim(arg[colonIndex+1:], `"'`)

		switch name {
		case "value":
			code["value"] = value
		case "type":
			code["type"] = value
		case "format":
			code["format"] = value
		case "ec":
			code["error_correction"] = value
		case "rows", "cols", "copies":
			n, err := strconv.Atoi(value)
			if err != nil {
				return "", fmt.Errorf("invalid %s value: %s", name, value)
			}
			if name == "copies" {
				sheet["copies"] = n
			} else {
				layout[name] = n
			}
		case "hmargin", "vmargin":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return "", fmt.Errorf("invalid %s value: %s", name, value)
			}
			if name == "hmargin" {
				layout["h_margin"] = f
			} else {
				layout["v_margin"] = f
			}
		case "name":
			label["product_name"] = value
		case "expiry":
			label["expiry_text"] = value
			label["add_expiry"] = true
		default:
			return "", fmt.Errorf("unknown field: %s", name)
		}
	}

	if code["value"] == nil {
		return "", fmt.Errorf("value is required")
	}
	if layout["rows"] == nil || layout["cols"] == nil {
		return "", fmt.Errorf("rows and cols are required")
	}
	if layout["h_margin"] == nil {
		layout["h_margin"] = 20.0
	}
	if layout["v_margin"] == nil {
		layout["v_margin"] = 20.0
	}

	// Create temporary file
	tmpFile, err := os.CreateTemp("", "label-composed-*.label")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	// Write JSON to file
	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sheet); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to write label JSON: %v", err)
	}

	return tmpFile.Name(), nil
}

// runWatch shows the live render queue view
func runWatch(serverURL string) error {
	base := strings.TrimSuffix(serverURL, "/")
	client := &http.Client{Timeout: 5 * time.Second}

	fetch := func() ([]tui.JobView, error) {
		resp, err := client.Get(base + "/jobs")
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var parsed struct {
			Jobs []struct {
				ID        string    `json:"id"`
				Status    string    `json:"status"`
				Pages     int       `json:"pages"`
				Retries   int       `json:"retries"`
				Error     string    `json:"error"`
				CreatedAt time.Time `json:"created_at"`
			} `json:"jobs"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("failed to parse jobs: %w", err)
		}

		views := make([]tui.JobView, len(parsed.Jobs))
		for i, j := range parsed.Jobs {
			views[i] = tui.JobView{
				ID:        j.ID,
				Status:    j.Status,
				Pages:     j.Pages,
				Retries:   j.Retries,
				Error:     j.Error,
				CreatedAt: j.CreatedAt,
			}
		}
		return views, nil
	}

	clear := func() error {
		result := executeCommand(serverURL, "jobs clear")
		if !result.Success {
			return fmt.Errorf("%s", result.Error)
		}
		return nil
	}

	p := tea.NewProgram(tui.NewWatchModel(fetch, clear), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// downloadArchive saves a completed job's ZIP archive
func downloadArchive(serverURL, jobID, out string) error {
	base := strings.TrimSuffix(serverURL, "/")

	resp, err := http.Get(base + "/job/" + jobID + "/archive")
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var parsed struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
			return fmt.Errorf("%s", parsed.Error)
		}
		return fmt.Errorf("server returned HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(out)
		return fmt.Errorf("failed to save archive: %w", err)
	}

	return nil
}
