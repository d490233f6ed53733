package command

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mkjmk-alt/label-engine/internal/history"
	"github.com/mkjmk-alt/label-engine/internal/renderer"
	"github.com/mkjmk-alt/label-engine/internal/scanner"
	"github.com/mkjmk-alt/label-engine/pkg/labelformat"
)

// handleGenerate renders a code image to the output directory
// Usage: generate <value> [format]
func (e *Executor) handleGenerate(args []string) *Result {
	if len(args) < 1 {
		return &Result{
			Success: false,
			Error:   "usage: generate <value> [format]",
		}
	}

	value := args[0]
	format := "CODE128"
	if len(args) > 1 {
		format = strings.ToUpper(args[1])
	}

	var img image.Image
	var err error
	if format == "QR" {
		img, err = renderer.GenerateQRCode(value, "", 0)
	} else {
		img, err = renderer.GenerateBarcode(value, format, 0, 0)
	}
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to generate code: %v", err),
		}
	}

	path := filepath.Join(e.outputDir, fmt.Sprintf("code_%d.png", time.Now().UnixNano()))
	if err := imaging.Save(img, path); err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to save code image: %v", err),
		}
	}

	e.store.Add(history.Entry{
		Kind:   history.KindGenerate,
		Value:  value,
		Format: format,
	})

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Saved %s", path),
		Data: map[string]interface{}{
			"file": path,
		},
	}
}

// handleScan decodes a barcode or QR code from an image file
// Usage: scan <image-path>
func (e *Executor) handleScan(args []string) *Result {
	if len(args) < 1 {
		return &Result{
			Success: false,
			Error:   "usage: scan <image-path>",
		}
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to read image: %v", err),
		}
	}

	result, err := scanner.DecodeBytes(data)
	if err != nil {
		return &Result{
			Success: false,
			Error:   err.Error(),
		}
	}

	e.store.Add(history.Entry{
		Kind:   history.KindScan,
		Value:  result.Value,
		Format: result.Format,
	})

	return &Result{
		Success: true,
		Message: fmt.Sprintf("%s (%s)", result.Value, result.Format),
		Data: map[string]interface{}{
			"value":  result.Value,
			"format": result.Format,
		},
	}
}

// handleSheet enqueues a sheet render job
// Usage: sheet <label-path-or-url>
func (e *Executor) handleSheet(args []string) *Result {
	if len(args) < 1 {
		return &Result{
			Success: false,
			Error:   "usage: sheet <label-path-or-url>",
		}
	}

	sheet, err := labelformat.LoadFromPathOrURL(args[0])
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("failed to load label sheet: %v", err),
		}
	}

	jobID := e.queue.Enqueue(sheet)

	e.store.Add(history.Entry{
		Kind:        history.KindSheet,
		Value:       sheet.Code.Value,
		Format:      sheet.Code.Format,
		ProductName: sheet.Label.ProductName,
		ExpiryText:  sheet.Label.ExpiryText,
	})

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Render job %s queued", jobID),
		Data: map[string]interface{}{
			"job_id": jobID,
		},
	}
}

// handleJobs lists render jobs
// Usage: jobs [clear]
func (e *Executor) handleJobs(args []string) *Result {
	if len(args) > 0 && args[0] == "clear" {
		e.queue.ClearCompleted()
		return &Result{
			Success: true,
			Message: "Completed jobs cleared",
		}
	}

	all := e.queue.GetAllJobs()

	jobsData := make([]map[string]interface{}, len(all))
	for i, job := range all {
		jobsData[i] = map[string]interface{}{
			"id":         job.ID,
			"status":     job.Status,
			"retries":    job.Retries,
			"pages":      len(job.Pages),
			"created_at": job.CreatedAt,
		}
		if job.Error != nil {
			jobsData[i]["error"] = job.Error.Error()
		}
	}

	return &Result{
		Success: true,
		Data: map[string]interface{}{
			"jobs": jobsData,
		},
	}
}

// handleJob shows one render job
// Usage: job <job-id>
func (e *Executor) handleJob(args []string) *Result {
	if len(args) < 1 {
		return &Result{
			Success: false,
			Error:   "usage: job <job-id>",
		}
	}

	job := e.queue.GetJob(args[0])
	if job == nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("job not found: %s", args[0]),
		}
	}

	data := map[string]interface{}{
		"id":         job.ID,
		"status":     job.Status,
		"retries":    job.Retries,
		"pages":      job.Pages,
		"created_at": job.CreatedAt,
	}
	if job.Error != nil {
		data["error"] = job.Error.Error()
	}

	return &Result{
		Success: true,
		Data:    data,
	}
}

// handleHistory lists or clears recorded codes
// Usage: history [clear]
func (e *Executor) handleHistory(args []string) *Result {
	if len(args) > 0 && args[0] == "clear" {
		e.store.Clear()
		return &Result{
			Success: true,
			Message: "History cleared",
		}
	}

	entries := e.store.GetAll()

	entriesData := make([]map[string]interface{}, len(entries))
	for i, entry := range entries {
		entriesData[i] = map[string]interface{}{
			"id":         entry.ID,
			"kind":       entry.Kind,
			"value":      entry.Value,
			"format":     entry.Format,
			"created_at": entry.CreatedAt,
		}
		if entry.ProductName != "" {
			entriesData[i]["product_name"] = entry.ProductName
		}
	}

	return &Result{
		Success: true,
		Data: map[string]interface{}{
			"history": entriesData,
		},
	}
}

// handleChat asks the assistant a question
// Usage: chat <question...>
func (e *Executor) handleChat(args []string) *Result {
	if len(args) < 1 {
		return &Result{
			Success: false,
			Error:   "usage: chat <question>",
		}
	}

	question := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	answer, err := e.chatbot.Ask(ctx, question)
	if err != nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("chat failed: %v", err),
		}
	}

	return &Result{
		Success: true,
		Message: answer.Text,
		Data: map[string]interface{}{
			"snippets": answer.Snippets,
		},
	}
}

// handleHelp shows available commands
func (e *Executor) handleHelp(args []string) *Result {
	help := `Available commands:
  generate <value> [format]  Render a code image (CODE128, CODE39, EAN13, EAN8, QR)
  scan <image-path>        Decode a barcode or QR code from an image
  sheet <path-or-url>      Queue a label sheet render job
  jobs [clear]             List render jobs / clear completed
  job <job-id>             Show one render job
  history [clear]          List recorded codes / clear history
  chat <question>          Ask the label assistant
  help                     Show this help`

	return &Result{
		Success: true,
		Message: help,
	}
}
