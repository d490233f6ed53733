// Package command provides a command system for the label engine
package command

import (
	"fmt"
	"strings"

	"github.com/mkjmk-alt/label-engine/internal/chat"
	"github.com/mkjmk-alt/label-engine/internal/history"
	"github.com/mkjmk-alt/label-engine/internal/jobs"
)

// Executor executes commands
type Executor struct {
	queue     *jobs.Queue
	store     *history.Store
	chatbot   *chat.Client
	outputDir string
}

// NewExecutor creates a new command executor. Generated code images are
// written to outputDir.
func NewExecutor(queue *jobs.Queue, store *history.Store, chatbot *chat.Client, outputDir string) *Executor {
	return &Executor{
		queue:     queue,
		store:     store,
		chatbot:   chatbot,
		outputDir: outputDir,
	}
}

// Result represents the result of executing a command
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return &Result{
			Success: false,
			Error:   "empty command",
		}
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "generate":
		return e.handleGenerate(args)
	case "scan":
		return e.handleScan(args)
	case "sheet":
		return e.handleSheet(args)
	case "jobs":
		return e.handleJobs(args)
	case "job":
		return e.handleJob(args)
	case "history":
		return e.handleHistory(args)
	case "chat":
		return e.handleChat(args)
	case "help":
		return e.handleHelp(args)
	default:
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("unknown command: %s. Type 'help' for available commands", command),
		}
	}
}

// parseCommand parses a command string into parts, handling quoted strings
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return []string{}
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := byte(0)

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		if char == '"' || char == '\'' {
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else {
				current.WriteByte(char)
			}
		} else if char == ' ' && !inQuotes {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
