// Package api handles HTTP and WebSocket API endpoints
package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mkjmk-alt/label-engine/internal/chat"
	"github.com/mkjmk-alt/label-engine/internal/command"
	"github.com/mkjmk-alt/label-engine/internal/history"
	"github.com/mkjmk-alt/label-engine/internal/jobs"
	"github.com/mkjmk-alt/label-engine/internal/ocr"
	"github.com/mkjmk-alt/label-engine/internal/renderer"
	"github.com/mkjmk-alt/label-engine/internal/scanner"
	"github.com/mkjmk-alt/label-engine/pkg/labelformat"
)

// Server is the API server
type Server struct {
	router    *gin.Engine
	renderer  *renderer.Renderer
	queue     *jobs.Queue
	store     *history.Store
	chatbot   *chat.Client
	ocrClient *ocr.Client
	executor  *command.Executor
	upgrader  websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(rend *renderer.Renderer, queue *jobs.Queue, store *history.Store, chatbot *chat.Client) *Server {
	// Set Gin to release mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.Default()

	// CORS middleware
	router.Use(corsMiddleware())

	server := &Server{
		router:    router,
		renderer:  rend,
		queue:     queue,
		store:     store,
		chatbot:   chatbot,
		ocrClient: ocr.NewClient(),
		executor:  command.NewExecutor(queue, store, chatbot, queue.OutputDir()),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	// Code generation
	s.router.POST("/barcode", s.handleBarcode)
	s.router.POST("/qrcode", s.handleQRCode)

	// Sheet compositing
	s.router.POST("/sheet", s.handleSheet)

	// Render jobs
	s.router.POST("/jobs", s.handleCreateJob)
	s.router.GET("/jobs", s.handleGetJobs)
	s.router.GET("/job/:id", s.handleGetJob)
	s.router.GET("/job/:id/archive", s.handleJobArchive)

	// Decoding
	s.router.POST("/scan", s.handleScan)
	s.router.POST("/ocr", s.handleOCR)

	// Assistant
	s.router.POST("/chat", s.handleChat)

	// History
	s.router.GET("/history", s.handleGetHistory)
	s.router.DELETE("/history/:id", s.handleRemoveHistory)
	s.router.DELETE("/history", s.handleClearHistory)

	// Command endpoint
	s.router.POST("/command", s.handleCommand)

	// WebSocket
	s.router.GET("/ws", s.handleWebSocket)

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// handleBarcode renders a 1D barcode and returns it as a data URL
func (s *Server) handleBarcode(c *gin.Context) {
	var req struct {
		Value  string `json:"value" binding:"required"`
		Format string `json:"format"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "value is required"})
		return
	}

	if req.Format == "" {
		req.Format = "CODE128"
	}

	img, err := renderer.GenerateBarcode(req.Value, req.Format, req.Width, req.Height)
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("failed to generate barcode: %v", err)})
		return
	}

	dataURL, err := renderer.EncodeDataURL(img)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("failed to encode barcode: %v", err)})
		return
	}

	s.store.Add(history.Entry{
		Kind:   history.KindGenerate,
		Value:  req.Value,
		Format: req.Format,
	})

	c.JSON(200, gin.H{
		"success": true,
		"image":   dataURL,
	})
}

// handleQRCode renders a QR code and returns it as a data URL
func (s *Server) handleQRCode(c *gin.Context) {
	var req struct {
		Value           string `json:"value" binding:"required"`
		ErrorCorrection string `json:"error_correction"`
		Size            int    `json:"size"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "value is required"})
		return
	}

	img, err := renderer.GenerateQRCode(req.Value, req.ErrorCorrection, req.Size)
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("failed to generate QR code: %v", err)})
		return
	}

	dataURL, err := renderer.EncodeDataURL(img)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("failed to encode QR code: %v", err)})
		return
	}

	s.store.Add(history.Entry{
		Kind:   history.KindGenerate,
		Value:  req.Value,
		Format: "QR",
	})

	c.JSON(200, gin.H{
		"success": true,
		"image":   dataURL,
	})
}

// handleSheet composes a full A4 print sheet from a code image and
// returns it as a data URL
func (s *Server) handleSheet(c *gin.Context) {
	var req struct {
		Image  string             `json:"image"`
		Code   *labelformat.Code  `json:"code"`
		Layout labelformat.Layout `json:"layout" binding:"required"`
		Label  labelformat.Label  `json:"label"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	// The code image comes either as a ready data URL or as a code
	// definition rendered here
	codeDataURL := req.Image
	if codeDataURL == "" {
		if req.Code == nil {
			c.JSON(400, gin.H{"error": "image or code is required"})
			return
		}
		img, err := renderer.CodeImage(*req.Code)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to generate code: %v", err)})
			return
		}
		codeDataURL, err = renderer.EncodeDataURL(img)
		if err != nil {
			c.JSON(500, gin.H{"error": fmt.Sprintf("failed to encode code: %v", err)})
			return
		}
	}

	sheet := &labelformat.Sheet{
		Version: "1.0",
		Layout:  req.Layout,
		Label:   req.Label,
	}
	labelformat.ApplyDefaults(sheet)

	if rows, cols := sheet.Layout.Rows, sheet.Layout.Cols; rows < 1 || cols < 1 {
		c.JSON(400, gin.H{"error": "layout rows and cols must be at least 1"})
		return
	}

	result, err := s.renderer.ComposeSheet(codeDataURL, sheet.Layout, sheet.Label)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("failed to compose sheet: %v", err)})
		return
	}

	if req.Code != nil {
		s.store.Add(history.Entry{
			Kind:        history.KindSheet,
			Value:       req.Code.Value,
			Format:      req.Code.Format,
			ProductName: req.Label.ProductName,
			ExpiryText:  req.Label.ExpiryText,
		})
	}

	c.JSON(200, gin.H{
		"success": true,
		"image":   result,
	})
}

// handleCreateJob queues a background sheet render job
func (s *Server) handleCreateJob(c *gin.Context) {
	var req struct {
		Sheet     *labelformat.Sheet `json:"sheet"`
		SheetPath string             `json:"sheet_path"`
		SheetURL  string             `json:"sheet_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	// Load sheet from path/URL if provided, otherwise use direct sheet
	var sheet *labelformat.Sheet
	var err error

	if req.SheetURL != "" {
		sheet, err = labelformat.LoadFromPathOrURL(req.SheetURL)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to load sheet from URL: %v", err)})
			return
		}
	} else if req.SheetPath != "" {
		sheet, err = labelformat.LoadFromPathOrURL(req.SheetPath)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("failed to load sheet from path: %v", err)})
			return
		}
	} else if req.Sheet != nil {
		sheet = req.Sheet
		labelformat.ApplyDefaults(sheet)
		if err := labelformat.Validate(sheet); err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("invalid sheet: %v", err)})
			return
		}
	} else {
		c.JSON(400, gin.H{"error": "sheet, sheet_path, or sheet_url is required"})
		return
	}

	jobID := s.queue.Enqueue(sheet)

	s.store.Add(history.Entry{
		Kind:        history.KindSheet,
		Value:       sheet.Code.Value,
		Format:      sheet.Code.Format,
		ProductName: sheet.Label.ProductName,
		ExpiryText:  sheet.Label.ExpiryText,
	})

	c.JSON(200, gin.H{
		"success": true,
		"job_id":  jobID,
	})
}

// handleGetJobs returns all render jobs
func (s *Server) handleGetJobs(c *gin.Context) {
	all := s.queue.GetAllJobs()

	// Convert to JSON-safe format
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

	c.JSON(200, gin.H{"jobs": jobsData})
}

// handleGetJob returns a specific render job
func (s *Server) handleGetJob(c *gin.Context) {
	jobID := c.Param("id")

	job := s.queue.GetJob(jobID)
	if job == nil {
		c.JSON(404, gin.H{"error": "job not found"})
		return
	}

	jobData := map[string]interface{}{
		"id":         job.ID,
		"status":     job.Status,
		"retries":    job.Retries,
		"pages":      job.Pages,
		"created_at": job.CreatedAt,
	}
	if job.Error != nil {
		jobData["error"] = job.Error.Error()
	}

	c.JSON(200, jobData)
}

// handleJobArchive bundles a completed job's pages into a ZIP download
func (s *Server) handleJobArchive(c *gin.Context) {
	jobID := c.Param("id")

	path, err := s.queue.ArchiveJob(jobID)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// handleScan decodes a barcode or QR code from an uploaded image
func (s *Server) handleScan(c *gin.Context) {
	var req struct {
		Image string `json:"image" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "image is required"})
		return
	}

	result, err := s.scanDataURL(req.Image)
	if err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"success": true,
		"value":   result.Value,
		"format":  result.Format,
	})
}

// scanDataURL decodes a data URL image and records a successful scan
func (s *Server) scanDataURL(dataURL string) (*scanner.Result, error) {
	img, err := renderer.DecodeDataURL(dataURL)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	result, err := scanner.Decode(img)
	if err != nil {
		return nil, err
	}

	s.store.Add(history.Entry{
		Kind:   history.KindScan,
		Value:  result.Value,
		Format: result.Format,
	})

	return result, nil
}

// handleOCR extracts text from an uploaded image and reports digit
// sequences that look like barcode numbers
func (s *Server) handleOCR(c *gin.Context) {
	var req struct {
		Image string `json:"image" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "image is required"})
		return
	}

	if !s.ocrClient.Available() {
		c.JSON(503, gin.H{"error": "OCR is not available: tesseract not found"})
		return
	}

	img, err := renderer.DecodeDataURL(req.Image)
	if err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("failed to decode image: %v", err)})
		return
	}

	text, err := s.ocrClient.ExtractText(c.Request.Context(), img)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("OCR failed: %v", err)})
		return
	}

	candidates := ocr.BarcodeCandidates(text)

	for _, candidate := range candidates {
		s.store.Add(history.Entry{
			Kind:   history.KindScan,
			Value:  candidate,
			Format: "EAN13",
		})
	}

	c.JSON(200, gin.H{
		"success":    true,
		"text":       text,
		"candidates": candidates,
	})
}

// handleChat answers a question about labeling rules
func (s *Server) handleChat(c *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "question is required"})
		return
	}

	if !s.chatbot.Configured() {
		c.JSON(503, gin.H{"error": "chat is not configured: GEMINI_API_KEY is not set"})
		return
	}

	answer, err := s.chatbot.Ask(c.Request.Context(), req.Question)
	if err != nil {
		c.JSON(502, gin.H{"error": fmt.Sprintf("chat failed: %v", err)})
		return
	}

	c.JSON(200, gin.H{
		"success":  true,
		"answer":   answer.Text,
		"snippets": answer.Snippets,
	})
}

// handleGetHistory returns recorded codes, newest first
func (s *Server) handleGetHistory(c *gin.Context) {
	entries := s.store.GetAll()

	c.JSON(200, gin.H{"history": entries})
}

// handleRemoveHistory removes one history entry
func (s *Server) handleRemoveHistory(c *gin.Context) {
	id := c.Param("id")

	if !s.store.Remove(id) {
		c.JSON(404, gin.H{"error": "history entry not found"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// handleClearHistory removes all history entries
func (s *Server) handleClearHistory(c *gin.Context) {
	s.store.Clear()

	c.JSON(200, gin.H{"success": true})
}

// handleCommand handles command execution requests
func (s *Server) handleCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "command is required"})
		return
	}

	result := s.executor.Execute(req.Command)

	if result.Success {
		statusCode := 200
		response := gin.H{
			"success": true,
		}
		if result.Message != "" {
			response["message"] = result.Message
		}
		if result.Data != nil {
			for k, v := range result.Data {
				response[k] = v
			}
		}
		c.JSON(statusCode, response)
	} else {
		c.JSON(400, gin.H{
			"success": false,
			"error":   result.Error,
		})
	}
}

// Run starts the API server
func (s *Server) Run(addr string) error {
	// Server started - log will be handled by caller
	return s.router.Run(addr)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
