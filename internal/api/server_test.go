package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mkjmk-alt/label-engine/internal/chat"
	"github.com/mkjmk-alt/label-engine/internal/history"
	"github.com/mkjmk-alt/label-engine/internal/jobs"
	"github.com/mkjmk-alt/label-engine/internal/renderer"
)

func testServer(t *testing.T) (*Server, *history.Store, *jobs.Queue) {
	t.Helper()

	dir := t.TempDir()

	store, err := history.New(filepath.Join(dir, "history.json"))
	if err != nil {
		t.Fatalf("Failed to create history store: %v", err)
	}

	queue := jobs.NewQueue(renderer.New(), dir, 1)
	t.Cleanup(queue.Stop)

	return NewServer(renderer.New(), queue, store, chat.NewClient()), store, queue
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 && strings.Contains(w.Header().Get("Content-Type"), "json") {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
		}
	}

	return w, parsed
}

func TestHealth(t *testing.T) {
	s, _, _ := testServer(t)

	w, body := doJSON(t, s, http.MethodGet, "/health", nil)
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

func TestBarcodeEndpoint(t *testing.T) {
	s, store, _ := testServer(t)

	w, body := doJSON(t, s, http.MethodPost, "/barcode", map[string]interface{}{
		"value":  "8801234567893",
		"format": "EAN13",
	})
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	image, _ := body["image"].(string)
	if !strings.HasPrefix(image, "data:image/png;base64,") {
		t.Errorf("Expected a PNG data URL, got %.40q", image)
	}

	entries := store.GetAll()
	if len(entries) != 1 || entries[0].Kind != history.KindGenerate {
		t.Errorf("Expected one generate history entry, got %v", entries)
	}

	w, _ = doJSON(t, s, http.MethodPost, "/barcode", map[string]interface{}{
		"value":  "8801234567890",
		"format": "EAN13",
	})
	if w.Code != 400 {
		t.Errorf("Expected 400 for bad checksum, got %d", w.Code)
	}

	w, _ = doJSON(t, s, http.MethodPost, "/barcode", map[string]interface{}{})
	if w.Code != 400 {
		t.Errorf("Expected 400 for missing value, got %d", w.Code)
	}
}

func TestQRCodeEndpoint(t *testing.T) {
	s, _, _ := testServer(t)

	w, body := doJSON(t, s, http.MethodPost, "/qrcode", map[string]interface{}{
		"value": "https://example.com/p/1",
	})
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	image, _ := body["image"].(string)
	if !strings.HasPrefix(image, "data:image/png;base64,") {
		t.Errorf("Expected a PNG data URL, got %.40q", image)
	}
}

func TestSheetEndpoint(t *testing.T) {
	s, _, _ := testServer(t)

	w, body := doJSON(t, s, http.MethodPost, "/sheet", map[string]interface{}{
		"code": map[string]interface{}{
			"type":  "qrcode",
			"value": "https://example.com/p/1",
		},
		"layout": map[string]interface{}{
			"rows":     2,
			"cols":     2,
			"h_margin": 20,
			"v_margin": 20,
		},
		"label": map[string]interface{}{
			"product_name": "일반 감자칩 120g",
		},
	})
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	image, _ := body["image"].(string)
	img, err := renderer.DecodeDataURL(image)
	if err != nil {
		t.Fatalf("Expected a decodable sheet image: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 2480 || bounds.Dy() != 3508 {
		t.Errorf("Expected A4 sheet 2480x3508, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestSheetEndpoint_Errors(t *testing.T) {
	s, _, _ := testServer(t)

	w, _ := doJSON(t, s, http.MethodPost, "/sheet", map[string]interface{}{
		"layout": map[string]interface{}{"rows": 2, "cols": 2, "h_margin": 20, "v_margin": 20},
	})
	if w.Code != 400 {
		t.Errorf("Expected 400 without image or code, got %d", w.Code)
	}

	w, _ = doJSON(t, s, http.MethodPost, "/sheet", map[string]interface{}{
		"image":  "data:image/png;base64,not-base64!",
		"layout": map[string]interface{}{"rows": 2, "cols": 2, "h_margin": 20, "v_margin": 20},
	})
	if w.Code != 500 {
		t.Errorf("Expected 500 for an undecodable image, got %d", w.Code)
	}
}

func TestScanEndpoint_RoundTrip(t *testing.T) {
	s, store, _ := testServer(t)

	w, generated := doJSON(t, s, http.MethodPost, "/barcode", map[string]interface{}{
		"value":  "8801234567893",
		"format": "EAN13",
	})
	if w.Code != 200 {
		t.Fatalf("Expected 200 generating barcode, got %d", w.Code)
	}

	w, scanned := doJSON(t, s, http.MethodPost, "/scan", map[string]interface{}{
		"image": generated["image"],
	})
	if w.Code != 200 {
		t.Fatalf("Expected 200 scanning barcode, got %d: %s", w.Code, w.Body.String())
	}
	if scanned["value"] != "8801234567893" {
		t.Errorf("Expected scanned value 8801234567893, got %v", scanned["value"])
	}

	found := false
	for _, entry := range store.GetAll() {
		if entry.Kind == history.KindScan && entry.Value == "8801234567893" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a scan history entry")
	}
}

func TestScanEndpoint_NoCode(t *testing.T) {
	s, _, _ := testServer(t)

	white := image.NewRGBA(image.Rect(0, 0, 200, 200))
	draw.Draw(white, white.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	blank, err := renderer.EncodeDataURL(white)
	if err != nil {
		t.Fatalf("Failed to encode blank image: %v", err)
	}

	w, _ := doJSON(t, s, http.MethodPost, "/scan", map[string]interface{}{
		"image": blank,
	})
	if w.Code != 422 {
		t.Errorf("Expected 422 for an image without a code, got %d", w.Code)
	}
}

func TestJobEndpoints(t *testing.T) {
	s, _, queue := testServer(t)

	w, body := doJSON(t, s, http.MethodPost, "/jobs", map[string]interface{}{
		"sheet": map[string]interface{}{
			"version": "1.0",
			"code":    map[string]interface{}{"type": "qrcode", "value": "https://example.com/p/1"},
			"layout":  map[string]interface{}{"rows": 2, "cols": 2, "h_margin": 20, "v_margin": 20},
			"label":   map[string]interface{}{"product_name": "감자칩"},
		},
	})
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	jobID, _ := body["job_id"].(string)
	if jobID == "" {
		t.Fatal("Expected a job_id")
	}

	w, jobData := doJSON(t, s, http.MethodGet, "/job/"+jobID, nil)
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if jobData["id"] != jobID {
		t.Errorf("Expected job id %s, got %v", jobID, jobData["id"])
	}

	w, listData := doJSON(t, s, http.MethodGet, "/jobs", nil)
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	list, _ := listData["jobs"].([]interface{})
	if len(list) != 1 {
		t.Errorf("Expected 1 job in list, got %d", len(list))
	}

	w, _ = doJSON(t, s, http.MethodGet, "/job/job_0", nil)
	if w.Code != 404 {
		t.Errorf("Expected 404 for unknown job, got %d", w.Code)
	}

	// Archive becomes available once the job completes
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		job := queue.GetJob(jobID)
		if job != nil && job.Status == jobs.StatusCompleted {
			break
		}
		if job != nil && job.Status == jobs.StatusFailed {
			t.Fatalf("Job failed: %v", job.Error)
		}
		time.Sleep(50 * time.Millisecond)
	}

	req := httptest.NewRequest(http.MethodGet, "/job/"+jobID+"/archive", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("Expected 200 for archive, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, ".zip") {
		t.Errorf("Expected a zip attachment, got %q", got)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	s, store, _ := testServer(t)

	id := store.Add(history.Entry{Kind: history.KindScan, Value: "8801234567893", Format: "EAN13"})

	w, body := doJSON(t, s, http.MethodGet, "/history", nil)
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	entries, _ := body["history"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(entries))
	}

	w, _ = doJSON(t, s, http.MethodDelete, "/history/"+id, nil)
	if w.Code != 200 {
		t.Fatalf("Expected 200 removing entry, got %d", w.Code)
	}

	w, _ = doJSON(t, s, http.MethodDelete, "/history/"+id, nil)
	if w.Code != 404 {
		t.Errorf("Expected 404 removing missing entry, got %d", w.Code)
	}

	store.Add(history.Entry{Kind: history.KindGenerate, Value: "123"})
	w, _ = doJSON(t, s, http.MethodDelete, "/history", nil)
	if w.Code != 200 {
		t.Fatalf("Expected 200 clearing history, got %d", w.Code)
	}
	if len(store.GetAll()) != 0 {
		t.Error("Expected empty history after clear")
	}
}

func TestChatEndpoint_Unconfigured(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	s, _, _ := testServer(t)

	w, _ := doJSON(t, s, http.MethodPost, "/chat", map[string]interface{}{
		"question": "소비기한이 뭐야?",
	})
	if w.Code != 503 {
		t.Errorf("Expected 503 without API key, got %d", w.Code)
	}
}

func TestCommandEndpoint(t *testing.T) {
	s, _, _ := testServer(t)

	w, body := doJSON(t, s, http.MethodPost, "/command", map[string]interface{}{
		"command": "help",
	})
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	message, _ := body["message"].(string)
	if !strings.Contains(message, "sheet") {
		t.Errorf("Expected help text, got %q", message)
	}

	w, _ = doJSON(t, s, http.MethodPost, "/command", map[string]interface{}{
		"command": "frobnicate",
	})
	if w.Code != 400 {
		t.Errorf("Expected 400 for unknown command, got %d", w.Code)
	}
}
