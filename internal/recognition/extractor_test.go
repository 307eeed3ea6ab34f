package recognition

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPExtractor_Extract(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		_, _ = io.ReadAll(file)
		gotContentType = header.Header.Get("Content-Type")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 2,
			"model":       "buffalo_l",
			"faces": []map[string]any{
				{"face_index": 0, "dim": 3, "embedding": []float32{0.5, 0.25, -1}, "bbox": []float64{1, 2, 3, 4}, "det_score": 0.9},
				{"face_index": 1, "dim": 0, "embedding": []float32{}, "bbox": []float64{5, 6, 7, 8}, "det_score": 0.4},
			},
		})
	}))
	defer server.Close()

	ext := NewHTTPExtractor(server.URL+"/", 5*time.Second)
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0, 1, 2}
	faces, err := ext.Extract(context.Background(), jpeg)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("expected empty embeddings to be dropped, got %d faces", len(faces))
	}
	if faces[0].Encoding[1] != 0.25 || faces[0].Box[3] != 4 || faces[0].Score != 0.9 {
		t.Errorf("unexpected face %+v", faces[0])
	}
	if gotContentType != "image/jpeg" {
		t.Errorf("part Content-Type = %q, want image/jpeg", gotContentType)
	}
}

func TestHTTPExtractor_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewHTTPExtractor(server.URL, time.Second).Extract(context.Background(), []byte("whatever"))
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"bmp", []byte{0x42, 0x4D, 0, 0, 0, 0, 0, 0}, "image/bmp"},
		{"short", []byte{0xFF}, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMIMEType(tt.data); got != tt.want {
				t.Errorf("detectMIMEType() = %q, want %q", got, tt.want)
			}
		})
	}
}
