package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClient_PostFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"filename":"` + hdr.Filename + `","body":"` + string(data) + `","mode":"` + r.FormValue("mode") + `"}`))
	}))
	defer srv.Close()

	var got struct {
		Filename string `json:"filename"`
		Body     string `json:"body"`
		Mode     string `json:"mode"`
	}
	client := NewClient(srv.URL)
	err := client.PostFile(context.Background(), "/api/extract", Upload{
		FilePath: writeTempFile(t, "pdf-bytes"),
		Fields:   map[string]string{"mode": "auto"},
	}, &got)
	if err != nil {
		t.Fatalf("PostFile() error = %v", err)
	}
	if got.Filename != "doc.pdf" || got.Body != "pdf-bytes" || got.Mode != "auto" {
		t.Errorf("server saw %+v", got)
	}
}

func TestClient_PostFileDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Header().Set("Content-Disposition", "attachment; filename=extracted_output.md")
		w.Write([]byte("--- Page 1 ---\n# Title\n\n"))
	}))
	defer srv.Close()

	dl, err := NewClient(srv.URL).PostFileDownload(context.Background(), "/api/extract", Upload{
		FieldName: "file",
		FilePath:  writeTempFile(t, "x"),
	})
	if err != nil {
		t.Fatalf("PostFileDownload() error = %v", err)
	}
	if dl.Filename != "extracted_output.md" {
		t.Errorf("Filename = %q", dl.Filename)
	}
	if dl.ContentType != "text/markdown" {
		t.Errorf("ContentType = %q", dl.ContentType)
	}
	if string(dl.Data) != "--- Page 1 ---\n# Title\n\n" {
		t.Errorf("Data = %q", dl.Data)
	}
}

func TestClient_StatusError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantMsg string
	}{
		{"json error", `{"error":"unsupported format: \"yaml\""}`, http.StatusBadRequest, `unsupported format: "yaml"`},
		{"plain body", "upstream exploded", http.StatusBadGateway, "upstream exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL)
			_, err := client.PostFileDownload(context.Background(), "/api/extract", Upload{FilePath: writeTempFile(t, "x")})

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if se.StatusCode != tt.status || se.Message != tt.wantMsg {
				t.Errorf("StatusError = %d %q", se.StatusCode, se.Message)
			}

			if err := client.Get(context.Background(), "/status", nil); !errors.As(err, &se) {
				t.Errorf("Get() should also return *StatusError, got %v", err)
			}
		})
	}
}

func TestClient_PostFileMissing(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	err := client.PostFile(context.Background(), "/api/extract", Upload{FilePath: "/does/not/exist.pdf"}, nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestClient_WaitReady(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"starting"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if err := client.WaitReady(context.Background(), "/health", 5, 10*time.Millisecond); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_WaitReadyGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).WaitReady(context.Background(), "/health", 2, time.Millisecond)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected last StatusError, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}
