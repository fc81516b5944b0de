package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coinpulse/config"
	"coinpulse/logger"
	"coinpulse/storage"

	"github.com/minio/minio-go/v7"
)

// SPAHandler serves the dashboard's single-page-app shell: real files from
// the build directory, index.html for every other non-API path so
// client-side routing works after a refresh.
type SPAHandler struct {
	staticDir string
}

// NewSPAHandler creates a SPAHandler over the web build directory.
func NewSPAHandler(cfg *config.Config) *SPAHandler {
	return &SPAHandler{staticDir: cfg.WebAppDir}
}

// ServeHTTP implements the http.Handler interface.
func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
}

// MediaHandler serves self-hosted media (meme images) from MinIO. Only
// registered when MinIO is enabled.
type MediaHandler struct {
	cfg *config.Config
}

// NewMediaHandler creates a MediaHandler instance.
func NewMediaHandler(cfg *config.Config) *MediaHandler {
	return &MediaHandler{cfg: cfg}
}

// ServeHTTP implements the http.Handler interface.
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, "/media/")

	client := storage.GetMinioClient()
	if client == nil {
		http.Error(w, "Media storage not available", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	object, err := client.GetObject(ctx, h.cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", detectContentType(objectPath))
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if _, err := io.Copy(w, object); err != nil {
		logger.Error("Error serving file from MinIO", logger.ErrorField(err))
	}
}

// detectContentType picks a content type from the file extension.
func detectContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
