package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/photo-annotator/internal/constants"
	"github.com/kozaktomas/photo-annotator/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Create handlers
	uploadHandler := handlers.NewUploadHandler(s.store, s.orchestrator)
	annotateHandler := handlers.NewAnnotateHandler(s.store, s.orchestrator)
	cleanupHandler := handlers.NewCleanupHandler(s.store)
	configHandler := handlers.NewConfigHandler(s.config, s.detector)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/config", configHandler.Get)

		r.Post("/upload", uploadHandler.Upload)
		r.Post("/annotate", annotateHandler.Annotate)
		r.Post("/cleanup", cleanupHandler.Cleanup)
	})

	// Stored images and detection artifacts
	s.mountDir(constants.UploadsURLPrefix, s.config.Storage.UploadDir)
	s.mountDir(constants.ArtifactsURLPrefix, s.config.Storage.ArtifactsDir)

	s.router.Get("/", serveIndex)
}

// mountDir serves the files of dir under prefix. Directory listings are not exposed.
func (s *Server) mountDir(prefix, dir string) {
	if dir == "" {
		return
	}
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	s.router.Get(prefix+"*", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == prefix || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		fileServer.ServeHTTP(w, r)
	})
}

// serveIndex returns a minimal page describing the API.
func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Photo Annotator</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
        code { background: #2a2a3e; padding: 2px 8px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Photo Annotator</h1>
        <p>Upload an image with <code>POST /api/v1/upload</code>, then detect objects with <code>POST /api/v1/annotate</code>.</p>
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
