package api

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type healthResponse struct {
	Status    string    `json:"status" example:"ok"`
	StartedAt time.Time `json:"startedAt"`
	Uptime    string    `json:"uptime" example:"1h2m3s"`
}

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	startupTime time.Time
}

func newHealthHandler(startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()
	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		startupTime: startupTime,
	}
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (h healthHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, healthResponse{
			Status:    "ok",
			StartedAt: h.startupTime,
			Uptime:    time.Since(h.startupTime).Round(time.Second).String(),
		})
	}
}

// mediaFileSystem serves files from the media root without directory listings.
type mediaFileSystem struct {
	fs http.FileSystem
}

func (m mediaFileSystem) Open(name string) (http.File, error) {
	f, err := m.fs.Open(name)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// mediaServer mounts root under prefix.
func mediaServer(prefix, root string) http.Handler {
	prefix = "/" + strings.Trim(prefix, "/")
	return http.StripPrefix(prefix, http.FileServer(mediaFileSystem{http.Dir(root)}))
}
