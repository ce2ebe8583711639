package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"estimation-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 320

type Options struct {
	DefaultRoom string
	PublicURL   string
	Logger      *zap.Logger
}

// NewRouter mounts the WebSocket gateway and the room endpoints.
func NewRouter(service GameService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ws := NewWSHandler(service, opts.DefaultRoom, log)

	r := chi.NewRouter()
	r.Get("/healthz", healthz)
	r.Get("/ws", ws.ServeWS)
	r.Get("/rooms/{roomID}", roomSnapshot(service, log))
	r.Get("/rooms/{roomID}/qr", roomQR(opts.PublicURL, log))
	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func roomSnapshot(service GameService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := service.Snapshot(r.Context(), chi.URLParam(r, "roomID"))
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("room snapshot failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}

// roomQR renders a PNG QR code pointing players at the room's join URL.
func roomQR(publicURL string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := joinURL(publicURL, r, chi.URLParam(r, "roomID"))
		if err != nil {
			http.Error(w, "invalid public url", http.StatusInternalServerError)
			return
		}
		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			log.Error("qr generation failed", zap.Error(err))
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// joinURL builds base?room=id. Without a configured base it derives one from
// the request, honouring X-Forwarded-Proto.
func joinURL(publicURL string, r *http.Request, roomID string) (string, error) {
	base := publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host + "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("room", roomID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
