package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"lockin/internal/modules/daemon/dto"
	daemonout "lockin/internal/modules/daemon/port/out"
)

const maxMessageBytes = 1 << 20

// HTTPGateway exposes the message API as POST /v1/messages for browser
// extensions that cannot reach a unix socket.
type HTTPGateway struct {
	logger  *zap.Logger
	origins []string
}

// NewHTTPGateway accepts requests from the given origins only. An entry
// ending in "://" admits every origin with that scheme. Requests without an
// Origin header come from local tools and are always accepted.
func NewHTTPGateway(logger *zap.Logger, allowedOrigins []string) daemonout.Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPGateway{logger: logger.Named("http"), origins: allowedOrigins}
}

func (g *HTTPGateway) Serve(ctx context.Context, addr string, handler daemonout.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen http gateway: %w", err)
	}
	return g.serve(ctx, ln, handler)
}

func (g *HTTPGateway) serve(ctx context.Context, ln net.Listener, handler daemonout.Handler) error {
	srv := &http.Server{
		Handler:           NewGatewayHandler(handler, g.logger, g.origins...),
		ReadHeaderTimeout: 2 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	g.logger.Info("http gateway listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewGatewayHandler routes POST /v1/messages and GET /v1/healthz. Messages
// must be application/json so browsers always preflight cross-origin posts.
func NewGatewayHandler(handler daemonout.Handler, logger *zap.Logger, allowedOrigins ...string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, dto.OK(nil))
	})
	mux.HandleFunc("/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, dto.Response{Error: "use POST"})
			return
		}
		if origin := r.Header.Get("Origin"); origin != "" && !originAllowed(origin, allowedOrigins) {
			logger.Warn("rejected cross-origin message", zap.String("origin", origin))
			writeJSON(w, http.StatusForbidden, dto.Response{Error: "origin not allowed"})
			return
		}
		if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
			writeJSON(w, http.StatusUnsupportedMediaType, dto.Response{Error: "content type must be application/json"})
			return
		}
		var msg dto.Message
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&msg); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.Response{Error: "malformed message: " + err.Error()})
			return
		}
		resp := handler.Dispatch(r.Context(), msg)
		logger.Debug("message handled", zap.String("type", msg.Type), zap.Bool("ok", resp.OK))
		writeJSON(w, http.StatusOK, resp)
	})
	return mux
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if strings.HasSuffix(a, "://") {
			if strings.HasPrefix(origin, a) && len(origin) > len(a) {
				return true
			}
			continue
		}
		if strings.EqualFold(origin, a) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, resp dto.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
