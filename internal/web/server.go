package web

import (
    "log/slog"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/gorilla/websocket"
    "github.com/jaminalder/tictactoe/internal/app"
)

// NewServer wires routes and returns an http.Handler. A zero heartbeat uses
// the default SSE keep-alive interval.
func NewServer(s *app.Service, logger *slog.Logger, heartbeat time.Duration) http.Handler {
    if logger == nil {
        logger = slog.Default()
    }
    if heartbeat <= 0 {
        heartbeat = defaultHeartbeat
    }
    h := &handlers{
        svc:       s,
        tpl:       loadTemplates(),
        logger:    logger,
        heartbeat: heartbeat,
        upgrader: websocket.Upgrader{
            ReadBufferSize:  1024,
            WriteBufferSize: 1024,
        },
    }
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(requestLogger(logger))
    r.Use(middleware.Recoverer)
    r.Get("/", h.index)
    r.Post("/game", h.create)
    r.Route("/game/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Post("/play", h.play)
        r.Post("/restart", h.restart)
        r.Get("/events", h.events)
        r.Get("/ws", h.socket)
    })
    return r
}

// requestLogger logs one line per request once the handler returns.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            start := time.Now()
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            next.ServeHTTP(ww, r)
            logger.Debug("http request",
                "method", r.Method,
                "path", r.URL.Path,
                "status", ww.Status(),
                "bytes", ww.BytesWritten(),
                "duration", time.Since(start),
                "request_id", middleware.GetReqID(r.Context()),
            )
        })
    }
}
