package web

import (
    "bufio"
    "bytes"
    "errors"
    "fmt"
    "html/template"
    "io"
    "log/slog"
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"
    "github.com/jaminalder/tictactoe/internal/app"
    "github.com/jaminalder/tictactoe/internal/domain"
)

const defaultHeartbeat = 15 * time.Second

type handlers struct {
    svc       *app.Service
    tpl       *templates
    logger    *slog.Logger
    heartbeat time.Duration
    upgrader  websocket.Upgrader
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
    return renderTemplate(h.tpl.board, "", newBoardView(gs, errMsg))
}

func writeHTML(w http.ResponseWriter, b []byte) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(b)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    writeHTML(w, renderTemplate(h.tpl.index, "", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    gs, err := h.svc.CreateGame()
    if err != nil {
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    data := struct {
        ID        string
        BoardHTML template.HTML
    }{ID: gs.ID, BoardHTML: template.HTML(h.renderBoard(*gs, ""))}
    writeHTML(w, renderTemplate(h.tpl.game, "", data))
}

// rejectionMessage maps a rejected move to the alert shown above the board.
func rejectionMessage(reason error) string {
    switch {
    case errors.Is(reason, domain.ErrOccupied):
        return "Cell is occupied"
    case errors.Is(reason, domain.ErrOutOfBounds):
        return "Out of bounds"
    case errors.Is(reason, domain.ErrGameOver):
        return "Game is over"
    default:
        return "Invalid move"
    }
}

// parseCell reads a board position; anything unparsable becomes an
// out-of-range position so the engine rejects it.
func parseCell(s string) int {
    n, err := strconv.Atoi(s)
    if err != nil {
        return -1
    }
    return n
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    _ = r.ParseForm()
    gs, out, err := h.svc.Play(id, parseCell(r.Form.Get("cell")))
    if err != nil {
        http.NotFound(w, r)
        return
    }
    var errMsg string
    if !out.Accepted() {
        errMsg = rejectionMessage(out.Reason)
    }
    writeHTML(w, h.renderBoard(*gs, errMsg))
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    gs, err := h.svc.Restart(id)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    writeHTML(w, h.renderBoard(*gs, ""))
}

// writeEvent emits one SSE event; multi-line payloads get one data field per line.
func writeEvent(w io.Writer, event string, payload []byte) {
    _, _ = fmt.Fprintf(w, "event: %s\n", event)
    sc := bufio.NewScanner(bytes.NewReader(payload))
    for sc.Scan() {
        _, _ = fmt.Fprintf(w, "data: %s\n", sc.Text())
    }
    _, _ = io.WriteString(w, "\n")
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    defer unsub()
    ticker := time.NewTicker(h.heartbeat)
    defer ticker.Stop()
    w.WriteHeader(http.StatusOK)
    // current board first, so a (re)connecting page is never stale
    if gs, ok := h.svc.Get(id); ok {
        writeEvent(w, "board", h.renderBoard(*gs, ""))
    }
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case gs, ok := <-ch:
            if !ok {
                return
            }
            writeEvent(w, "board", h.renderBoard(gs, ""))
            flusher.Flush()
        }
    }
}
