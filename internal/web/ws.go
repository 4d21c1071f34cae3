package web

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/gorilla/websocket"
    "github.com/jaminalder/tictactoe/internal/app"
)

const (
    // Time allowed to write a message to the peer
    writeWait = 10 * time.Second

    // Time allowed to read the next pong message from the peer
    pongWait = 60 * time.Second

    // Send pings to peer with this period (must be less than pongWait)
    pingPeriod = (pongWait * 9) / 10

    maxMessageSize = 1024
    sendBufferSize = 16
)

// Client → server message types
const (
    msgPlay    = "play"
    msgRestart = "restart"
    msgPing    = "ping"
)

// Server → client message types
const (
    msgState    = "state"
    msgRejected = "rejected"
    msgPong     = "pong"
    msgError    = "error"
)

type clientMessage struct {
    Type string `json:"type"`
    Cell *int   `json:"cell,omitempty"`
}

type serverMessage struct {
    Type      string     `json:"type"`
    State     *stateView `json:"state,omitempty"`
    Reason    string     `json:"reason,omitempty"`
    Timestamp string     `json:"timestamp"`
}

// stateView is the JSON projection of a game for socket clients.
type stateView struct {
    ID      string    `json:"id"`
    Board   [9]string `json:"board"`
    Turn    string    `json:"turn"`
    Status  string    `json:"status"`
    Winner  string    `json:"winner,omitempty"`
    Line    []int     `json:"line,omitempty"`
    Message string    `json:"message"`
    Active  bool      `json:"active"`
    Moves   int       `json:"moves"`
}

func newStateView(gs app.GameState) *stateView {
    g := gs.Game
    v := &stateView{
        ID:      gs.ID,
        Turn:    g.Turn().String(),
        Status:  g.Status().String(),
        Winner:  g.Winner().String(),
        Message: g.Message(),
        Active:  g.Active(),
        Moves:   g.Moves(),
    }
    for i, c := range g.Board() {
        v.Board[i] = c.String()
    }
    if ln, ok := g.WinningLine(); ok {
        v.Line = ln[:]
    }
    return v
}

func newServerMessage(typ string, st *stateView, reason string) serverMessage {
    return serverMessage{
        Type:      typ,
        State:     st,
        Reason:    reason,
        Timestamp: time.Now().UTC().Format(time.RFC3339),
    }
}

// socketClient pumps one websocket connection. Only writePump writes to conn.
type socketClient struct {
    h      *handlers
    id     string
    conn   *websocket.Conn
    send   chan serverMessage
    cancel context.CancelFunc
}

func (h *handlers) socket(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    ctx, cancel := context.WithCancel(r.Context())
    defer cancel()
    // subscribe before taking the snapshot so no move falls between the two
    updates, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    defer unsub()
    conn, err := h.upgrader.Upgrade(w, r, nil)
    if err != nil {
        h.logger.Error("websocket upgrade failed", "error", err)
        return
    }
    gs, ok := h.svc.Get(id)
    if !ok {
        _ = conn.Close()
        return
    }

    c := &socketClient{h: h, id: id, conn: conn, send: make(chan serverMessage, sendBufferSize), cancel: cancel}
    c.send <- newServerMessage(msgState, newStateView(*gs), "")
    h.logger.Info("websocket connected", "game", id)

    go c.writePump(ctx, updates)
    c.readPump(ctx)
    h.logger.Info("websocket disconnected", "game", id)
}

func (c *socketClient) readPump(ctx context.Context) {
    defer c.cancel()
    c.conn.SetReadLimit(maxMessageSize)
    _ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
    c.conn.SetPongHandler(func(string) error {
        return c.conn.SetReadDeadline(time.Now().Add(pongWait))
    })
    for {
        _, data, err := c.conn.ReadMessage()
        if err != nil {
            if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
                c.h.logger.Debug("websocket read error", "game", c.id, "error", err)
            }
            return
        }
        c.handleMessage(ctx, data)
    }
}

func (c *socketClient) writePump(ctx context.Context, updates <-chan app.GameState) {
    ticker := time.NewTicker(pingPeriod)
    defer func() {
        ticker.Stop()
        _ = c.conn.Close()
    }()
    for {
        select {
        case <-ctx.Done():
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            _ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
            return
        case msg := <-c.send:
            if err := c.write(msg); err != nil {
                return
            }
        case gs, ok := <-updates:
            if !ok {
                // dropped as a slow subscriber
                return
            }
            if err := c.write(newServerMessage(msgState, newStateView(gs), "")); err != nil {
                return
            }
        case <-ticker.C:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }
        }
    }
}

func (c *socketClient) write(msg serverMessage) error {
    _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
    return c.conn.WriteJSON(msg)
}

func (c *socketClient) reply(ctx context.Context, msg serverMessage) {
    select {
    case c.send <- msg:
    case <-ctx.Done():
    }
}

// handleMessage applies one client command. Accepted moves and restarts come
// back through the game's broadcast; only rejections are answered directly.
func (c *socketClient) handleMessage(ctx context.Context, data []byte) {
    var msg clientMessage
    if err := json.Unmarshal(data, &msg); err != nil {
        c.reply(ctx, newServerMessage(msgError, nil, "invalid message format"))
        return
    }
    switch msg.Type {
    case msgPlay:
        pos := -1
        if msg.Cell != nil {
            pos = *msg.Cell
        }
        gs, out, err := c.h.svc.Play(c.id, pos)
        if err != nil {
            c.replyError(ctx, err)
            return
        }
        if !out.Accepted() {
            c.reply(ctx, newServerMessage(msgRejected, newStateView(*gs), out.Reason.Error()))
        }
    case msgRestart:
        if _, err := c.h.svc.Restart(c.id); err != nil {
            c.replyError(ctx, err)
        }
    case msgPing:
        c.reply(ctx, newServerMessage(msgPong, nil, ""))
    default:
        c.reply(ctx, newServerMessage(msgError, nil, "unknown message type"))
    }
}

func (c *socketClient) replyError(ctx context.Context, err error) {
    reason := "internal error"
    if errors.Is(err, app.ErrNotFound) {
        reason = err.Error()
    }
    c.reply(ctx, newServerMessage(msgError, nil, reason))
}
