package web

import (
    "bufio"
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"
)

func dialGame(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
    t.Helper()
    u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/" + id + "/ws"
    conn, _, err := websocket.DefaultDialer.Dial(u, nil)
    if err != nil {
        t.Fatalf("dial: %v", err)
    }
    t.Cleanup(func() { conn.Close() })
    return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
    t.Helper()
    _ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
    var msg serverMessage
    if err := conn.ReadJSON(&msg); err != nil {
        t.Fatalf("read: %v", err)
    }
    return msg
}

func TestSocketPlayRejectRestart(t *testing.T) {
    svc, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()
    gs, _ := svc.CreateGame()
    conn := dialGame(t, srv, gs.ID)

    msg := readMessage(t, conn)
    if msg.Type != msgState || msg.State == nil || msg.State.Moves != 0 || msg.State.Turn != "X" {
        t.Fatalf("expected initial state, got %+v", msg)
    }

    if err := conn.WriteJSON(map[string]any{"type": "play", "cell": 4}); err != nil {
        t.Fatalf("write: %v", err)
    }
    msg = readMessage(t, conn)
    if msg.Type != msgState || msg.State.Board[4] != "X" || msg.State.Turn != "O" {
        t.Fatalf("expected broadcast state after move, got %+v", msg)
    }
    if msg.State.Message != "It's O's turn" || !msg.State.Active {
        t.Fatalf("unexpected status: %q active=%v", msg.State.Message, msg.State.Active)
    }

    if err := conn.WriteJSON(map[string]any{"type": "play", "cell": 4}); err != nil {
        t.Fatalf("write: %v", err)
    }
    msg = readMessage(t, conn)
    if msg.Type != msgRejected || msg.Reason != "cell occupied" || msg.State.Moves != 1 {
        t.Fatalf("expected occupied rejection, got %+v", msg)
    }

    if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
        t.Fatalf("write: %v", err)
    }
    if msg = readMessage(t, conn); msg.Type != msgPong {
        t.Fatalf("expected pong, got %+v", msg)
    }

    if err := conn.WriteJSON(map[string]any{"type": "restart"}); err != nil {
        t.Fatalf("write: %v", err)
    }
    msg = readMessage(t, conn)
    if msg.Type != msgState || msg.State.Moves != 0 || msg.State.Board[4] != "" {
        t.Fatalf("expected reset state, got %+v", msg)
    }

    if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
        t.Fatalf("write: %v", err)
    }
    if msg = readMessage(t, conn); msg.Type != msgError {
        t.Fatalf("expected error for malformed message, got %+v", msg)
    }
}

func TestSocketReportsWinningLine(t *testing.T) {
    svc, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()
    gs, _ := svc.CreateGame()
    conn := dialGame(t, srv, gs.ID)
    readMessage(t, conn)

    var msg serverMessage
    for _, cell := range []int{0, 3, 1, 4, 2} {
        if err := conn.WriteJSON(map[string]any{"type": "play", "cell": cell}); err != nil {
            t.Fatalf("write: %v", err)
        }
        msg = readMessage(t, conn)
    }
    if msg.State.Status != "won" || msg.State.Winner != "X" || msg.State.Active {
        t.Fatalf("expected X to have won, got %+v", msg.State)
    }
    if len(msg.State.Line) != 3 || msg.State.Line[0] != 0 || msg.State.Line[2] != 2 {
        t.Fatalf("expected top row reported, got %v", msg.State.Line)
    }
    if msg.State.Message != "Player X has won!" {
        t.Fatalf("unexpected message %q", msg.State.Message)
    }
}

func TestSocketUnknownGame(t *testing.T) {
    _, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()
    u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/missing/ws"
    _, resp, err := websocket.DefaultDialer.Dial(u, nil)
    if err == nil {
        t.Fatalf("expected dial to fail for unknown game")
    }
    if resp == nil || resp.StatusCode != http.StatusNotFound {
        t.Fatalf("expected 404 response, got %v", resp)
    }
}

func TestEventsStreamBoardUpdates(t *testing.T) {
    svc, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()
    gs, _ := svc.CreateGame()

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/game/"+gs.ID+"/events", nil)
    req.Header.Set("Accept", "text/event-stream")
    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        t.Fatalf("events request: %v", err)
    }
    defer resp.Body.Close()

    // the current board arrives first, then each update
    sc := bufio.NewScanner(resp.Body)
    boards := 0
    for sc.Scan() {
        line := sc.Text()
        if line == "event: board" {
            boards++
        }
        if !strings.Contains(line, "data-cell-index=\"8\"") {
            continue
        }
        switch boards {
        case 1:
            if strings.Contains(line, "cell--x") {
                t.Fatalf("initial board should have cell 8 empty, got %q", line)
            }
            if _, _, err := svc.Play(gs.ID, 8); err != nil {
                t.Fatalf("play: %v", err)
            }
        case 2:
            if !strings.Contains(line, "cell--x") {
                t.Fatalf("expected X in cell 8, got %q", line)
            }
            return
        }
    }
    t.Fatalf("board events not received: %v", sc.Err())
}

func TestEventsStartWithCurrentBoard(t *testing.T) {
    svc, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()
    gs, _ := svc.CreateGame()
    svc.Play(gs.ID, 0)
    svc.Play(gs.ID, 4)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/game/"+gs.ID+"/events", nil)
    req.Header.Set("Accept", "text/event-stream")
    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        t.Fatalf("events request: %v", err)
    }
    defer resp.Body.Close()

    sc := bufio.NewScanner(resp.Body)
    for sc.Scan() {
        line := sc.Text()
        if strings.Contains(line, "data-cell-index=\"4\"") {
            if !strings.Contains(line, "cell--o") {
                t.Fatalf("expected the first board to show O on 4, got %q", line)
            }
            return
        }
    }
    t.Fatalf("no initial board received: %v", sc.Err())
}

func TestSocketInitialStateIncludesEarlierMoves(t *testing.T) {
    svc, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()
    gs, _ := svc.CreateGame()
    svc.Play(gs.ID, 2)

    conn := dialGame(t, srv, gs.ID)
    msg := readMessage(t, conn)
    if msg.Type != msgState || msg.State.Board[2] != "X" || msg.State.Turn != "O" {
        t.Fatalf("expected initial state with X on 2, got %+v", msg)
    }

    // later moves are pushed to the already connected socket
    if _, _, err := svc.Play(gs.ID, 6); err != nil {
        t.Fatalf("play: %v", err)
    }
    msg = readMessage(t, conn)
    if msg.Type != msgState || msg.State.Board[6] != "O" {
        t.Fatalf("expected pushed state with O on 6, got %+v", msg)
    }
}

func TestTwoSocketsShareOneGame(t *testing.T) {
    svc, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()
    gs, _ := svc.CreateGame()
    a := dialGame(t, srv, gs.ID)
    b := dialGame(t, srv, gs.ID)
    readMessage(t, a)
    readMessage(t, b)

    if err := a.WriteJSON(map[string]any{"type": "play", "cell": 0}); err != nil {
        t.Fatalf("write: %v", err)
    }
    for _, conn := range []*websocket.Conn{a, b} {
        msg := readMessage(t, conn)
        if msg.Type != msgState || msg.State.Board[0] != "X" {
            t.Fatalf("expected both displays to see X on 0, got %+v", msg)
        }
    }

    // the engine's turn, not the connection, decides the symbol
    if err := b.WriteJSON(map[string]any{"type": "play", "cell": 1}); err != nil {
        t.Fatalf("write: %v", err)
    }
    for _, conn := range []*websocket.Conn{a, b} {
        msg := readMessage(t, conn)
        if msg.State.Board[1] != "O" || msg.State.Turn != "X" {
            t.Fatalf("expected O on 1 and X to move, got %+v", msg.State)
        }
    }
}
