package web

import (
    "bytes"
    "html/template"

    "github.com/jaminalder/tictactoe/internal/app"
    "github.com/jaminalder/tictactoe/internal/domain"
)

type templates struct {
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "iter": func(n int) []int { a := make([]int, n); for i := range a { a[i] = i }; return a },
        "add":  func(a, b int) int { return a + b },
        "mul":  func(a, b int) int { return a * b },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(baseTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1 class="game--title">Tic Tac Toe</h1>
<form action="/game" method="post"><button>New game</button></form>`))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1 class="game--title">Tic Tac Toe</h1>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div sse-swap="board" hx-target="#board" hx-swap="outerHTML">{{.BoardHTML}}</div>
</div>`))
    board := template.Must(template.New("board").Funcs(funcs()).Parse(boardTemplate))
    return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const baseTemplate = `<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic Tac Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script>
<style>
.cell { width: 96px; height: 96px; font-size: 48px; }
.cell--x { color: #FDD835; text-shadow: 2px 2px 4px rgba(0, 0, 0, 0.3); }
.cell--o { color: #FF5722; text-shadow: 2px 2px 4px rgba(0, 0, 0, 0.3); }
.cell--winning { background: #333; }
.game--status { color: #FFFFFF; }
.game--status.game--over { color: #FDD835; }
</style>
</head><body>{{template "content" .}}</body></html>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <h2 class="game--status{{if not .Active}} game--over{{end}}">{{.Message}}</h2>
  {{/* 3x3 grid */}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}{{with index $.Cells (add (mul $r 3) $c)}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" action="/game/{{$.ID}}/play" method="post">
        <input type="hidden" name="cell" value="{{.Index}}">
        <button type="submit" class="{{.Class}}" data-cell-index="{{.Index}}"{{if not .Playable}} disabled{{end}}>{{.Symbol}}</button>
      </form>
    {{end}}{{end}}
  </div>
  {{end}}
  <form hx-post="/game/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML" action="/game/{{.ID}}/restart" method="post">
    <button type="submit" class="game--restart">Restart Game</button>
  </form>
</div>
`

type cellView struct {
    Index    int
    Symbol   string
    Class    string
    Playable bool
}

type boardView struct {
    ID      string
    Cells   [domain.Size]cellView
    Message string
    Active  bool
    Error   string
}

func newBoardView(gs app.GameState, errMsg string) boardView {
    g := gs.Game
    line, won := g.WinningLine()
    v := boardView{ID: gs.ID, Message: g.Message(), Active: g.Active(), Error: errMsg}
    for i, c := range g.Board() {
        class := "cell"
        switch c {
        case domain.X:
            class += " cell--x"
        case domain.O:
            class += " cell--o"
        }
        if won && line.Contains(i) {
            class += " cell--winning"
        }
        v.Cells[i] = cellView{
            Index:    i,
            Symbol:   c.String(),
            Class:    class,
            Playable: g.Active() && c == domain.Empty,
        }
    }
    return v
}
