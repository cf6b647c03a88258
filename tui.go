package main

import (
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dictate/session"
	"dictate/surface"
)

// TUI message types
type statusMsg session.Status
type noticeMsg string
type redrawMsg struct{}

const (
	headerRows = 1
	maxNotices = 3
)

// tuiDisplay queues events for the program. Sends go through a buffered
// channel so the event loop itself can trigger them without blocking.
type tuiDisplay struct {
	out chan tea.Msg
}

func newTUIDisplay() *tuiDisplay {
	return &tuiDisplay{out: make(chan tea.Msg, 64)}
}

func (d *tuiDisplay) Status(s session.Status) { d.out <- statusMsg(s) }
func (d *tuiDisplay) Notice(msg string)       { d.out <- noticeMsg(msg) }

// Redraw is dropped when a redraw is already pending.
func (d *tuiDisplay) Redraw() {
	select {
	case d.out <- redrawMsg{}:
	default:
	}
}

func (d *tuiDisplay) forward(p *tea.Program) {
	for msg := range d.out {
		p.Send(msg)
	}
}

type tuiModel struct {
	app           *app
	combo         string
	status        session.Status
	notices       []string
	width, height int
}

func NewTUIProgram(a *app, combo string) *tea.Program {
	m := tuiModel{app: a, combo: combo}
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m, m.key(msg)

	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress {
			m.app.click(cellCenter(msg.X, msg.Y-headerRows))
		}

	case statusMsg:
		m.status = session.Status(msg)

	case noticeMsg:
		m.notices = append(m.notices, string(msg))
		if len(m.notices) > maxNotices {
			m.notices = m.notices[len(m.notices)-maxNotices:]
		}

	case redrawMsg:
	}
	return m, nil
}

func (m tuiModel) key(msg tea.KeyMsg) tea.Cmd {
	a := m.app
	switch msg.String() {
	case "ctrl+c", "alt+q":
		return tea.Quit
	case "ctrl+r":
		go a.toggle()
	case "tab":
		a.focusNext()
	case "esc":
		a.blur()
	case "backspace":
		a.backspace()
	case "left":
		a.moveCaret(0, -1)
	case "right":
		a.moveCaret(0, 1)
	case "up":
		a.moveCaret(-1, 0)
	case "down":
		a.moveCaret(1, 0)
	case "enter":
		a.typeText("\n")
	default:
		switch msg.Type {
		case tea.KeySpace:
			a.typeText(" ")
		case tea.KeyRunes:
			a.typeText(string(msg.Runes))
		}
	}
	return nil
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	caretStyle   = lipgloss.NewStyle().Reverse(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	statusStyles = map[session.Status]lipgloss.Style{
		session.Idle:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		session.Recording:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		session.Processing: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	status := statusStyles[m.status].Render(m.status.String())
	gap := max(m.width-lipgloss.Width("dictate")-lipgloss.Width(status), 1)
	b.WriteString(titleStyle.Render("dictate") + strings.Repeat(" ", gap) + status + "\n")

	rows := renderCanvas(m.app, m.width)
	for _, row := range rows {
		b.WriteString(row + "\n")
	}

	b.WriteString("\n")
	for _, n := range m.notices {
		b.WriteString(noticeStyle.Render(n) + "\n")
	}
	help := m.combo + " or ctrl+r to dictate · tab focus · esc blur · alt+q quit"
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

type cellKind int

const (
	cellText cellKind = iota
	cellLabel
	cellFocus
	cellCaret
	cellBadge
)

type grid struct {
	width int
	runes [][]rune
	kinds [][]cellKind
}

func newGrid(width, height int) *grid {
	g := &grid{width: width}
	for range height {
		g.runes = append(g.runes, []rune(strings.Repeat(" ", width)))
		g.kinds = append(g.kinds, make([]cellKind, width))
	}
	return g
}

func (g *grid) put(col, row int, s string, kind cellKind) {
	if row < 0 || row >= len(g.runes) {
		return
	}
	for _, r := range s {
		if col >= 0 && col < g.width {
			g.runes[row][col] = r
			g.kinds[row][col] = kind
		}
		col++
	}
}

func (g *grid) mark(col, row int, kind cellKind) {
	if row >= 0 && row < len(g.runes) && col >= 0 && col < g.width {
		g.kinds[row][col] = kind
	}
}

func (g *grid) lines() []string {
	out := make([]string, len(g.runes))
	for y, row := range g.runes {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && g.kinds[y][x] == g.kinds[y][start] {
				continue
			}
			b.WriteString(styleFor(g.kinds[y][start]).Render(string(row[start:x])))
			start = x
		}
		out[y] = b.String()
	}
	return out
}

func styleFor(k cellKind) lipgloss.Style {
	switch k {
	case cellLabel:
		return labelStyle
	case cellFocus:
		return focusStyle
	case cellCaret:
		return caretStyle
	case cellBadge:
		return badgeStyle
	}
	return lipgloss.NewStyle()
}

var labels = map[string]string{
	"title":  "Title",
	"notes":  "Notes",
	"editor": "Editor",
}

var badges = map[string]string{
	"recording":  "[●]",
	"processing": "[…]",
}

// renderCanvas lays the notepad out on the cell grid the surface measures
// with, so carets and overlays land where the document says they are.
func renderCanvas(a *app, width int) []string {
	width = max(width, 20)
	focused := a.ws.Focused()

	type block struct {
		col, row int
		lines    []string
		label    string
		focused  bool
	}
	var blocks []block
	height := 0
	for _, el := range a.elements() {
		col, row := toCell(el.Origin())
		lines := strings.Split(el.Text(), "\n")
		blocks = append(blocks, block{col, row, lines, labels[el.ID()], el == focused})
		height = max(height, row+len(lines)+1)
	}

	g := newGrid(width, height)
	for _, b := range blocks {
		kind := cellLabel
		if b.focused {
			kind = cellFocus
		}
		g.put(b.col, b.row-1, b.label, kind)
		for i, line := range b.lines {
			g.put(b.col, b.row+i, line, cellText)
		}
	}
	if focused != nil {
		if rect, ok := a.doc.CaretRect(); ok {
			col, row := toCell(surface.Point{X: rect.X, Y: rect.Y})
			g.mark(col, row, cellCaret)
		}
	}
	for _, o := range a.doc.Overlays() {
		col, row := badgeCell(o.Position())
		g.put(col, row, badges[o.Content()], cellBadge)
	}
	return g.lines()
}

func toCell(p surface.Point) (col, row int) {
	m := surface.DefaultMetrics
	return int(p.X / m.CellWidth), int(p.Y / m.LineHeight)
}

// badgeCell is the first cell whose center falls inside an overlay at p,
// so a click on the drawn badge hits the overlay.
func badgeCell(p surface.Point) (col, row int) {
	m := surface.DefaultMetrics
	return int(math.Ceil(p.X/m.CellWidth - 0.5)), int(math.Ceil(p.Y/m.LineHeight - 0.5))
}

func cellCenter(col, row int) surface.Point {
	m := surface.DefaultMetrics
	return surface.Point{X: (float64(col) + 0.5) * m.CellWidth, Y: (float64(row) + 0.5) * m.LineHeight}
}
