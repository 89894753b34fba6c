// Command explorer runs the overlay engine against the reference host table
// in the terminal: a small collection tree you can browse folder-style.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	explorer "github.com/thiagoelbert/collection-explorer-for-zotero"
)

// pixels per terminal cell, for mapping the element tree's pixel geometry
// onto character columns.
const cellPx = 8

var (
	pollInterval time.Duration
	settleDelay  time.Duration
	fanout       int
	verbose      bool
)

func main() {
	root := &cobra.Command{
		Use:   "explorer",
		Short: "Browse a collection hierarchy through injected folder rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	root.Flags().DurationVar(&pollInterval, "poll", explorer.DefaultPollInterval, "selection poll interval")
	root.Flags().DurationVar(&settleDelay, "settle", explorer.DefaultSettleDelay, "post-navigation settle delay")
	root.Flags().IntVar(&fanout, "fanout", 3, "child collections per level in the demo fixture")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine activity to stderr")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	store := explorer.NewMemoryStore()
	seedFixture(store, fanout)

	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	host := explorer.NewHostTable([]explorer.HostColumn{
		{Label: "Title", Width: (width - 30) * cellPx},
		{Label: "Creator", Width: 20 * cellPx},
		{Label: "Year", Width: 8 * cellPx},
	}, 1*cellPx)

	nav := &demoNavigator{store: store, host: host}

	opts := []explorer.Option{
		explorer.WithPollInterval(pollInterval),
		explorer.WithSettleDelay(settleDelay),
		explorer.WithRowHeight(1 * cellPx),
	}
	if verbose {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		opts = append(opts, explorer.WithLogger(log))
	}

	eng := explorer.NewEngine(host, store, nav, opts...)
	eng.Start()
	defer eng.Shutdown()

	nav.NavigateToCollection("")

	m := model{engine: eng, host: host, store: store, nav: nav, width: width}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// seedFixture builds a three-level collection tree with a few items per
// collection.
func seedFixture(store *explorer.MemoryStore, fanout int) {
	names := []string{"Astronomy", "Biology", "Chemistry", "Drama", "Economics", "Folklore"}
	for i := 0; i < fanout && i < len(names); i++ {
		top := store.NewCollection(names[i], "")
		for j := 0; j < fanout; j++ {
			mid := store.NewCollection(fmt.Sprintf("%s %d", names[i], j+1), top.ID)
			for k := 0; k < fanout; k++ {
				store.NewCollection(fmt.Sprintf("%s %d.%d", names[i], j+1, k+1), mid.ID)
			}
			store.AddItems(mid.ID, []explorer.ItemID{
				explorer.ItemID(fmt.Sprintf("paper-%d-%d-a", i, j)),
				explorer.ItemID(fmt.Sprintf("paper-%d-%d-b", i, j)),
			})
		}
	}
}

// demoNavigator drives the host table when the engine asks for navigation.
type demoNavigator struct {
	store   *explorer.MemoryStore
	host    *explorer.HostTable
	history []explorer.CollectionID
	strip   string
}

func (n *demoNavigator) NavigateToCollection(id explorer.CollectionID) {
	n.host.SetSelectedCollection(n.store, id)
	var labels []string
	for _, it := range n.store.Items(id) {
		labels = append(labels, string(it))
	}
	n.host.SetItems(labels)
}

func (n *demoNavigator) PushToHistory(id explorer.CollectionID) {
	n.history = append(n.history, id)
}

func (n *demoNavigator) UpdateNavStrip(selected *explorer.Collection) {
	if selected == nil {
		n.strip = "My Library"
		return
	}
	parts := []string{selected.Name}
	for id := selected.ParentID; id != ""; {
		c := n.store.Collection(id)
		if c == nil {
			break
		}
		parts = append([]string{c.Name}, parts...)
		id = c.ParentID
	}
	n.strip = "My Library / " + strings.Join(parts, " / ")
}

type model struct {
	engine *explorer.Engine
	host   *explorer.HostTable
	store  *explorer.MemoryStore
	nav    *demoNavigator
	width  int
	height int
	cursor int
}

type tickMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.host.Root().SetSize(msg.Width*cellPx, msg.Height*cellPx)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.engine.Rows()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "down":
		if m.cursor < len(rows)-1 {
			m.cursor++
			explorer.DispatchEvent(rows[m.cursor], &explorer.Event{Type: explorer.EventClick})
		}
	case "up":
		if m.cursor > 0 {
			m.cursor--
			explorer.DispatchEvent(rows[m.cursor], &explorer.Event{Type: explorer.EventClick})
		}
	case "enter":
		if m.cursor >= 0 && m.cursor < len(rows) {
			explorer.DispatchEvent(rows[m.cursor], &explorer.Event{
				Type: explorer.EventKeyDown, Key: explorer.KeyEnter,
			})
			m.cursor = 0
		}
	case "backspace":
		m.cursor = 0
		current := m.store.SelectedCollection()
		if current == nil {
			return m, nil
		}
		parent, ok := m.store.Parent(current.ID)
		if !ok {
			m.nav.NavigateToCollection("")
		} else {
			m.nav.NavigateToCollection(parent)
		}
		m.engine.ScheduleRerender(0)
	}
	return m, nil
}

var (
	stripStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Underline(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

func (m model) View() string {
	var b strings.Builder
	b.WriteString(stripStyle.Render(m.nav.strip))
	b.WriteString("\n")

	var widths []int
	var labels []string
	for _, cell := range m.host.Header().Children() {
		w, _ := cell.Size()
		widths = append(widths, w/cellPx)
		labels = append(labels, cell.Attr("label"))
	}
	b.WriteString(headerStyle.Render(renderCells(labels, widths)))
	b.WriteString("\n")

	for _, row := range m.host.Body().Children() {
		b.WriteString(renderRow(row, widths))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("↑/↓ select · enter open · backspace up · q quit"))
	return b.String()
}

func renderRow(row explorer.Element, widths []int) string {
	label := row.Attr("label")
	icon := "  "
	if explorer.HasClass(row, "folder-row") {
		icon = "▸ "
		for _, cell := range row.Children() {
			for _, child := range cell.Children() {
				if explorer.HasClass(child, "label") {
					label = child.Attr("text")
				}
			}
		}
	}
	cells := make([]string, len(widths))
	if len(cells) > 0 {
		cells[0] = icon + label
	}
	line := renderCells(cells, widths)

	style := lipgloss.NewStyle()
	if bg := row.Attr("bg"); bg != "" {
		style = style.Background(lipgloss.Color(bg))
	}
	if fg := row.Attr("fg"); fg != "" {
		style = style.Foreground(lipgloss.Color(fg))
	}
	if row.Attr("selected") == "true" {
		style = style.Reverse(true)
	}
	return style.Render(line)
}

// renderCells lays out cell text into fixed-width character columns.
func renderCells(cells []string, widths []int) string {
	var b strings.Builder
	for i, w := range widths {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		text = runewidth.Truncate(text, w, "…")
		b.WriteString(runewidth.FillRight(text, w))
	}
	return b.String()
}
