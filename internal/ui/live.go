package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/google/uuid"

	"github.com/snapgather/snapgather/internal/canvas"
	"github.com/snapgather/snapgather/internal/catalog"
	"github.com/snapgather/snapgather/internal/session"
)

// TickMsg drives the periodic refresh of the live room view.
type TickMsg time.Time

const (
	refreshInterval = 250 * time.Millisecond
	moveStep        = 10.0
	defaultSize     = 64.0
)

// LiveOptions configures the interactive room view.
type LiveOptions struct {
	Session *session.Session
	Palette []catalog.Item // stickers available to place
	// CaptureCount reports how many photos have been captured so far.
	CaptureCount func() int
}

// liveRoomModel is the interactive view of a joined room: the member
// list, the shared canvas, and the keybindings that mutate it.
type liveRoomModel struct {
	opts    LiveOptions
	spinner spinner.Model

	cursor  int // selected sticker index in the sorted snapshot
	palette int // next palette entry to place
	status  string

	quitting bool
}

// RunLive runs the interactive room view until the user quits or the
// session ends. Inline mode keeps prior terminal output visible.
func RunLive(opts LiveOptions) error {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	model := &liveRoomModel{
		opts:    opts,
		spinner: s,
		status:  "Waiting for participants...",
	}

	program := tea.NewProgram(model)

	go func() {
		<-opts.Session.Done()
		program.Quit()
	}()

	_, err := program.Run()
	return err
}

func (m *liveRoomModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
			return TickMsg(t)
		}),
	)
}

func (m *liveRoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			return m, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		if !m.quitting {
			cmds = append(cmds, tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
				return TickMsg(t)
			}))
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *liveRoomModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	stickers := m.opts.Session.Stickers()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.opts.Session.Leave()
		return tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(stickers)-1 {
			m.cursor++
		}

	case "a":
		if len(m.opts.Palette) == 0 {
			m.status = "No stickers in palette"
			return nil
		}
		item := m.opts.Palette[m.palette%len(m.opts.Palette)]
		m.palette++
		m.opts.Session.AddSticker(item.Image, canvas.Rect{
			X: 0, Y: 0, W: defaultSize, H: defaultSize,
		})
		m.status = fmt.Sprintf("Placed %s", item.Name)

	case "c":
		if sticker, ok := m.selected(stickers); ok {
			m.toggleClaim(sticker)
		}

	case "d":
		if sticker, ok := m.selected(stickers); ok {
			if m.opts.Session.Delete(sticker.ID) {
				m.status = "Sticker deleted"
				if m.cursor > 0 {
					m.cursor--
				}
			} else {
				m.status = "Sticker is held by another participant"
			}
		}

	case "left", "right", "H", "J", "K", "L":
		if sticker, ok := m.selected(stickers); ok {
			m.moveSelected(sticker, msg.String())
		}

	case "p":
		m.opts.Session.RequestCapture()
		m.status = "Capture requested"
	}

	return nil
}

func (m *liveRoomModel) selected(stickers []canvas.Sticker) (canvas.Sticker, bool) {
	if len(stickers) == 0 {
		m.status = "No stickers on canvas"
		return canvas.Sticker{}, false
	}
	if m.cursor >= len(stickers) {
		m.cursor = len(stickers) - 1
	}
	return stickers[m.cursor], true
}

func (m *liveRoomModel) toggleClaim(sticker canvas.Sticker) {
	localID := m.opts.Session.LocalID()
	switch sticker.Owner {
	case localID:
		m.opts.Session.Release(sticker.ID)
		m.status = "Sticker released"
	case "":
		if m.opts.Session.Claim(sticker.ID) {
			m.status = "Sticker claimed"
		} else {
			m.status = "Claim lost"
		}
	default:
		m.status = "Sticker is held by another participant"
	}
}

func (m *liveRoomModel) moveSelected(sticker canvas.Sticker, key string) {
	if sticker.Owner != m.opts.Session.LocalID() {
		m.status = "Claim the sticker first (press c)"
		return
	}

	frame := sticker.Frame
	switch key {
	case "left", "H":
		frame.X -= moveStep
	case "right", "L":
		frame.X += moveStep
	case "K":
		frame.Y -= moveStep
	case "J":
		frame.Y += moveStep
	}
	m.opts.Session.Move(sticker.ID, frame)
}

func (m *liveRoomModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n%s Room %s\n\n",
		IconRoom, BoldStyle.Foreground(Primary).Render(m.opts.Session.RoomID())))

	members := m.opts.Session.Members()
	if len(members) == 0 {
		b.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(),
			MutedStyle.Render("Waiting for participants to join...")))
	} else {
		b.WriteString(fmt.Sprintf("%s Participants (%d):\n", IconPeer, len(members)+1))
		b.WriteString(fmt.Sprintf("    %s %s\n", shortID(m.opts.Session.LocalID()), MutedStyle.Render("(you)")))
		for _, member := range members {
			b.WriteString(fmt.Sprintf("    %s\n", shortID(member)))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.canvasView())

	if m.opts.CaptureCount != nil {
		if n := m.opts.CaptureCount(); n > 0 {
			b.WriteString(fmt.Sprintf("\n%s Photos captured: %d\n", IconCamera, n))
		}
	}

	if m.status != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", SubtitleStyle.Render(m.status)))
	}

	b.WriteString("\n" + MutedStyle.Render(
		"a: add sticker • c: claim/release • ←/→/J/K: move • d: delete • p: capture • q: leave"))

	return b.String()
}

func (m *liveRoomModel) canvasView() string {
	stickers := m.opts.Session.Stickers()
	if len(stickers) == 0 {
		return fmt.Sprintf("%s %s\n", IconCanvas, MutedStyle.Render("Canvas is empty"))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s Canvas (%d stickers):\n", IconCanvas, len(stickers)))

	localID := m.opts.Session.LocalID()
	for i, sticker := range stickers {
		cursor := "  "
		if i == m.cursor {
			cursor = BoldStyle.Foreground(Primary).Render("> ")
		}

		owner := ""
		switch sticker.Owner {
		case "":
		case localID:
			owner = SuccessStyle.Render(" [held by you]")
		default:
			owner = WarningStyle.Render(fmt.Sprintf(" %s held by %s", IconLocked, shortID(sticker.Owner)))
		}

		b.WriteString(fmt.Sprintf("  %s%s (%.0f, %.0f)%s\n",
			cursor, stickerName(sticker.ID, sticker.ImageURL), sticker.Frame.X, sticker.Frame.Y, owner))
	}

	return b.String()
}

func stickerName(id uuid.UUID, imageURL string) string {
	name := imageURL
	if idx := strings.LastIndex(imageURL, "/"); idx >= 0 && idx < len(imageURL)-1 {
		name = imageURL[idx+1:]
	}
	return fmt.Sprintf("%s %s", truncateString(name, 24), MutedStyle.Render(id.String()[:8]))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
