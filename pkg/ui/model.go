// Package ui renders a single hand's table state to a terminal using
// bubbletea and lipgloss, scaled down to one screen: a community-card/
// pot/player layout plus an action menu driven by pkg/rpcserver's
// EngineClient.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vctt94/holdemcore/pkg/rpcserver"
)

// actionOption is one entry of the action menu; legality against the
// current betToMatch is decided server-side, the menu just
// offers the common cases and lets ProcessAction reject the illegal
// ones.
type actionOption string

const (
	actionCheck actionOption = "Check"
	actionCall  actionOption = "Call"
	actionBet   actionOption = "Bet"
	actionRaise actionOption = "Raise"
	actionFold  actionOption = "Fold"
)

var actionMenu = []actionOption{actionCheck, actionCall, actionBet, actionRaise, actionFold}

// handViewMsg carries a freshly fetched HandView into Update.
type handViewMsg struct {
	view *rpcserver.HandView
	err  error
}

// roomEventMsg carries one event off the StreamRoomEvents subscription.
type roomEventMsg struct {
	event *rpcserver.RoomEvent
	err   error
}

// TableModel is the bubbletea model for one hand's table view.
type TableModel struct {
	ctx      context.Context
	client   rpcserver.EngineClient
	userID   string
	handID   string
	stream   rpcserver.Engine_StreamRoomEventsClient
	view     *rpcserver.HandView
	err      error
	selected int
	amount   string
	entering bool
	message  string
}

// NewTableModel builds a TableModel that follows handID as userID,
// streaming roomID's events for live updates.
func NewTableModel(ctx context.Context, client rpcserver.EngineClient, roomID, handID, userID string) *TableModel {
	m := &TableModel{
		ctx:    ctx,
		client: client,
		userID: userID,
		handID: handID,
		amount: "0",
	}
	if stream, err := client.StreamRoomEvents(ctx, &rpcserver.StreamRoomEventsRequest{RoomID: roomID}); err == nil {
		m.stream = stream
	}
	return m
}

func (m *TableModel) Init() tea.Cmd {
	return tea.Batch(m.fetchHandCmd(), m.nextEventCmd())
}

func (m *TableModel) fetchHandCmd() tea.Cmd {
	return func() tea.Msg {
		view, err := m.client.GetHand(m.ctx, &rpcserver.GetHandRequest{
			HandID:           m.handID,
			RequestingUserID: m.userID,
		})
		return handViewMsg{view: view, err: err}
	}
}

func (m *TableModel) nextEventCmd() tea.Cmd {
	return func() tea.Msg {
		if m.stream == nil {
			return roomEventMsg{err: nil}
		}
		ev, err := m.stream.Recv()
		return roomEventMsg{event: ev, err: err}
	}
}

func (m *TableModel) actCmd(actionType string, amount int64) tea.Cmd {
	return func() tea.Msg {
		view, err := m.client.ProcessAction(m.ctx, &rpcserver.ProcessActionRequest{
			HandID:     m.handID,
			PlayerID:   m.userID,
			ActionType: actionType,
			Amount:     amount,
		})
		return handViewMsg{view: view, err: err}
	}
}

func (m *TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case handViewMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.view = msg.view
		return m, nil
	case roomEventMsg:
		if msg.err != nil {
			return m, nil
		}
		if msg.event != nil && msg.event.HandID == m.handID {
			return m, tea.Batch(m.fetchHandCmd(), m.nextEventCmd())
		}
		return m, m.nextEventCmd()
	}
	return m, nil
}

func (m *TableModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.entering {
		switch msg.String() {
		case "enter":
			m.entering = false
			amount, _ := strconv.ParseInt(m.amount, 10, 64)
			return m, m.actCmd("RAISE", amount)
		case "esc":
			m.entering = false
			return m, nil
		case "backspace":
			if len(m.amount) > 0 {
				m.amount = m.amount[:len(m.amount)-1]
			}
			return m, nil
		default:
			if len(msg.String()) == 1 && msg.String()[0] >= '0' && msg.String()[0] <= '9' {
				m.amount += msg.String()
			}
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.selected = max(0, m.selected-1)
	case "down", "j":
		m.selected = min(len(actionMenu)-1, m.selected+1)
	case "enter":
		switch actionMenu[m.selected] {
		case actionBet, actionRaise:
			m.entering = true
			m.amount = "0"
		case actionCheck:
			return m, m.actCmd("CHECK", 0)
		case actionCall:
			return m, m.actCmd("CALL", 0)
		case actionFold:
			return m, m.actCmd("FOLD", 0)
		}
	}
	return m, nil
}

func (m *TableModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("hold'em") + "\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()) + "\n")
	}

	if m.view == nil {
		b.WriteString("loading...\n")
		return b.String()
	}

	cardsLine := make([]string, 0, len(m.view.CommunityCards))
	for _, c := range m.view.CommunityCards {
		cardsLine = append(cardsLine, cardGlyph(c))
	}
	b.WriteString(strings.Join(cardsLine, "") + "\n")
	b.WriteString(potStyle.Render(fmt.Sprintf("pot %d", m.view.PotTotal)) + "\n\n")

	for _, p := range m.view.Players {
		style := playerBoxStyle
		switch {
		case p.UserID == m.view.CurrentPlayerID:
			style = currentPlayerStyle
		case p.UserID == m.userID:
			style = youPlayerStyle
		case p.Status == "FOLDED":
			style = foldedPlayerStyle
		}
		hole := strings.Join(p.HoleCards, " ")
		if hole == "" {
			hole = "??"
		}
		b.WriteString(style.Render(fmt.Sprintf("%s seat%d stack%d bet%d %s", p.Nickname, p.Seat, p.Stack, p.BetTotal, hole)) + "\n")
	}

	b.WriteString("\n")
	for i, a := range actionMenu {
		s := actionButtonStyle
		if i == m.selected {
			s = selectedActionStyle
		}
		b.WriteString(s.Render(string(a)))
	}
	b.WriteString("\n")

	if m.entering {
		b.WriteString(fmt.Sprintf("\namount: %s (enter to confirm, esc to cancel)\n", m.amount))
	}

	if m.message != "" {
		b.WriteString("\n" + m.message + "\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ select · enter act · q quit"))
	return b.String()
}
