package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func NewChatCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()
			p := tea.NewProgram(newChatModel(c.Send), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
}

type sendFunc func(ctx context.Context, input string) (MessageReply, error)

type replyMsg struct {
	reply MessageReply
	err   error
}

type chatModel struct {
	send       sendFunc
	transcript []string
	input      string
	busy       bool
}

func newChatModel(send sendFunc) chatModel {
	return chatModel{
		send:       send,
		transcript: []string{"Welcome! Send 1 to see the menu."},
	}
}

func (m chatModel) Init() tea.Cmd {
	return nil
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				r := []rune(m.input)
				m.input = string(r[:len(r)-1])
			}
		case tea.KeyEnter:
			input := strings.TrimSpace(m.input)
			if input == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.input = ""
			m.transcript = append(m.transcript, "> "+input)
			return m, m.sendCmd(input)
		case tea.KeyRunes, tea.KeySpace:
			m.input += string(msg.Runes)
		}
	case replyMsg:
		m.busy = false
		if msg.err != nil {
			m.transcript = append(m.transcript, "error: "+msg.err.Error())
			return m, nil
		}
		m.transcript = append(m.transcript, msg.reply.Response)
		if msg.reply.Options != "" {
			m.transcript = append(m.transcript, msg.reply.Options)
		}
		if hint := paymentHint(msg.reply); hint != "" {
			m.transcript = append(m.transcript, hint)
		}
	}
	return m, nil
}

func (m chatModel) sendCmd(input string) tea.Cmd {
	send := m.send
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		reply, err := send(ctx, input)
		return replyMsg{reply: reply, err: err}
	}
}

func (m chatModel) View() string {
	b := &strings.Builder{}
	for _, line := range m.transcript {
		fmt.Fprintln(b, line)
		fmt.Fprintln(b)
	}
	if m.busy {
		fmt.Fprintln(b, "...")
	}
	fmt.Fprintf(b, "> %s\n", m.input)
	fmt.Fprintln(b, "\nenter to send, esc to quit")
	return b.String()
}
