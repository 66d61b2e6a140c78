package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/busdesk/internal/session"
)

// authDoneMsg carries the result of a login or register call.
type authDoneMsg struct {
	err error
}

// userCheckedMsg carries the result of the account lookup for an email.
type userCheckedMsg struct {
	email  string
	exists bool
	err    error
}

const (
	loginEmail = iota
	loginPassword
	loginName
)

// loginModel is the sign-in screen.
type loginModel struct {
	sess        *session.Store
	email       string
	password    string
	name        string
	focus       int
	registering bool
	busy        bool
	hint        string
}

func newLoginModel(sess *session.Store) loginModel {
	return loginModel{sess: sess}
}

func (m loginModel) fieldCount() int {
	if m.registering {
		return 3
	}
	return 2
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case userCheckedMsg:
		if msg.err != nil || msg.email != strings.TrimSpace(m.email) {
			return m, nil
		}
		switch {
		case msg.exists && m.registering:
			m.hint = "an account with this email exists, ctrl+n to sign in"
		case !msg.exists && !m.registering:
			m.hint = "no account with this email, ctrl+n to register"
		default:
			m.hint = ""
		}
		return m, nil

	case authDoneMsg:
		m.busy = false
		if msg.err == nil {
			m.password = ""
			m.hint = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+n":
			m.registering = !m.registering
			m.hint = ""
			if m.focus >= m.fieldCount() {
				m.focus = 0
			}
			return m, nil
		case "tab", "down":
			cmd := m.leaveField()
			m.focus = (m.focus + 1) % m.fieldCount()
			return m, cmd
		case "shift+tab", "up":
			cmd := m.leaveField()
			m.focus = (m.focus - 1 + m.fieldCount()) % m.fieldCount()
			return m, cmd
		case "enter":
			return m.submit()
		}
		switch m.focus {
		case loginEmail:
			m.email = editKey(m.email, msg)
		case loginPassword:
			m.password = editKey(m.password, msg)
		case loginName:
			m.name = editKey(m.name, msg)
		}
	}
	return m, nil
}

// leaveField looks up the account when focus moves off the email input.
func (m loginModel) leaveField() tea.Cmd {
	email := strings.TrimSpace(m.email)
	if m.focus != loginEmail || email == "" {
		return nil
	}
	sess := m.sess
	return func() tea.Msg {
		exists, err := sess.CheckUserExists(context.Background(), email)
		return userCheckedMsg{email: email, exists: exists, err: err}
	}
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.email)
	if email == "" || m.password == "" {
		m.hint = "email and password are required"
		return m, nil
	}
	if m.registering && strings.TrimSpace(m.name) == "" {
		m.hint = "name is required"
		return m, nil
	}
	m.busy = true
	m.hint = ""
	sess, password, name, registering := m.sess, m.password, strings.TrimSpace(m.name), m.registering
	return m, func() tea.Msg {
		ctx := context.Background()
		if registering {
			return authDoneMsg{err: sess.Register(ctx, email, name, password)}
		}
		return authDoneMsg{err: sess.Login(ctx, email, password)}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	title := "sign in"
	if m.registering {
		title = "register"
	}
	b.WriteString(" " + headerStyle.Render(title) + "\n\n")
	b.WriteString(" " + renderInput("email   ", m.email, "you@example.com", m.focus == loginEmail, false) + "\n")
	b.WriteString(" " + renderInput("password", m.password, "", m.focus == loginPassword, true) + "\n")
	if m.registering {
		b.WriteString(" " + renderInput("name    ", m.name, "your name", m.focus == loginName, false) + "\n")
	}
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(" " + dimStyle.Render("signing in…") + "\n")
	case m.hint != "":
		b.WriteString(" " + dimStyle.Render(m.hint) + "\n")
	case m.sess.LastError() != "":
		b.WriteString(" " + statusLine(m.sess.LastError(), true) + "\n")
	}
	return b.String()
}

func (m loginModel) helpKeys() string {
	toggle := "register"
	if m.registering {
		toggle = "sign in"
	}
	return helpBar("tab", "next", "enter", "submit", "ctrl+n", toggle, "ctrl+c", "quit")
}
