package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/busdesk/internal/session"
	"github.com/naveenspark/busdesk/internal/store"
	"github.com/naveenspark/busdesk/internal/view"
	"github.com/naveenspark/busdesk/pkg/domain"
)

type screen int

const (
	screenLogin screen = iota
	screenMain
)

// sessionChangedMsg is sent whenever the session store signals a change.
type sessionChangedMsg struct{}

// loadedMsg carries the result of loading every collection.
type loadedMsg struct {
	err error
}

// loggedOutMsg carries the result of the server logout.
type loggedOutMsg struct {
	err error
}

// App is the root Bubbletea model.
type App struct {
	sess    *session.Store
	stores  *store.Stores
	version string
	changes <-chan struct{}

	screen screen
	login  loginModel
	tabs   []tabModel
	active int
	status string
	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the console over a session and its caches.
func NewApp(sess *session.Store, stores *store.Stores, version string) App {
	changes, _ := sess.Subscribe()
	a := App{
		sess:    sess,
		stores:  stores,
		version: version,
		changes: changes,
		login:   newLoginModel(sess),
		tabs:    newTabs(stores),
	}
	if sess.IsAuth() {
		a.screen = screenMain
	}
	return a
}

// newTabs builds one tab per collection. Reference columns read the
// referenced caches on every recompute.
func newTabs(s *store.Stores) []tabModel {
	return []tabModel{
		newEntityTab(0, "provinces", s.Provinces,
			view.NewList[domain.Province](s.Provinces, view.ProvinceFields),
			provinceForm),
		newEntityTab(1, "cities", s.Cities,
			view.NewList[domain.City](s.Cities, func() []view.Field[domain.City] {
				return view.CityFields(s.Provinces.Items())
			}, s.Provinces),
			func() []formField[domain.City] { return cityForm(s) }),
		newEntityTab(2, "companies", s.Companies,
			view.NewList[domain.Company](s.Companies, view.CompanyFields),
			companyForm),
		newEntityTab(3, "routes", s.Routes,
			view.NewList[domain.Route](s.Routes, func() []view.Field[domain.Route] {
				return view.RouteFields(s.Companies.Items(), s.Cities.Items())
			}, s.Companies, s.Cities),
			func() []formField[domain.Route] { return routeForm(s) }),
		newEntityTab(4, "roles", s.Roles,
			view.NewList[domain.Role](s.Roles, view.RoleFields),
			roleForm),
		newEntityTab(5, "users", s.Users,
			view.NewList[domain.User](s.Users, func() []view.Field[domain.User] {
				return view.UserFields(s.Roles.Items())
			}, s.Roles),
			func() []formField[domain.User] { return userForm(s) }),
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{shimmerTickCmd(), a.listen()}
	if a.screen == screenMain {
		cmds = append(cmds, a.loadAll())
	}
	return tea.Batch(cmds...)
}

// listen waits for the next session change.
func (a App) listen() tea.Cmd {
	ch := a.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sessionChangedMsg{}
	}
}

func (a App) loadAll() tea.Cmd {
	stores := a.stores
	return func() tea.Msg {
		return loadedMsg{err: stores.FetchAll(context.Background())}
	}
}

func (a App) logout() tea.Cmd {
	sess := a.sess
	return func() tea.Msg {
		return loggedOutMsg{err: sess.Logout(context.Background())}
	}
}

// sync moves between the login and main screens to follow the session.
func (a App) sync() (App, tea.Cmd) {
	switch {
	case a.screen == screenLogin && a.sess.IsAuth():
		a.screen = screenMain
		a.status = ""
		return a, a.loadAll()
	case a.screen == screenMain && !a.sess.IsAuth():
		a.screen = screenLogin
		a.login = newLoginModel(a.sess)
	}
	return a, nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionChangedMsg:
		var cmd tea.Cmd
		a, cmd = a.sync()
		return a, tea.Batch(cmd, a.listen())

	case authDoneMsg:
		var cmd tea.Cmd
		a.login, _ = a.login.Update(msg)
		if msg.err == nil {
			a, cmd = a.sync()
		}
		return a, cmd

	case userCheckedMsg:
		a.login, _ = a.login.Update(msg)
		return a, nil

	case loadedMsg:
		if msg.err != nil {
			a.status = msg.err.Error()
		} else {
			a.status = ""
		}
		return a, nil

	case loggedOutMsg:
		a, _ = a.sync()
		if msg.err != nil {
			a.status = "signed out locally, server logout failed"
		}
		return a, nil

	case opDoneMsg:
		if msg.tab >= 0 && msg.tab < len(a.tabs) {
			a.tabs[msg.tab].done(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.screen == screenLogin {
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, cmd
		}

		tab := a.tabs[a.active]
		if !tab.editing() {
			switch key := msg.String(); key {
			case "q":
				return a, tea.Quit
			case "L":
				return a, a.logout()
			case "1", "2", "3", "4", "5", "6":
				a.active = int(key[0] - '1')
				return a, nil
			}
		}
		return a, tab.update(msg)
	}
	return a, nil
}

func (a App) View() string {
	// Header: centered shimmer logo
	logo := renderShimmerLogo(a.frame)
	header := center(logo, a.width)

	var sub string
	if u := a.sess.Identity(); u != nil && a.screen == screenMain {
		line := u.Name + " · " + u.Email
		if exp, ok := a.sess.ExpiresAt(); ok {
			line += " · token until " + formatDateTime(exp)
		}
		sub = metaStyle.Render(line)
	} else if a.version != "" {
		sub = metaStyle.Render(a.version)
	}
	header += "\n" + center(sub, a.width)

	var body, help, tabBar string
	switch a.screen {
	case screenLogin:
		body = a.login.View()
		help = a.login.helpKeys()
	case screenMain:
		tabBar = a.tabBar()
		body = a.tabs[a.active].view(a.width, a.height-5)
		help = a.tabs[a.active].helpKeys()
	}
	if a.status != "" {
		body += "\n " + statusLine(a.status, true)
	}

	// Chrome budget: header(2) + tabs(1) + help(1) = 4 lines + body
	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar, body, help)
}

// tabBar spreads the tab labels in equal-width columns.
func (a App) tabBar() string {
	colWidth := a.width / len(a.tabs)
	var b strings.Builder
	for i, t := range a.tabs {
		key := fmt.Sprintf("%d", i+1)
		var label string
		if i == a.active {
			label = accentStyle.Render(key) + " " + selectedStyle.Underline(true).Render(t.title())
		} else {
			label = metaStyle.Render(key) + " " + dimStyle.Render(t.title())
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		b.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}
	return b.String()
}

func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
