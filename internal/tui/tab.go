package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/busdesk/internal/store"
	"github.com/naveenspark/busdesk/internal/view"
	"github.com/naveenspark/busdesk/pkg/domain"
)

// tabModel is one collection screen of the main view.
type tabModel interface {
	title() string
	update(msg tea.KeyMsg) tea.Cmd
	done(msg opDoneMsg)
	fetch() tea.Cmd
	editing() bool
	helpKeys() string
	view(width, height int) string
}

// opDoneMsg reports the end of a request started by a tab.
type opDoneMsg struct {
	tab int
	op  string
	err error
}

type tabMode int

const (
	modeList tabMode = iota
	modeForm
	modeConfirmDelete
)

// entityTab lists one cache and edits its records in a form.
type entityTab[T domain.Entity] struct {
	index int
	name  string
	cache *store.Cache[T]
	list  *view.List[T]
	form  func() []formField[T]

	mode      tabMode
	cursor    int
	searching bool
	focus     int
	inputs    []string
	status    string
	statusErr bool
}

func newEntityTab[T domain.Entity](index int, name string, cache *store.Cache[T], list *view.List[T], form func() []formField[T]) *entityTab[T] {
	return &entityTab[T]{index: index, name: name, cache: cache, list: list, form: form}
}

func (t *entityTab[T]) title() string { return t.name }

func (t *entityTab[T]) editing() bool { return t.searching || t.mode != modeList }

func (t *entityTab[T]) fetch() tea.Cmd {
	return t.run("fetch", func(ctx context.Context) error { return t.cache.FetchAll(ctx) })
}

func (t *entityTab[T]) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	index := t.index
	return func() tea.Msg {
		return opDoneMsg{tab: index, op: op, err: fn(context.Background())}
	}
}

func (t *entityTab[T]) done(msg opDoneMsg) {
	if msg.err != nil {
		t.setStatus(errorText(msg.err), true)
		return
	}
	switch msg.op {
	case "save":
		t.cache.DiscardDraft()
		t.cache.ResetCurrent()
		t.mode = modeList
		t.setStatus("saved", false)
	case "delete":
		t.setStatus("deleted", false)
	case "fetch":
		t.setStatus("", false)
	}
	t.clampCursor()
}

// errorText prefers the cache's own description of a request failure.
func errorText(err error) string {
	var opErr *store.OpError
	if errors.As(err, &opErr) && opErr.Kind == store.KindPrecondition {
		return opErr.Err.Error()
	}
	return err.Error()
}

func (t *entityTab[T]) setStatus(msg string, isErr bool) {
	t.status = msg
	t.statusErr = isErr
}

func (t *entityTab[T]) selected() (T, bool) {
	items := t.list.Items()
	if t.cursor < 0 || t.cursor >= len(items) {
		var zero T
		return zero, false
	}
	return items[t.cursor], true
}

func (t *entityTab[T]) clampCursor() {
	n := len(t.list.Items())
	if t.cursor >= n {
		t.cursor = n - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

func (t *entityTab[T]) update(msg tea.KeyMsg) tea.Cmd {
	switch t.mode {
	case modeForm:
		return t.updateForm(msg)
	case modeConfirmDelete:
		return t.updateConfirm(msg)
	}
	if t.searching {
		t.updateSearch(msg)
		return nil
	}

	switch msg.String() {
	case "j", "down":
		if t.cursor < len(t.list.Items())-1 {
			t.cursor++
		}
	case "k", "up":
		if t.cursor > 0 {
			t.cursor--
		}
	case "g":
		t.cursor = 0
	case "G":
		t.cursor = len(t.list.Items()) - 1
		t.clampCursor()
	case "/":
		t.searching = true
	case "s":
		field := t.list.NextSort()
		if field == "" {
			t.setStatus("unsorted", false)
		} else {
			t.setStatus("sorted by "+field, false)
		}
	case "o":
		t.setStatus("order "+t.list.ToggleDirection().String(), false)
	case "r":
		t.setStatus("loading…", false)
		return t.fetch()
	case "n":
		t.cache.ResetCurrent()
		t.openForm()
	case "e", "enter":
		item, ok := t.selected()
		if !ok {
			return nil
		}
		t.cache.SetCurrent(item)
		t.cache.SetDraft(item)
		t.openForm()
	case "d":
		if _, ok := t.selected(); ok {
			t.mode = modeConfirmDelete
		}
	case "c":
		item, ok := t.selected()
		if !ok {
			return nil
		}
		if err := clipboard.WriteAll(item.DisplayName()); err != nil {
			t.setStatus("clipboard unavailable", true)
		} else {
			t.setStatus("copied "+item.DisplayName(), false)
		}
	}
	return nil
}

func (t *entityTab[T]) updateSearch(msg tea.KeyMsg) {
	switch msg.String() {
	case "enter":
		t.searching = false
	case "esc":
		t.searching = false
		t.list.SetQuery("")
	default:
		t.list.SetQuery(editKey(t.list.Query(), msg))
	}
	t.cursor = 0
}

func (t *entityTab[T]) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	t.mode = modeList
	if msg.String() != "y" {
		return nil
	}
	item, ok := t.selected()
	if !ok {
		return nil
	}
	return t.run("delete", func(ctx context.Context) error { return t.cache.Delete(ctx, item) })
}

// openForm loads the current slot into the form inputs.
func (t *entityTab[T]) openForm() {
	t.mode = modeForm
	t.focus = 0
	t.loadInputs()
	t.setStatus("", false)
}

func (t *entityTab[T]) loadInputs() {
	current := t.cache.Current()
	fields := t.form()
	t.inputs = make([]string, len(fields))
	for i, f := range fields {
		t.inputs[i] = f.get(current)
	}
}

// apply writes the inputs over the current slot.
func (t *entityTab[T]) apply() (T, error) {
	item := t.cache.Current()
	for i, f := range t.form() {
		next, err := f.set(item, t.inputs[i])
		if err != nil {
			return item, err
		}
		item = next
	}
	return item, nil
}

func (t *entityTab[T]) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		// First esc drops the edits, the second closes the form.
		if t.dirty() {
			t.cache.RestoreFromDraft()
			t.loadInputs()
			t.setStatus("changes discarded", false)
			return nil
		}
		t.cache.DiscardDraft()
		t.cache.ResetCurrent()
		t.mode = modeList
		t.setStatus("", false)
	case "tab", "down":
		t.commitField()
		t.focus = (t.focus + 1) % len(t.inputs)
	case "shift+tab", "up":
		t.commitField()
		t.focus = (t.focus - 1 + len(t.inputs)) % len(t.inputs)
	case "ctrl+s":
		item, err := t.apply()
		if err != nil {
			t.setStatus(err.Error(), true)
			return nil
		}
		t.cache.SetCurrent(item)
		t.setStatus("saving…", false)
		return t.run("save", func(ctx context.Context) error {
			var err error
			if item.EntityID() == domain.UnsavedID {
				_, err = t.cache.Create(ctx, item)
			} else {
				_, err = t.cache.Update(ctx, item)
			}
			return err
		})
	default:
		t.inputs[t.focus] = editKey(t.inputs[t.focus], msg)
	}
	return nil
}

// commitField copies the focused input into the current slot.
func (t *entityTab[T]) commitField() {
	f := t.form()[t.focus]
	item, err := f.set(t.cache.Current(), t.inputs[t.focus])
	if err != nil {
		t.setStatus(err.Error(), true)
		return
	}
	t.cache.SetCurrent(item)
	t.setStatus("", false)
}

// dirty reports whether the inputs differ from the draft slot.
func (t *entityTab[T]) dirty() bool {
	draft := t.cache.Draft()
	for i, f := range t.form() {
		if f.masked {
			if t.inputs[i] != "" {
				return true
			}
			continue
		}
		if t.inputs[i] != f.get(draft) {
			return true
		}
	}
	return false
}

func (t *entityTab[T]) helpKeys() string {
	switch {
	case t.mode == modeForm:
		return helpBar("tab", "next", "ctrl+s", "save", "esc", "undo/close")
	case t.mode == modeConfirmDelete:
		return helpBar("y", "delete", "any", "cancel")
	case t.searching:
		return helpBar("enter", "keep", "esc", "clear")
	}
	return helpBar("1-6", "tabs", "j/k", "nav", "/", "search", "s", "sort", "o", "order",
		"n", "new", "e", "edit", "d", "delete", "c", "copy", "r", "reload", "L", "logout", "q", "quit")
}

func (t *entityTab[T]) view(width, height int) string {
	if t.mode == modeForm {
		return t.viewForm()
	}
	return t.viewList(width, height)
}

func (t *entityTab[T]) viewForm() string {
	var b strings.Builder
	heading := "new " + t.name
	if t.cache.Current().EntityID() != domain.UnsavedID {
		heading = "edit " + t.cache.Draft().DisplayName()
	}
	b.WriteString(" " + headerStyle.Render(heading) + "\n\n")
	for i, f := range t.form() {
		b.WriteString(" " + renderInput(padRight(f.label, 12), t.inputs[i], "", i == t.focus, f.masked) + "\n")
	}
	if t.status != "" {
		b.WriteString("\n " + statusLine(t.status, t.statusErr) + "\n")
	}
	return b.String()
}

func (t *entityTab[T]) viewList(width, height int) string {
	var b strings.Builder

	// Search / sort line
	sortBy, dir := t.list.Sort()
	meta := metaStyle.Render(fmt.Sprintf("%d %s", len(t.list.Items()), t.name))
	if sortBy != "" {
		meta += metaStyle.Render(fmt.Sprintf(" · %s %s", sortBy, dir))
	}
	if t.searching || t.list.Query() != "" {
		q := searchStyle.Render("/" + t.list.Query())
		if t.searching {
			q += accentStyle.Render("█")
		}
		meta = q + "  " + meta
	}
	if t.cache.Loading() {
		meta += "  " + dimStyle.Render("loading…")
	}
	b.WriteString(" " + meta + "\n")

	columns := t.list.Columns()
	if len(columns) == 0 {
		return b.String()
	}
	colWidth := (width - 2) / len(columns)
	if colWidth < 6 {
		colWidth = 6
	}

	var head strings.Builder
	for _, c := range columns {
		label := c.Name
		if c.Name == sortBy {
			label += arrow(dir)
		}
		head.WriteString(padRight(truncStr(label, colWidth-1), colWidth))
	}
	b.WriteString(" " + headerStyle.Render(head.String()) + "\n")

	items := t.list.Items()
	if len(items) == 0 {
		if t.list.Query() != "" {
			b.WriteString(" " + dimStyle.Render("no matches") + "\n")
		} else {
			b.WriteString(" " + dimStyle.Render("nothing here yet") + "\n")
		}
	}

	// Header(2) + detail(2) + status(1)
	rows := height - 5
	if rows < 1 {
		rows = 1
	}
	start := 0
	if t.cursor >= rows {
		start = t.cursor - rows + 1
	}
	for i := start; i < len(items) && i < start+rows; i++ {
		var row strings.Builder
		for _, c := range columns {
			row.WriteString(padRight(truncStr(c.Value(items[i]), colWidth-1), colWidth))
		}
		if i == t.cursor {
			b.WriteString(selectedRowBg.Render(accentStyle.Render("▸") + selectedStyle.Render(row.String())))
		} else {
			b.WriteString(" " + normalStyle.Render(row.String()))
		}
		b.WriteString("\n")
	}

	if item, ok := t.selected(); ok {
		b.WriteString("\n " + metaStyle.Render(detailLine(item)) + "\n")
	}
	if t.mode == modeConfirmDelete {
		if item, ok := t.selected(); ok {
			b.WriteString(" " + errorStyle.Render(fmt.Sprintf("delete %q? y/n", item.DisplayName())) + "\n")
		}
	} else if t.status != "" {
		b.WriteString(" " + statusLine(t.status, t.statusErr) + "\n")
	} else if msg := t.cache.LastError(); msg != "" {
		b.WriteString(" " + statusLine(msg, true) + "\n")
	}
	return b.String()
}

// detailLine shows the id and timestamps of a record.
func detailLine(item domain.Entity) string {
	parts := []string{fmt.Sprintf("#%d", item.EntityID())}
	if ts, ok := item.(domain.Timestamped); ok {
		created, updated := ts.Times()
		if s := formatDateTime(created); s != "" {
			parts = append(parts, "created "+s)
		}
		if s := formatDateTime(updated); s != "" {
			parts = append(parts, "updated "+s)
		}
	}
	return strings.Join(parts, " · ")
}

func arrow(dir view.Direction) string {
	if dir == view.Desc {
		return "↓"
	}
	return "↑"
}
