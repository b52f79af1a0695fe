package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/filer/pkg/filer/clipboard"
	"github.com/jamesainslie/filer/pkg/filer/engine"
	"github.com/jamesainslie/filer/pkg/filer/inventory"
	"github.com/jamesainslie/filer/pkg/filer/logging"
	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/jamesainslie/filer/pkg/filer/watcher"
)

// AppState represents the current state of the browser.
type AppState int

const (
	StateBrowse AppState = iota
	StateConfirm
	StateInput
	StateWorking
)

// inputPurpose says what a submitted text input does.
type inputPurpose int

const (
	inputRename inputPurpose = iota
	inputMove
)

// Options configures the browser.
type Options struct {
	// Dir is the directory opened first.
	Dir string

	Inventory *inventory.Inventory
	Engine    *engine.Engine
	Clipboard clipboard.Store

	// Watcher, when set, refreshes the listing on filesystem changes.
	Watcher *watcher.Watcher

	Labels types.LabelOptions

	// Trash reports whether the engine deletes to the trash.
	Trash bool
}

// Model is the Bubble Tea model for the browser.
type Model struct {
	state   AppState
	options Options

	ctx    context.Context
	cancel context.CancelFunc

	inv    *inventory.Inventory
	loader *inventory.Loader
	eng    *engine.Engine
	log    *logging.Logger

	// dir is the directory on screen. target is the directory being
	// listed; it equals dir once the listing arrives.
	dir    string
	target string
	focus  string

	// Snapshot of the engine, taken after every engine call on the update
	// goroutine. Views read only the snapshot, so an operation running in
	// the background never races with rendering.
	entries  []types.Entry
	selected map[string]bool
	mode     engine.Mode

	// Per-path metadata for the current directory.
	dirCtx    context.Context
	dirCancel context.CancelFunc
	meta      map[string]types.Metadata
	metaErr   map[string]error
	pending   map[string]bool

	cursor int
	offset int

	// implicit is set when a delete or move selected the cursor entry on
	// the user's behalf; cancelling the dialog undoes it.
	implicit bool

	confirmFocused int // 0 = cancel, 1 = delete

	input       textinput.Model
	purpose     inputPurpose
	inputTarget types.Entry

	spinner spinner.Model
	working string
	stale   bool

	status    string
	statusErr bool

	changes chan watcher.Change

	width  int
	height int
}

// NewModel creates a browser model for opts.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentColor)

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Prompt = "> "

	eng := opts.Engine
	if eng == nil {
		eng = engine.New(engine.Options{Clipboard: opts.Clipboard})
	}

	return Model{
		state:    StateBrowse,
		options:  opts,
		ctx:      ctx,
		cancel:   cancel,
		inv:      opts.Inventory,
		loader:   inventory.NewLoader(opts.Inventory),
		eng:      eng,
		log:      logging.Get("tui"),
		target:   opts.Dir,
		selected: make(map[string]bool),
		dirCtx:   ctx,
		meta:     make(map[string]types.Metadata),
		metaErr:  make(map[string]error),
		pending:  make(map[string]bool),
		input:    ti,
		spinner:  s,
		changes:  make(chan watcher.Change, 16),
		width:    80,
		height:   24,
	}
}

// Init starts the first listing, the spinner and the watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.listDir(m.target, false),
	}
	if m.options.Watcher != nil {
		cmds = append(cmds, m.runWatcher(), m.listenForChanges())
	}
	return tea.Batch(cmds...)
}

// Close stops background work. It is safe to call more than once.
func (m Model) Close() {
	m.cancel()
	m.loader.Close()
}

// Dir returns the directory on screen.
func (m Model) Dir() string {
	return m.dir
}

// State returns the current state.
func (m Model) State() AppState {
	return m.state
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// Entries returns the entries on screen.
func (m Model) Entries() []types.Entry {
	return m.entries
}

// Cursor returns the cursor index.
func (m Model) Cursor() int {
	return m.cursor
}

// Messages.

// listedMsg delivers a directory listing.
type listedMsg struct {
	dir     string
	entries []types.Entry
	err     error
	refresh bool
}

// metadataMsg delivers the metadata of one entry.
type metadataMsg struct {
	dir string
	res inventory.Result
}

// opDoneMsg reports a finished engine operation.
type opDoneMsg struct {
	res engine.Result
}

// yankedMsg reports a clipboard write.
type yankedMsg struct {
	name string
	err  error
}

// changedMsg reports a change in the watched directory.
type changedMsg watcher.Change

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, m.requestVisible()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case listedMsg:
		return m.handleListed(msg)

	case metadataMsg:
		if msg.dir != m.dir {
			return m, nil
		}
		path := msg.res.Entry.Path
		delete(m.pending, path)
		switch {
		case msg.res.Err == nil:
			m.meta[path] = msg.res.Metadata
			delete(m.metaErr, path)
		case errors.Is(msg.res.Err, context.Canceled), errors.Is(msg.res.Err, inventory.ErrLoaderClosed):
		default:
			m.metaErr[path] = msg.res.Err
		}
		return m, nil

	case opDoneMsg:
		return m.handleOpDone(msg.res)

	case yankedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("yank failed: %w", msg.err))
		} else {
			m.setStatus("Yanked " + msg.name)
		}
		return m, nil

	case changedMsg:
		return m.handleChanged(watcher.Change(msg))
	}

	return m, nil
}

// handleListed installs a listing, either a new directory or a refresh of
// the current one.
func (m Model) handleListed(msg listedMsg) (tea.Model, tea.Cmd) {
	if msg.refresh {
		if msg.dir != m.dir {
			return m, nil
		}
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if m.state == StateWorking {
			m.stale = true
			return m, nil
		}
		m.applyRefresh(msg.entries)
		return m, m.requestVisible()
	}

	if msg.dir != m.target {
		return m, nil
	}
	if msg.err != nil {
		m.log.Warn("listing failed", "dir", msg.dir, "error", msg.err)
		m.target = m.dir
		m.focus = ""
		m.setError(msg.err)
		return m, nil
	}

	m.enterDir(msg.dir, msg.entries)
	return m, m.requestVisible()
}

// enterDir replaces the view with a new directory.
func (m *Model) enterDir(dir string, entries []types.Entry) {
	if m.dirCancel != nil {
		m.dirCancel()
	}
	m.dirCtx, m.dirCancel = context.WithCancel(m.ctx)

	m.dir = dir
	m.meta = make(map[string]types.Metadata)
	m.metaErr = make(map[string]error)
	m.pending = make(map[string]bool)
	m.stale = false

	m.eng.Cancel()
	m.eng.SetEntries(dir, entries)
	m.implicit = false
	m.sync()

	m.cursor, m.offset = 0, 0
	if m.focus != "" {
		if i := types.IndexOf(m.entries, m.focus); i >= 0 {
			m.cursor = i
		}
		m.focus = ""
	}
	m.ensureVisible()

	if w := m.options.Watcher; w != nil {
		if err := w.Watch(dir); err != nil {
			m.log.Warn("watch failed", "dir", dir, "error", err)
		}
	}
	m.log.Debug("entered directory", "dir", dir, "entries", len(entries))
}

// applyRefresh merges a fresh listing of the current directory, keeping the
// cursor on the same entry where possible.
func (m *Model) applyRefresh(fresh []types.Entry) {
	var cursorPath string
	if e, ok := m.current(); ok {
		cursorPath = e.Path
	}

	changes := types.Diff(m.entries, fresh)
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		if c.Kind == types.ChangeRemove || c.Kind == types.ChangeReplace {
			m.forget(c.Entry.Path)
		}
	}

	m.eng.SetEntries(m.dir, types.Apply(m.entries, changes))
	m.sync()

	if i := types.IndexOf(m.entries, cursorPath); i >= 0 {
		m.cursor = i
	}
	m.clampCursor()
	m.log.Debug("refreshed", "dir", m.dir, "changes", len(changes))
}

// handleChanged drops stale metadata and relists the directory.
func (m Model) handleChanged(c watcher.Change) (tea.Model, tea.Cmd) {
	next := m.listenForChanges()
	if c.Dir != m.dir {
		return m, next
	}

	for _, p := range c.Paths {
		m.forget(p)
	}
	if m.state == StateWorking {
		m.stale = true
		return m, next
	}
	return m, tea.Batch(next, m.listDir(m.dir, true))
}

// handleOpDone installs the engine's revised view after an operation.
func (m Model) handleOpDone(res engine.Result) (tea.Model, tea.Cmd) {
	m.state = StateBrowse
	m.working = ""
	m.implicit = false

	var cursorPath string
	if e, ok := m.current(); ok {
		cursorPath = e.Path
	}
	for _, a := range res.Applied {
		m.forget(a.From)
		if a.To != "" {
			m.forget(a.To)
		}
	}
	if res.Entry != nil {
		cursorPath = res.Entry.Path
	}

	m.sync()
	if i := types.IndexOf(m.entries, cursorPath); i >= 0 {
		m.cursor = i
	}
	m.clampCursor()

	if res.OK() {
		m.setStatus(res.Summary())
	} else {
		m.status = res.Summary()
		m.statusErr = true
	}

	cmds := []tea.Cmd{m.requestVisible()}
	if m.stale {
		m.stale = false
		cmds = append(cmds, m.listDir(m.dir, true))
	}
	return m, tea.Batch(cmds...)
}

// sync copies the engine state into the model.
func (m *Model) sync() {
	m.entries = m.eng.Entries()
	m.mode = m.eng.Mode()
	m.selected = make(map[string]bool, m.eng.SelectedCount())
	for _, e := range m.eng.Selected() {
		m.selected[e.Path] = true
	}
}

// forget drops cached metadata for path.
func (m *Model) forget(path string) {
	delete(m.meta, path)
	delete(m.metaErr, path)
	delete(m.pending, path)
}

// current returns the entry under the cursor.
func (m Model) current() (types.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return types.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// Commands.

// listDir lists dir in the background.
func (m Model) listDir(dir string, refresh bool) tea.Cmd {
	inv, ctx := m.inv, m.ctx
	return func() tea.Msg {
		entries, err := inv.List(ctx, dir)
		return listedMsg{dir: dir, entries: entries, err: err, refresh: refresh}
	}
}

// requestVisible asks the loader for the metadata of visible rows that have
// none yet.
func (m Model) requestVisible() tea.Cmd {
	if m.dir == "" {
		return nil
	}

	var cmds []tea.Cmd
	end := min(m.offset+m.visibleRows(), len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		if _, ok := m.meta[e.Path]; ok {
			continue
		}
		if m.pending[e.Path] || m.metaErr[e.Path] != nil {
			continue
		}
		m.pending[e.Path] = true
		cmds = append(cmds, awaitMetadata(m.dir, m.loader.Request(m.dirCtx, e)))
	}
	return tea.Batch(cmds...)
}

// awaitMetadata waits for a loader result.
func awaitMetadata(dir string, ch <-chan inventory.Result) tea.Cmd {
	return func() tea.Msg {
		return metadataMsg{dir: dir, res: <-ch}
	}
}

// runWatcher runs the watcher until the model is closed, forwarding
// changes to listenForChanges.
func (m Model) runWatcher() tea.Cmd {
	w, ctx, changes := m.options.Watcher, m.ctx, m.changes
	return func() tea.Msg {
		w.Run(ctx, func(c watcher.Change) {
			select {
			case changes <- c:
			default:
				// A refresh is already queued.
			}
		})
		return nil
	}
}

// listenForChanges waits for the next watcher change.
func (m Model) listenForChanges() tea.Cmd {
	ctx, changes := m.ctx, m.changes
	return func() tea.Msg {
		select {
		case c := <-changes:
			return changedMsg(c)
		case <-ctx.Done():
			return nil
		}
	}
}

// startOp runs fn in the background. Until it finishes the engine belongs
// to fn and the model renders from its snapshot.
func (m Model) startOp(label string, fn func(ctx context.Context, eng *engine.Engine) engine.Result) (tea.Model, tea.Cmd) {
	m.state = StateWorking
	m.working = label
	eng, ctx := m.eng, m.ctx
	return m, func() tea.Msg {
		return opDoneMsg{res: fn(ctx, eng)}
	}
}

// yank writes the path of e to the clipboard.
func (m Model) yank(e types.Entry) tea.Cmd {
	clip, ctx := m.options.Clipboard, m.ctx
	return func() tea.Msg {
		if clip == nil {
			return yankedMsg{name: e.Name, err: errors.New("no clipboard configured")}
		}
		return yankedMsg{name: e.Name, err: clip.Write(ctx, e.Path)}
	}
}

// parentDir returns the parent of dir and whether dir has one.
func parentDir(dir string) (string, bool) {
	parent := filepath.Dir(dir)
	return parent, parent != dir
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.status != "" {
		fm.log.Debug("browser closed", "dir", fm.dir, "status", fm.status)
	}
	return nil
}
