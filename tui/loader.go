package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize/english"
	"github.com/sirupsen/logrus"

	"github.com/dopejs/staticenv/internal/console"
	"github.com/dopejs/staticenv/internal/envvar"
)

// Source supplies environments and variables to the console.
type Source interface {
	Environments(ctx context.Context) ([]envvar.Environment, error)
	Variables(ctx context.Context, envID string) (map[string]string, error)
	SaveVariables(ctx context.Context, envID string, vars map[string]string) error
}

// Options tune the console.
type Options struct {
	ReadOnly bool
	Logger   logrus.FieldLogger
	Timeout  time.Duration // per request; 0 = 30s
}

type environmentsLoadedMsg struct {
	envs []envvar.Environment
	err  error
}

type variablesLoadedMsg struct {
	envID string
	vars  map[string]string
	err   error
}

type variablesSavedMsg struct {
	envID string
	count int
	err   error
}

// requestQueue implements console.Actions by turning each request into a
// tea.Cmd that the loader hands to the runtime after the current update.
type requestQueue struct {
	source  Source
	timeout time.Duration
	logger  logrus.FieldLogger
	cmds    []tea.Cmd
}

func (q *requestQueue) FetchForEnvironment(id string) {
	source, timeout, log := q.source, q.timeout, q.logger.WithField("environment", id)
	q.cmds = append(q.cmds, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		log.Debug("fetching variables")
		vars, err := source.Variables(ctx, id)
		if err != nil {
			log.WithError(err).Warn("fetch variables failed")
		}
		return variablesLoadedMsg{envID: id, vars: vars, err: err}
	})
}

func (q *requestQueue) Save(id string, vars []envvar.Variable) {
	source, timeout, log := q.source, q.timeout, q.logger.WithField("environment", id)
	kv := envvar.ToKeyValue(vars)
	q.cmds = append(q.cmds, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		log.WithField("count", len(kv)).Info("saving variables")
		err := source.SaveVariables(ctx, id, kv)
		if err != nil {
			log.WithError(err).Error("save variables failed")
		}
		return variablesSavedMsg{envID: id, count: len(kv), err: err}
	})
}

func (q *requestQueue) Refresh() {
	q.cmds = append(q.cmds, q.loadEnvironments())
}

func (q *requestQueue) loadEnvironments() tea.Cmd {
	source, timeout, log := q.source, q.timeout, q.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		log.Debug("fetching environments")
		envs, err := source.Environments(ctx)
		if err != nil {
			log.WithError(err).Warn("fetch environments failed")
		}
		return environmentsLoadedMsg{envs: envs, err: err}
	}
}

func (q *requestQueue) drain() []tea.Cmd {
	cmds := q.cmds
	q.cmds = nil
	return cmds
}

// loaderModel owns the Session and performs the requests it makes. It
// tracks in-flight requests for the loading flag and remembers whether the
// last fetch failed.
type loaderModel struct {
	session    *console.Session
	queue      *requestQueue
	page       configurationModel
	readOnly   bool
	inFlight   int
	apiFailure bool
	width      int
	height     int
}

func newLoaderModel(source Source, opts Options) loaderModel {
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.PanicLevel)
		opts.Logger = logger
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	queue := &requestQueue{source: source, timeout: opts.Timeout, logger: opts.Logger}
	session := console.NewSession(queue)
	m := loaderModel{
		session:  session,
		queue:    queue,
		readOnly: opts.ReadOnly,
		inFlight: 1, // Init loads the environment list
	}
	m.syncFlags()
	m.page = newConfigurationModel(session)
	return m
}

func (m loaderModel) Init() tea.Cmd {
	return m.queue.loadEnvironments()
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case environmentsLoadedMsg:
		m.finish()
		if msg.err != nil {
			m.apiFailure = true
			m.page.status = "✗ Could not load environments: " + msg.err.Error()
			break
		}
		m.apiFailure = false
		m.session.SetEnvironments(msg.envs)

	case variablesLoadedMsg:
		m.finish()
		sel := m.session.Selected()
		if sel == nil || sel.ID != msg.envID {
			break
		}
		if msg.err != nil {
			m.apiFailure = true
			m.session.SetVariableResponse(nil)
			m.page.status = "✗ Could not load variables: " + msg.err.Error()
			break
		}
		m.apiFailure = false
		m.session.SetVariableResponse(msg.vars)

	case variablesSavedMsg:
		m.finish()
		if msg.err != nil {
			m.page.status = "✗ Save failed: " + msg.err.Error()
			break
		}
		m.page.status = "Saved " + english.Plural(msg.count, "variable", "")
		if sel := m.session.Selected(); sel != nil && sel.ID == msg.envID {
			m.queue.FetchForEnvironment(msg.envID)
		}
	}

	m.syncFlags()
	if !isLoaderMsg(msg) {
		var cmd tea.Cmd
		m.page, cmd = m.page.update(msg)
		cmds = append(cmds, cmd)
	}

	pending := m.queue.drain()
	m.inFlight += len(pending)
	cmds = append(cmds, pending...)
	m.syncFlags()
	m.page.sync()
	return m, tea.Batch(cmds...)
}

func isLoaderMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case environmentsLoadedMsg, variablesLoadedMsg, variablesSavedMsg:
		return true
	}
	return false
}

func (m *loaderModel) finish() {
	if m.inFlight > 0 {
		m.inFlight--
	}
}

// syncFlags pushes the loader's view of the world into the session.
func (m *loaderModel) syncFlags() {
	hasFunctions := true
	if sel := m.session.Selected(); sel != nil {
		hasFunctions = sel.HasFunctions
	}
	m.session.SetFlags(console.Flags{
		Loading:                 m.inFlight > 0,
		HasWritePermissions:     !m.readOnly,
		APIFailure:              m.apiFailure,
		EnvironmentHasFunctions: hasFunctions,
	})
}

func (m loaderModel) View() string {
	content := m.page.view()

	var view strings.Builder
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		view.WriteString("  ")
		view.WriteString(line)
		view.WriteString("\n")
	}
	for i := len(lines) + 1; i < m.height; i++ {
		view.WriteString("\n")
	}
	view.WriteString(RenderHelpBar(m.page.helpText(), m.width))
	return view.String()
}

// Run starts the console on source and blocks until the user quits.
func Run(source Source, opts Options) error {
	p := tea.NewProgram(newLoaderModel(source, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
