package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ivx/internal/events"
	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/router"
	"github.com/desertthunder/ivx/internal/services"
	"github.com/desertthunder/ivx/internal/session"
	"github.com/desertthunder/ivx/internal/shared"
)

const (
	viewLogin     = "login"
	viewRegister  = "register"
	viewDashboard = "dashboard"
	viewProjects  = "projects"
	viewEditor    = "editor"

	sessionExpiredNotice = "Your session has expired. Please log in again."
	incompleteFormNotice = "Please fill in every field."
)

// Auth is the session surface the TUI drives.
type Auth interface {
	router.AuthState
	Login(ctx context.Context, username, password string) session.Result
	Register(ctx context.Context, username, email, password string) session.Result
	Logout()
	CheckAuth(ctx context.Context) bool
	User() *models.UserInfo
}

// Projects is the part of the gateway the project views read.
type Projects interface {
	UserProjects(ctx context.Context, userID int) (*models.ProjectList, error)
	Project(ctx context.Context, projectID int) (*models.ProjectDetail, error)
}

var (
	_ Auth     = (*session.Controller)(nil)
	_ Projects = (*services.Gateway)(nil)
)

// Deps wires the TUI to the rest of the client.
type Deps struct {
	Auth     Auth
	Projects Projects
	Router   *router.Router
	Bus      *events.Bus
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	deps        Deps
	start       string
	events      <-chan events.Event
	unsubscribe func()
	ready       bool
	busy        bool
	width       int
	height      int
	login       *form
	register    *form
	projectList list.Model
	project     *models.ProjectDetail
	videoList   list.Model
	notice      string
	failure     string
	help        help.Model
	keys        keyMap
}

// NewModel creates a TUI model that opens at start once the stored session has been checked.
func NewModel(ctx context.Context, deps Deps, start string) *Model {
	if start == "" {
		start = router.HomePath
	}

	m := &Model{
		ctx:         ctx,
		deps:        deps,
		start:       start,
		login:       newLoginForm(),
		register:    newRegisterForm(),
		projectList: newList("Projects", nil),
		videoList:   newList("Videos", nil),
		help:        help.New(),
		keys:        newKeyMap(),
	}
	if deps.Bus != nil {
		m.events, m.unsubscribe = deps.Bus.Subscribe()
	}
	return m
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Close releases the bus subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init verifies the stored session against the backend and starts listening for session events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.checkAuth(), m.waitForEvent(), textinput.Blink)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.projectList.SetSize(msg.Width-4, msg.Height-8)
		m.videoList.SetSize(msg.Width-4, msg.Height-12)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.abort) {
			return m, tea.Quit
		}
		if !m.ready {
			return m, nil
		}
		switch m.route() {
		case viewLogin:
			return m, m.handleLoginKeys(msg)
		case viewRegister:
			return m, m.handleRegisterKeys(msg)
		case viewDashboard:
			return m.handleDashboardKeys(msg)
		case viewProjects:
			return m.handleProjectKeys(msg)
		case viewEditor:
			return m.handleEditorKeys(msg)
		}
		return m, nil

	case Msg:
		return m, m.handleMsg(msg)
	}

	return m, m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgAuthChecked:
		m.ready = true
		return m.navigate(m.start)

	case MsgLoginDone:
		m.busy = false
		result := msg.data.(session.Result)
		if !result.Success {
			m.failure = result.Error
			return nil
		}
		m.failure = ""
		m.notice = ""
		m.login.reset(0)
		return m.navigate(router.HomePath)

	case MsgRegisterDone:
		m.busy = false
		data := msg.data.(struct {
			username string
			result   session.Result
		})
		if !data.result.Success {
			m.failure = data.result.Error
			return nil
		}
		m.failure = ""
		m.notice = "Registration successful. Please log in."
		m.register.reset(0)
		m.login.inputs[0].SetValue(data.username)
		m.login.reset(1)
		return m.navigate(router.LoginPath)

	case MsgProjectsFetched:
		m.busy = false
		data := msg.data.(struct {
			list *models.ProjectList
			err  error
		})
		if data.err != nil {
			m.setFailure(data.err)
			return nil
		}
		items := make([]list.Item, len(data.list.Projects))
		for i, p := range data.list.Projects {
			items[i] = projectItem{project: p}
		}
		return m.projectList.SetItems(items)

	case MsgProjectFetched:
		m.busy = false
		data := msg.data.(struct {
			project *models.ProjectDetail
			err     error
		})
		if data.err != nil {
			m.setFailure(data.err)
			return nil
		}
		m.project = data.project
		items := make([]list.Item, len(data.project.VideoFiles))
		for i, v := range data.project.VideoFiles {
			items[i] = videoItem{video: v}
		}
		return m.videoList.SetItems(items)

	case MsgSessionEvent:
		e := msg.data.(events.Event)
		var cmd tea.Cmd
		if e.Kind == events.ForceLogout {
			cmd = m.forceLogout(e)
		}
		return tea.Batch(cmd, m.waitForEvent())

	case MsgEventsClosed:
		m.events = nil
	}
	return nil
}

// setFailure records err for display. Rejected credentials are reported by the forced logout instead.
func (m *Model) setFailure(err error) {
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return
	}
	m.failure = err.Error()
}

// forceLogout moves to the login view without consulting the guard and drops per-user state.
func (m *Model) forceLogout(e events.Event) tea.Cmd {
	m.busy = false
	m.project = nil
	m.projectList.SetItems(nil)
	m.videoList.SetItems(nil)

	if m.route() == viewLogin {
		return nil
	}

	target := e.Path
	if target == "" {
		target = router.LoginPath
	}
	match, err := m.deps.Router.ForceRedirect(target)
	if err != nil {
		m.failure = err.Error()
		return nil
	}
	m.notice = ""
	m.failure = sessionExpiredNotice
	return m.enter(match)
}

// View renders the UI for the current route.
func (m *Model) View() string {
	if !m.ready {
		return styles.help.Render("Checking session...")
	}

	var body string
	switch m.route() {
	case viewLogin:
		body = m.renderForm(m.login, "register")
	case viewRegister:
		body = m.renderForm(m.register, "log in")
	case viewDashboard:
		body = m.renderDashboard()
	case viewProjects:
		body = m.renderProjects()
	case viewEditor:
		body = m.renderEditor()
	}

	return body + m.renderStatus()
}

func (m *Model) route() string {
	return m.deps.Router.Current().Route.Name
}

// navigate asks the router for path and loads whatever the resulting view needs.
func (m *Model) navigate(path string) tea.Cmd {
	match, err := m.deps.Router.Navigate(path)
	if err != nil {
		m.failure = err.Error()
		return nil
	}
	return m.enter(match)
}

func (m *Model) enter(match router.Match) tea.Cmd {
	switch match.Route.Name {
	case viewLogin:
		return m.login.setFocus(m.login.focus)
	case viewRegister:
		return m.register.setFocus(0)
	case viewProjects:
		return m.fetchProjects()
	case viewEditor:
		m.project = nil
		m.videoList.SetItems(nil)
		id, err := strconv.Atoi(match.Param("projectId"))
		if err != nil {
			return nil
		}
		return m.fetchProject(id)
	}
	return nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.toggle):
		m.failure, m.notice = "", ""
		return m.navigate("/register")
	case key.Matches(msg, m.keys.enter):
		if !m.login.onLast() {
			return m.login.next()
		}
		return m.submitLogin()
	case key.Matches(msg, m.keys.next):
		return m.login.next()
	case key.Matches(msg, m.keys.prev):
		return m.login.prev()
	}
	return m.login.update(msg)
}

func (m *Model) handleRegisterKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.toggle), key.Matches(msg, m.keys.back):
		m.failure, m.notice = "", ""
		return m.navigate(router.LoginPath)
	case key.Matches(msg, m.keys.enter):
		if !m.register.onLast() {
			return m.register.next()
		}
		return m.submitRegister()
	case key.Matches(msg, m.keys.next):
		return m.register.next()
	case key.Matches(msg, m.keys.prev):
		return m.register.prev()
	}
	return m.register.update(msg)
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.projects):
		return m, m.navigate("/projects")
	case key.Matches(msg, m.keys.editor):
		return m, m.navigate("/editor")
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}
	return m, nil
}

func (m *Model) handleProjectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.projectList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.projectList, cmd = m.projectList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		return m, m.navigate(router.HomePath)
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchProjects()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.projectList.SelectedItem().(projectItem); ok {
			return m, m.navigate(fmt.Sprintf("/editor/%d", item.project.ID))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.projectList, cmd = m.projectList.Update(msg)
	return m, cmd
}

func (m *Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		return m, m.navigate("/projects")
	case key.Matches(msg, m.keys.refresh):
		if m.project != nil {
			return m, m.fetchProject(m.project.ProjectID)
		}
		return m, nil
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.videoList, cmd = m.videoList.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) tea.Cmd {
	if !m.ready {
		return nil
	}
	var cmd tea.Cmd
	switch m.route() {
	case viewLogin:
		cmd = m.login.update(msg)
	case viewRegister:
		cmd = m.register.update(msg)
	case viewProjects:
		m.projectList, cmd = m.projectList.Update(msg)
	case viewEditor:
		m.videoList, cmd = m.videoList.Update(msg)
	}
	return cmd
}

func (m *Model) logout() tea.Cmd {
	m.deps.Auth.Logout()
	m.project = nil
	m.projectList.SetItems(nil)
	m.failure = ""
	m.notice = "Logged out."
	return m.navigate(router.LoginPath)
}

func (m *Model) submitLogin() tea.Cmd {
	if m.busy {
		return nil
	}
	if !m.login.complete() {
		m.failure = incompleteFormNotice
		return nil
	}

	m.busy = true
	m.failure = ""
	username, password := m.login.value(0), m.login.inputs[1].Value()
	return func() tea.Msg {
		return loginDoneMsg(m.deps.Auth.Login(m.ctx, username, password))
	}
}

func (m *Model) submitRegister() tea.Cmd {
	if m.busy {
		return nil
	}
	if !m.register.complete() {
		m.failure = incompleteFormNotice
		return nil
	}

	m.busy = true
	m.failure = ""
	username, email, password := m.register.value(0), m.register.value(1), m.register.inputs[2].Value()
	return func() tea.Msg {
		return registerDoneMsg(username, m.deps.Auth.Register(m.ctx, username, email, password))
	}
}

func (m *Model) checkAuth() tea.Cmd {
	return func() tea.Msg {
		return authCheckedMsg(m.deps.Auth.CheckAuth(m.ctx))
	}
}

func (m *Model) fetchProjects() tea.Cmd {
	user := m.deps.Auth.User()
	if user == nil {
		return nil
	}
	m.busy = true
	return func() tea.Msg {
		projects, err := m.deps.Projects.UserProjects(m.ctx, user.ID)
		return projectsFetchedMsg(projects, err)
	}
}

func (m *Model) fetchProject(id int) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		project, err := m.deps.Projects.Project(m.ctx, id)
		return projectFetchedMsg(project, err)
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	ch := m.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return eventsClosedMsg()
		}
		return sessionEventMsg(e)
	}
}

func (m *Model) renderForm(f *form, other string) string {
	toggle := key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", other))
	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
	helpKeys := []key.Binding{submit, m.keys.next, toggle, m.keys.abort}

	status := ""
	if m.busy {
		status = styles.help.Render("Submitting...") + "\n"
	}
	return fmt.Sprintf("%s\n%s%s", f.view(), status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDashboard() string {
	name := "unknown user"
	if u := m.deps.Auth.User(); u != nil {
		name = u.Username
		if u.Email != "" {
			name = fmt.Sprintf("%s <%s>", u.Username, u.Email)
		}
	}

	title := styles.banner.Render("iVideo")
	info := fmt.Sprintf("\nSigned in as %s\n", styles.ok.Render(name))
	helpKeys := []key.Binding{m.keys.projects, m.keys.editor, m.keys.logout, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderProjects() string {
	if m.busy && len(m.projectList.Items()) == 0 {
		return styles.help.Render("Loading projects...")
	}
	open := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open"))
	helpKeys := []key.Binding{open, m.keys.refresh, m.keys.back, m.keys.logout, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.projectList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderEditor() string {
	helpKeys := []key.Binding{m.keys.refresh, m.keys.back, m.keys.logout, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.project == nil {
		if m.busy {
			return styles.help.Render("Loading project...")
		}
		title := styles.title.Render("Editor")
		return fmt.Sprintf("%s\nNo project selected. Open one from the projects view.\n\n%s", title, helpView)
	}

	title := styles.title.Render(m.project.Title)
	info := m.project.Description
	if info == "" {
		info = styles.help.Render("No description")
	}
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, info, m.videoList.View(), helpView)
}

func (m *Model) renderStatus() string {
	switch {
	case m.failure != "":
		return "\n" + styles.err.Render(m.failure)
	case m.notice != "":
		return "\n" + styles.ok.Render(m.notice)
	default:
		return ""
	}
}
