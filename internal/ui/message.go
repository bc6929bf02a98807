package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ivx/internal/events"
	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAuthChecked MsgKind = iota
	MsgLoginDone
	MsgRegisterDone
	MsgProjectsFetched
	MsgProjectFetched
	MsgSessionEvent
	MsgEventsClosed
)

// authCheckedMsg is the constructor for [MsgAuthChecked]
func authCheckedMsg(ok bool) Msg {
	return Msg{kind: MsgAuthChecked, data: ok}
}

// loginDoneMsg is the constructor for [MsgLoginDone]
func loginDoneMsg(result session.Result) Msg {
	return Msg{kind: MsgLoginDone, data: result}
}

// registerDoneMsg is the constructor for [MsgRegisterDone]
func registerDoneMsg(username string, result session.Result) Msg {
	return Msg{
		kind: MsgRegisterDone,
		data: struct {
			username string
			result   session.Result
		}{username, result},
	}
}

// projectsFetchedMsg is the constructor for [MsgProjectsFetched]
func projectsFetchedMsg(list *models.ProjectList, err error) Msg {
	return Msg{
		kind: MsgProjectsFetched,
		data: struct {
			list *models.ProjectList
			err  error
		}{list, err},
	}
}

// projectFetchedMsg is the constructor for [MsgProjectFetched]
func projectFetchedMsg(project *models.ProjectDetail, err error) Msg {
	return Msg{
		kind: MsgProjectFetched,
		data: struct {
			project *models.ProjectDetail
			err     error
		}{project, err},
	}
}

// sessionEventMsg is the constructor for [MsgSessionEvent]
func sessionEventMsg(e events.Event) Msg {
	return Msg{kind: MsgSessionEvent, data: e}
}

func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}
