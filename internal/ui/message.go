package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/workplate/internal/server"
)

// MsgKind enumerates the wait view's own message types.
type MsgKind int

// Msg is the wait view's message union.
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTick MsgKind = iota
	MsgResult
	MsgBrowserOpened
)

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

// resultMsg is the constructor for [MsgResult]
func resultMsg(result server.Result) Msg {
	return Msg{kind: MsgResult, data: result}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
