// Package protocol defines the decoded client-event records exchanged
// with the session logger, one JSON envelope per line. The transport
// that frames and delivers them is deliberately thin; everything the
// writer core needs is in these types.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/ehrlich-b/iologd/internal/iolog"
)

// Message types. Client → server unless noted.
const (
	TypeSessionOpen    = "session.open"
	TypeSessionRestart = "session.restart"
	TypeIOData         = "io.data"
	TypeSuspend        = "cmd.suspend"
	TypeWinsize        = "win.resize"
	TypeSessionExit    = "session.exit"

	// Server → client.
	TypeSessionReady = "session.ready"
	TypeError        = "error"
)

// Envelope wraps every message with a type field for routing.
type Envelope struct {
	Type string `json:"type"`
}

// SessionOpen starts a new session. The required fields mirror the
// info file; everything else is optional and defaulted server-side.
type SessionOpen struct {
	Type       string   `json:"type"`
	StartTime  int64    `json:"start_time"`
	SubmitUser string   `json:"submituser"`
	SubmitHost string   `json:"submithost"`
	Command    string   `json:"command"`
	RunUser    string   `json:"runuser,omitempty"`
	RunGroup   string   `json:"rungroup,omitempty"`
	TTYName    string   `json:"ttyname,omitempty"`
	CWD        string   `json:"cwd,omitempty"`
	Lines      int64    `json:"lines,omitempty"`
	Columns    int64    `json:"columns,omitempty"`
	Argv       []string `json:"runargv,omitempty"`
}

// Details converts the wire record into the writer's session-open
// form.
func (m *SessionOpen) Details() *iolog.SessionOpen {
	return &iolog.SessionOpen{
		StartTime:  m.StartTime,
		SubmitUser: m.SubmitUser,
		SubmitHost: m.SubmitHost,
		Command:    m.Command,
		RunUser:    m.RunUser,
		RunGroup:   m.RunGroup,
		TTYName:    m.TTYName,
		CWD:        m.CWD,
		Lines:      m.Lines,
		Columns:    m.Columns,
		Argv:       m.Argv,
	}
}

// SessionRestart resumes a previously interrupted session at an exact
// elapsed-time instant.
type SessionRestart struct {
	Type        string        `json:"type"`
	LogID       string        `json:"log_id"`
	ResumePoint iolog.TimeSpec `json:"resume_point"`
}

// IOData carries one chunk of a byte stream. Data is base64 on the
// wire, raw bytes here.
type IOData struct {
	Type   string        `json:"type"`
	Stream int           `json:"stream"`
	Delay  iolog.TimeSpec `json:"delay"`
	Data   []byte        `json:"data"`
}

// Suspend records the command being stopped or continued by a signal.
type Suspend struct {
	Type   string        `json:"type"`
	Delay  iolog.TimeSpec `json:"delay"`
	Signal string        `json:"signal"`
}

// Winsize records a terminal window-size change.
type Winsize struct {
	Type  string        `json:"type"`
	Delay iolog.TimeSpec `json:"delay"`
	Rows  int           `json:"rows"`
	Cols  int           `json:"cols"`
}

// SessionExit ends the session cleanly.
type SessionExit struct {
	Type       string `json:"type"`
	ExitStatus int    `json:"exit_status"`
}

// SessionReady acknowledges a successful open or restart. LogID is the
// session directory path the client presents to resume later.
type SessionReady struct {
	Type  string `json:"type"`
	LogID string `json:"log_id"`
}

// ErrorMsg reports a failure before the server closes the session.
type ErrorMsg struct {
	Type    string `json:"type"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Decode parses one wire line into its concrete message type. The
// variant is closed: unknown types are an error, not an extension
// point.
func Decode(line []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var msg any
	switch env.Type {
	case TypeSessionOpen:
		msg = &SessionOpen{}
	case TypeSessionRestart:
		msg = &SessionRestart{}
	case TypeIOData:
		msg = &IOData{}
	case TypeSuspend:
		msg = &Suspend{}
	case TypeWinsize:
		msg = &Winsize{}
	case TypeSessionExit:
		msg = &SessionExit{}
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if err := json.Unmarshal(line, msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return msg, nil
}
