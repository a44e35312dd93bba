package iolog

import (
	"bufio"
	"fmt"
	"log/slog"
	"math"
	"os"
)

// Defaults applied to optional session-open attributes.
const (
	defaultRunUser = "root"
	defaultTTYName = "unknown"
	defaultCWD     = "unknown"
	defaultLines   = 24
	defaultColumns = 80
)

// SessionOpen is the decoded session-open record, consumed once when
// the session directory is materialised.
type SessionOpen struct {
	StartTime  int64
	SubmitUser string
	SubmitHost string
	Command    string

	RunUser  string
	RunGroup string
	TTYName  string
	CWD      string
	Lines    int64
	Columns  int64

	// Argv is the full argument vector; Argv[0] is ignored when the
	// info file's command line is written (Command is authoritative).
	Argv []string
}

// normalize checks required attributes and fills in defaults. Lines
// and columns outside (0, 2^31) are rejected and the default kept.
func (o *SessionOpen) normalize() error {
	if o.SubmitUser == "" {
		return fmt.Errorf("%w: missing submituser", ErrFormatInvalid)
	}
	if o.SubmitHost == "" {
		return fmt.Errorf("%w: missing submithost", ErrFormatInvalid)
	}
	if o.Command == "" {
		return fmt.Errorf("%w: missing command", ErrFormatInvalid)
	}
	if o.RunUser == "" {
		o.RunUser = defaultRunUser
	}
	if o.TTYName == "" {
		o.TTYName = defaultTTYName
	}
	if o.CWD == "" {
		o.CWD = defaultCWD
	}
	if o.Lines <= 0 || o.Lines > math.MaxInt32 {
		if o.Lines != 0 {
			slog.Debug("lines out of range, using default", "lines", o.Lines)
		}
		o.Lines = defaultLines
	}
	if o.Columns <= 0 || o.Columns > math.MaxInt32 {
		if o.Columns != 0 {
			slog.Debug("columns out of range, using default", "columns", o.Columns)
		}
		o.Columns = defaultColumns
	}
	return nil
}

// writeInfoFile writes the human-readable "log" file describing the
// session: the colon-joined header, the working directory, and the
// command line rebuilt from Command plus Argv[1:].
func writeInfoFile(handle *os.Root, o *SessionOpen) error {
	f, err := handle.OpenFile("log", os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("%w: create log info file: %v", ErrStorageWriteFailed, err)
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d:%s:%s:%s:%s:%d:%d\n%s\n",
		o.StartTime, o.SubmitUser, o.RunUser, o.RunGroup, o.TTYName,
		o.Lines, o.Columns, o.CWD)
	w.WriteString(o.Command)
	for i := 1; i < len(o.Argv); i++ {
		w.WriteByte(' ')
		w.WriteString(o.Argv[i])
	}
	w.WriteByte('\n')

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: write log info file: %v", ErrStorageWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close log info file: %v", ErrStorageWriteFailed, err)
	}
	return nil
}
