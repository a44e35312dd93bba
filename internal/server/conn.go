package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"

	"github.com/google/uuid"

	"github.com/ehrlich-b/iologd/internal/iolog"
	"github.com/ehrlich-b/iologd/internal/logger"
	"github.com/ehrlich-b/iologd/internal/protocol"
	"github.com/ehrlich-b/iologd/internal/store"
)

// maxLineBytes bounds one wire line; data chunks are base64 so this
// comfortably fits the largest chunk a client sends.
const maxLineBytes = 2 * 1024 * 1024

// conn tracks the per-connection state: the session being written, if
// any, and its index row.
type conn struct {
	srv     *Server
	nc      net.Conn
	id      string
	enc     *json.Encoder
	sess    *iolog.Session
	indexID string
}

func (s *Server) handleConn(ctx context.Context, nc net.Conn) {
	c := &conn{
		srv: s,
		nc:  nc,
		id:  uuid.NewString(),
		enc: json.NewEncoder(nc),
	}
	defer c.teardown()

	log := logger.Log.With("conn", c.id, "remote", nc.RemoteAddr().String())
	log.Debug("connection accepted")

	lim := s.limiter()
	sc := bufio.NewScanner(nc)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := waitBytes(ctx, lim, len(line)); err != nil {
			log.Debug("rate limiter interrupted", "err", err)
			return
		}
		msg, err := protocol.Decode(line)
		if err != nil {
			log.Error("bad client message", "err", err)
			c.sendError("format_invalid", err.Error())
			return
		}
		done, err := c.dispatch(msg)
		if err != nil {
			log.Error("session failed", "dir", c.sessionDir(), "err", err)
			c.sendError(iolog.Kind(err), err.Error())
			return
		}
		if done {
			log.Debug("session closed cleanly", "dir", c.sessionDir())
			return
		}
	}
	if err := sc.Err(); err != nil && !netClosed(err) {
		log.Debug("connection read error", "err", err)
	}
}

func (c *conn) sessionDir() string {
	if c.sess == nil {
		return ""
	}
	return c.sess.Dir()
}

// dispatch routes one decoded event. It returns done == true when the
// client ended the session cleanly and the connection should close.
func (c *conn) dispatch(msg any) (bool, error) {
	switch m := msg.(type) {
	case *protocol.SessionOpen:
		return false, c.openSession(m)
	case *protocol.SessionRestart:
		return false, c.restartSession(m)
	case *protocol.IOData:
		if c.sess == nil {
			return false, errNoSession
		}
		return false, c.sess.AppendData(iolog.StreamID(m.Stream), m.Delay, m.Data)
	case *protocol.Suspend:
		if c.sess == nil {
			return false, errNoSession
		}
		return false, c.sess.AppendSuspend(m.Delay, m.Signal)
	case *protocol.Winsize:
		if c.sess == nil {
			return false, errNoSession
		}
		return false, c.sess.AppendWinsize(m.Delay, m.Rows, m.Cols)
	case *protocol.SessionExit:
		if c.sess == nil {
			return false, errNoSession
		}
		c.finish(store.StatusClosed)
		return true, nil
	}
	return false, errNoSession
}

func (c *conn) openSession(m *protocol.SessionOpen) error {
	if c.sess != nil {
		return errSessionBusy
	}
	sess, err := iolog.NewSession(c.srv.cfg.IologDir, m.Details())
	if err != nil {
		return err
	}
	c.sess = sess
	c.indexSession(&store.Session{
		ID:         uuid.NewString(),
		LogDir:     sess.Dir(),
		SubmitUser: m.SubmitUser,
		SubmitHost: m.SubmitHost,
		Command:    m.Command,
		StartTime:  m.StartTime,
	})
	return c.enc.Encode(protocol.SessionReady{Type: protocol.TypeSessionReady, LogID: sess.Dir()})
}

func (c *conn) restartSession(m *protocol.SessionRestart) error {
	if c.sess != nil {
		return errSessionBusy
	}
	sess, err := iolog.Restart(m.LogID, m.ResumePoint)
	if err != nil {
		return err
	}
	c.sess = sess
	if row, err := c.srv.store.FindByDir(m.LogID); err != nil {
		logger.Warn("session index lookup failed", "dir", m.LogID, "err", err)
	} else if row == nil {
		logger.Warn("restarted session missing from index", "dir", m.LogID)
	} else {
		c.indexID = row.ID
		if err := c.srv.store.SetStatus(row.ID, store.StatusOpen); err != nil {
			logger.Warn("session index update failed", "dir", m.LogID, "err", err)
		}
	}
	return c.enc.Encode(protocol.SessionReady{Type: protocol.TypeSessionReady, LogID: m.LogID})
}

func (c *conn) indexSession(row *store.Session) {
	if err := c.srv.store.CreateSession(row); err != nil {
		// The on-disk log is the source of truth; a missed index row
		// is not worth aborting the session over.
		logger.Warn("session index insert failed", "dir", row.LogDir, "err", err)
		return
	}
	c.indexID = row.ID
}

// finish closes the session descriptor and records its final status.
func (c *conn) finish(status string) {
	if c.sess == nil {
		return
	}
	if err := c.sess.Close(); err != nil {
		logger.Warn("session close", "dir", c.sess.Dir(), "err", err)
	}
	if c.indexID != "" {
		if err := c.srv.store.SetStatus(c.indexID, status); err != nil {
			logger.Warn("session index update failed", "id", c.indexID, "err", err)
		}
	}
	c.sess = nil
	c.indexID = ""
}

// teardown runs on every connection exit path: an open session at this
// point means the client went away mid-stream.
func (c *conn) teardown() {
	c.finish(store.StatusAborted)
	c.nc.Close()
}

func (c *conn) sendError(kind, msg string) {
	c.enc.Encode(protocol.ErrorMsg{Type: protocol.TypeError, Kind: kind, Message: msg})
}
