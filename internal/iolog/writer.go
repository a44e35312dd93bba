package iolog

import (
	"errors"
	"fmt"
	"os"
)

// Session owns one session directory: the anchoring directory handle
// and up to six file handles. NewSession creates timing, stdout, stderr
// and ttyout up front; stdin and ttyin are opened on their first write.
// All methods must be called from a single goroutine; separate
// sessions are independent.
type Session struct {
	dir     string
	handle  *os.Root
	files   [numStreams]*os.File
	elapsed TimeSpec
}

// NewSession materialises the on-disk directory for a session-open
// record: <root>/<submithost>/<submituser>/XXXXXX with the "log" info
// file written and the timing, stdout, stderr and ttyout files
// pre-created for the replay tooling. On failure the already-acquired
// handles are released; files written so far stay on disk except that
// a leaf directory whose handle never opened is removed again.
func NewSession(root string, open *SessionOpen) (*Session, error) {
	if err := open.normalize(); err != nil {
		return nil, err
	}

	dir, handle, err := createSessionDir(root, open.SubmitHost, open.SubmitUser)
	if err != nil {
		return nil, err
	}
	s := &Session{dir: dir, handle: handle}

	if err := writeInfoFile(handle, open); err != nil {
		s.Close()
		return nil, err
	}
	for _, id := range []StreamID{Timing, Stdout, Stderr, TTYOut} {
		if err := s.openStream(id); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the session directory path; it doubles as the log id a
// client presents to resume the session later.
func (s *Session) Dir() string {
	return s.dir
}

// Elapsed returns the accumulated offset from session start.
func (s *Session) Elapsed() TimeSpec {
	return s.elapsed
}

func (s *Session) openStream(id StreamID) error {
	f, err := s.handle.OpenFile(streamNames[id], os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("%w: create %s/%s: %v", ErrStorageWriteFailed, s.dir, streamNames[id], err)
	}
	s.files[id] = f
	return nil
}

// writeStream appends b to the named log file, creating it on first
// write. A short write is a hard failure.
func (s *Session) writeStream(id StreamID, b []byte) error {
	if !id.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStream, id)
	}
	if s.files[id] == nil {
		if err := s.openStream(id); err != nil {
			return err
		}
	}
	n, err := s.files[id].Write(b)
	if err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrStorageWriteFailed, s.dir, streamNames[id], err)
	}
	if n != len(b) {
		return fmt.Errorf("%w: short write to %s/%s (%d of %d)",
			ErrStorageWriteFailed, s.dir, streamNames[id], n, len(b))
	}
	return nil
}

// AppendData stores one chunk of stream data: the bytes go to the
// stream file first, then the matching timing record. The order
// matters: a crash can leave a trailing chunk without a timing entry,
// which the next restart's truncation discards, but never a timing
// entry without its data.
func (s *Session) AppendData(id StreamID, delay TimeSpec, data []byte) error {
	if !id.isData() {
		return fmt.Errorf("%w: %d", ErrInvalidStream, id)
	}
	line, err := EncodeBytes(id, delay, len(data))
	if err != nil {
		return err
	}
	if err := s.writeStream(id, data); err != nil {
		return err
	}
	if err := s.writeStream(Timing, []byte(line)); err != nil {
		return err
	}
	s.elapsed.Add(delay)
	return nil
}

// AppendSuspend records a command suspension; only the timing file is
// written.
func (s *Session) AppendSuspend(delay TimeSpec, signal string) error {
	line, err := EncodeSuspend(delay, signal)
	if err != nil {
		return err
	}
	if err := s.writeStream(Timing, []byte(line)); err != nil {
		return err
	}
	s.elapsed.Add(delay)
	return nil
}

// AppendWinsize records a window-size change; only the timing file is
// written.
func (s *Session) AppendWinsize(delay TimeSpec, rows, cols int) error {
	line, err := EncodeWinsize(delay, rows, cols)
	if err != nil {
		return err
	}
	if err := s.writeStream(Timing, []byte(line)); err != nil {
		return err
	}
	s.elapsed.Add(delay)
	return nil
}

// Close releases every open stream handle and then the directory
// handle. Safe to call more than once.
func (s *Session) Close() error {
	var errs []error
	for i, f := range s.files {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", streamNames[i], err))
		}
		s.files[i] = nil
	}
	if s.handle != nil {
		if err := s.handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.dir, err))
		}
		s.handle = nil
	}
	return errors.Join(errs...)
}
