package iolog

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Restart reopens an existing session directory and reconciles it with
// a client-asserted resume point: the timing file is replayed up to
// target, seeking each referenced stream forward by the bytes its
// preserved records account for, and then every stream and the timing
// file are truncated to those positions in one commit step. Deferring
// the truncation to the commit keeps a failed restart from modifying
// the log. On success the returned session accepts further appends
// with Elapsed() == target.
//
// The replay must land on target exactly; a timing file that skips
// over it fails with ErrRestartMismatch, and one that is corrupt,
// truncated short of target, or references a missing stream fails
// with ErrRestartUnusable.
func Restart(logID string, target TimeSpec) (*Session, error) {
	handle, err := reopenSessionDir(logID)
	if err != nil {
		return nil, err
	}
	s := &Session{dir: logID, handle: handle}

	// Open whatever stream files exist; absence only matters if the
	// replay references the stream.
	for id := Stdin; id < numStreams; id++ {
		f, err := s.handle.OpenFile(streamNames[id], os.O_RDWR, 0o600)
		if err != nil {
			continue
		}
		s.files[id] = f
	}
	if s.files[Timing] == nil {
		s.Close()
		return nil, fmt.Errorf("%w: %s has no timing file", ErrRestartUnusable, logID)
	}

	elapsed, pos, err := s.replayTiming(target)
	if err != nil {
		s.Close()
		return nil, err
	}

	// Commit: position the writable timing handle just past the last
	// preserved record and drop everything after it, then cut each
	// stream to the bytes the preserved records account for.
	tf := s.files[Timing]
	if _, err := tf.Seek(pos, io.SeekStart); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: seek timing: %v", ErrStorageWriteFailed, err)
	}
	if err := tf.Truncate(pos); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: truncate timing: %v", ErrStorageWriteFailed, err)
	}
	for id := Stdin; id < Timing; id++ {
		f := s.files[id]
		if f == nil {
			continue
		}
		off, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: seek %s: %v", ErrStorageWriteFailed, streamNames[id], err)
		}
		if err := f.Truncate(off); err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: truncate %s: %v", ErrStorageWriteFailed, streamNames[id], err)
		}
	}

	s.elapsed = elapsed
	return s, nil
}

// replayTiming reads timing records through a duplicated descriptor
// until the accumulated delay reaches target, seeking each referenced
// stream forward as it goes. It returns the elapsed time (equal to
// target) and the byte offset just past the last preserved record.
// The duplicate keeps the buffered read from owning the session's
// writable timing handle.
func (s *Session) replayTiming(target TimeSpec) (TimeSpec, int64, error) {
	dupfd, err := unix.Dup(int(s.files[Timing].Fd()))
	if err != nil {
		return TimeSpec{}, 0, fmt.Errorf("%w: dup timing: %v", ErrRestartUnusable, err)
	}
	rf := os.NewFile(uintptr(dupfd), streamNames[Timing])
	defer rf.Close()

	var elapsed TimeSpec
	var pos int64
	br := bufio.NewReader(rf)
	for {
		switch c := elapsed.Cmp(target); {
		case c == 0:
			return elapsed, pos, nil
		case c > 0:
			return TimeSpec{}, 0, fmt.Errorf("%w: target %s, log has %s",
				ErrRestartMismatch, target, elapsed)
		}

		// A trailing line without a newline counts as absent.
		line, err := br.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return TimeSpec{}, 0, fmt.Errorf("%w: timing file ends at %s, target %s",
					ErrRestartUnusable, elapsed, target)
			}
			return TimeSpec{}, 0, fmt.Errorf("%w: read timing: %v", ErrRestartUnusable, err)
		}
		pos += int64(len(line))

		rec, err := Decode(line)
		if err != nil {
			return TimeSpec{}, 0, fmt.Errorf("%w: %v", ErrRestartUnusable, err)
		}
		elapsed.Add(rec.Delay)

		if rec.Kind != RecordBytes {
			continue
		}
		f := s.files[rec.Stream]
		if f == nil {
			return TimeSpec{}, 0, fmt.Errorf("%w: timing references missing %s",
				ErrRestartUnusable, streamNames[rec.Stream])
		}
		if _, err := f.Seek(rec.Nbytes, io.SeekCurrent); err != nil {
			return TimeSpec{}, 0, fmt.Errorf("%w: seek %s: %v",
				ErrStorageWriteFailed, streamNames[rec.Stream], err)
		}
	}
}
