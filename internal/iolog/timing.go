package iolog

import (
	"fmt"
	"strconv"
	"strings"
)

// maxTimingLine bounds the encoded size of a single timing record,
// newline included.
const maxTimingLine = 1024

// TimeSpec is a (seconds, nanoseconds) pair. Wire delays may arrive
// unnormalised; Add carries into seconds so accumulated values always
// keep Nsec in [0, 1e9).
type TimeSpec struct {
	Sec  int64 `json:"sec"`
	Nsec int64 `json:"nsec"`
}

// Add accumulates d into t, normalising nanoseconds.
func (t *TimeSpec) Add(d TimeSpec) {
	t.Sec += d.Sec
	t.Nsec += d.Nsec
	for t.Nsec >= 1e9 {
		t.Sec++
		t.Nsec -= 1e9
	}
}

// Cmp returns -1, 0 or 1 as t is before, equal to or after o.
// Both values must be normalised.
func (t TimeSpec) Cmp(o TimeSpec) int {
	switch {
	case t.Sec != o.Sec:
		if t.Sec < o.Sec {
			return -1
		}
		return 1
	case t.Nsec != o.Nsec:
		if t.Nsec < o.Nsec {
			return -1
		}
		return 1
	}
	return 0
}

// String renders t the way the timing file does: seconds, a dot, and
// exactly nine nanosecond digits.
func (t TimeSpec) String() string {
	return fmt.Sprintf("%d.%09d", t.Sec, t.Nsec)
}

// RecordKind distinguishes the decoded payload of a timing record.
type RecordKind int

const (
	RecordBytes RecordKind = iota
	RecordSuspend
	RecordWinsize
)

// Record is one decoded timing-file line.
type Record struct {
	Kind   RecordKind
	Stream StreamID // RecordBytes only
	Delay  TimeSpec
	Nbytes int64  // RecordBytes
	Signal string // RecordSuspend
	Rows   int    // RecordWinsize
	Cols   int    // RecordWinsize
}

// EncodeBytes formats the timing record for nbytes of data appended to
// the given byte stream.
func EncodeBytes(id StreamID, delay TimeSpec, nbytes int) (string, error) {
	if !id.isData() {
		return "", fmt.Errorf("%w: %d", ErrInvalidStream, id)
	}
	if nbytes < 0 {
		return "", fmt.Errorf("%w: negative byte count %d", ErrFormatInvalid, nbytes)
	}
	return checkLen(fmt.Sprintf("%d %s %d\n", id, delay, nbytes))
}

// EncodeSuspend formats the control record for a command suspension.
// The signal name is carried verbatim and must not contain separators.
func EncodeSuspend(delay TimeSpec, signal string) (string, error) {
	if signal == "" || strings.ContainsAny(signal, " \n") {
		return "", fmt.Errorf("%w: bad signal name %q", ErrFormatInvalid, signal)
	}
	return checkLen(fmt.Sprintf("%d %s %s\n", Timing, delay, signal))
}

// EncodeWinsize formats the control record for a window-size change.
func EncodeWinsize(delay TimeSpec, rows, cols int) (string, error) {
	if rows <= 0 || cols <= 0 {
		return "", fmt.Errorf("%w: bad window size %dx%d", ErrFormatInvalid, rows, cols)
	}
	return checkLen(fmt.Sprintf("%d %s %d %d\n", Timing, delay, rows, cols))
}

func checkLen(line string) (string, error) {
	if len(line) > maxTimingLine {
		return "", fmt.Errorf("%w: %d bytes", ErrFormatOverflow, len(line))
	}
	return line, nil
}

// Decode parses one timing-file line. A trailing newline is stripped
// if present. Control records with two integer payload fields are
// winsize events; a single payload field is a suspend signal name.
func Decode(line string) (Record, error) {
	var rec Record

	line = strings.TrimSuffix(line, "\n")
	fields := strings.Split(line, " ")
	if len(fields) < 3 || len(fields) > 4 {
		return rec, fmt.Errorf("%w: timing line %q", ErrFormatInvalid, line)
	}

	ev, err := parseDecimal(fields[0])
	if err != nil || ev >= int64(numStreams) {
		return rec, fmt.Errorf("%w: event kind %q", ErrFormatInvalid, fields[0])
	}

	rec.Delay, err = parseDelay(fields[1])
	if err != nil {
		return rec, err
	}

	if StreamID(ev) != Timing {
		if len(fields) != 3 {
			return rec, fmt.Errorf("%w: timing line %q", ErrFormatInvalid, line)
		}
		nbytes, err := parseDecimal(fields[2])
		if err != nil {
			return rec, fmt.Errorf("%w: byte count %q", ErrFormatInvalid, fields[2])
		}
		rec.Kind = RecordBytes
		rec.Stream = StreamID(ev)
		rec.Nbytes = nbytes
		return rec, nil
	}

	if len(fields) == 4 {
		rows, rerr := parseDecimal(fields[2])
		cols, cerr := parseDecimal(fields[3])
		if rerr != nil || cerr != nil || rows <= 0 || cols <= 0 {
			return rec, fmt.Errorf("%w: window size %q %q", ErrFormatInvalid, fields[2], fields[3])
		}
		rec.Kind = RecordWinsize
		rec.Rows = int(rows)
		rec.Cols = int(cols)
		return rec, nil
	}

	if fields[2] == "" {
		return rec, fmt.Errorf("%w: empty suspend signal", ErrFormatInvalid)
	}
	rec.Kind = RecordSuspend
	rec.Signal = fields[2]
	return rec, nil
}

// parseDelay parses "seconds.nanoseconds" with exactly nine nanosecond
// digits.
func parseDelay(s string) (TimeSpec, error) {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return TimeSpec{}, fmt.Errorf("%w: delay %q", ErrFormatInvalid, s)
	}
	sec, err := parseDecimal(s[:dot])
	if err != nil {
		return TimeSpec{}, fmt.Errorf("%w: delay seconds %q", ErrFormatInvalid, s)
	}
	frac := s[dot+1:]
	if len(frac) != 9 {
		return TimeSpec{}, fmt.Errorf("%w: delay nanoseconds %q", ErrFormatInvalid, s)
	}
	for i := 0; i < len(frac); i++ {
		if frac[i] < '0' || frac[i] > '9' {
			return TimeSpec{}, fmt.Errorf("%w: delay nanoseconds %q", ErrFormatInvalid, s)
		}
	}
	nsec, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return TimeSpec{}, fmt.Errorf("%w: delay nanoseconds %q", ErrFormatInvalid, s)
	}
	return TimeSpec{Sec: sec, Nsec: nsec}, nil
}

// parseDecimal parses a non-negative decimal integer with no sign and
// no leading zeros (a lone "0" is fine).
func parseDecimal(s string) (int64, error) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, fmt.Errorf("bad decimal %q", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("bad decimal %q", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
