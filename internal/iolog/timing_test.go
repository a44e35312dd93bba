package iolog

import (
	"errors"
	"strings"
	"testing"
)

func TestTimeSpecAddCarry(t *testing.T) {
	var elapsed TimeSpec
	d := TimeSpec{Sec: 0, Nsec: 999_999_999}
	elapsed.Add(d)
	elapsed.Add(d)
	want := TimeSpec{Sec: 1, Nsec: 999_999_998}
	if elapsed != want {
		t.Errorf("elapsed = %v, want %v", elapsed, want)
	}
}

func TestTimeSpecAddUnnormalised(t *testing.T) {
	var elapsed TimeSpec
	elapsed.Add(TimeSpec{Sec: 1, Nsec: 2_500_000_000})
	want := TimeSpec{Sec: 3, Nsec: 500_000_000}
	if elapsed != want {
		t.Errorf("elapsed = %v, want %v", elapsed, want)
	}
}

func TestTimeSpecCmp(t *testing.T) {
	tests := []struct {
		a, b TimeSpec
		want int
	}{
		{TimeSpec{0, 0}, TimeSpec{0, 0}, 0},
		{TimeSpec{1, 0}, TimeSpec{0, 999_999_999}, 1},
		{TimeSpec{0, 1}, TimeSpec{0, 2}, -1},
		{TimeSpec{2, 5}, TimeSpec{2, 5}, 0},
	}
	for _, tt := range tests {
		if got := tt.a.Cmp(tt.b); got != tt.want {
			t.Errorf("Cmp(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEncodeBytesFormat(t *testing.T) {
	line, err := EncodeBytes(Stdout, TimeSpec{Sec: 0, Nsec: 500_000_000}, 8)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	if line != "1 0.500000000 8\n" {
		t.Errorf("line = %q, want %q", line, "1 0.500000000 8\n")
	}
}

func TestEncodeSuspendFormat(t *testing.T) {
	line, err := EncodeSuspend(TimeSpec{Sec: 0, Nsec: 250_000_000}, "SIGTSTP")
	if err != nil {
		t.Fatalf("EncodeSuspend: %v", err)
	}
	if line != "5 0.250000000 SIGTSTP\n" {
		t.Errorf("line = %q, want %q", line, "5 0.250000000 SIGTSTP\n")
	}
}

func TestEncodeWinsizeFormat(t *testing.T) {
	line, err := EncodeWinsize(TimeSpec{Sec: 1, Nsec: 0}, 40, 120)
	if err != nil {
		t.Fatalf("EncodeWinsize: %v", err)
	}
	if line != "5 1.000000000 40 120\n" {
		t.Errorf("line = %q, want %q", line, "5 1.000000000 40 120\n")
	}
}

func TestEncodeBytesBadStream(t *testing.T) {
	if _, err := EncodeBytes(Timing, TimeSpec{}, 1); !errors.Is(err, ErrInvalidStream) {
		t.Errorf("err = %v, want ErrInvalidStream", err)
	}
	if _, err := EncodeBytes(StreamID(9), TimeSpec{}, 1); !errors.Is(err, ErrInvalidStream) {
		t.Errorf("err = %v, want ErrInvalidStream", err)
	}
}

func TestEncodeSuspendOverflow(t *testing.T) {
	long := strings.Repeat("X", 1100)
	if _, err := EncodeSuspend(TimeSpec{}, long); !errors.Is(err, ErrFormatOverflow) {
		t.Errorf("err = %v, want ErrFormatOverflow", err)
	}
}

func TestRoundTrip(t *testing.T) {
	delay := TimeSpec{Sec: 3, Nsec: 7}

	line, err := EncodeBytes(TTYOut, delay, 4096)
	if err != nil {
		t.Fatalf("EncodeBytes: %v", err)
	}
	rec, err := Decode(line)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Kind != RecordBytes || rec.Stream != TTYOut || rec.Delay != delay || rec.Nbytes != 4096 {
		t.Errorf("bytes record = %+v", rec)
	}

	line, err = EncodeSuspend(delay, "SIGSTOP")
	if err != nil {
		t.Fatalf("EncodeSuspend: %v", err)
	}
	rec, err = Decode(line)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Kind != RecordSuspend || rec.Signal != "SIGSTOP" || rec.Delay != delay {
		t.Errorf("suspend record = %+v", rec)
	}

	line, err = EncodeWinsize(delay, 50, 132)
	if err != nil {
		t.Fatalf("EncodeWinsize: %v", err)
	}
	rec, err = Decode(line)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Kind != RecordWinsize || rec.Rows != 50 || rec.Cols != 132 || rec.Delay != delay {
		t.Errorf("winsize record = %+v", rec)
	}
}

func TestDecodeWithoutNewline(t *testing.T) {
	rec, err := Decode("0 12.000000001 17")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Stream != Stdin || rec.Delay != (TimeSpec{Sec: 12, Nsec: 1}) || rec.Nbytes != 17 {
		t.Errorf("record = %+v", rec)
	}
}

func TestDecodeInvalid(t *testing.T) {
	lines := []string{
		"",
		"garbage",
		"1 0.500000000",           // missing payload
		"6 0.000000000 5",         // event kind out of range
		"-1 0.000000000 5",        // signed event kind
		"1 0.5 4",                 // nanoseconds not nine digits
		"1 0.5000000000 4",        // ten digits
		"1 1000000000 4",          // no dot
		"01 0.000000000 4",        // leading zero
		"1 0.000000000 007",       // leading zeros in count
		"1 0.000000000 4 5",       // extra field on byte record
		"1  0.000000000 4",        // double space
		"5 0.000000000 0 80",      // winsize zero rows
		"5 0.000000000 40 -1",     // winsize negative cols
		"5 0.000000000 40 x",      // winsize non-integer cols
		"5 0.000000000 ",          // empty suspend signal
	}
	for _, line := range lines {
		if _, err := Decode(line); !errors.Is(err, ErrFormatInvalid) {
			t.Errorf("Decode(%q) err = %v, want ErrFormatInvalid", line, err)
		}
	}
}
