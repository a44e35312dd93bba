package replay

import (
	"bytes"
	"testing"
	"time"

	"github.com/ehrlich-b/iologd/internal/iolog"
)

// recordSession writes a small session and returns its directory.
func recordSession(t *testing.T) string {
	t.Helper()
	s, err := iolog.NewSession(t.TempDir(), &iolog.SessionOpen{
		StartTime:  1000,
		SubmitUser: "alice",
		SubmitHost: "h1",
		Command:    "/bin/echo",
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.AppendData(iolog.TTYIn, iolog.TimeSpec{}, []byte("echo hi\r")); err != nil {
		t.Fatalf("AppendData ttyin: %v", err)
	}
	if err := s.AppendData(iolog.TTYOut, iolog.TimeSpec{Nsec: 1000}, []byte("echo hi\r\n")); err != nil {
		t.Fatalf("AppendData ttyout: %v", err)
	}
	if err := s.AppendWinsize(iolog.TimeSpec{Nsec: 1000}, 40, 120); err != nil {
		t.Fatalf("AppendWinsize: %v", err)
	}
	if err := s.AppendData(iolog.Stdout, iolog.TimeSpec{Nsec: 1000}, []byte("hi\r\n")); err != nil {
		t.Fatalf("AppendData stdout: %v", err)
	}
	dir := s.Dir()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return dir
}

func TestPlay(t *testing.T) {
	dir := recordSession(t)

	var out bytes.Buffer
	err := Play(dir, &out, Options{Speed: 1000, MaxWait: time.Millisecond})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	// ttyin is consumed silently; ttyout and stdout appear in order.
	want := "echo hi\r\nhi\r\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestPlayMissingTiming(t *testing.T) {
	if err := Play(t.TempDir(), &bytes.Buffer{}, Options{Speed: 1000}); err == nil {
		t.Error("Play succeeded on a directory with no timing file")
	}
}
