// Package replay plays a recorded session back through a writer at
// the pace the timing file dictates.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ehrlich-b/iologd/internal/iolog"
)

type Options struct {
	// Speed divides every delay; 0 means real time.
	Speed float64

	// MaxWait caps a single pause, so long idle stretches in the
	// recording don't stall playback. Zero means no cap.
	MaxWait time.Duration
}

// shown is the set of streams whose bytes reach the output. Input
// streams are consumed but not displayed; what the user typed is
// already echoed in ttyout.
var shown = map[iolog.StreamID]bool{
	iolog.Stdout: true,
	iolog.Stderr: true,
	iolog.TTYOut: true,
}

// Play replays the session stored in dir to out.
func Play(dir string, out io.Writer, opts Options) error {
	if opts.Speed <= 0 {
		opts.Speed = 1
	}

	tf, err := os.Open(filepath.Join(dir, "timing"))
	if err != nil {
		return fmt.Errorf("open timing: %w", err)
	}
	defer tf.Close()

	var streams [6]*os.File
	defer func() {
		for _, f := range streams {
			if f != nil {
				f.Close()
			}
		}
	}()

	br := bufio.NewReader(tf)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			// A trailing line without a newline is an unfinished
			// record; playback ends at the last complete one.
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read timing: %w", err)
		}
		rec, err := iolog.Decode(line)
		if err != nil {
			return err
		}

		pause(rec.Delay, opts)

		if rec.Kind != iolog.RecordBytes {
			continue
		}
		f := streams[rec.Stream]
		if f == nil {
			f, err = os.Open(filepath.Join(dir, rec.Stream.String()))
			if err != nil {
				return fmt.Errorf("open %s: %w", rec.Stream, err)
			}
			streams[rec.Stream] = f
		}
		dst := out
		if !shown[rec.Stream] {
			dst = io.Discard
		}
		if _, err := io.CopyN(dst, f, rec.Nbytes); err != nil {
			return fmt.Errorf("replay %s: %w", rec.Stream, err)
		}
	}
}

func pause(delay iolog.TimeSpec, opts Options) {
	d := time.Duration(delay.Sec)*time.Second + time.Duration(delay.Nsec)*time.Nanosecond
	d = time.Duration(float64(d) / opts.Speed)
	if opts.MaxWait > 0 && d > opts.MaxWait {
		d = opts.MaxWait
	}
	if d > 0 {
		time.Sleep(d)
	}
}
