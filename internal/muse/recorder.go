package muse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
)

// Recorder rips a live stream to a file alongside playback. It opens its own
// connection to the stream URL rather than tapping mpv's, so recording can
// be toggled without disturbing the transport.
type Recorder struct {
	Path string

	cancel context.CancelFunc
	done   chan error
}

// StartRecording begins writing the stream at url to path. Recording
// continues until Stop is called, the context is cancelled, or the stream
// closes.
func StartRecording(ctx context.Context, url, path string) (*Recorder, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to make request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "failed to connect to stream")
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(path)
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, errors.Wrap(err, "failed to create recording file")
	}

	r := &Recorder{
		Path:   path,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	go func() {
		defer resp.Body.Close()
		defer f.Close()

		_, err := io.Copy(f, resp.Body)
		if err != nil && ctx.Err() == nil {
			r.done <- errors.Wrap(err, "stream copy failed")
			return
		}

		r.done <- nil
	}()

	return r, nil
}

// Stop ends the recording and waits for the file to be flushed. It returns
// the copy error, if any; a Stop-induced cancellation is not an error.
func (r *Recorder) Stop() error {
	r.cancel()
	return <-r.done
}
