package providers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

// readFrames calls handle once per complete line of body until handle returns
// false or the body ends. Partial lines are held back until their newline
// arrives; a trailing line without a newline is delivered at EOF. When no
// bytes arrive for idle, the body is closed and an error is returned.
func readFrames(body io.ReadCloser, idle time.Duration, handle func(line string) bool) error {
	var source io.Reader = body
	var expired atomic.Bool

	if idle > 0 {
		timer := time.AfterFunc(idle, func() {
			expired.Store(true)
			body.Close()
		})
		defer timer.Stop()
		source = &idleReader{r: body, timer: timer, idle: idle}
	}

	reader := bufio.NewReader(source)

	for {
		line, err := reader.ReadString('\n')
		if line != "" && (err == nil || errors.Is(err, io.EOF)) {
			if !handle(strings.TrimRight(line, "\r\n")) {
				return nil
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if expired.Load() {
				return fmt.Errorf("no data received for %s", idle)
			}
			return err
		}
	}
}

type idleReader struct {
	r     io.Reader
	timer *time.Timer
	idle  time.Duration
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.idle)
	}
	return n, err
}

// sseData returns the payload of a "data:" line.
func sseData(line string) (string, bool) {
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(data), true
}

// decodeFrame unmarshals one frame payload; malformed frames are reported so
// the caller can skip them.
func decodeFrame(data string, v any) bool {
	return json.Unmarshal([]byte(data), v) == nil
}
