package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"

	"mediashelf/internal/logging"
)

const (
	maxLineSize = 1024 * 1024
	defaultPoll = 250 * time.Millisecond
	initialRead = 64 * 1024
)

// Filter reports whether a log line should be shown.
type Filter func(line string) bool

// MatchRunID keeps lines tagged with the given run ID in either the console
// or the JSON log format.
func MatchRunID(id string) Filter {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	console := logging.FieldRunID + "=" + id
	jsonForm := `"` + logging.FieldRunID + `":"` + id + `"`
	return func(line string) bool {
		return strings.Contains(line, console) || strings.Contains(line, jsonForm)
	}
}

// Reader reads one log file.
type Reader struct {
	fs   afero.Fs
	path string
}

// NewReader returns a reader for path on fs.
func NewReader(fs afero.Fs, path string) *Reader {
	return &Reader{fs: fs, path: path}
}

// Path returns the log file location.
func (r *Reader) Path() string {
	return r.path
}

// Last returns up to limit trailing lines accepted by filter, plus the file
// offset to resume following from. A missing file yields no lines.
func (r *Reader) Last(limit int, filter Filter) ([]string, int64, error) {
	file, err := r.fs.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", r.path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scanLines(file, 0, func(line string) {
		if filter != nil && !filter(line) {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow emits every complete line written after offset, polling until ctx
// is done. A truncated file is read again from the start.
func (r *Reader) Follow(ctx context.Context, offset int64, poll time.Duration, filter Filter, emit func(string)) error {
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		next, err := r.readFrom(offset, filter, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Reader) readFrom(offset int64, filter Filter, emit func(string)) (int64, error) {
	file, err := r.fs.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if offset == info.Size() {
		return offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	return scanLines(file, offset, func(line string) {
		if filter == nil || filter(line) {
			emit(line)
		}
	})
}

// scanLines feeds complete lines to fn and returns the offset just past the
// last newline seen. A trailing partial line is left for the next read.
func scanLines(rd io.Reader, start int64, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(rd, initialRead)
	offset := start
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			offset += int64(len(line))
			if len(line) <= maxLineSize {
				fn(strings.TrimRight(line, "\r\n"))
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		return offset, fmt.Errorf("read log file: %w", err)
	}
}
