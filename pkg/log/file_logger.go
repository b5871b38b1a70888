package log

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// FileLogger persists Events to an append-only file as a sequence of
// {u32 length, cbor bytes} records, so a session's protocol history can be
// replayed later with Reader. It is the on-disk counterpart to SlogAdapter.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileLogger opens path for appending, creating it if necessary.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log: open %s: %w", path, err)
	}
	return &FileLogger{file: f}, nil
}

// Log appends event to the file. Encoding errors are swallowed (logging
// must never be allowed to take down the session); write errors on the
// underlying file are also swallowed for the same reason.
func (fl *FileLogger) Log(event Event) {
	data, err := encMode.Marshal(event)
	if err != nil {
		return
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := fl.file.Write(lenBuf[:]); err != nil {
		return
	}
	_, _ = fl.file.Write(data)
}

// Close closes the underlying file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.file.Close()
}

var _ Logger = (*FileLogger)(nil)

// Reader replays Events previously written by FileLogger.
type Reader struct {
	r io.Reader
}

// NewReader wraps r for replay.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next decodes the next Event, returning io.EOF when the stream is exhausted.
func (r *Reader) Next() (Event, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Event{}, io.EOF
		}
		return Event{}, err
	}

	size := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, size)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return Event{}, fmt.Errorf("log: truncated record: %w", err)
	}

	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("log: decode record: %w", err)
	}
	return event, nil
}
