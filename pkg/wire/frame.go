package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Frame flag bits (§3 "Frame").
const (
	FlagFirst     uint8 = 1 << 0
	FlagLast      uint8 = 1 << 1
	FlagEncrypted uint8 = 1 << 2
	FlagControl   uint8 = 1 << 3
)

// Framing errors.
var (
	ErrFrameTruncated  = errors.New("wire: frame truncated")
	ErrFrameTooLarge   = errors.New("wire: frame payload too large")
	ErrOutOfOrderFrame = errors.New("wire: fragment received out of order")
)

// MaxPayloadSize bounds a single frame's payload (not the reassembled
// message, which is bounded by the FIRST fragment's total-length
// prefix). The frame length header is a uint16, so this must never
// exceed 65535; AA itself fragments at roughly 16 KB, which this
// matches.
const MaxPayloadSize = 16 * 1024

// Frame is a single wire unit: a header plus its payload slice. Flags is
// carried on every frame; TotalLength has meaning only when First is true.
type Frame struct {
	ChannelID   ChannelID
	Flags       uint8
	TotalLength uint32 // valid when First is set
	Payload     []byte
}

func (f Frame) First() bool     { return f.Flags&FlagFirst != 0 }
func (f Frame) Last() bool      { return f.Flags&FlagLast != 0 }
func (f Frame) Encrypted() bool { return f.Flags&FlagEncrypted != 0 }
func (f Frame) Control() bool   { return f.Flags&FlagControl != 0 }

// FrameWriter writes frames to an underlying io.Writer. Safe for
// concurrent use; writes are serialized so one frame's bytes are never
// interleaved with another's.
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameWriter creates a writer over w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame serializes and writes a single frame.
func (fw *FrameWriter) WriteFrame(f Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(f.Payload), MaxPayloadSize)
	}

	headerLen := 4
	if f.First() {
		headerLen += 4
	}
	buf := make([]byte, headerLen+len(f.Payload))
	buf[0] = byte(f.ChannelID)
	buf[1] = f.Flags
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(f.Payload)))
	if f.First() {
		binary.BigEndian.PutUint32(buf[4:8], f.TotalLength)
	}
	copy(buf[headerLen:], f.Payload)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	_, err := fw.w.Write(buf)
	return err
}

// FrameReader reads frames from an underlying io.Reader.
type FrameReader struct {
	r io.Reader
}

// NewFrameReader creates a reader over r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// ReadFrame reads and decodes exactly one frame.
func (fr *FrameReader) ReadFrame() (Frame, error) {
	var header [4]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		return Frame{}, err
	}

	f := Frame{
		ChannelID: ChannelID(header[0]),
		Flags:     header[1],
	}
	payloadLen := binary.BigEndian.Uint16(header[2:4])

	if f.First() {
		var totalLenBuf [4]byte
		if _, err := io.ReadFull(fr.r, totalLenBuf[:]); err != nil {
			return Frame{}, fmt.Errorf("%w: reading total length: %v", ErrFrameTruncated, err)
		}
		f.TotalLength = binary.BigEndian.Uint32(totalLenBuf[:])
	}

	f.Payload = make([]byte, payloadLen)
	if _, err := io.ReadFull(fr.r, f.Payload); err != nil {
		return Frame{}, fmt.Errorf("%w: reading payload: %v", ErrFrameTruncated, err)
	}
	return f, nil
}

// Reassembler buffers fragmented messages per channel and yields a
// complete payload once the LAST fragment for that channel arrives.
// Fragments for a given channel must arrive strictly in order; fragments
// from different channels may interleave freely (§4.1).
type Reassembler struct {
	pending map[ChannelID]*partial
}

type partial struct {
	buf   []byte
	total uint32
}

// NewReassembler creates an empty reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{pending: make(map[ChannelID]*partial)}
}

// Feed consumes one frame. It returns (payload, flags, true, nil) once a
// full message has been reassembled for f.ChannelID; otherwise it returns
// (nil, 0, false, nil) while more fragments are expected.
func (r *Reassembler) Feed(f Frame) (payload []byte, flags uint8, complete bool, err error) {
	p, inProgress := r.pending[f.ChannelID]

	switch {
	case f.First() && f.Last():
		return f.Payload, f.Flags, true, nil

	case f.First():
		r.pending[f.ChannelID] = &partial{
			buf:   append([]byte(nil), f.Payload...),
			total: f.TotalLength,
		}
		return nil, 0, false, nil

	case inProgress:
		p.buf = append(p.buf, f.Payload...)
		if f.Last() {
			delete(r.pending, f.ChannelID)
			if uint32(len(p.buf)) != p.total {
				return nil, 0, false, fmt.Errorf("wire: reassembled %d bytes, expected %d", len(p.buf), p.total)
			}
			return p.buf, f.Flags, true, nil
		}
		return nil, 0, false, nil

	default:
		return nil, 0, false, ErrOutOfOrderFrame
	}
}
