package btbootstrap

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// maxFrameBody bounds a single bootstrap message's encoded body, well
// above anything §4.13's messages ever carry.
const maxFrameBody = 1 << 16

// writeFrame writes one RFCOMM bootstrap message: {u16 length, u16 type,
// body} (§4.13 "Wire framing on RFCOMM"), where length is the encoded
// body's byte count.
func writeFrame(w io.Writer, msgType MessageType, body any) error {
	encoded, err := wire.Marshal(body)
	if err != nil {
		return fmt.Errorf("btbootstrap: encode %s: %w", msgType, err)
	}

	header := make([]byte, 4)
	binary.BigEndian.PutUint16(header[0:2], uint16(len(encoded)))
	binary.BigEndian.PutUint16(header[2:4], uint16(msgType))

	if _, err := w.Write(header); err != nil {
		return errs.Wrap(errs.IO, "btbootstrap:write", err)
	}
	if len(encoded) > 0 {
		if _, err := w.Write(encoded); err != nil {
			return errs.Wrap(errs.IO, "btbootstrap:write", err)
		}
	}
	return nil
}

// readFrame reads one RFCOMM bootstrap message and returns its type and
// raw (still-encoded) body.
func readFrame(r io.Reader) (MessageType, []byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, errs.Wrap(errs.IO, "btbootstrap:read", err)
	}

	length := binary.BigEndian.Uint16(header[0:2])
	msgType := MessageType(binary.BigEndian.Uint16(header[2:4]))
	if length > maxFrameBody {
		return 0, nil, errs.New(errs.ProtocolViolation, "btbootstrap:read:oversized_frame")
	}

	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, nil, errs.Wrap(errs.IO, "btbootstrap:read", err)
		}
	}
	return msgType, body, nil
}
