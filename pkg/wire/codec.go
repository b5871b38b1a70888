package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for message bodies: deterministic
// ordering so that identical logical messages always produce identical
// bytes, which keeps §8's framing round-trip property simple to test.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode: lenient, for forward compatibility
// with fields a future protocol revision might add.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnix,
	}.EncMode()
	if err != nil {
		panic("wire: failed to build cbor encoder: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic("wire: failed to build cbor decoder: " + err.Error())
	}
}

// Marshal encodes a message body to canonical CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeMessage prefixes a big-endian uint16 message ID onto the CBOR
// encoding of body, per §3 "Message".
func EncodeMessage(messageID uint16, body any) ([]byte, error) {
	encoded, err := Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("wire: encode message %d: %w", messageID, err)
	}
	out := make([]byte, 2+len(encoded))
	binary.BigEndian.PutUint16(out[:2], messageID)
	copy(out[2:], encoded)
	return out, nil
}

// DecodeMessageID reads only the message ID prefix without decoding the
// body, for dispatch purposes.
func DecodeMessageID(payload []byte) (uint16, []byte, error) {
	if len(payload) < 2 {
		return 0, nil, fmt.Errorf("wire: payload too short for message id: %d bytes", len(payload))
	}
	return binary.BigEndian.Uint16(payload[:2]), payload[2:], nil
}

// DecodeMessage reads the message ID prefix and decodes the remaining
// bytes into body.
func DecodeMessage(payload []byte, body any) (messageID uint16, err error) {
	messageID, rest, err := DecodeMessageID(payload)
	if err != nil {
		return 0, err
	}
	if body == nil {
		return messageID, nil
	}
	if err := Unmarshal(rest, body); err != nil {
		return messageID, fmt.Errorf("wire: decode message %d body: %w", messageID, err)
	}
	return messageID, nil
}
