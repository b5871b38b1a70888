package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	fr := NewFrameReader(&buf)

	want := Frame{
		ChannelID:   ChannelVideo,
		Flags:       FlagFirst | FlagLast | FlagEncrypted,
		TotalLength: 4,
		Payload:     []byte{1, 2, 3, 4},
	}
	require.NoError(t, fw.WriteFrame(want))

	got, err := fr.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, want.ChannelID, got.ChannelID)
	require.Equal(t, want.Flags, got.Flags)
	require.Equal(t, want.TotalLength, got.TotalLength)
	require.Equal(t, want.Payload, got.Payload)
	require.True(t, got.First())
	require.True(t, got.Last())
	require.True(t, got.Encrypted())
	require.False(t, got.Control())
}

func TestFrameReaderContinuationHasNoTotalLength(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	fr := NewFrameReader(&buf)

	require.NoError(t, fw.WriteFrame(Frame{
		ChannelID: ChannelInput,
		Flags:     FlagLast,
		Payload:   []byte{9, 9},
	}))

	got, err := fr.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, uint32(0), got.TotalLength)
	require.Equal(t, []byte{9, 9}, got.Payload)
}

// reassembleOneMessage drives a Reassembler with a sequence of frames
// split at every MTU-sized boundary, exercising §8 property 1: a message
// fragmented across any MTU reassembles byte-identical to the original.
func reassembleOneMessage(t *testing.T, channel ChannelID, message []byte, mtu int) []byte {
	t.Helper()
	require.Greater(t, mtu, 0)

	r := NewReassembler()
	for offset := 0; offset < len(message); offset += mtu {
		end := offset + mtu
		if end > len(message) {
			end = len(message)
		}
		flags := uint8(0)
		if offset == 0 {
			flags |= FlagFirst
		}
		if end == len(message) {
			flags |= FlagLast
		}
		f := Frame{
			ChannelID:   channel,
			Flags:       flags,
			TotalLength: uint32(len(message)),
			Payload:     message[offset:end],
		}
		payload, _, complete, err := r.Feed(f)
		require.NoError(t, err)
		if complete {
			return payload
		}
	}
	t.Fatal("reassembly never completed")
	return nil
}

func TestReassemblerRoundTripAcrossMTUs(t *testing.T) {
	message := bytes.Repeat([]byte("android-auto-projection-payload-"), 50)

	for _, mtu := range []int{1, 2, 3, 7, 16, 64, 1024, len(message)} {
		got := reassembleOneMessage(t, ChannelVideo, message, mtu)
		require.Equal(t, message, got, "mtu=%d", mtu)
	}
}

func TestReassemblerSingleFrameFastPath(t *testing.T) {
	r := NewReassembler()
	payload, flags, complete, err := r.Feed(Frame{
		ChannelID: ChannelControl,
		Flags:     FlagFirst | FlagLast,
		Payload:   []byte("hello"),
	})
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, []byte("hello"), payload)
	require.True(t, Frame{Flags: flags}.First())
}

func TestReassemblerOutOfOrderFragment(t *testing.T) {
	r := NewReassembler()
	_, _, _, err := r.Feed(Frame{
		ChannelID: ChannelVideo,
		Flags:     0, // neither FIRST nor LAST, no prior FIRST seen
		Payload:   []byte{1},
	})
	require.ErrorIs(t, err, ErrOutOfOrderFrame)
}

func TestReassemblerTruncatedMessageLengthMismatch(t *testing.T) {
	r := NewReassembler()
	_, _, complete, err := r.Feed(Frame{
		ChannelID:   ChannelVideo,
		Flags:       FlagFirst,
		TotalLength: 10,
		Payload:     []byte{1, 2, 3},
	})
	require.NoError(t, err)
	require.False(t, complete)

	_, _, complete, err = r.Feed(Frame{
		ChannelID: ChannelVideo,
		Flags:     FlagLast,
		Payload:   []byte{4, 5}, // only 5 bytes total, expected 10
	})
	require.Error(t, err)
	require.False(t, complete)
}

func TestReassemblerInterleavesIndependentChannels(t *testing.T) {
	r := NewReassembler()

	_, _, complete, err := r.Feed(Frame{ChannelID: ChannelVideo, Flags: FlagFirst, TotalLength: 2, Payload: []byte{1}})
	require.NoError(t, err)
	require.False(t, complete)

	_, _, complete, err = r.Feed(Frame{ChannelID: ChannelInput, Flags: FlagFirst | FlagLast, TotalLength: 1, Payload: []byte{42}})
	require.NoError(t, err)
	require.True(t, complete)

	payload, _, complete, err := r.Feed(Frame{ChannelID: ChannelVideo, Flags: FlagLast, Payload: []byte{2}})
	require.NoError(t, err)
	require.True(t, complete)
	require.Equal(t, []byte{1, 2}, payload)
}

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	want := VersionRequest{MajorVersion: 1, MinorVersion: 7}

	payload, err := EncodeMessage(uint16(ControlVersionRequestID), want)
	require.NoError(t, err)

	var got VersionRequest
	id, err := DecodeMessage(payload, &got)
	require.NoError(t, err)
	require.Equal(t, uint16(ControlVersionRequestID), id)
	require.Equal(t, want, got)
}

func TestDecodeMessageIDTooShort(t *testing.T) {
	_, _, err := DecodeMessageID([]byte{0x01})
	require.Error(t, err)
}

func TestServiceDiscoveryResponseRoundTrip(t *testing.T) {
	want := ServiceDiscoveryResponse{
		HeadUnitName: "test-unit",
		CarModel:     "Model X",
		CarYear:      "2026",
		CarSerial:    "SN-001",
		Channels: []ChannelDescriptor{
			{
				ChannelID:   ChannelVideo,
				ChannelType: ChannelTypeVideo,
				VideoFeature: &VideoFeature{
					Width: 1920, Height: 1080, DPI: 160, FPS: 60,
					Codec: "h264", MaxBitrate: 8_000_000,
				},
			},
			{
				ChannelID:   ChannelInput,
				ChannelType: ChannelTypeInput,
				InputFeature: &InputFeature{
					SupportsTouch: true, TouchWidth: 800, TouchHeight: 480,
				},
			},
		},
	}

	payload, err := EncodeMessage(uint16(ControlServiceDiscoveryResponseID), want)
	require.NoError(t, err)

	var got ServiceDiscoveryResponse
	_, err = DecodeMessage(payload, &got)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestInputEventIndicationTouchRoundTrip(t *testing.T) {
	want := InputEventIndication{
		Timestamp: 123456,
		Touch: &TouchEvent{
			Action: TouchActionMove,
			Pointers: []TouchPointer{
				{PointerID: 0, X: 100, Y: 200},
				{PointerID: 1, X: 300, Y: 400},
			},
		},
	}

	payload, err := EncodeMessage(uint16(InputEventIndicationID), want)
	require.NoError(t, err)

	var got InputEventIndication
	_, err = DecodeMessage(payload, &got)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Nil(t, got.Button)
}

func TestChannelIDStringAndMessageIDStringers(t *testing.T) {
	require.Equal(t, "VIDEO", ChannelVideo.String())
	require.Equal(t, "VersionRequest", ControlVersionRequestID.String())
	require.Equal(t, "AVChannelSetupRequest", AVChannelSetupRequestID.String())
	require.Equal(t, "SensorEventIndication", SensorEventIndicationID.String())
	require.Equal(t, "MATCH", VersionMatch.String())
	require.Equal(t, "OK", StatusOK.String())
}
