package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/wire"
)

func TestSensorSubscribeAndReport(t *testing.T) {
	host := newFakeHost()
	s := NewSensor(host, []wire.SensorType{wire.SensorTypeDrivingStatus, wire.SensorTypeLocation})

	s.Open()
	host.deliver(wire.ChannelSensor, uint16(wire.SensorChannelOpenRequestID), wire.ChannelOpenRequest{})
	host.deliver(wire.ChannelSensor, uint16(wire.SensorStartRequestID), wire.SensorStartRequest{Type: wire.SensorTypeDrivingStatus})

	last := host.lastSent()
	require.Equal(t, uint16(wire.SensorStartResponseID), last.ID)
	require.Equal(t, wire.StatusOK, last.Body.(wire.SensorStartResponse).Status)

	// Unsupported type is rejected but the channel stays armed for more
	// subscribe requests.
	host.deliver(wire.ChannelSensor, uint16(wire.SensorStartRequestID), wire.SensorStartRequest{Type: wire.SensorTypeNightMode})
	require.Equal(t, wire.StatusFail, host.lastSent().Body.(wire.SensorStartResponse).Status)

	s.SendDrivingStatus(wire.DrivingStatusNoVideo)
	ind := host.lastSent().Body.(wire.SensorEventIndication)
	require.Equal(t, wire.DrivingStatusNoVideo, *ind.DrivingStatus)

	// Night mode was never successfully subscribed.
	countBefore := host.sentCount()
	s.SendNightMode(true)
	require.Equal(t, countBefore, host.sentCount())
}
