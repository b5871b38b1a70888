package channel

import (
	"sync"

	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// Sensor is the sensor channel (§4.9): the phone subscribes to one or
// more sensor types via SensorStartRequest; the head unit then pushes
// SensorEventIndication updates for each subscribed type until the
// channel closes.
type Sensor struct {
	base

	supported []wire.SensorType

	mu          sync.Mutex
	subscribed  map[wire.SensorType]bool
}

// NewSensor creates the sensor channel, advertising supported as the
// subscribable sensor types.
func NewSensor(host Host, supported []wire.SensorType) *Sensor {
	return &Sensor{
		base:       base{host: host, id: wire.ChannelSensor, name: "sensor"},
		supported:  supported,
		subscribed: make(map[wire.SensorType]bool),
	}
}

// Descriptor returns this channel's ServiceDiscoveryResponse entry.
func (s *Sensor) Descriptor() wire.ChannelDescriptor {
	return wire.ChannelDescriptor{
		ChannelID:     wire.ChannelSensor,
		ChannelType:   wire.ChannelTypeSensor,
		SensorFeature: &wire.SensorFeature{SupportedSensors: s.supported},
	}
}

// Open begins waiting for the phone to open this channel.
func (s *Sensor) Open() {
	s.logState("closed", "awaiting_open", "")
	s.register(s.openResponder(uint16(wire.SensorChannelOpenResponseID), s.onStartRequest))
}

func (s *Sensor) onStartRequest(_ uint16, payload []byte) {
	var req wire.SensorStartRequest
	if err := wire.Unmarshal(payload, &req); err != nil {
		s.logError("malformed_start_request", err)
		s.register(s.onStartRequest)
		return
	}

	status := wire.StatusFail
	if s.isSupported(req.Type) {
		s.mu.Lock()
		s.subscribed[req.Type] = true
		s.mu.Unlock()
		status = wire.StatusOK
	}

	// The phone may subscribe to several sensor types in sequence, each
	// its own SensorStartRequest/Response; the channel re-arms for the
	// next one indefinitely.
	s.register(s.onStartRequest)
	s.send(uint16(wire.SensorStartResponseID), wire.SensorStartResponse{Status: status}, nil)
}

func (s *Sensor) isSupported(t wire.SensorType) bool {
	for _, st := range s.supported {
		if st == t {
			return true
		}
	}
	return false
}

func (s *Sensor) isSubscribed(t wire.SensorType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed[t]
}

// SendDrivingStatus reports a driving-status change, if subscribed.
func (s *Sensor) SendDrivingStatus(status wire.DrivingStatus) {
	if !s.isSubscribed(wire.SensorTypeDrivingStatus) {
		return
	}
	s.send(uint16(wire.SensorEventIndicationID), wire.SensorEventIndication{DrivingStatus: &status}, nil)
}

// SendNightMode reports a night-mode change, if subscribed.
func (s *Sensor) SendNightMode(active bool) {
	if !s.isSubscribed(wire.SensorTypeNightMode) {
		return
	}
	s.send(uint16(wire.SensorEventIndicationID), wire.SensorEventIndication{NightMode: &active}, nil)
}

// SendLocation reports one GNSS fix, if subscribed.
func (s *Sensor) SendLocation(ev wire.LocationEvent) {
	if !s.isSubscribed(wire.SensorTypeLocation) {
		return
	}
	s.send(uint16(wire.SensorEventIndicationID), wire.SensorEventIndication{Location: &ev}, nil)
}
