package ports

import (
	"fmt"

	"github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// LoggingVideoSink satisfies VideoSink by logging every call instead of
// driving real hardware decode. Useful for tests and a headless build.
type LoggingVideoSink struct {
	Logger log.Logger
	Config VideoConfig
}

func (s *LoggingVideoSink) Open() error {
	s.log("open")
	return nil
}

func (s *LoggingVideoSink) Init() (VideoConfig, error) {
	s.log("init")
	cfg := s.Config
	if cfg.Resolution == "" {
		cfg = VideoConfig{Resolution: "800x480", FPS: 60, DPI: 140}
	}
	return cfg, nil
}

func (s *LoggingVideoSink) Write(timestampUs int64, data []byte) error {
	s.log(fmt.Sprintf("frame ts=%d bytes=%d", timestampUs, len(data)))
	return nil
}

func (s *LoggingVideoSink) log(msg string) {
	logger := s.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	logger.Log(log.Event{
		Layer:    log.LayerChannel,
		Category: log.CategoryControl,
		Control:  &log.ControlEvent{Type: "video_sink:" + msg},
	})
}

// LoggingAudioSink satisfies AudioSink the same way, for any of the
// media/speech/system streams.
type LoggingAudioSink struct {
	Logger log.Logger
	Config AudioConfig
	Name   string
}

func (s *LoggingAudioSink) Open() error {
	s.log("open")
	return nil
}

func (s *LoggingAudioSink) Init() (AudioConfig, error) {
	s.log("init")
	cfg := s.Config
	if cfg.SampleRateHz == 0 {
		cfg = AudioConfig{SampleRateHz: 48000, Channels: 2, BitDepth: 16}
	}
	return cfg, nil
}

func (s *LoggingAudioSink) Write(timestampUs int64, data []byte) error {
	s.log(fmt.Sprintf("samples ts=%d bytes=%d", timestampUs, len(data)))
	return nil
}

func (s *LoggingAudioSink) log(msg string) {
	logger := s.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	name := s.Name
	if name == "" {
		name = "audio_sink"
	}
	logger.Log(log.Event{
		Layer:    log.LayerChannel,
		Category: log.CategoryControl,
		Control:  &log.ControlEvent{Type: name + ":" + msg},
	})
}

// SilentAudioSource satisfies AudioSource by never producing samples.
// It is the default for builds without a microphone.
type SilentAudioSource struct {
	Logger log.Logger
}

func (s *SilentAudioSource) Open() error {
	s.log("open")
	return nil
}

func (s *SilentAudioSource) Start(write func(timestampUs int64, data []byte)) error {
	s.log("start")
	return nil
}

func (s *SilentAudioSource) Stop() error {
	s.log("stop")
	return nil
}

func (s *SilentAudioSource) log(msg string) {
	logger := s.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	logger.Log(log.Event{
		Layer:    log.LayerChannel,
		Category: log.CategoryControl,
		Control:  &log.ControlEvent{Type: "audio_source:" + msg},
	})
}

// NullInputSource satisfies InputSource by reporting the configured scan
// codes and screen size (none, for the zero value) and never emitting
// events, useful where no physical controls are wired up.
type NullInputSource struct {
	ScanCodes []uint32
	Width     int
	Height    int
}

func (s *NullInputSource) SupportedScanCodes() []uint32 {
	return s.ScanCodes
}

func (s *NullInputSource) ScreenSize() (int, int, bool) {
	if s.Width == 0 || s.Height == 0 {
		return 0, 0, false
	}
	return s.Width, s.Height, true
}

func (s *NullInputSource) Attach(InputListener) error {
	return nil
}

// LoggingDashboardListener satisfies DashboardListener by logging every
// update instead of forwarding it to a car UI.
type LoggingDashboardListener struct {
	Logger log.Logger
}

func (d *LoggingDashboardListener) OnPlaybackState(ind wire.MediaPlaybackIndication) {
	d.log(fmt.Sprintf("playback_state=%d", ind.State))
}

func (d *LoggingDashboardListener) OnTrackMetadata(ind wire.MediaMetadataIndication) {
	d.log(fmt.Sprintf("track=%q artist=%q", ind.Title, ind.Artist))
}

func (d *LoggingDashboardListener) OnNavigationStatus(ind wire.NavigationStatusIndication) {
	d.log(fmt.Sprintf("nav_active=%v", ind.Active))
}

func (d *LoggingDashboardListener) OnTurn(ind wire.NavigationTurnIndication) {
	d.log(fmt.Sprintf("turn maneuver=%d road=%q", ind.Maneuver, ind.RoadName))
}

func (d *LoggingDashboardListener) OnDistance(ind wire.NavigationDistanceIndication) {
	d.log(fmt.Sprintf("distance meters=%d seconds=%d", ind.MetersRemaining, ind.SecondsRemaining))
}

func (d *LoggingDashboardListener) log(msg string) {
	logger := d.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	logger.Log(log.Event{
		Layer:    log.LayerChannel,
		Category: log.CategoryControl,
		Control:  &log.ControlEvent{Type: "dashboard:" + msg},
	})
}

var (
	_ VideoSink         = (*LoggingVideoSink)(nil)
	_ AudioSink         = (*LoggingAudioSink)(nil)
	_ AudioSource       = (*SilentAudioSource)(nil)
	_ InputSource       = (*NullInputSource)(nil)
	_ DashboardListener = (*LoggingDashboardListener)(nil)
)
