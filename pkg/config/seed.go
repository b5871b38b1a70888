package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SeedConfig is the on-disk shape of an optional bootstrap file an
// operator can hand the binary on first run, so a fleet of head units
// can be provisioned from a checked-in YAML file instead of driving
// the interactive console by hand on each one (§6 "Persisted state").
// Fields mirror Config; anything left unset in the file keeps whatever
// is already in the store.
type SeedConfig struct {
	WifiSSID        string `yaml:"wifi_ssid"`
	WifiPSK         string `yaml:"wifi_psk"`
	WifiMACOverride string `yaml:"wifi_mac_override"`

	Handedness   string `yaml:"handedness"`
	ClockVisible *bool  `yaml:"clock_visible"`

	VideoResolution string `yaml:"video_resolution"`
	VideoFPS        int    `yaml:"video_fps"`
	VideoDPI        int    `yaml:"video_dpi"`

	TouchscreenEnabled *bool  `yaml:"touchscreen_enabled"`
	BluetoothAdapter   string `yaml:"bluetooth_adapter"`
	AudioOutputBackend string `yaml:"audio_output_backend"`
}

// LoadSeedFile parses a YAML bootstrap file at path.
func LoadSeedFile(path string) (SeedConfig, error) {
	var seed SeedConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("config: read seed file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("config: parse seed file %s: %w", path, err)
	}
	return seed, nil
}

// ApplySeed writes every non-zero field of seed into the store. It is
// safe to call on every startup: fields the file leaves unset are
// simply never written, so values set previously through the console
// or a prior seed survive untouched.
func (s *Store) ApplySeed(seed SeedConfig) error {
	type kv struct {
		key   string
		value string
		set   bool
	}
	entries := []kv{
		{"wifi_ssid", seed.WifiSSID, seed.WifiSSID != ""},
		{"wifi_psk", seed.WifiPSK, seed.WifiPSK != ""},
		{"wifi_mac_override", seed.WifiMACOverride, seed.WifiMACOverride != ""},
		{"handedness", seed.Handedness, seed.Handedness != ""},
		{"video_resolution", seed.VideoResolution, seed.VideoResolution != ""},
		{"video_fps", strconv.Itoa(seed.VideoFPS), seed.VideoFPS != 0},
		{"video_dpi", strconv.Itoa(seed.VideoDPI), seed.VideoDPI != 0},
		{"bluetooth_adapter", seed.BluetoothAdapter, seed.BluetoothAdapter != ""},
		{"audio_output_backend", seed.AudioOutputBackend, seed.AudioOutputBackend != ""},
	}
	if seed.ClockVisible != nil {
		entries = append(entries, kv{"clock_visible", strconv.FormatBool(*seed.ClockVisible), true})
	}
	if seed.TouchscreenEnabled != nil {
		entries = append(entries, kv{"touchscreen_enabled", strconv.FormatBool(*seed.TouchscreenEnabled), true})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if !e.set {
			continue
		}
		if err := s.set(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}
