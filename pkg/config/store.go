// Package config persists the head unit's settings (§6 "Persisted
// state") in SQLite, grounded on cmd/mash-web/api/store.go's
// Store/migrate/mutex-guarded-*sql.DB shape.
package config

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// recentAddressesCap bounds the manual-wireless-connect history (§6).
const recentAddressesCap = 7

// BluetoothAdapterType selects how the head unit exposes Bluetooth
// pairing (§6 "Persisted state").
type BluetoothAdapterType string

const (
	BluetoothAdapterLocal  BluetoothAdapterType = "local"
	BluetoothAdapterRemote BluetoothAdapterType = "remote"
	BluetoothAdapterNone   BluetoothAdapterType = "none"
)

// Config is a typed snapshot of every persisted setting (§6), loaded
// once at startup and written back through Store's setters on change.
type Config struct {
	WifiSSID       string
	WifiPSK        string
	WifiMACOverride string

	LastBluetoothPeer string
	AutoConnect       bool

	Handedness     string // "left" or "right"
	ClockVisible   bool

	VideoResolution string
	VideoFPS        int
	VideoDPI        int

	AudioChannelsEnabled map[string]bool // "media", "speech"

	ButtonCodes       []uint32
	TouchscreenEnabled bool

	BluetoothAdapter BluetoothAdapterType
	AudioOutputBackend string
}

// Store is the SQLite-backed configuration and pairing-history store.
// A single `settings` key/value table carries the typed Config fields;
// `recent_addresses` is a capped ring of the last manual wireless
// connect targets.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the SQLite database at path. Use
// ":memory:" for an ephemeral store, e.g. in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("config: configure: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("config: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recent_addresses (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		address  TEXT NOT NULL,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key, def string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return v, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Load reads every persisted setting into a Config snapshot, applying
// sensible defaults for anything never written.
func (s *Store) Load() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg Config
	var err error

	fields := []struct {
		key string
		dst *string
		def string
	}{
		{"wifi_ssid", &cfg.WifiSSID, ""},
		{"wifi_psk", &cfg.WifiPSK, ""},
		{"wifi_mac_override", &cfg.WifiMACOverride, ""},
		{"last_bluetooth_peer", &cfg.LastBluetoothPeer, ""},
		{"handedness", &cfg.Handedness, "right"},
		{"video_resolution", &cfg.VideoResolution, "800x480"},
		{"bluetooth_adapter", (*string)(nil), ""}, // handled below
		{"audio_output_backend", &cfg.AudioOutputBackend, "default"},
	}
	for _, f := range fields {
		if f.dst == nil {
			continue
		}
		v, gerr := s.get(f.key, f.def)
		if gerr != nil {
			return cfg, gerr
		}
		*f.dst = v
	}

	autoConnect, err := s.get("auto_connect", "false")
	if err != nil {
		return cfg, err
	}
	cfg.AutoConnect = autoConnect == "true"

	clockVisible, err := s.get("clock_visible", "true")
	if err != nil {
		return cfg, err
	}
	cfg.ClockVisible = clockVisible == "true"

	touchscreenEnabled, err := s.get("touchscreen_enabled", "true")
	if err != nil {
		return cfg, err
	}
	cfg.TouchscreenEnabled = touchscreenEnabled == "true"

	fps, err := s.get("video_fps", "60")
	if err != nil {
		return cfg, err
	}
	fmt.Sscanf(fps, "%d", &cfg.VideoFPS)

	dpi, err := s.get("video_dpi", "140")
	if err != nil {
		return cfg, err
	}
	fmt.Sscanf(dpi, "%d", &cfg.VideoDPI)

	adapter, err := s.get("bluetooth_adapter", string(BluetoothAdapterLocal))
	if err != nil {
		return cfg, err
	}
	cfg.BluetoothAdapter = BluetoothAdapterType(adapter)

	mediaEnabled, err := s.get("audio_media_enabled", "true")
	if err != nil {
		return cfg, err
	}
	speechEnabled, err := s.get("audio_speech_enabled", "true")
	if err != nil {
		return cfg, err
	}
	cfg.AudioChannelsEnabled = map[string]bool{
		"media":  mediaEnabled == "true",
		"speech": speechEnabled == "true",
	}

	return cfg, nil
}

// SetLastBluetoothPeer persists the address of the phone the Bluetooth
// bootstrap server (§4.13) last completed a handshake with.
func (s *Store) SetLastBluetoothPeer(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set("last_bluetooth_peer", address)
}

// SetAutoConnect persists the auto-connect-on-discovery flag.
func (s *Store) SetAutoConnect(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled {
		return s.set("auto_connect", "true")
	}
	return s.set("auto_connect", "false")
}

// AddRecentAddress records addr in the size-capped manual-connect
// history (§6), evicting the oldest entry once over recentAddressesCap.
func (s *Store) AddRecentAddress(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`INSERT INTO recent_addresses (address) VALUES (?)`, addr); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		DELETE FROM recent_addresses WHERE id NOT IN (
			SELECT id FROM recent_addresses ORDER BY added_at DESC, id DESC LIMIT ?
		)
	`, recentAddressesCap)
	return err
}

// RecentAddresses returns the manual-connect history, newest first.
func (s *Store) RecentAddresses() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT address FROM recent_addresses ORDER BY added_at DESC, id DESC LIMIT ?`, recentAddressesCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, rows.Err()
}
