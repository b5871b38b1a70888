// Command headunit runs the Android Auto projection head unit: it waits
// for a phone to arrive over USB accessory mode or TCP, bootstraps
// wireless candidates over Bluetooth RFCOMM, and drives one projection
// session at a time. Grounded on cmd/mash-device/main.go's flag-parsing
// and wiring-order pattern.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/aa-headunit/headunit-go/pkg/app"
	"github.com/aa-headunit/headunit-go/pkg/btbootstrap"
	"github.com/aa-headunit/headunit-go/pkg/channel"
	"github.com/aa-headunit/headunit-go/pkg/config"
	"github.com/aa-headunit/headunit-go/pkg/cryptor"
	"github.com/aa-headunit/headunit-go/pkg/keystore"
	headunitlog "github.com/aa-headunit/headunit-go/pkg/log"
	"github.com/aa-headunit/headunit-go/pkg/messenger"
	"github.com/aa-headunit/headunit-go/pkg/ports"
	"github.com/aa-headunit/headunit-go/pkg/session"
	"github.com/aa-headunit/headunit-go/pkg/transport"
	"github.com/aa-headunit/headunit-go/pkg/usb"
	"github.com/aa-headunit/headunit-go/pkg/wire"
)

// defaultButtonMap is the minimal binding advertised when no richer input
// hardware is wired in (§6 "Input").
var defaultButtonMap = map[uint32]wire.ButtonCode{
	1: wire.ButtonHome,
	2: wire.ButtonBack,
	3: wire.ButtonCall,
	4: wire.ButtonEndCall,
	5: wire.ButtonPlay,
	6: wire.ButtonPause,
	7: wire.ButtonNext,
	8: wire.ButtonPrevious,
	9: wire.ButtonMicrophone,
}

var flags struct {
	tcpAddr     string
	stateDir    string
	certPath    string
	keyPath     string
	seedFile    string
	headUnit    string
	carModel    string
	carYear     string
	carSerial   string
	interactive bool
	logLevel    string
	usbEnabled  bool
	btAdapter   string
}

func init() {
	flag.StringVar(&flags.tcpAddr, "tcp-addr", ":5000", "wireless projection listen address")
	flag.StringVar(&flags.stateDir, "state-dir", "", "directory for persisted config and keystore (default: in-memory)")
	flag.StringVar(&flags.seedFile, "seed-file", "", "optional YAML file of settings to seed the config store with on startup")
	flag.StringVar(&flags.headUnit, "head-unit-name", "Head Unit", "reported head unit name")
	flag.StringVar(&flags.carModel, "car-model", "Generic", "reported car model")
	flag.StringVar(&flags.carYear, "car-year", "2024", "reported car year")
	flag.StringVar(&flags.carSerial, "car-serial", "0000000000", "reported car serial number")
	flag.BoolVar(&flags.interactive, "interactive", false, "enable interactive console")
	flag.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.BoolVar(&flags.usbEnabled, "usb", true, "enable the USB accessory-mode device-wait path")
	flag.StringVar(&flags.btAdapter, "bluetooth-adapter", "local", "bluetooth adapter type: local, remote, none")
}

func main() {
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(flags.logLevel)}))
	protoLogger := headunitlog.NewSlogAdapter(logger)

	store, err := openStore()
	if err != nil {
		log.Fatalf("open config store: %v", err)
	}
	defer store.Close()

	if flags.seedFile != "" {
		seed, err := config.LoadSeedFile(flags.seedFile)
		if err != nil {
			log.Fatalf("load seed file: %v", err)
		}
		if err := store.ApplySeed(seed); err != nil {
			log.Fatalf("apply seed file: %v", err)
		}
		logger.Info("applied seed file", "path", flags.seedFile)
	}

	cfg, err := store.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	identity, err := loadOrGenerateIdentity()
	if err != nil {
		log.Fatalf("load identity: %v", err)
	}

	tcpListener, err := transport.ListenTCP(flags.tcpAddr)
	if err != nil {
		log.Fatalf("listen tcp: %v", err)
	}
	defer tcpListener.Close()
	logger.Info("listening for wireless projection", "addr", flags.tcpAddr)

	var hub *usb.Hub
	if flags.usbEnabled {
		hub = usb.NewHub(usb.DefaultIdentification)
		defer hub.Close()
	}

	var btServer *btbootstrap.Server
	adapterType := config.BluetoothAdapterType(flags.btAdapter)
	if adapterType != config.BluetoothAdapterNone {
		socketIP, err := btbootstrap.FirstNonLoopbackIPv4()
		if err != nil {
			logger.Warn("no non-loopback ipv4 address found, bluetooth bootstrap disabled", "error", err)
		} else {
			port, convErr := tcpPort(flags.tcpAddr)
			if convErr != nil {
				log.Fatalf("parse tcp-addr port: %v", convErr)
			}
			wifi := btbootstrap.WifiCredentials{
				SSID:       cfg.WifiSSID,
				PSK:        cfg.WifiPSK,
				MACAddress: cfg.WifiMACOverride,
			}
			btServer, err = btbootstrap.Listen(wifi, socketIP, port, protoLogger)
			if err != nil {
				logger.Warn("bluetooth bootstrap unavailable", "error", err)
			} else {
				btServer.OnPaired = func(phoneAddress string) {
					if err := store.SetLastBluetoothPeer(phoneAddress); err != nil {
						logger.Warn("persist last bluetooth peer", "error", err)
					}
					if err := store.AddRecentAddress(phoneAddress); err != nil {
						logger.Warn("persist recent address", "error", err)
					}
				}
				defer btServer.Close()
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if btServer != nil {
		go func() {
			if err := btServer.Serve(ctx); err != nil {
				logger.Warn("bluetooth bootstrap server stopped", "error", err)
			}
		}()
	}

	identityInfo := session.Identity{
		HeadUnitName:    flags.headUnit,
		CarModel:        flags.carModel,
		CarYear:         flags.carYear,
		CarSerial:       flags.carSerial,
		SoftwareBuild:   "1",
		SoftwareVersion: "1.0",
	}

	factory := func(t transport.Transport) *session.Session {
		cr := cryptor.NewServer(identity)
		ref := &hostRef{}
		channels := buildChannels(ref, cfg, store)
		sess := session.New(t, cr, protoLogger, identityInfo, channels)
		ref.session = sess
		return sess
	}

	var waiter app.USBHub
	if hub != nil {
		waiter = hub
	} else {
		waiter = noUSB{}
	}

	a := app.New(waiter, tcpListener, factory, protoLogger)
	a.WaitForDevice()

	var console *Console
	if flags.interactive {
		console, err = NewConsole(a, store)
		if err != nil {
			log.Fatalf("start console: %v", err)
		}
		log.SetOutput(console.Stdout())
		go console.Run(cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	a.Stop()
	if console != nil {
		console.Close()
	}
}

// noUSB satisfies app.USBHub when the USB path is disabled (-usb=false),
// blocking forever until cancelled rather than ever reporting an arrival.
type noUSB struct{}

func (noUSB) Wait(ctx context.Context) (transport.USBEndpoints, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func openStore() (*config.Store, error) {
	if flags.stateDir == "" {
		return config.Open(":memory:")
	}
	if err := os.MkdirAll(flags.stateDir, 0o755); err != nil {
		return nil, err
	}
	return config.Open(flags.stateDir + "/headunit.db")
}

func loadOrGenerateIdentity() (*keystore.Identity, error) {
	if flags.stateDir == "" {
		return keystore.Generate(flags.headUnit)
	}
	if flags.certPath == "" {
		flags.certPath = flags.stateDir + "/identity.crt"
	}
	if flags.keyPath == "" {
		flags.keyPath = flags.stateDir + "/identity.key"
	}
	return keystore.LoadOrGenerate(flags.certPath, flags.keyPath, flags.headUnit)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func tcpPort(addr string) (uint16, error) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 || idx == len(addr)-1 {
		return 0, fmt.Errorf("invalid tcp address %q", addr)
	}
	n, err := strconv.ParseUint(addr[idx+1:], 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid tcp address %q: %w", addr, err)
	}
	return uint16(n), nil
}

// hostRef is a forward reference to the *session.Session a set of
// channels are built for: the channels must be constructed before
// session.New can run (it takes the finished channel slice as an
// argument), so each channel is given this adapter instead and it is
// pointed at the real session the moment New returns. Every channel's
// host calls happen strictly after Open(), which the session only
// invokes once service discovery completes — well after session is set.
type hostRef struct {
	session *session.Session
}

func (r *hostRef) Send(ch wire.ChannelID, messageID uint16, body any, then func(error)) {
	r.session.Send(ch, messageID, body, then)
}

func (r *hostRef) Register(ch wire.ChannelID, handler messenger.ReceiveHandler) error {
	return r.session.Register(ch, handler)
}

func (r *hostRef) Logger() headunitlog.Logger {
	return r.session.Logger()
}

// buildChannels constructs the full ordered service-channel set for a
// fresh session, wiring each channel to a configured port when one
// exists and to a logging stub otherwise (headless build, §1's port
// boundary).
func buildChannels(host channel.Host, cfg config.Config, store *config.Store) []session.ServiceChannel {
	videoSink := &ports.LoggingVideoSink{}
	mediaAudioSink := &ports.LoggingAudioSink{Name: "media"}
	speechAudioSink := &ports.LoggingAudioSink{Name: "speech"}
	systemAudioSink := &ports.LoggingAudioSink{Name: "system"}
	audioSource := &ports.SilentAudioSource{}
	inputSource := &ports.NullInputSource{}
	dashboard := &ports.LoggingDashboardListener{}

	videoDPI := cfg.VideoDPI
	if videoDPI == 0 {
		videoDPI = 140
	}
	videoFPS := cfg.VideoFPS
	if videoFPS == 0 {
		videoFPS = 60
	}

	return []session.ServiceChannel{
		channel.NewVideo(host, videoSink, 1280, 720, uint16(videoDPI), uint8(videoFPS), "h264", 10_000_000),
		channel.NewMediaAudio(host, mediaAudioSink, 48000, 16, 2),
		channel.NewSpeechAudio(host, speechAudioSink, 16000, 16, 1),
		channel.NewSystemAudio(host, systemAudioSink, 16000, 16, 1),
		channel.NewAudioInput(host, audioSource, 16000, 16, 1),
		channel.NewInput(host, inputSource, defaultButtonMap),
		channel.NewSensor(host, []wire.SensorType{wire.SensorTypeDrivingStatus, wire.SensorTypeNightMode, wire.SensorTypeLocation}),
		channel.NewBluetooth(host, &storePairer{store: store}, "", []string{"HFP", "A2DP"}),
		channel.NewMediaStatus(host, dashboard),
		channel.NewNavigation(host, dashboard, 1000),
	}
}

// storePairer satisfies channel.Pairer by persisting the paired address
// as the last-known Bluetooth peer; a production build would delegate
// the actual OS-level pairing call here.
type storePairer struct {
	store *config.Store
}

func (p *storePairer) Pair(phoneAddress string) (bool, error) {
	if err := p.store.SetLastBluetoothPeer(phoneAddress); err != nil {
		return false, err
	}
	return false, nil
}
