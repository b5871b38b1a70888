// Package usb drives a newly attached USB device through the AOAP
// accessory-mode query chain (§4.14) and exposes the resulting bulk
// endpoints as a transport.USBEndpoints. Grounded on the AOAP control
// requests spec.md §4.14/§6 names (GetProtocol, SendIdentificationString,
// StartAccessoryMode) and on github.com/google/gousb's libusb wrapper —
// the one concrete Go USB stack present in the retrieval pack
// (other_examples/guiperry-HASHER's go.mod).
package usb

import (
	"time"

	"github.com/google/gousb"

	"github.com/aa-headunit/headunit-go/pkg/errs"
)

// AOAP control-request constants (USB vendor-specific requests defined
// by the Android Open Accessory Protocol).
const (
	aoapGetProtocol         = 51
	aoapSendString          = 52
	aoapStartAccessoryMode  = 53

	aoapReqTypeDeviceToHost = 0xC0 // vendor, device-to-host
	aoapReqTypeHostToDevice = 0x40 // vendor, host-to-device
)

// AOAP identification-string indices (§6 "USB").
const (
	stringManufacturer = 0
	stringModel        = 1
	stringDescription  = 2
	stringVersion      = 3
	stringURI          = 4
	stringSerial       = 5
)

// Identification is the six strings presented to the device during
// SendIdentificationString (§4.14 step 2, §6 "USB" for the head unit's
// own values).
type Identification struct {
	Manufacturer string
	Model        string
	Description  string
	Version      string
	URI          string
	Serial       string
}

// DefaultIdentification is the head unit's identity per spec.md §6.
var DefaultIdentification = Identification{
	Manufacturer: "Android",
	Model:        "Android Auto",
	Description:  "Head Unit Application",
	Version:      "1.0",
	URI:          "https://www.android.com",
	Serial:       "HU0001",
}

// googleVendorID and accessoryProductIDs are the VID/PID pairs a device
// re-enumerates under once switched into accessory mode (Google's
// well-known accessory VID plus the accessory/accessory+adb PID pair).
const googleVendorID = 0x18D1

var accessoryProductIDs = []gousb.ID{0x2D00, 0x2D01}

// getProtocol issues the GetProtocol control request (§4.14 step 1) and
// returns the device's reported AOAP protocol version. The chain
// requires version >= 1.
func getProtocol(dev *gousb.Device) (uint16, error) {
	buf := make([]byte, 2)
	_, err := dev.Control(aoapReqTypeDeviceToHost, aoapGetProtocol, 0, 0, buf)
	if err != nil {
		return 0, errs.Wrap(errs.IO, "usb:get_protocol", err)
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

// sendIdentificationString sends one identification string at index
// (§4.14 step 2).
func sendIdentificationString(dev *gousb.Device, index uint16, value string) error {
	data := append([]byte(value), 0)
	_, err := dev.Control(aoapReqTypeHostToDevice, aoapSendString, 0, index, data)
	if err != nil {
		return errs.Wrap(errs.IO, "usb:send_identification_string", err)
	}
	return nil
}

// sendIdentification sends all six identification strings in order.
func sendIdentification(dev *gousb.Device, id Identification) error {
	strs := []struct {
		index uint16
		value string
	}{
		{stringManufacturer, id.Manufacturer},
		{stringModel, id.Model},
		{stringDescription, id.Description},
		{stringVersion, id.Version},
		{stringURI, id.URI},
		{stringSerial, id.Serial},
	}
	for _, s := range strs {
		if err := sendIdentificationString(dev, s.index, s.value); err != nil {
			return err
		}
	}
	return nil
}

// startAccessoryMode issues the StartAccessoryMode control request
// (§4.14 step 3). The device disconnects and re-enumerates under an
// accessory VID/PID after this call returns.
func startAccessoryMode(dev *gousb.Device) error {
	_, err := dev.Control(aoapReqTypeHostToDevice, aoapStartAccessoryMode, 0, 0, nil)
	if err != nil {
		return errs.Wrap(errs.IO, "usb:start_accessory_mode", err)
	}
	return nil
}

// runAccessoryQueryChain drives dev through the full AOAP query chain
// (§4.14): GetProtocol, SendIdentificationString x6, StartAccessoryMode.
func runAccessoryQueryChain(dev *gousb.Device, id Identification) error {
	protocol, err := getProtocol(dev)
	if err != nil {
		return err
	}
	if protocol < 1 {
		return errs.New(errs.Unsupported, "usb:protocol_version")
	}
	if err := sendIdentification(dev, id); err != nil {
		return err
	}
	return startAccessoryMode(dev)
}

// isAccessoryDevice reports whether vid/pid matches a device that has
// already re-enumerated in accessory mode.
func isAccessoryDevice(vid, pid gousb.ID) bool {
	if vid != googleVendorID {
		return false
	}
	for _, p := range accessoryProductIDs {
		if pid == p {
			return true
		}
	}
	return false
}

// endpoints holds the bulk in/out endpoints handed to
// transport.NewUSBTransport once a device has re-enumerated in
// accessory mode (§4.14 "bulk endpoints from that second enumeration
// are handed to the session").
type endpoints struct {
	dev    *gousb.Device
	cfg    *gousb.Config
	intf   *gousb.Interface
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
}

// openAccessoryEndpoints claims configuration 1, interface 0/0, and
// opens its first bulk-in and bulk-out endpoints.
func openAccessoryEndpoints(dev *gousb.Device) (*endpoints, error) {
	cfg, err := dev.Config(1)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "usb:config", err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		return nil, errs.Wrap(errs.IO, "usb:interface", err)
	}

	var in *gousb.InEndpoint
	var out *gousb.OutEndpoint
	for _, epDesc := range intf.Setting.Endpoints {
		if epDesc.Direction == gousb.EndpointDirectionIn && in == nil {
			in, err = intf.InEndpoint(epDesc.Number)
			if err != nil {
				intf.Close()
				cfg.Close()
				return nil, errs.Wrap(errs.IO, "usb:in_endpoint", err)
			}
		}
		if epDesc.Direction == gousb.EndpointDirectionOut && out == nil {
			out, err = intf.OutEndpoint(epDesc.Number)
			if err != nil {
				intf.Close()
				cfg.Close()
				return nil, errs.Wrap(errs.IO, "usb:out_endpoint", err)
			}
		}
	}
	if in == nil || out == nil {
		intf.Close()
		cfg.Close()
		return nil, errs.New(errs.IO, "usb:no_bulk_endpoints")
	}

	return &endpoints{dev: dev, cfg: cfg, intf: intf, in: in, out: out}, nil
}

func (e *endpoints) Read(p []byte) (int, error) {
	return e.in.Read(p)
}

func (e *endpoints) Write(p []byte) (int, error) {
	return e.out.Write(p)
}

func (e *endpoints) Close() error {
	e.intf.Close()
	e.cfg.Close()
	return e.dev.Close()
}

// reenumerationTimeout bounds how long Hub waits for a device to
// reappear under an accessory VID/PID after StartAccessoryMode.
const reenumerationTimeout = 10 * time.Second
