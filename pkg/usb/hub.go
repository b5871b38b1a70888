package usb

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gousb"

	"github.com/aa-headunit/headunit-go/pkg/errs"
	"github.com/aa-headunit/headunit-go/pkg/transport"
)

// pollInterval is how often Hub rescans attached devices while waiting
// for one to arrive or to re-enumerate in accessory mode.
const pollInterval = 250 * time.Millisecond

// Hub detects a newly attached, non-accessory-mode USB device, drives
// it through the AOAP query chain (§4.14), and waits for it to
// re-enumerate so its bulk endpoints can be handed to a session.
// Grounded on original_source's App.cpp waitForUSBDevice/
// aoapDeviceHandler (aasdk::usb::IUSBHub), restructured from a
// promise-callback pair into a blocking Wait call pkg/app runs in its
// own goroutine.
type Hub struct {
	ctx            *gousb.Context
	identification Identification

	waiting int32 // atomic: 1 while a Wait call is in flight
	seen    sync.Map
}

// NewHub opens a libusb context. Close releases it.
func NewHub(id Identification) *Hub {
	return &Hub{ctx: gousb.NewContext(), identification: id}
}

// Close releases the underlying libusb context.
func (h *Hub) Close() error {
	return h.ctx.Close()
}

// Wait blocks until a device has been found, switched into accessory
// mode, and re-enumerated, or ctx is cancelled. Only one Wait may be in
// flight at a time; a second concurrent call fails with InProgress
// (§7 "InProgress").
func (h *Hub) Wait(ctx context.Context) (transport.USBEndpoints, error) {
	if !atomic.CompareAndSwapInt32(&h.waiting, 0, 1) {
		return nil, errs.New(errs.InProgress, "usb:hub")
	}
	defer atomic.StoreInt32(&h.waiting, 0)

	target, err := h.waitForCandidate(ctx)
	if err != nil {
		return nil, err
	}
	defer target.Close()

	vid, pid := deviceIDs(target)
	if err := runAccessoryQueryChain(target, h.identification); err != nil {
		return nil, err
	}

	return h.waitForReenumeration(ctx, vid, pid)
}

// waitForCandidate polls attached devices until one appears that is not
// already in accessory mode and has not already been handed off.
func (h *Hub) waitForCandidate(ctx context.Context) (*gousb.Device, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		devs, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
			return !isAccessoryDevice(desc.Vendor, desc.Product)
		})
		if err == nil {
			for _, d := range devs {
				vid, pid := deviceIDs(d)
				key := candidateKey(vid, pid)
				if _, already := h.seen.LoadOrStore(key, true); already {
					d.Close()
					continue
				}
				// Close the rest; we only drive one device at a time.
				for _, other := range devs {
					if other != d {
						other.Close()
					}
				}
				return d, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, errs.Wrap(errs.Aborted, "usb:hub", ctx.Err())
		case <-ticker.C:
		}
	}
}

// waitForReenumeration polls until a device bearing an accessory
// VID/PID reappears, then opens its bulk endpoints.
func (h *Hub) waitForReenumeration(ctx context.Context, origVID, origPID gousb.ID) (transport.USBEndpoints, error) {
	deadline := time.Now().Add(reenumerationTimeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		devs, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
			return isAccessoryDevice(desc.Vendor, desc.Product)
		})
		if err == nil && len(devs) > 0 {
			for i, d := range devs {
				if i == 0 {
					continue
				}
				d.Close()
			}
			ep, eperr := openAccessoryEndpoints(devs[0])
			if eperr != nil {
				devs[0].Close()
				return nil, eperr
			}
			return ep, nil
		}

		if time.Now().After(deadline) {
			return nil, errs.New(errs.Timeout, "usb:hub:reenumeration")
		}

		select {
		case <-ctx.Done():
			return nil, errs.Wrap(errs.Aborted, "usb:hub", ctx.Err())
		case <-ticker.C:
		}
	}
}

func deviceIDs(d *gousb.Device) (gousb.ID, gousb.ID) {
	return d.Desc.Vendor, d.Desc.Product
}

func candidateKey(vid, pid gousb.ID) string {
	return vid.String() + ":" + pid.String()
}
