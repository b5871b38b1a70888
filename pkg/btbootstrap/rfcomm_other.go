//go:build !linux

package btbootstrap

import "github.com/aa-headunit/headunit-go/pkg/errs"

// listenRFCOMM is unavailable outside Linux; RFCOMM sockets are a
// Linux Bluetooth-stack (BlueZ) facility with no portable equivalent.
func listenRFCOMM(channel int) (listener, error) {
	return nil, errs.New(errs.Unsupported, "btbootstrap:rfcomm")
}
