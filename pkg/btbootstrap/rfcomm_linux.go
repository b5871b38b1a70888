//go:build linux

package btbootstrap

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/aa-headunit/headunit-go/pkg/errs"
)

// rfcommListener is the Linux RFCOMM socket listener, opened with raw
// golang.org/x/sys/unix syscalls (AF_BLUETOOTH=31, BTPROTO_RFCOMM=3),
// grounded on WireGuard-wireguard-go/device/conn_linux.go's
// direct-syscall style (§4.13 "Wire framing on RFCOMM").
type rfcommListener struct {
	fd int
}

// listenRFCOMM opens and binds a listening RFCOMM socket on channel,
// advertising on the local adapter's any-address.
func listenRFCOMM(channel int) (listener, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, errs.Wrap(errs.IO, "btbootstrap:rfcomm:socket", err)
	}

	addr := &unix.SockaddrRFCOMM{Channel: uint8(channel)}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, errs.Wrap(errs.IO, "btbootstrap:rfcomm:bind", err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		return nil, errs.Wrap(errs.IO, "btbootstrap:rfcomm:listen", err)
	}

	return &rfcommListener{fd: fd}, nil
}

// Accept blocks for one incoming RFCOMM connection.
func (l *rfcommListener) Accept() (conn, string, error) {
	nfd, sa, err := unix.Accept(l.fd)
	if err != nil {
		return nil, "", errs.Wrap(errs.IO, "btbootstrap:rfcomm:accept", err)
	}

	addr := "unknown"
	if rc, ok := sa.(*unix.SockaddrRFCOMM); ok {
		addr = formatBDAddr(rc.Addr)
	}

	return &rfcommConn{fd: nfd}, addr, nil
}

// Close stops accepting new connections.
func (l *rfcommListener) Close() error {
	return unix.Close(l.fd)
}

// rfcommConn adapts an accepted RFCOMM socket fd to io.ReadWriteCloser.
type rfcommConn struct {
	fd int
}

func (c *rfcommConn) Read(p []byte) (int, error) {
	n, err := unix.Read(c.fd, p)
	if err != nil {
		return n, errs.Wrap(errs.IO, "btbootstrap:rfcomm:read", err)
	}
	return n, nil
}

func (c *rfcommConn) Write(p []byte) (int, error) {
	n, err := unix.Write(c.fd, p)
	if err != nil {
		return n, errs.Wrap(errs.IO, "btbootstrap:rfcomm:write", err)
	}
	return n, nil
}

func (c *rfcommConn) Close() error {
	return unix.Close(c.fd)
}

// formatBDAddr renders a Bluetooth device address in the conventional
// colon-separated hex form. unix.SockaddrRFCOMM stores it in reverse
// (little-endian) octet order.
func formatBDAddr(addr [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		addr[5], addr[4], addr[3], addr[2], addr[1], addr[0])
}
