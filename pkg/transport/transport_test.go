package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aa-headunit/headunit-go/pkg/errs"
)

func TestTCPListenerAcceptAndTransfer(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	clientDone := make(chan error, 1)
	go func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			clientDone <- err
			return
		}
		defer conn.Close()
		_, err = conn.Write([]byte("hello"))
		clientDone <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tr, id, err := ln.Accept(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	defer tr.Stop()

	require.NoError(t, <-clientDone)

	buf := make([]byte, 5)
	n, err := tr.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))
}

func TestTCPListenerAcceptRespectsContextCancellation(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = ln.Accept(ctx)
	require.True(t, errs.Is(err, errs.Aborted))
}

func TestTCPTransportStopUnblocksReadWithAborted(t *testing.T) {
	ln, err := ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := net.Dial("tcp", ln.Addr().String())
		if err == nil {
			defer conn.Close()
			time.Sleep(100 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	tr, _, err := ln.Accept(ctx)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, 16)
		_, err := tr.Read(buf)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tr.Stop())

	err = <-errCh
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.Aborted))
}

type pipeEndpoints struct {
	net.Conn
}

func TestUSBTransportReadWriteStop(t *testing.T) {
	a, b := net.Pipe()
	tr := NewUSBTransport(pipeEndpoints{a})
	defer tr.Stop()

	go func() {
		buf := make([]byte, 4)
		io_, _ := b.Read(buf)
		_ = io_
		b.Write(buf[:io_])
	}()

	_, err := tr.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := tr.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))
}

func TestUSBTransportStopClassifiesAsAborted(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	tr := NewUSBTransport(pipeEndpoints{a})

	require.NoError(t, tr.Stop())

	_, err := tr.Write([]byte("x"))
	require.True(t, errs.Is(err, errs.Aborted))
}
