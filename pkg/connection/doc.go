// Package connection provides the exponential-backoff-with-jitter
// primitive used to pace retries against flaky local hardware: the USB
// hub's accessory-mode query chain (pkg/usb, pkg/app) and the Bluetooth
// bootstrap server's accept loop (pkg/btbootstrap) both see transient
// errors that should not be retried in a tight spin.
//
// # Backoff sequence
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s, 32s
//  3. Maximum delay: 60 seconds
//  4. Continue at 60s until Reset
//
// # Jitter
//
// A random fraction of the base delay is added so that, if more than one
// retry loop is backing off at once, they don't all wake up in lockstep:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
package connection
