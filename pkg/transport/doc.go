// Package transport provides the byte-level carrier a projection session
// runs over: a TCP socket for wireless projection, or a USB accessory's
// bulk endpoints for wired projection. Both adapters satisfy the same
// Transport port so pkg/session and pkg/messenger never know which one
// they are driving.
package transport
