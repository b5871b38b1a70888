// Package wire implements the projection session's wire format: the
// length-prefixed, flag-bearing frame header, fragment reassembly, the
// channel/message-id envelope, and the CBOR body codec used by every
// channel's message set.
package wire
