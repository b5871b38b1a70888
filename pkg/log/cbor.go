package log

import "github.com/fxamacker/cbor/v2"

// encMode is the canonical CBOR encoder used to persist Events to disk.
var encMode cbor.EncMode

// decMode is the lenient CBOR decoder used to replay persisted Events.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic("log: failed to build cbor encoder: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}.DecMode()
	if err != nil {
		panic("log: failed to build cbor decoder: " + err.Error())
	}
}
