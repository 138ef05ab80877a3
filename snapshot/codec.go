package snapshot

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode encodes with Core Deterministic Encoding (RFC 8949 §4.2.1):
// sorted map keys, shortest numeric forms, no indefinite-length items.
// Equal snapshots always marshal to identical bytes, so recordings can be
// compared and deduplicated byte-wise. Timestamps encode as RFC 3339
// strings with nanosecond precision; the integer epoch modes would drop
// sub-second detail.
var encMode cbor.EncMode

// decMode accepts standard CBOR and ignores unknown fields, so older
// tooling can read recordings produced by newer builds
var decMode cbor.DecMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano

	var err error
	encMode, err = opts.EncMode()
	if err != nil {
		panic("snapshot: failed to initialize CBOR encoder: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("snapshot: failed to initialize CBOR decoder: " + err.Error())
	}
}

// Marshal encodes v as deterministic CBOR
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder returns a streaming encoder writing deterministic CBOR to w
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a streaming decoder reading CBOR from r
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
