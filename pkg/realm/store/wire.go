package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/regvm/pkg/value"
)

// cborEncMode encodes values in canonical mode so that equal values are
// stored as equal blobs.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalValue serializes a value to CBOR bytes.
func MarshalValue(v value.Value) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// UnmarshalValue deserializes a value from CBOR bytes.
func UnmarshalValue(data []byte) (value.Value, error) {
	var v value.Value
	if err := cbor.Unmarshal(data, &v); err != nil {
		return value.Undefined(), fmt.Errorf("store: unmarshal value: %w", err)
	}
	return v, nil
}
