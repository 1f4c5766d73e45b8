// Package codec provides the Codec interface the record store uses to turn
// values into opaque payload bytes, with JSON, MessagePack and CBOR
// implementations. The root package adds the Blob codec.
package codec

// Codec encodes and decodes record payloads.
type Codec interface {
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v (must be a pointer).
	Unmarshal(data []byte, v any) error
	// Name returns the codec identifier stored alongside each payload.
	Name() string
}

// ByName returns the built-in codec registered under name.
func ByName(name string) (Codec, bool) {
	switch name {
	case JSON{}.Name():
		return JSON{}, true
	case MsgPack{}.Name():
		return MsgPack{}, true
	case CBOR{}.Name():
		return CBOR{}, true
	}
	return nil, false
}
