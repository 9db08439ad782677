package database

import (
	stormcodec "github.com/asdine/storm/v3/codec"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/pkg/errors"
	"github.com/ugorji/go/codec"
)

const (
	// CodecMsgpack is the default storage format.
	CodecMsgpack = "msgpack"
	// CodecCBOR encodes records in CBOR (Concise Binary Object Representation).
	// https://tools.ietf.org/html/rfc7049
	CodecCBOR = "cbor"
	// CodecBinc encodes records in Binc.
	// https://github.com/ugorji/binc
	CodecBinc = "binc"
)

// Codec returns the storage format for the given name.
// The format of a database can't be changed once it is initialized.
func Codec(name string) (stormcodec.MarshalUnmarshaler, error) {
	switch name {
	case "", CodecMsgpack:
		return msgpack.Codec, nil
	case CodecCBOR:
		return &ugorji{name: CodecCBOR, handle: &codec.CborHandle{}}, nil
	case CodecBinc:
		return &ugorji{name: CodecBinc, handle: &codec.BincHandle{}}, nil
	default:
		return nil, errors.Errorf("unsupported database codec: %s", name)
	}
}

// ugorji is a storm codec backed by one of the ugorji/go handles.
// Fields are named after their json tags.
type ugorji struct {
	name   string
	handle codec.Handle
}

func (c *ugorji) Marshal(v any) ([]byte, error) {
	var b []byte
	err := codec.NewEncoderBytes(&b, c.handle).Encode(v)
	return b, err
}

func (c *ugorji) Unmarshal(b []byte, v any) error {
	return codec.NewDecoderBytes(b, c.handle).Decode(v)
}

func (c *ugorji) Name() string {
	return c.name
}
