// Package grpccodec lets gRPC carry messages encoded as hprose.
//
// Importing the package registers the codec under the "hprose" content
// subtype. Clients select it per call with CallOption; servers that should
// only speak hprose use ServerOption.
package grpccodec

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/hengadev/hprose"
)

// Name is the gRPC content subtype of the codec.
const Name = "hprose"

// Codec implements encoding.Codec over an hprose.Codec.
type Codec struct {
	codec *hprose.Codec
}

var _ encoding.Codec = (*Codec)(nil)

func New(opts ...hprose.Option) (*Codec, error) {
	c, err := hprose.NewCodec(opts...)
	if err != nil {
		return nil, err
	}
	return &Codec{codec: c}, nil
}

func init() {
	c, err := New()
	if err != nil {
		panic(fmt.Sprintf("grpccodec: %v", err))
	}
	encoding.RegisterCodec(c)
}

func (c *Codec) Marshal(v any) ([]byte, error) {
	data, err := c.codec.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("grpccodec marshal: %w", err)
	}
	return data, nil
}

func (c *Codec) Unmarshal(data []byte, v any) error {
	if err := c.codec.Deserialize(data, v); err != nil {
		return fmt.Errorf("grpccodec unmarshal: %w", err)
	}
	return nil
}

func (c *Codec) Name() string {
	return Name
}

// CallOption forces c on a single client call.
func CallOption(c *Codec) grpc.CallOption {
	return grpc.ForceCodec(c)
}

// ServerOption makes a server encode and decode every message with c.
func ServerOption(c *Codec) grpc.ServerOption {
	return grpc.ForceServerCodec(c)
}
