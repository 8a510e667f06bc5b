// Package dagmonproto holds the wire messages exchanged with worker
// processes. The messages are small enough that they are maintained by hand
// against types.proto; encoding goes through gogoproto's reflection codec,
// driven by the protobuf field tags below.
package dagmonproto

import (
	"github.com/gogo/protobuf/proto"
)

// CleanupRequest instructs a worker process to discard state older than the
// given consensus round.
type CleanupRequest struct {
	Round uint64 `protobuf:"varint,1,opt,name=round,proto3" json:"round,omitempty"`
}

func (m *CleanupRequest) Reset()         { *m = CleanupRequest{} }
func (m *CleanupRequest) String() string { return proto.CompactTextString(m) }
func (*CleanupRequest) ProtoMessage()    {}

func (m *CleanupRequest) GetRound() uint64 {
	if m != nil {
		return m.Round
	}
	return 0
}

// Certificate is the unit of the ordered consensus output stream.
type Certificate struct {
	Round  uint64 `protobuf:"varint,1,opt,name=round,proto3" json:"round,omitempty"`
	Origin string `protobuf:"bytes,2,opt,name=origin,proto3" json:"origin,omitempty"`
	Digest []byte `protobuf:"bytes,3,opt,name=digest,proto3" json:"digest,omitempty"`
}

func (m *Certificate) Reset()         { *m = Certificate{} }
func (m *Certificate) String() string { return proto.CompactTextString(m) }
func (*Certificate) ProtoMessage()    {}

func (m *Certificate) GetRound() uint64 {
	if m != nil {
		return m.Round
	}
	return 0
}

func (m *Certificate) GetOrigin() string {
	if m != nil {
		return m.Origin
	}
	return ""
}

func (m *Certificate) GetDigest() []byte {
	if m != nil {
		return m.Digest
	}
	return nil
}

func init() {
	proto.RegisterType((*CleanupRequest)(nil), "dagmon.CleanupRequest")
	proto.RegisterType((*Certificate)(nil), "dagmon.Certificate")
}
