package types

import (
	dagmonproto "github.com/dagbft/dagmon/proto/dagmon"
)

// Certificate is one unit of the ordered consensus output stream. The harness
// only interprets the round number; the origin and digest travel through
// opaquely.
type Certificate struct {
	Round  uint64
	Origin string
	Digest []byte
}

// ToProto converts the certificate to its wire representation.
func (c Certificate) ToProto() *dagmonproto.Certificate {
	return &dagmonproto.Certificate{
		Round:  c.Round,
		Origin: c.Origin,
		Digest: c.Digest,
	}
}

// CertificateFromProto converts a wire certificate to the domain type.
func CertificateFromProto(pb *dagmonproto.Certificate) Certificate {
	return Certificate{
		Round:  pb.GetRound(),
		Origin: pb.GetOrigin(),
		Digest: pb.GetDigest(),
	}
}
