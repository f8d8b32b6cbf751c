package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// StreamDescriptor announces the stream's fixed shape so viewers can size
// their buffers before the first particle frame arrives. It is sent as a
// metadata message whenever a transport connection is (re)established.
type StreamDescriptor struct {
	InstanceID    string        `cbor:"instance_id"`
	ParticleCount int           `cbor:"particle_count"`
	FeatureCount  int           `cbor:"feature_count"`
	TargetFPS     int           `cbor:"target_fps"`
	Segments      []SegmentInfo `cbor:"segments"`
}

// SegmentInfo names one contiguous index range of the feature vector.
type SegmentInfo struct {
	Name  string `cbor:"name"`
	Start int    `cbor:"start"`
	End   int    `cbor:"end"`
}

// EncodeMetadata builds a metadata message with a CBOR-encoded descriptor
// payload. The particle-count header field is zero for metadata messages.
func EncodeMetadata(timestampMS uint64, desc StreamDescriptor) ([]byte, error) {
	payload, err := cbor.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode descriptor: %w", err)
	}

	buf := make([]byte, HeaderSize+len(payload))
	buf[offVersion] = Version
	buf[offType] = TypeMetadata
	binary.LittleEndian.PutUint64(buf[offTimestamp:], timestampMS)
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// DecodeMetadata parses a metadata message and its CBOR descriptor payload.
func DecodeMetadata(buf []byte) (StreamDescriptor, error) {
	if err := checkHeader(buf, TypeMetadata); err != nil {
		return StreamDescriptor{}, err
	}

	var desc StreamDescriptor
	if err := cbor.Unmarshal(buf[HeaderSize:], &desc); err != nil {
		return StreamDescriptor{}, fmt.Errorf("protocol: decode descriptor: %w", err)
	}
	return desc, nil
}
