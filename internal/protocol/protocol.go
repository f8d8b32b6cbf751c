// Package protocol implements the binary wire format that carries particle
// frames from the pipeline to viewers.
//
// Every message starts with a fixed 64-byte little-endian header followed by
// a payload whose length the header declares. Particle payloads are raw
// float32 triplets (x, y, z per particle, particles in original order), so a
// decoded frame is bit-identical to the encoded one. Malformed messages are
// rejected outright; there is no partial recovery.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

const (
	// Version is the only wire version this implementation speaks.
	Version = 1

	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 64

	// bytesPerParticle is 3 float32 coordinates.
	bytesPerParticle = 12
)

// Message types.
const (
	TypeParticles byte = 0x01
	TypeMetadata  byte = 0x02
	TypeHeartbeat byte = 0x03
)

// Header field offsets.
const (
	offVersion     = 0
	offType        = 1
	offFrameID     = 2
	offTimestamp   = 6
	offCount       = 14
	offFPS         = 18
	offInferenceMS = 22
	offTotalMS     = 26
)

// Decode errors. Callers distinguish them with errors.Is.
var (
	ErrShortBuffer = errors.New("protocol: buffer shorter than header")
	ErrBadVersion  = errors.New("protocol: unsupported version")
	ErrBadType     = errors.New("protocol: unexpected message type")
	ErrPayloadSize = errors.New("protocol: payload length does not match particle count")
)

// FrameMeta is the per-frame metadata carried in the header of a particle
// message.
type FrameMeta struct {
	FrameID     uint32
	TimestampMS uint64
	FPS         float32
	InferenceMS float32
	TotalMS     float32
}

// EncodeParticles builds a particle message. The returned buffer is a fresh
// allocation and is never mutated by the pipeline after creation.
func EncodeParticles(frame types.ParticleFrame, meta FrameMeta) []byte {
	count := frame.Count()
	buf := make([]byte, HeaderSize+count*bytesPerParticle)

	buf[offVersion] = Version
	buf[offType] = TypeParticles
	binary.LittleEndian.PutUint32(buf[offFrameID:], meta.FrameID)
	binary.LittleEndian.PutUint64(buf[offTimestamp:], meta.TimestampMS)
	binary.LittleEndian.PutUint32(buf[offCount:], uint32(count))
	binary.LittleEndian.PutUint32(buf[offFPS:], math.Float32bits(meta.FPS))
	binary.LittleEndian.PutUint32(buf[offInferenceMS:], math.Float32bits(meta.InferenceMS))
	binary.LittleEndian.PutUint32(buf[offTotalMS:], math.Float32bits(meta.TotalMS))

	payload := buf[HeaderSize:]
	for i, v := range frame[:count*3] {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeParticles parses a particle message. It rejects buffers shorter than
// the header, foreign versions, non-particle message types, and payloads
// whose byte length is not exactly particle_count × 12.
func DecodeParticles(buf []byte) (FrameMeta, types.ParticleFrame, error) {
	if err := checkHeader(buf, TypeParticles); err != nil {
		return FrameMeta{}, nil, err
	}

	count := binary.LittleEndian.Uint32(buf[offCount:])
	payload := buf[HeaderSize:]
	if len(payload) != int(count)*bytesPerParticle {
		return FrameMeta{}, nil, fmt.Errorf("%w: declared %d particles, payload %d bytes",
			ErrPayloadSize, count, len(payload))
	}

	meta := FrameMeta{
		FrameID:     binary.LittleEndian.Uint32(buf[offFrameID:]),
		TimestampMS: binary.LittleEndian.Uint64(buf[offTimestamp:]),
		FPS:         math.Float32frombits(binary.LittleEndian.Uint32(buf[offFPS:])),
		InferenceMS: math.Float32frombits(binary.LittleEndian.Uint32(buf[offInferenceMS:])),
		TotalMS:     math.Float32frombits(binary.LittleEndian.Uint32(buf[offTotalMS:])),
	}

	frame := make(types.ParticleFrame, int(count)*3)
	for i := range frame {
		frame[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return meta, frame, nil
}

// EncodeHeartbeat builds a heartbeat message: header only, zero-length
// payload, every numeric field except version, type, and timestamp zeroed.
func EncodeHeartbeat(timestampMS uint64) []byte {
	buf := make([]byte, HeaderSize)
	buf[offVersion] = Version
	buf[offType] = TypeHeartbeat
	binary.LittleEndian.PutUint64(buf[offTimestamp:], timestampMS)
	return buf
}

// MessageType returns the message type of an encoded buffer after validating
// the header version.
func MessageType(buf []byte) (byte, error) {
	if len(buf) < HeaderSize {
		return 0, fmt.Errorf("%w: got %d bytes", ErrShortBuffer, len(buf))
	}
	if buf[offVersion] != Version {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrBadVersion, buf[offVersion], Version)
	}
	return buf[offType], nil
}

// checkHeader validates the common header prefix against an expected type.
func checkHeader(buf []byte, wantType byte) error {
	got, err := MessageType(buf)
	if err != nil {
		return err
	}
	if got != wantType {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrBadType, got, wantType)
	}
	return nil
}
