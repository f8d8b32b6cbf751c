package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

func testFrame(count int) types.ParticleFrame {
	frame := make(types.ParticleFrame, count*3)
	for i := range frame {
		frame[i] = float32(i)*0.25 - 100
	}
	return frame
}

// TestParticleRoundTrip verifies decode(encode(frame, meta)) recovers both
// bit-for-bit.
func TestParticleRoundTrip(t *testing.T) {
	counts := []int{0, 1, 3, 100, 5000}

	for _, count := range counts {
		frame := testFrame(count)
		meta := FrameMeta{
			FrameID:     42,
			TimestampMS: 1755900000123,
			FPS:         59.94,
			InferenceMS: 3.7,
			TotalMS:     12.1,
		}

		buf := EncodeParticles(frame, meta)
		if len(buf) != HeaderSize+count*12 {
			t.Fatalf("count=%d: encoded %d bytes, want %d", count, len(buf), HeaderSize+count*12)
		}

		gotMeta, gotFrame, err := DecodeParticles(buf)
		if err != nil {
			t.Fatalf("count=%d: decode failed: %v", count, err)
		}
		if gotMeta != meta {
			t.Errorf("count=%d: meta mismatch: got %+v, want %+v", count, gotMeta, meta)
		}
		if len(gotFrame) != len(frame) {
			t.Fatalf("count=%d: frame length %d, want %d", count, len(gotFrame), len(frame))
		}
		for i := range frame {
			if math.Float32bits(gotFrame[i]) != math.Float32bits(frame[i]) {
				t.Fatalf("count=%d: scalar %d differs: got %v, want %v", count, i, gotFrame[i], frame[i])
			}
		}
	}
}

// TestEncodeIdempotent verifies encoding the same inputs twice produces
// identical bytes.
func TestEncodeIdempotent(t *testing.T) {
	frame := testFrame(17)
	meta := FrameMeta{FrameID: 7, TimestampMS: 99, FPS: 60}

	a := EncodeParticles(frame, meta)
	b := EncodeParticles(frame, meta)
	if !bytes.Equal(a, b) {
		t.Error("two encodings of the same frame differ")
	}
}

// TestHeaderLayout pins the exact byte offsets of the header fields.
func TestHeaderLayout(t *testing.T) {
	frame := testFrame(2)
	meta := FrameMeta{
		FrameID:     0x01020304,
		TimestampMS: 0x0102030405060708,
		FPS:         60,
	}
	buf := EncodeParticles(frame, meta)

	if buf[0] != Version {
		t.Errorf("version byte = %d, want %d", buf[0], Version)
	}
	if buf[1] != TypeParticles {
		t.Errorf("type byte = 0x%02x, want 0x%02x", buf[1], TypeParticles)
	}
	// Little-endian: lowest byte first.
	if buf[2] != 0x04 || buf[5] != 0x01 {
		t.Errorf("frame id bytes = % x, want little-endian 04030201", buf[2:6])
	}
	if buf[6] != 0x08 || buf[13] != 0x01 {
		t.Errorf("timestamp bytes = % x", buf[6:14])
	}
	if buf[14] != 2 || buf[15] != 0 || buf[16] != 0 || buf[17] != 0 {
		t.Errorf("particle count bytes = % x, want 02000000", buf[14:18])
	}
	for i := 30; i < HeaderSize; i++ {
		if buf[i] != 0 {
			t.Errorf("reserved byte %d = 0x%02x, want zero", i, buf[i])
		}
	}
}

// TestDecodeRejections verifies each malformed input raises its distinct
// error.
func TestDecodeRejections(t *testing.T) {
	valid := EncodeParticles(testFrame(4), FrameMeta{FrameID: 1})

	short := valid[:HeaderSize-1]
	if _, _, err := DecodeParticles(short); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("short buffer: got %v, want ErrShortBuffer", err)
	}

	badVersion := append([]byte(nil), valid...)
	badVersion[0] = 99
	if _, _, err := DecodeParticles(badVersion); !errors.Is(err, ErrBadVersion) {
		t.Errorf("bad version: got %v, want ErrBadVersion", err)
	}

	badType := append([]byte(nil), valid...)
	badType[1] = TypeHeartbeat
	if _, _, err := DecodeParticles(badType); !errors.Is(err, ErrBadType) {
		t.Errorf("wrong type: got %v, want ErrBadType", err)
	}

	truncated := valid[:len(valid)-4]
	if _, _, err := DecodeParticles(truncated); !errors.Is(err, ErrPayloadSize) {
		t.Errorf("truncated payload: got %v, want ErrPayloadSize", err)
	}

	padded := append(append([]byte(nil), valid...), 0, 0, 0, 0)
	if _, _, err := DecodeParticles(padded); !errors.Is(err, ErrPayloadSize) {
		t.Errorf("padded payload: got %v, want ErrPayloadSize", err)
	}
}

// TestHeartbeat verifies a heartbeat is header-only with zeroed numerics.
func TestHeartbeat(t *testing.T) {
	buf := EncodeHeartbeat(123456789)

	if len(buf) != HeaderSize {
		t.Fatalf("heartbeat length %d, want %d", len(buf), HeaderSize)
	}
	msgType, err := MessageType(buf)
	if err != nil {
		t.Fatalf("MessageType failed: %v", err)
	}
	if msgType != TypeHeartbeat {
		t.Errorf("type = 0x%02x, want 0x%02x", msgType, TypeHeartbeat)
	}

	// Everything except version, type, and timestamp stays zero.
	for i := 2; i < 6; i++ {
		if buf[i] != 0 {
			t.Errorf("frame id byte %d nonzero in heartbeat", i)
		}
	}
	for i := 14; i < HeaderSize; i++ {
		if buf[i] != 0 {
			t.Errorf("byte %d nonzero in heartbeat", i)
		}
	}

	// Heartbeats must not decode as particle frames.
	if _, _, err := DecodeParticles(buf); !errors.Is(err, ErrBadType) {
		t.Errorf("heartbeat decoded as particles: %v", err)
	}
}

// TestMetadataRoundTrip verifies the CBOR descriptor survives the wire.
func TestMetadataRoundTrip(t *testing.T) {
	desc := StreamDescriptor{
		InstanceID:    "aura-01",
		ParticleCount: 5000,
		FeatureCount:  68,
		TargetFPS:     60,
		Segments: []SegmentInfo{
			{Name: "cognitive", Start: 0, End: 8},
			{Name: "environment", Start: 8, End: 18},
		},
	}

	buf, err := EncodeMetadata(1000, desc)
	if err != nil {
		t.Fatalf("EncodeMetadata failed: %v", err)
	}

	got, err := DecodeMetadata(buf)
	if err != nil {
		t.Fatalf("DecodeMetadata failed: %v", err)
	}
	if got.InstanceID != desc.InstanceID || got.ParticleCount != desc.ParticleCount ||
		got.FeatureCount != desc.FeatureCount || got.TargetFPS != desc.TargetFPS {
		t.Errorf("descriptor mismatch: got %+v, want %+v", got, desc)
	}
	if len(got.Segments) != len(desc.Segments) {
		t.Fatalf("segments length %d, want %d", len(got.Segments), len(desc.Segments))
	}
	for i := range desc.Segments {
		if got.Segments[i] != desc.Segments[i] {
			t.Errorf("segment %d: got %+v, want %+v", i, got.Segments[i], desc.Segments[i])
		}
	}

	// A metadata buffer must not decode as particles.
	if _, _, err := DecodeParticles(buf); !errors.Is(err, ErrBadType) {
		t.Errorf("metadata decoded as particles: %v", err)
	}
}
