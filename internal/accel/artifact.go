package accel

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// Artifact file layout, little-endian:
//
//	offset  size  field
//	0       4     magic "AURA"
//	4       1     format version (1)
//	5       3     reserved
//	8       4     input tensor length (uint32)
//	12      4     output tensor length (uint32)
//	16      4     input scale (float32)
//	20      4     input zero point (int32)
//	24      4     output scale (float32)
//	28      4     output zero point (int32)
//	32      4     graph blob length (uint32)
//	36      n     compiled graph blob (opaque, handed to the device)
const (
	artifactMagic      = "AURA"
	artifactVersion    = 1
	artifactHeaderSize = 36
)

// Artifact is a parsed model artifact. Its fields are immutable for the
// lifetime of the loaded model.
type Artifact struct {
	InputLen  int
	OutputLen int
	InputQ    types.QuantParams
	OutputQ   types.QuantParams
	Graph     []byte
}

// LoadArtifact reads and parses a model artifact. A missing or unreadable
// file is reported as ErrUnavailable (the deployment is incomplete); a
// present but malformed file as ErrBadArtifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact %s: %v", ErrUnavailable, path, err)
	}
	return ParseArtifact(data)
}

// ParseArtifact parses artifact bytes.
func ParseArtifact(data []byte) (*Artifact, error) {
	if len(data) < artifactHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrBadArtifact, len(data), artifactHeaderSize)
	}
	if string(data[0:4]) != artifactMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadArtifact, data[0:4])
	}
	if data[4] != artifactVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrBadArtifact, data[4], artifactVersion)
	}

	art := &Artifact{
		InputLen:  int(binary.LittleEndian.Uint32(data[8:])),
		OutputLen: int(binary.LittleEndian.Uint32(data[12:])),
		InputQ: types.QuantParams{
			Scale:     math.Float32frombits(binary.LittleEndian.Uint32(data[16:])),
			ZeroPoint: int32(binary.LittleEndian.Uint32(data[20:])),
		},
		OutputQ: types.QuantParams{
			Scale:     math.Float32frombits(binary.LittleEndian.Uint32(data[24:])),
			ZeroPoint: int32(binary.LittleEndian.Uint32(data[28:])),
		},
	}

	graphLen := int(binary.LittleEndian.Uint32(data[32:]))
	if len(data)-artifactHeaderSize != graphLen {
		return nil, fmt.Errorf("%w: graph blob is %d bytes, header declares %d",
			ErrBadArtifact, len(data)-artifactHeaderSize, graphLen)
	}
	art.Graph = data[artifactHeaderSize:]

	if art.InputLen <= 0 || art.OutputLen <= 0 {
		return nil, fmt.Errorf("%w: tensor lengths %d/%d", ErrBadArtifact, art.InputLen, art.OutputLen)
	}
	if art.InputQ.Scale <= 0 || art.OutputQ.Scale <= 0 {
		return nil, fmt.Errorf("%w: non-positive quantization scale", ErrBadArtifact)
	}
	return art, nil
}

// EncodeArtifact serializes an artifact. Used by the simulator tooling and
// tests; production artifacts come from the model compilation pipeline.
func EncodeArtifact(art *Artifact) []byte {
	buf := make([]byte, artifactHeaderSize+len(art.Graph))
	copy(buf[0:4], artifactMagic)
	buf[4] = artifactVersion
	binary.LittleEndian.PutUint32(buf[8:], uint32(art.InputLen))
	binary.LittleEndian.PutUint32(buf[12:], uint32(art.OutputLen))
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(art.InputQ.Scale))
	binary.LittleEndian.PutUint32(buf[20:], uint32(art.InputQ.ZeroPoint))
	binary.LittleEndian.PutUint32(buf[24:], math.Float32bits(art.OutputQ.Scale))
	binary.LittleEndian.PutUint32(buf[28:], uint32(art.OutputQ.ZeroPoint))
	binary.LittleEndian.PutUint32(buf[32:], uint32(len(art.Graph)))
	copy(buf[artifactHeaderSize:], art.Graph)
	return buf
}
