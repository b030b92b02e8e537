package model

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// artifactVersion guards against decoding artifacts written by an
// incompatible build.
const artifactVersion = 1

// artifact is the serialized form of a trained model.
type artifact struct {
	Version   int       `msgpack:"version"`
	Weights   []float64 `msgpack:"weights"`
	Bias      float64   `msgpack:"bias"`
	Means     []float64 `msgpack:"means"`
	Stds      []float64 `msgpack:"stds"`
	TrainedAt time.Time `msgpack:"trained_at"`
	Samples   int       `msgpack:"samples"`
}

// EncodeArtifact serializes a trained model for the artifact store.
func EncodeArtifact(m *Model) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("cannot encode nil model")
	}
	data, err := msgpack.Marshal(artifact{
		Version:   artifactVersion,
		Weights:   m.Weights,
		Bias:      m.Bias,
		Means:     m.Means,
		Stds:      m.Stds,
		TrainedAt: m.TrainedAt,
		Samples:   m.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode model artifact: %w", err)
	}
	return data, nil
}

// DecodeArtifact deserializes a stored model artifact.
func DecodeArtifact(data []byte) (*Model, error) {
	var a artifact
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d (want %d)", a.Version, artifactVersion)
	}
	if len(a.Weights) == 0 || len(a.Weights) != len(a.Means) || len(a.Means) != len(a.Stds) {
		return nil, fmt.Errorf("artifact dimensions inconsistent: %d weights, %d means, %d stds",
			len(a.Weights), len(a.Means), len(a.Stds))
	}
	return &Model{
		Weights:   a.Weights,
		Bias:      a.Bias,
		Means:     a.Means,
		Stds:      a.Stds,
		TrainedAt: a.TrainedAt,
		Samples:   a.Samples,
	}, nil
}
