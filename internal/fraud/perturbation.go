package fraud

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/anime-shed/claim-evidence-inspector/internal/config"
)

const perturbationRange = 5.0

// Perturbation is the bounded offset added to heuristic scores
type Perturbation interface {
	Offset(in Input) float64
}

// NewPerturbation returns the perturbation for a configured mode. Unknown
// modes disable it.
func NewPerturbation(mode string, seed int64) Perturbation {
	if mode == config.PerturbationSeeded {
		return seededPerturbation{seed: seed}
	}
	return noPerturbation{}
}

type noPerturbation struct{}

func (noPerturbation) Offset(Input) float64 { return 0 }

// seededPerturbation hashes the seed with the scoring inputs, so the same
// image always gets the same offset in [-5, 5].
type seededPerturbation struct {
	seed int64
}

func (p seededPerturbation) Offset(in Input) float64 {
	h := fnv.New64a()
	var buf [8]byte
	write := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	write(uint64(p.seed))
	write(uint64(in.Quality.Width))
	write(uint64(in.Quality.Height))
	write(uint64(in.Quality.FileSizeBytes))
	write(math.Float64bits(in.Quality.SharpnessVariance))
	write(math.Float64bits(in.Metadata.TamperScore))
	h.Write([]byte(in.Metadata.Software))

	unit := float64(h.Sum64()%10001) / 10000
	return round2(unit*2*perturbationRange - perturbationRange)
}
