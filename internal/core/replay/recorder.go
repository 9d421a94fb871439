package replay

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/kartsim/internal/core/systems/physics"
)

// recordingBody hashes every force applied to the wrapped body, in order,
// before delegating to it.
type recordingBody struct {
	*physics.Body
	digest *xxhash.Digest
	forces int
	buf    [8 * 6]byte
}

func newRecordingBody(b *physics.Body) *recordingBody {
	return &recordingBody{Body: b, digest: xxhash.New()}
}

func (r *recordingBody) ApplyForceAtPosition(force, point mgl64.Vec3, mode physics.ForceMode) {
	b := r.buf[:0]
	for _, v := range [...]float64{force[0], force[1], force[2], point[0], point[1], point[2]} {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	_, _ = r.digest.Write(b)
	_, _ = r.digest.Write([]byte{byte(mode)})
	r.forces++

	r.Body.ApplyForceAtPosition(force, point, mode)
}

func (r *recordingBody) Sum() uint64 { return r.digest.Sum64() }
