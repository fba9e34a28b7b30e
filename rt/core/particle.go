package core

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Particle matches the per-instance vertex attribute: three tightly packed float32.
type Particle struct {
	Position mgl32.Vec3
}

const ParticleStride = int(unsafe.Sizeof(Particle{}))

// ParticleFloats views the records as a flat float32 slice for upload. The slice aliases ps.
func ParticleFloats(ps []Particle) []float32 {
	if len(ps) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&ps[0])), len(ps)*3)
}
