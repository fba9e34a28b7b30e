package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pow4(k int) int {
	n := 1
	for i := 0; i < k; i++ {
		n *= 4
	}
	return n
}

func TestIcoSphereCounts(t *testing.T) {
	for k := 0; k <= 4; k++ {
		s := NewIcoSphere(k)
		assert.Equal(t, 20*pow4(k), s.FaceCount(), "level %d", k)
		assert.Equal(t, 3*s.FaceCount(), s.VertexCount())
		// Euler: V - E + F = 2 with E = 3F/2 shared edges
		assert.Equal(t, 10*pow4(k)+2, s.UniqueVertexCount(), "level %d", k)
		assert.Len(t, s.Positions(), 3*s.VertexCount())
		assert.Len(t, s.Normals(), 3*s.VertexCount())
	}
}

func TestIcoSphereUnitVertices(t *testing.T) {
	s := NewIcoSphere(3)
	for i := 0; i < s.UniqueVertexCount(); i++ {
		assert.InDelta(t, 1.0, s.Vertex(i).Len(), 1e-5, "vertex %d", i)
	}
	pos := s.Positions()
	for i := 0; i < len(pos); i += 3 {
		v := mgl32.Vec3{pos[i], pos[i+1], pos[i+2]}
		assert.InDelta(t, 1.0, v.Len(), 1e-5)
	}
}

func TestIcoSphereSharedEdges(t *testing.T) {
	for k := 0; k <= 3; k++ {
		s := NewIcoSphere(k)
		edges := map[edgeKey]int{}
		for i := 0; i < s.FaceCount(); i++ {
			f := s.Face(i)
			for j := 0; j < 3; j++ {
				edges[makeEdgeKey(f[j], f[(j+1)%3])]++
			}
		}
		assert.Len(t, edges, 3*s.FaceCount()/2)
		for e, n := range edges {
			require.Equal(t, 2, n, "edge %v at level %d", e, k)
		}
	}
}

func TestIcoSphereNormals(t *testing.T) {
	s := NewIcoSphere(2)
	n := s.Normals()
	p := s.Positions()
	for i := 0; i < len(n); i += 3 {
		nv := mgl32.Vec3{n[i], n[i+1], n[i+2]}
		pv := mgl32.Vec3{p[i], p[i+1], p[i+2]}
		assert.InDelta(t, 1.0, nv.Len(), 1e-5)
		// smooth normals of a sphere point outward, close to the position itself
		assert.Greater(t, nv.Dot(pv), float32(0.95))
	}
}

func TestIcoSphereWindingOutward(t *testing.T) {
	s := NewIcoSphere(1)
	for i := 0; i < s.FaceCount(); i++ {
		f := s.Face(i)
		a, b, c := s.Vertex(f[0]), s.Vertex(f[1]), s.Vertex(f[2])
		n := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c)
		assert.Greater(t, n.Dot(centroid), float32(0), "face %d", i)
	}
}

func TestIcoSphereDeterministic(t *testing.T) {
	assert.Equal(t, NewIcoSphere(2).Positions(), NewIcoSphere(2).Positions())
}
