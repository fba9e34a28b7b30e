package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Unit icosahedron: (±x, ±t, 0) and cyclic permutations, already normalized.
const (
	icoT = 0.85065080835204
	icoX = 0.52573111211913
)

var icoVertices = [12]mgl32.Vec3{
	{-icoX, icoT, 0}, {icoX, icoT, 0}, {-icoX, -icoT, 0}, {icoX, -icoT, 0},
	{0, -icoX, icoT}, {0, icoX, icoT}, {0, -icoX, -icoT}, {0, icoX, -icoT},
	{icoT, 0, -icoX}, {icoT, 0, icoX}, {-icoT, 0, -icoX}, {-icoT, 0, icoX},
}

var icoFaces = [20][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10},
	{0, 10, 11}, {1, 5, 9}, {5, 11, 4}, {11, 10, 2},
	{10, 7, 6}, {7, 1, 8}, {3, 9, 4}, {3, 4, 2},
	{3, 2, 6}, {3, 6, 8}, {3, 8, 9}, {4, 9, 5},
	{2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

// IcoSphere is a geodesic unit sphere built by recursive subdivision of an icosahedron.
type IcoSphere struct {
	Subdivisions int

	vertices []mgl32.Vec3
	faces    [][3]int
	normals  []mgl32.Vec3
}

type edgeKey struct{ a, b int }

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// NewIcoSphere subdivides level times. Callers bound level; face count grows as 20*4^level.
func NewIcoSphere(level int) *IcoSphere {
	s := &IcoSphere{
		Subdivisions: level,
		vertices:     append([]mgl32.Vec3(nil), icoVertices[:]...),
		faces:        append([][3]int(nil), icoFaces[:]...),
	}
	for i := 0; i < level; i++ {
		s.subdivide()
	}
	s.computeNormals()
	return s
}

func (s *IcoSphere) midpoint(cache map[edgeKey]int, a, b int) int {
	key := makeEdgeKey(a, b)
	if idx, ok := cache[key]; ok {
		return idx
	}
	idx := len(s.vertices)
	s.vertices = append(s.vertices, s.vertices[a].Add(s.vertices[b]).Normalize())
	cache[key] = idx
	return idx
}

func (s *IcoSphere) subdivide() {
	cache := make(map[edgeKey]int, len(s.faces)*3/2)
	faces := make([][3]int, 0, len(s.faces)*4)
	for _, f := range s.faces {
		ab := s.midpoint(cache, f[0], f[1])
		bc := s.midpoint(cache, f[1], f[2])
		ca := s.midpoint(cache, f[2], f[0])
		faces = append(faces,
			[3]int{f[0], ab, ca},
			[3]int{f[1], bc, ab},
			[3]int{f[2], ca, bc},
			[3]int{ab, bc, ca},
		)
	}
	s.faces = faces
}

// computeNormals accumulates area-weighted face normals into each corner vertex.
func (s *IcoSphere) computeNormals() {
	s.normals = make([]mgl32.Vec3, len(s.vertices))
	for _, f := range s.faces {
		a, b, c := s.vertices[f[0]], s.vertices[f[1]], s.vertices[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range f {
			s.normals[idx] = s.normals[idx].Add(n)
		}
	}
	for i := range s.normals {
		s.normals[i] = s.normals[i].Normalize()
	}
}

func (s *IcoSphere) FaceCount() int { return len(s.faces) }

// VertexCount is the number of unrolled corners, 3 per face.
func (s *IcoSphere) VertexCount() int { return 3 * len(s.faces) }

// UniqueVertexCount is the number of indexed vertices shared between faces.
func (s *IcoSphere) UniqueVertexCount() int { return len(s.vertices) }

func (s *IcoSphere) Vertex(i int) mgl32.Vec3 { return s.vertices[i] }

func (s *IcoSphere) Normal(i int) mgl32.Vec3 { return s.normals[i] }

func (s *IcoSphere) Face(i int) [3]int { return s.faces[i] }

func (s *IcoSphere) unroll(src []mgl32.Vec3) []float32 {
	buf := make([]float32, 0, 9*len(s.faces))
	for _, f := range s.faces {
		for _, idx := range f {
			v := src[idx]
			buf = append(buf, v[0], v[1], v[2])
		}
	}
	return buf
}

// Positions returns one xyz triple per face corner for non-indexed drawing.
func (s *IcoSphere) Positions() []float32 { return s.unroll(s.vertices) }

// Normals returns the smooth normal of each face corner, aligned with Positions.
func (s *IcoSphere) Normals() []float32 { return s.unroll(s.normals) }
