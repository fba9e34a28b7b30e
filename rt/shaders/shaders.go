package shaders

import (
	_ "embed"

	"github.com/gekko3d/orbital/rt/gpu"
)

//go:embed transport.vert
var TransportVertGLSL string

//go:embed noop.frag
var NoopFragGLSL string

//go:embed geometry.vert
var GeometryVertGLSL string

//go:embed geometry.frag
var GeometryFragGLSL string

//go:embed fullscreen.vert
var FullscreenVertGLSL string

//go:embed occlusion.frag
var OcclusionFragGLSL string

//go:embed composite.frag
var CompositeFragGLSL string

// Sources returns the built-in program text for every pipeline stage.
func Sources() gpu.ShaderSources {
	return gpu.ShaderSources{
		TransportVertex:   TransportVertGLSL,
		TransportFragment: NoopFragGLSL,
		GeometryVertex:    GeometryVertGLSL,
		GeometryFragment:  GeometryFragGLSL,
		FullscreenVertex:  FullscreenVertGLSL,
		OcclusionFragment: OcclusionFragGLSL,
		CompositeFragment: CompositeFragGLSL,
	}
}
