package shaders

import (
	_ "embed"
)

//go:embed pick_common.wgsl
var PickCommonWGSL string

//go:embed pick_mesh.wgsl
var PickMeshWGSL string

//go:embed pick_line.wgsl
var PickLineWGSL string

//go:embed pick_point.wgsl
var PickPointWGSL string

//go:embed pick_tube.wgsl
var PickTubeWGSL string

// Pick returns the full source for one pick pipeline: the shared camera
// block and id packing followed by the primitive's stages.
func Pick(stage string) string {
	return PickCommonWGSL + "\n" + stage
}
