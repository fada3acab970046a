package asset

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"render-core/core"
	"render-core/math"
)

const quadOBJ = `# two groups sharing one material library
mtllib scene.mtl
v -1 0 -1
v  1 0 -1
v  1 0  1
v -1 0  1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 1 0
o Floor
usemtl tiles
f 1/1/1 2/2/1 3/3/1 4/4/1
o Marker
usemtl missing
f -4//1 -3//1 -2//1
`

const sceneMTL = `newmtl tiles
Kd 0.5 0.25 1
Ns 250
d 0.5
map_Kd tiles.png
`

func writeFiles(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadOBJ(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{
		"scene.obj": []byte(quadOBJ),
		"scene.mtl": []byte(sceneMTL),
		"tiles.png": encodePNG(t, 2, 2, color.NRGBA{R: 255, A: 255}),
	})

	s, err := (&Loader{}).Load(filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Meshes) != 2 || len(s.Instances) != 2 {
		t.Fatalf("%d meshes, %d instances; want 2, 2", len(s.Meshes), len(s.Instances))
	}

	floor := s.Meshes[0]
	if floor.Name != "Floor" || floor.VertexCount() != 4 || len(floor.Indices) != 6 {
		t.Errorf("floor: %s with %d vertices, %d indices", floor.Name, floor.VertexCount(), len(floor.Indices))
	}
	// The first vertex has vt (0,0), which flips to the top of the image.
	if floor.UVs[0] != (math.Vec2{X: 0, Y: 1}) {
		t.Errorf("uv[0] = %v", floor.UVs[0])
	}
	if len(floor.Tangents) != 4 {
		t.Errorf("%d tangents", len(floor.Tangents))
	}

	if floor.Material != 0 || len(s.Materials) != 1 {
		t.Fatalf("floor material %d of %d", floor.Material, len(s.Materials))
	}
	mat := s.Materials[0]
	if mat.Albedo != (core.Color{R: 0.5, G: 0.25, B: 1, A: 0.5}) {
		t.Errorf("albedo = %+v", mat.Albedo)
	}
	if mat.Roughness != 0.75 {
		t.Errorf("roughness = %v", mat.Roughness)
	}
	if mat.AlbedoTexture == nil || mat.AlbedoTexture.Format != core.FormatSRGBA {
		t.Errorf("albedo texture = %+v", mat.AlbedoTexture)
	}

	marker := s.Meshes[1]
	if marker.Material != -1 {
		t.Errorf("unknown material resolved to %d", marker.Material)
	}
	if marker.Positions[0] != math.NewVec3(-1, 0, -1) {
		t.Errorf("negative index resolved to %v", marker.Positions[0])
	}
}

func TestDecodeOBJErrors(t *testing.T) {
	tests := map[string]string{
		"no faces":       "v 0 0 0\n",
		"short face":     "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"bad position":   "v 0 0 0\nf 1 2 3\n",
		"bad coordinate": "v 0 zero 0\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := (&Loader{}).DecodeOBJ(strings.NewReader(src), t.TempDir()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestOBJTexturesGoThroughCache(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{
		"a.mtl": []byte("newmtl a\nmap_Kd shared.png\nnewmtl b\nmap_Kd shared.png\n"),
	})
	cache, err := NewTextureCache(4)
	if err != nil {
		t.Fatal(err)
	}
	loads := 0
	cache.load = func(string) (*core.CPUTexture, error) {
		loads++
		return SolidTexture("shared", 1, 2, 3, 255), nil
	}

	mtls, err := (&Loader{Cache: cache}).loadMTL(filepath.Join(dir, "a.mtl"))
	if err != nil {
		t.Fatal(err)
	}
	if len(mtls) != 2 || loads != 1 {
		t.Errorf("%d materials after %d loads; want 2 after 1", len(mtls), loads)
	}
}
