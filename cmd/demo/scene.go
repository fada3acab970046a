package main

import (
	"fmt"
	"slices"

	"render-core/asset"
	"render-core/core"
	"render-core/math"
)

// builtinScene is a small plaza used when no glTF file is configured.
func builtinScene() *asset.Scene {
	s := &asset.Scene{}

	addMaterial := func(name string, c core.Color, emissive math.Vec3) int {
		m := asset.DefaultMaterial()
		m.Name, m.Albedo, m.Emissive = name, c, emissive
		s.Materials = append(s.Materials, m)
		return len(s.Materials) - 1
	}
	ground := addMaterial("Ground", core.Color{R: 0.62, G: 0.58, B: 0.52, A: 1}, math.Vec3{})
	stone := addMaterial("Stone", core.Color{R: 0.58, G: 0.55, B: 0.50, A: 1}, math.Vec3{})
	brick := addMaterial("Brick", core.Color{R: 0.70, G: 0.43, B: 0.30, A: 1}, math.Vec3{})
	plaster := addMaterial("Plaster", core.Color{R: 0.90, G: 0.87, B: 0.78, A: 1}, math.Vec3{})
	marble := addMaterial("Marble", core.Color{R: 0.92, G: 0.90, B: 0.86, A: 1}, math.Vec3{})
	lamp := addMaterial("LampGlow", core.Color{R: 1.0, G: 0.85, B: 0.45, A: 1}, math.NewVec3(3, 2, 0.6))

	addMesh := func(m *asset.CPUMesh, material int) int {
		m.Material = material
		s.Meshes = append(s.Meshes, m)
		return len(s.Meshes) - 1
	}
	plane := addMesh(asset.CreatePlane(80, 80, 8), ground)
	cubes := map[int]int{
		stone:   addMesh(asset.CreateCube(1), stone),
		brick:   addMesh(asset.CreateCube(1), brick),
		plaster: addMesh(asset.CreateCube(1), plaster),
	}
	fountain := addMesh(asset.CreateSphere(1, 24, 12), marble)
	glow := addMesh(asset.CreateSphere(0.3, 12, 6), lamp)

	place := func(name string, mesh int, pos, scale math.Vec3) {
		s.Instances = append(s.Instances, asset.Instance{
			Node:      name,
			Mesh:      mesh,
			Transform: math.Mat4Scale(scale).Mul(math.Mat4Translation(pos)),
		})
	}
	place("Ground", plane, math.Vec3{}, math.NewVec3(1, 1, 1))
	place("Bldg_NW", cubes[stone], math.NewVec3(-15, 4.5, -15), math.NewVec3(9, 9, 9))
	place("Bldg_NE", cubes[brick], math.NewVec3(16, 3.5, -15), math.NewVec3(12, 7, 10))
	place("Bldg_SW", cubes[plaster], math.NewVec3(-15, 3, 16), math.NewVec3(8, 6, 8))
	place("Bldg_SE", cubes[stone], math.NewVec3(16, 2.5, 16), math.NewVec3(14, 5, 8))
	place("Wall_W", cubes[stone], math.NewVec3(-10, 0.5, 0), math.NewVec3(0.5, 1, 18))
	place("Wall_E", cubes[stone], math.NewVec3(10, 0.5, 0), math.NewVec3(0.5, 1, 18))
	place("Fountain", fountain, math.NewVec3(0, 1, 0), math.NewVec3(2.5, 1, 2.5))
	for i, x := range []float32{-6, 6} {
		place(fmt.Sprintf("Lamp_%d", i), glow, math.NewVec3(x, 3, 6), math.NewVec3(1, 1, 1))
	}
	return s
}

// gpuMaterial is a CPUMaterial with its albedo map uploaded.
type gpuMaterial struct {
	albedo   core.Color
	emissive math.Vec3
	texture  *core.Texture2D
}

// gpuScene holds the device resources of a loaded scene.
type gpuScene struct {
	meshes    []*asset.MeshBuffers
	materials []gpuMaterial
	// meshMaterial maps a mesh index to its entry in materials.
	meshMaterial []int
	// bounds holds the local box of each mesh.
	bounds    []math.AABB
	instances []asset.Instance
	textures  []*core.Texture2D
}

// uploadScene uploads every mesh and albedo map. Materials without a map
// sample a shared white texel. mipFilter overrides the filter stored in
// each texture.
func uploadScene(ctx *core.Context, s *asset.Scene, mipFilter *core.Interpolation) (*gpuScene, error) {
	g := &gpuScene{instances: s.Instances}

	white, err := core.NewTexture2DFromCPU(ctx, asset.SolidTexture("white", 255, 255, 255, 255))
	if err != nil {
		return nil, fmt.Errorf("white texture: %w", err)
	}
	g.textures = append(g.textures, white)

	uploaded := map[*core.CPUTexture]*core.Texture2D{}
	upload := func(cpu *core.CPUTexture) (*core.Texture2D, error) {
		if cpu == nil {
			return white, nil
		}
		if t, ok := uploaded[cpu]; ok {
			return t, nil
		}
		c := *cpu
		c.MipFilter = mipFilter
		t, err := core.NewTexture2DFromCPU(ctx, &c)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", cpu.Name, err)
		}
		uploaded[cpu] = t
		g.textures = append(g.textures, t)
		return t, nil
	}

	materials := append(slices.Clip(s.Materials), asset.DefaultMaterial())
	for _, m := range materials {
		tex, err := upload(m.AlbedoTexture)
		if err != nil {
			g.Release()
			return nil, err
		}
		g.materials = append(g.materials, gpuMaterial{albedo: m.Albedo, emissive: m.Emissive, texture: tex})
	}

	for _, m := range s.Meshes {
		mb, err := asset.UploadMesh(ctx, m)
		if err != nil {
			g.Release()
			return nil, err
		}
		g.meshes = append(g.meshes, mb)
		g.bounds = append(g.bounds, m.Bounds())
		mat := m.Material
		if mat < 0 || mat >= len(s.Materials) {
			mat = len(materials) - 1
		}
		g.meshMaterial = append(g.meshMaterial, mat)
	}
	return g, nil
}

func (g *gpuScene) Release() {
	for _, m := range g.meshes {
		m.Release()
	}
	for _, t := range g.textures {
		t.Release()
	}
	g.meshes, g.textures = nil, nil
}
