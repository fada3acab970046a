package asset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/sirupsen/logrus"

	"render-core/core"
	"render-core/math"
)

// Scene is the flattened content of a glTF file.
type Scene struct {
	Meshes    []*CPUMesh
	Materials []*CPUMaterial
	Textures  []*core.CPUTexture
	Instances []Instance
}

// Instance places a mesh in the world.
type Instance struct {
	Node      string
	Mesh      int
	Transform math.Mat4
}

// Loader reads glTF and GLB files. Images referenced by URI go through
// Cache when it is set.
type Loader struct {
	Log   logrus.FieldLogger
	Cache *TextureCache
}

// LoadGLTF opens a .glb or .gltf file with a default Loader.
func LoadGLTF(path string) (*Scene, error) {
	return (&Loader{}).LoadGLTF(path)
}

// Load reads a scene file, choosing the format by extension: .obj files are
// Wavefront OBJ and everything else is treated as glTF.
func (l *Loader) Load(path string) (*Scene, error) {
	if strings.EqualFold(filepath.Ext(path), ".obj") {
		return l.LoadOBJ(path)
	}
	return l.LoadGLTF(path)
}

// LoadGLTF opens a .glb or .gltf file.
func (l *Loader) LoadGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return l.Decode(doc, filepath.Dir(path))
}

func (l *Loader) log() logrus.FieldLogger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

// Decode converts a parsed document. dir resolves relative image URIs.
// Textures and primitives that fail to load are logged and skipped.
func (l *Loader) Decode(doc *gltf.Document, dir string) (*Scene, error) {
	s := &Scene{}
	log := l.log()

	textures := make([]*core.CPUTexture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		tex, err := l.image(doc, *gt.Source, dir)
		if err != nil {
			log.WithError(err).WithField("image", *gt.Source).Warn("gltf: skipping image")
			continue
		}
		if gt.Sampler != nil && *gt.Sampler < len(doc.Samplers) {
			applySampler(tex, doc.Samplers[*gt.Sampler])
		}
		textures[i] = tex
		s.Textures = append(s.Textures, tex)
	}

	for _, gm := range doc.Materials {
		s.Materials = append(s.Materials, material(gm, textures))
	}

	// meshPrims[meshIdx] lists the CPUMesh indices of its primitives.
	meshPrims := make([][]int, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := primitive(doc, gm.Name, pi, prim)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{"mesh": mi, "primitive": pi}).Warn("gltf: skipping primitive")
				continue
			}
			meshPrims[mi] = append(meshPrims[mi], len(s.Meshes))
			s.Meshes = append(s.Meshes, m)
		}
	}

	var visit func(idx int, parent math.Mat4, depth int)
	visit = func(idx int, parent math.Mat4, depth int) {
		// glTF forbids cycles; the bound guards against malformed files.
		if idx < 0 || idx >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return
		}
		gn := doc.Nodes[idx]
		world := localTransform(gn).Mul(parent)
		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			name := gn.Name
			if name == "" {
				name = fmt.Sprintf("node_%d", idx)
			}
			for _, m := range meshPrims[*gn.Mesh] {
				s.Instances = append(s.Instances, Instance{Node: name, Mesh: m, Transform: world})
			}
		}
		for _, c := range gn.Children {
			visit(c, world, depth+1)
		}
	}
	for _, root := range roots(doc) {
		visit(root, math.Mat4Identity(), 0)
	}

	log.WithFields(logrus.Fields{
		"meshes":    len(s.Meshes),
		"materials": len(s.Materials),
		"textures":  len(s.Textures),
		"instances": len(s.Instances),
	}).Debug("gltf loaded")
	return s, nil
}

// roots returns the nodes of the default scene, or every parentless node
// when the document has none.
func roots(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var out []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			out = append(out, i)
		}
	}
	return out
}

var identity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// localTransform returns the node matrix in row-vector form. glTF stores
// column-major matrices, which read row by row are already the transpose.
func localTransform(gn *gltf.Node) math.Mat4 {
	if gn.Matrix != [16]float64{} && gn.Matrix != identity {
		var m math.Mat4
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				m[i][j] = float32(gn.Matrix[i*4+j])
			}
		}
		return m
	}
	t := gn.TranslationOrDefault()
	sc := gn.ScaleOrDefault()
	r := gn.RotationOrDefault()

	scale := math.Mat4Scale(math.NewVec3(float32(sc[0]), float32(sc[1]), float32(sc[2])))
	rot := quatMat4(float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3]))
	trans := math.Mat4Translation(math.NewVec3(float32(t[0]), float32(t[1]), float32(t[2])))
	return scale.Mul(rot).Mul(trans)
}

// quatMat4 converts a unit quaternion to a row-vector rotation matrix.
func quatMat4(x, y, z, w float32) math.Mat4 {
	return math.Mat4{
		{1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0},
		{2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0},
		{2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0},
		{0, 0, 0, 1},
	}
}

func (l *Loader) image(doc *gltf.Document, idx int, dir string) (*core.CPUTexture, error) {
	img := doc.Images[idx]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", idx)
	}

	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("bufferview: %w", err)
		}
		return decodeImageBytes(name, raw)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		return decodeImageBytes(name, raw)
	case img.URI != "":
		return l.loadFile(filepath.Join(dir, img.URI))
	}
	return nil, fmt.Errorf("image %d has no source", idx)
}

func (l *Loader) loadFile(path string) (*core.CPUTexture, error) {
	if l.Cache != nil {
		return l.Cache.Load(path)
	}
	return LoadTexture(path)
}

// applySampler copies glTF sampler settings onto t. An undefined minifying
// filter keeps linear mipmapped sampling.
func applySampler(t *core.CPUTexture, s *gltf.Sampler) {
	if s.MagFilter == gltf.MagNearest {
		t.MagFilter = core.Nearest
	}
	switch s.MinFilter {
	case gltf.MinNearest:
		t.MinFilter, t.MipFilter = core.Nearest, nil
	case gltf.MinLinear:
		t.MinFilter, t.MipFilter = core.Linear, nil
	case gltf.MinNearestMipMapNearest:
		t.MinFilter, t.MipFilter = core.Nearest, core.Mip(core.Nearest)
	case gltf.MinLinearMipMapNearest:
		t.MinFilter, t.MipFilter = core.Linear, core.Mip(core.Nearest)
	case gltf.MinNearestMipMapLinear:
		t.MinFilter, t.MipFilter = core.Nearest, core.Mip(core.Linear)
	case gltf.MinLinearMipMapLinear:
		t.MinFilter, t.MipFilter = core.Linear, core.Mip(core.Linear)
	}
	t.WrapS = wrapping(s.WrapS)
	t.WrapT = wrapping(s.WrapT)
}

func wrapping(w gltf.WrappingMode) core.Wrapping {
	switch w {
	case gltf.WrapClampToEdge:
		return core.ClampToEdge
	case gltf.WrapMirroredRepeat:
		return core.MirroredRepeat
	}
	return core.Repeat
}

// srgb returns a copy of t that is sampled as sRGB. Colour maps are authored
// in sRGB while data maps (normals, occlusion) are linear.
func srgb(t *core.CPUTexture) *core.CPUTexture {
	if t == nil {
		return nil
	}
	c := *t
	c.Format = core.FormatSRGBA
	return &c
}

func lookup(textures []*core.CPUTexture, idx int) *core.CPUTexture {
	if idx >= 0 && idx < len(textures) {
		return textures[idx]
	}
	return nil
}

func material(gm *gltf.Material, textures []*core.CPUTexture) *CPUMaterial {
	mat := DefaultMaterial()
	mat.Name = gm.Name

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		mat.Albedo = core.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3])}
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			mat.AlbedoTexture = srgb(lookup(textures, pbr.BaseColorTexture.Index))
		}
		if pbr.MetallicRoughnessTexture != nil {
			mat.MetallicRoughnessTexture = lookup(textures, pbr.MetallicRoughnessTexture.Index)
		}
	}
	if nt := gm.NormalTexture; nt != nil && nt.Index != nil {
		mat.NormalTexture = lookup(textures, *nt.Index)
		mat.NormalScale = float32(nt.ScaleOrDefault())
	}
	if ot := gm.OcclusionTexture; ot != nil && ot.Index != nil {
		mat.OcclusionTexture = lookup(textures, *ot.Index)
		mat.OcclusionStrength = float32(ot.StrengthOrDefault())
	}
	if et := gm.EmissiveTexture; et != nil {
		mat.EmissiveTexture = srgb(lookup(textures, et.Index))
	}
	e := gm.EmissiveFactor
	mat.Emissive = math.NewVec3(float32(e[0]), float32(e[1]), float32(e[2]))
	return mat
}

// primitive converts one triangle primitive into a CPUMesh.
func primitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*CPUMesh, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, fmt.Errorf("primitive mode %v is not a triangle list", prim.Mode)
	}
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	m := &CPUMesh{Name: name, Material: -1}
	m.Positions = make([]math.Vec3, len(positions))
	for i, p := range positions {
		m.Positions[i] = math.NewVec3(p[0], p[1], p[2])
	}

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		for _, n := range normals {
			m.Normals = append(m.Normals, math.NewVec3(n[0], n[1], n[2]))
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
		for _, uv := range uvs {
			m.UVs = append(m.UVs, math.NewVec2(uv[0], uv[1]))
		}
	}
	if idx, ok := prim.Attributes["COLOR_0"]; ok {
		colors, err := modeler.ReadColor(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("colors: %w", err)
		}
		for _, c := range colors {
			m.Colors = append(m.Colors, core.Color{
				R: float32(c[0]) / 255, G: float32(c[1]) / 255, B: float32(c[2]) / 255, A: float32(c[3]) / 255,
			})
		}
	}
	if prim.Indices != nil {
		m.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}
	if prim.Material != nil {
		m.Material = *prim.Material
	}

	if idx, ok := prim.Attributes["TANGENT"]; ok {
		tangents, err := modeler.ReadTangent(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("tangents: %w", err)
		}
		m.fillDefaults()
		for _, t := range tangents {
			m.Tangents = append(m.Tangents, math.NewVec3(t[0], t[1], t[2]))
		}
	} else {
		m.ComputeTangents()
	}
	return m, nil
}
