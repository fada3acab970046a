package asset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"render-core/core"
	"render-core/math"
)

// objGroup is one o/g block of an OBJ file.
type objGroup struct {
	mesh     *CPUMesh
	material string
	// seen maps a "v/vt/vn" triplet to its vertex index.
	seen map[string]uint32
}

func newObjGroup(name, material string) *objGroup {
	return &objGroup{
		mesh:     &CPUMesh{Name: name, Material: -1},
		material: material,
		seen:     map[string]uint32{},
	}
}

// LoadOBJ parses a Wavefront .obj file and the .mtl libraries it references.
// Every group becomes one mesh placed at the origin.
func (l *Loader) LoadOBJ(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("obj open %q: %w", path, err)
	}
	defer f.Close()
	return l.DecodeOBJ(f, filepath.Dir(path))
}

// DecodeOBJ parses OBJ text from r. dir resolves mtllib and texture paths.
func (l *Loader) DecodeOBJ(r io.Reader, dir string) (*Scene, error) {
	log := l.log()

	var (
		positions, normals []math.Vec3
		uvs                []math.Vec2
		groups             []*objGroup
		materials          = map[string]*CPUMaterial{}
	)
	current := newObjGroup("default", "")

	flush := func() {
		if len(current.mesh.Indices) > 0 {
			groups = append(groups, current)
		}
	}

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v", "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			if fields[0] == "v" {
				positions = append(positions, math.NewVec3(v[0], v[1], v[2]))
			} else {
				normals = append(normals, math.NewVec3(v[0], v[1], v[2]))
			}
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", line, err)
			}
			uvs = append(uvs, math.Vec2{X: v[0], Y: v[1]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("obj line %d: face needs at least 3 vertices", line)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, spec := range fields[1:] {
				idx, err := current.vertex(spec, positions, normals, uvs)
				if err != nil {
					return nil, fmt.Errorf("obj line %d: %w", line, err)
				}
				face = append(face, idx)
			}
			// Fan triangulation for n-gons.
			for i := 2; i < len(face); i++ {
				current.mesh.Indices = append(current.mesh.Indices, face[0], face[i-1], face[i])
			}
		case "o", "g":
			flush()
			name := "unnamed"
			if len(fields) > 1 {
				name = fields[1]
			}
			current = newObjGroup(name, current.material)
		case "usemtl":
			if len(fields) > 1 {
				if len(current.mesh.Indices) > 0 {
					flush()
					current = newObjGroup(current.mesh.Name, fields[1])
				} else {
					current.material = fields[1]
				}
			}
		case "mtllib":
			for _, name := range fields[1:] {
				mtls, err := l.loadMTL(filepath.Join(dir, name))
				if err != nil {
					log.WithError(err).WithField("mtllib", name).Warn("obj: skipping material library")
					continue
				}
				for k, v := range mtls {
					materials[k] = v
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("obj read: %w", err)
	}
	flush()
	if len(groups) == 0 {
		return nil, fmt.Errorf("obj: no faces")
	}

	s := &Scene{}
	index := map[string]int{}
	for _, g := range groups {
		m := g.mesh
		m.fillDefaults()
		m.ComputeTangents()
		if mat, ok := materials[g.material]; ok {
			i, seen := index[g.material]
			if !seen {
				i = len(s.Materials)
				index[g.material] = i
				s.Materials = append(s.Materials, mat)
				s.Textures = append(s.Textures, mat.Textures()...)
			}
			m.Material = i
		}
		s.Instances = append(s.Instances, Instance{Node: m.Name, Mesh: len(s.Meshes), Transform: math.Mat4Identity()})
		s.Meshes = append(s.Meshes, m)
	}
	log.WithFields(logrus.Fields{
		"meshes":    len(s.Meshes),
		"materials": len(s.Materials),
	}).Debug("obj loaded")
	return s, nil
}

// vertex returns the index of the vertex described by a "v/vt/vn" spec,
// appending it on first use. Negative indices count back from the end.
func (g *objGroup) vertex(spec string, positions, normals []math.Vec3, uvs []math.Vec2) (uint32, error) {
	if idx, ok := g.seen[spec]; ok {
		return idx, nil
	}

	parts := strings.Split(spec, "/")
	pi, err := objIndex(parts[0], len(positions))
	if err != nil || pi < 0 {
		return 0, fmt.Errorf("bad position index %q", spec)
	}
	m := g.mesh
	m.Positions = append(m.Positions, positions[pi])

	if len(parts) > 1 && parts[1] != "" {
		ti, err := objIndex(parts[1], len(uvs))
		if err != nil || ti < 0 {
			return 0, fmt.Errorf("bad texture index %q", spec)
		}
		// OBJ puts v=0 at the bottom of the image.
		m.UVs = append(m.UVs, math.Vec2{X: uvs[ti].X, Y: 1 - uvs[ti].Y})
	} else {
		m.UVs = append(m.UVs, math.Vec2{})
	}

	if len(parts) > 2 && parts[2] != "" {
		ni, err := objIndex(parts[2], len(normals))
		if err != nil || ni < 0 {
			return 0, fmt.Errorf("bad normal index %q", spec)
		}
		m.Normals = append(m.Normals, normals[ni])
	} else {
		m.Normals = append(m.Normals, math.Vec3{Y: 1})
	}

	idx := uint32(len(m.Positions) - 1)
	g.seen[spec] = idx
	return idx, nil
}

// objIndex converts a 1-based or negative OBJ index to a 0-based one, or -1
// when it is out of range.
func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1, err
	}
	if i < 0 {
		i += n
	} else {
		i--
	}
	if i < 0 || i >= n {
		return -1, nil
	}
	return i, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func (l *Loader) loadMTL(path string) (map[string]*CPUMaterial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.decodeMTL(f, filepath.Dir(path))
}

// decodeMTL reads the diffuse, shininess, opacity and emissive terms of each
// material. Diffuse and emissive maps are loaded as sRGB.
func (l *Loader) decodeMTL(r io.Reader, dir string) (map[string]*CPUMaterial, error) {
	result := map[string]*CPUMaterial{}
	var current *CPUMaterial

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) > 1 {
				current = DefaultMaterial()
				current.Name = fields[1]
				result[fields[1]] = current
			}
			continue
		}
		if current == nil {
			continue
		}

		switch fields[0] {
		case "Kd":
			if v, err := parseFloats(fields[1:], 3); err == nil {
				current.Albedo = core.Color{R: v[0], G: v[1], B: v[2], A: current.Albedo.A}
			}
		case "Ke":
			if v, err := parseFloats(fields[1:], 3); err == nil {
				current.Emissive = math.NewVec3(v[0], v[1], v[2])
			}
		case "Ns":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				// Shininess runs 0..1000.
				current.Roughness = math.Clamp(1-v[0]/1000, 0, 1)
			}
		case "d", "Tr":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				d := v[0]
				if fields[0] == "Tr" {
					d = 1 - d
				}
				current.Albedo.A = d
			}
		case "map_Kd", "map_Ke", "map_Bump", "bump", "norm":
			// Options before the file name are not supported; the last field is the path.
			tex, err := l.loadFile(filepath.Join(dir, fields[len(fields)-1]))
			if err != nil {
				l.log().WithError(err).WithField("material", current.Name).Warn("obj: skipping texture")
				continue
			}
			switch fields[0] {
			case "map_Kd":
				current.AlbedoTexture = srgb(tex)
			case "map_Ke":
				current.EmissiveTexture = srgb(tex)
			default:
				current.NormalTexture = tex
			}
		}
	}
	return result, scanner.Err()
}
