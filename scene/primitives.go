package scene

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"haunted-house/core"
)

// UVs follow the OpenGL convention (v up). Every generator computes tangents
// so normal maps work out of the box.

// CreateBox generates an axis-aligned box centred on the origin.
func CreateBox(width, height, depth float32) *Geometry {
	half := mgl32.Vec3{width / 2, height / 2, depth / 2}

	type face struct{ n, u, v mgl32.Vec3 }
	faces := []face{
		{n: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
		{n: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
		{n: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
		{n: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
		{n: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
		{n: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	}

	vertices := make([]core.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		// Per-axis half extents along n, u and v.
		hn := absDot(f.n, half)
		hu := absDot(f.u, half)
		hv := absDot(f.v, half)
		center := f.n.Mul(hn)
		base := uint32(len(vertices))
		corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		for _, c := range corners {
			p := center.Add(f.u.Mul(c[0] * hu)).Add(f.v.Mul(c[1] * hv))
			vertices = append(vertices, core.Vertex{
				Position: p,
				Normal:   f.n,
				UV:       mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2},
				Color:    core.ColorWhite,
			})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}

	g := NewGeometry("Box", vertices, indices)
	ComputeTangents(g)
	return g
}

func absDot(axis, half mgl32.Vec3) float32 {
	d := axis.Dot(half)
	if d < 0 {
		return -d
	}
	return d
}

// CreatePlane generates a plane in the XY plane facing +Z, subdivided into
// widthSegments x heightSegments quads. Rotate it to lay it on the ground.
func CreatePlane(width, height float32, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 1 {
		widthSegments = 1
	}
	if heightSegments < 1 {
		heightSegments = 1
	}

	gridX1 := widthSegments + 1
	gridY1 := heightSegments + 1
	segW := width / float32(widthSegments)
	segH := height / float32(heightSegments)

	vertices := make([]core.Vertex, 0, gridX1*gridY1)
	for iy := 0; iy < gridY1; iy++ {
		y := float32(iy)*segH - height/2
		for ix := 0; ix < gridX1; ix++ {
			x := float32(ix)*segW - width/2
			vertices = append(vertices, core.Vertex{
				Position:  mgl32.Vec3{x, -y, 0},
				Normal:    mgl32.Vec3{0, 0, 1},
				UV:        mgl32.Vec2{float32(ix) / float32(widthSegments), 1 - float32(iy)/float32(heightSegments)},
				Color:     core.ColorWhite,
				Tangent:   mgl32.Vec3{1, 0, 0},
				Bitangent: mgl32.Vec3{0, 1, 0},
			})
		}
	}

	indices := make([]uint32, 0, widthSegments*heightSegments*6)
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint32(ix + gridX1*iy)
			b := uint32(ix + gridX1*(iy+1))
			c := uint32(ix + 1 + gridX1*(iy+1))
			d := uint32(ix + 1 + gridX1*iy)
			indices = append(indices, a, b, d, b, c, d)
		}
	}

	return NewGeometry("Plane", vertices, indices)
}

// CreateSphere generates a UV-sphere mesh
func CreateSphere(radius float32, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	var vertices []core.Vertex
	grid := make([][]uint32, heightSegments+1)

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)

		// Pole rows shift u by half a segment so the triangle fans line up.
		uOffset := 0.0
		if iy == 0 {
			uOffset = 0.5 / float64(widthSegments)
		} else if iy == heightSegments {
			uOffset = -0.5 / float64(widthSegments)
		}

		grid[iy] = make([]uint32, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			x := -stdmath.Cos(u*2*stdmath.Pi) * stdmath.Sin(v*stdmath.Pi)
			y := stdmath.Cos(v * stdmath.Pi)
			z := stdmath.Sin(u*2*stdmath.Pi) * stdmath.Sin(v*stdmath.Pi)
			normal := mgl32.Vec3{float32(x), float32(y), float32(z)}

			grid[iy][ix] = uint32(len(vertices))
			vertices = append(vertices, core.Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				UV:       mgl32.Vec2{float32(u + uOffset), float32(1 - v)},
				Color:    core.ColorWhite,
			})
		}
	}

	var indices []uint32
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				indices = append(indices, a, b, d)
			}
			if iy != heightSegments-1 {
				indices = append(indices, b, c, d)
			}
		}
	}

	g := NewGeometry("Sphere", vertices, indices)
	ComputeTangents(g)
	return g
}

// CreateCone generates a closed cone with its apex at +height/2 and its base
// at -height/2. With radialSegments = 4 the first base corner lies on +Z.
func CreateCone(radius, height float32, radialSegments int) *Geometry {
	if radialSegments < 3 {
		radialSegments = 3
	}

	halfHeight := height / 2
	slope := radius / height

	var vertices []core.Vertex
	var indices []uint32

	// Torso: row 0 is the apex ring, row 1 the base ring.
	rows := [2][]uint32{}
	for y := 0; y <= 1; y++ {
		r := float32(y) * radius
		rows[y] = make([]uint32, radialSegments+1)
		for x := 0; x <= radialSegments; x++ {
			u := float64(x) / float64(radialSegments)
			theta := u * 2 * stdmath.Pi
			sin := float32(stdmath.Sin(theta))
			cos := float32(stdmath.Cos(theta))

			rows[y][x] = uint32(len(vertices))
			vertices = append(vertices, core.Vertex{
				Position: mgl32.Vec3{r * sin, -float32(y)*height + halfHeight, r * cos},
				Normal:   mgl32.Vec3{sin, slope, cos}.Normalize(),
				UV:       mgl32.Vec2{float32(u), float32(1 - y)},
				Color:    core.ColorWhite,
			})
		}
	}
	for x := 0; x < radialSegments; x++ {
		b := rows[1][x]
		c := rows[1][x+1]
		d := rows[0][x+1]
		indices = append(indices, b, c, d)
	}

	// Base cap facing -Y.
	centerStart := uint32(len(vertices))
	for x := 0; x < radialSegments; x++ {
		vertices = append(vertices, core.Vertex{
			Position: mgl32.Vec3{0, -halfHeight, 0},
			Normal:   mgl32.Vec3{0, -1, 0},
			UV:       mgl32.Vec2{0.5, 0.5},
			Color:    core.ColorWhite,
		})
	}
	ringStart := uint32(len(vertices))
	for x := 0; x <= radialSegments; x++ {
		theta := float64(x) / float64(radialSegments) * 2 * stdmath.Pi
		sin := float32(stdmath.Sin(theta))
		cos := float32(stdmath.Cos(theta))
		vertices = append(vertices, core.Vertex{
			Position: mgl32.Vec3{radius * sin, -halfHeight, radius * cos},
			Normal:   mgl32.Vec3{0, -1, 0},
			UV:       mgl32.Vec2{cos*0.5 + 0.5, -sin*0.5 + 0.5},
			Color:    core.ColorWhite,
		})
	}
	for x := uint32(0); x < uint32(radialSegments); x++ {
		c := centerStart + x
		i := ringStart + x
		indices = append(indices, i+1, i, c)
	}

	g := NewGeometry("Cone", vertices, indices)
	ComputeTangents(g)
	return g
}
