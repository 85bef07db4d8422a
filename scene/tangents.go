package scene

import "github.com/go-gl/mathgl/mgl32"

// ComputeTangents generates per-vertex tangent and bitangent vectors for a
// Geometry. These are required for tangent-space normal mapping. The geometry
// must have UV coordinates; triangles with a degenerate UV area are skipped.
//
// Call after NewGeometry, before uploading the geometry to the GPU.
func ComputeTangents(g *Geometry) {
	for i := range g.Vertices {
		g.Vertices[i].Tangent = mgl32.Vec3{}
		g.Vertices[i].Bitangent = mgl32.Vec3{}
	}

	// accum adds the tangent/bitangent contribution of one triangle to its vertices.
	accum := func(i0, i1, i2 uint32) {
		v0 := g.Vertices[i0]
		v1 := g.Vertices[i1]
		v2 := g.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)

		du1 := v1.UV.X() - v0.UV.X()
		dv1 := v1.UV.Y() - v0.UV.Y()
		du2 := v2.UV.X() - v0.UV.X()
		dv2 := v2.UV.Y() - v0.UV.Y()

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			return // degenerate UV triangle
		}
		r := 1.0 / denom

		t := e1.Mul(dv2 * r).Sub(e2.Mul(dv1 * r))
		b := e2.Mul(du1 * r).Sub(e1.Mul(du2 * r))

		for _, i := range [3]uint32{i0, i1, i2} {
			g.Vertices[i].Tangent = g.Vertices[i].Tangent.Add(t)
			g.Vertices[i].Bitangent = g.Vertices[i].Bitangent.Add(b)
		}
	}

	for i := 0; i+2 < len(g.Indices); i += 3 {
		accum(g.Indices[i], g.Indices[i+1], g.Indices[i+2])
	}

	// Gram-Schmidt orthogonalize and normalize each vertex tangent frame.
	for i := range g.Vertices {
		n := g.Vertices[i].Normal
		t := g.Vertices[i].Tangent
		b := g.Vertices[i].Bitangent

		// T = normalize(T - N*(N·T))
		t = t.Sub(n.Mul(n.Dot(t)))
		if t.Dot(t) < 1e-8 {
			// Degenerate: choose an arbitrary tangent perpendicular to N.
			if abs32(n.X()) < 0.9 {
				t = mgl32.Vec3{1, 0, 0}.Sub(n.Mul(n.X()))
			} else {
				t = mgl32.Vec3{0, 1, 0}.Sub(n.Mul(n.Y()))
			}
		}
		g.Vertices[i].Tangent = t.Normalize()

		if b.Dot(b) < 1e-8 {
			b = n.Cross(g.Vertices[i].Tangent)
		}
		g.Vertices[i].Bitangent = b.Normalize()
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
