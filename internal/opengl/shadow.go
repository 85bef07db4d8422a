package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"haunted-house/core"
)

// ShadowMap is the moon light's depth target. Only the directional light
// casts shadows, so a single map is enough.
type ShadowMap struct {
	FBO      uint32
	DepthTex uint32
	Size     int32
}

// depthParams configure the depth texture for sampler2DShadow lookups.
// Samples past the border compare as fully lit.
var depthParams = [][2]int32{
	{gl.TEXTURE_MIN_FILTER, gl.LINEAR},
	{gl.TEXTURE_MAG_FILTER, gl.LINEAR},
	{gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER},
	{gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER},
	{gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE},
	{gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL},
}

// NewShadowMap allocates a square depth target of the requested edge,
// shrunk to MAX_TEXTURE_SIZE when the driver cannot hold it.
func NewShadowMap(size int) (*ShadowMap, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shadow map size %d", size)
	}
	var limit int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &limit)
	if limit > 0 && int32(size) > limit {
		core.Log.Warn("Shadow map clamped", zap.Int("requested", size), zap.Int32("max", limit))
		size = int(limit)
	}

	sm := &ShadowMap{Size: int32(size)}
	sm.DepthTex = newDepthTexture(sm.Size)

	gl.GenFramebuffers(1, &sm.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, sm.DepthTex, 0)
	// No colour attachment.
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		sm.Destroy()
		return nil, fmt.Errorf("shadow target incomplete: status=0x%X", status)
	}
	core.Log.Debug("Shadow map created", zap.Int32("size", sm.Size))
	return sm, nil
}

func newDepthTexture(size int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F, size, size, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	for _, p := range depthParams {
		gl.TexParameteri(gl.TEXTURE_2D, uint32(p[0]), p[1])
	}
	white := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &white[0])
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// Destroy releases the target. Safe to call twice.
func (sm *ShadowMap) Destroy() {
	if sm.DepthTex != 0 {
		gl.DeleteTextures(1, &sm.DepthTex)
		sm.DepthTex = 0
	}
	if sm.FBO != 0 {
		gl.DeleteFramebuffers(1, &sm.FBO)
		sm.FBO = 0
	}
}
