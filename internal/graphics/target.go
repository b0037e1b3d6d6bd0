package graphics

import (
	"fmt"

	"github.com/cyclic-goose/gooseCubeWorld-sub000/internal/culling"
	"github.com/go-gl/gl/v4.6-core/gl"
)

// Target is an off-screen colour + depth framebuffer. The scene is drawn
// into it so its depth texture can seed next frame's Hi-Z pyramid.
type Target struct {
	fbo    uint32
	color  uint32
	depth  uint32
	Width  int
	Height int
}

// NewTarget allocates a w x h target.
func NewTarget(w, h int) (*Target, error) {
	t := &Target{}
	if err := t.Resize(w, h); err != nil {
		return nil, err
	}
	return t, nil
}

// Resize reallocates the attachments; it is a no-op for an unchanged size.
func (t *Target) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("graphics: invalid target size %dx%d", w, h)
	}
	if t.fbo != 0 && w == t.Width && h == t.Height {
		return nil
	}
	t.Delete()
	t.Width, t.Height = w, h

	gl.CreateTextures(gl.TEXTURE_2D, 1, &t.color)
	gl.TextureStorage2D(t.color, 1, gl.RGBA8, int32(w), int32(h))

	gl.CreateTextures(gl.TEXTURE_2D, 1, &t.depth)
	gl.TextureStorage2D(t.depth, 1, gl.DEPTH_COMPONENT32F, int32(w), int32(h))
	gl.TextureParameteri(t.depth, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TextureParameteri(t.depth, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.CreateFramebuffers(1, &t.fbo)
	gl.NamedFramebufferTexture(t.fbo, gl.COLOR_ATTACHMENT0, t.color, 0)
	gl.NamedFramebufferTexture(t.fbo, gl.DEPTH_ATTACHMENT, t.depth, 0)

	if status := gl.CheckNamedFramebufferStatus(t.fbo, gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		t.Delete()
		return fmt.Errorf("graphics: framebuffer incomplete: 0x%x", status)
	}
	return nil
}

// Bind makes the target current and clears it.
func (t *Target) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, int32(t.Width), int32(t.Height))
	gl.ClearColor(0.53, 0.81, 0.92, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Present copies the colour attachment to the default framebuffer.
func (t *Target) Present(screenW, screenH int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BlitNamedFramebuffer(t.fbo, 0,
		0, 0, int32(t.Width), int32(t.Height),
		0, 0, int32(screenW), int32(screenH),
		gl.COLOR_BUFFER_BIT, gl.NEAREST)
}

// Depth describes the depth attachment for the Hi-Z pass.
func (t *Target) Depth() culling.DepthBuffer {
	return culling.DepthBuffer{Texture: t.depth, Width: t.Width, Height: t.Height}
}

func (t *Target) Delete() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	if t.color != 0 {
		gl.DeleteTextures(1, &t.color)
	}
	if t.depth != 0 {
		gl.DeleteTextures(1, &t.depth)
	}
	t.fbo, t.color, t.depth = 0, 0, 0
}
