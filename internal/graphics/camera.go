package graphics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	mouseSensitivity = 0.1
	pitchLimit       = 89.0
)

// Camera is a free-flying perspective camera. Yaw and Pitch are in degrees;
// yaw 0 looks down +X.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(width, height int) *Camera {
	c := &Camera{
		Yaw:       -90,
		FOV:       70.0,
		NearPlane: 0.1,
		FarPlane:  4000.0,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the aspect ratio; a zero height (minimised window)
// keeps the previous one.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.AspectRatio = float32(width) / float32(height)
}

func (c *Camera) Forward() mgl32.Vec3 {
	y := float64(mgl32.DegToRad(c.Yaw))
	p := float64(mgl32.DegToRad(c.Pitch))
	fx := float32(math.Cos(y) * math.Cos(p))
	fy := float32(math.Sin(p))
	fz := float32(math.Sin(y) * math.Cos(p))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// Right is horizontal so strafing never changes altitude.
func (c *Camera) Right() mgl32.Vec3 {
	y := float64(mgl32.DegToRad(c.Yaw))
	return mgl32.Vec3{float32(-math.Sin(y)), 0, float32(math.Cos(y))}
}

// Turn applies a cursor delta in screen pixels.
func (c *Camera) Turn(dx, dy float64) {
	c.Yaw += float32(dx * mouseSensitivity)
	c.Pitch -= float32(dy * mouseSensitivity)
	c.Pitch = mgl32.Clamp(c.Pitch, -pitchLimit, pitchLimit)
	c.Yaw = float32(math.Mod(float64(c.Yaw), 360))
}

// Move translates the camera by forward/right/up amounts in its own frame.
// Forward motion follows the view direction including pitch.
func (c *Camera) Move(forward, right, up float32) {
	c.Position = c.Position.
		Add(c.Forward().Mul(forward)).
		Add(c.Right().Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) ViewProj() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}
