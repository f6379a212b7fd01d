package models

type Vec2 [2]float32

type Vec3 [3]float32

// Vec4 doubles as an RGBA color.
type Vec4 [4]float32

var (
	White = Vec4{1, 1, 1, 1}
	One3  = Vec3{1, 1, 1}
)
