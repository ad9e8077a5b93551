package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// 压缩精度：位置按 1cm 定点量化，四元数分量按 int16 归一化
const (
	PositionPrecision = 0.01
	quatScale         = math.MaxInt16
)

// CompressedVector3 定点量化后的三维向量，配合 zigzag varint 传输，小坐标只占 1~3 字节
type CompressedVector3 struct {
	X, Y, Z int32
}

// CompressVector3 量化向量，超出 int32 范围的分量被截断
func CompressVector3(v mgl32.Vec3) CompressedVector3 {
	return CompressedVector3{
		X: quantize(v.X()),
		Y: quantize(v.Y()),
		Z: quantize(v.Z()),
	}
}

// Vec3 还原为浮点向量
func (c CompressedVector3) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(float64(c.X) * PositionPrecision),
		float32(float64(c.Y) * PositionPrecision),
		float32(float64(c.Z) * PositionPrecision),
	}
}

func quantize(f float32) int32 {
	if !finite32(f) {
		return 0
	}
	q := math.Round(float64(f) / PositionPrecision)
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	if q < math.MinInt32 {
		return math.MinInt32
	}
	return int32(q)
}

// CompressedQuat 归一化四元数的 int16 表示
type CompressedQuat struct {
	X, Y, Z, W int16
}

// CompressQuat 压缩朝向
func CompressQuat(q mgl32.Quat) CompressedQuat {
	q = q.Normalize()
	return CompressedQuat{
		X: quantizeUnit(q.V.X()),
		Y: quantizeUnit(q.V.Y()),
		Z: quantizeUnit(q.V.Z()),
		W: quantizeUnit(q.W),
	}
}

// Quat 还原朝向
func (c CompressedQuat) Quat() mgl32.Quat {
	q := mgl32.Quat{
		W: float32(c.W) / quatScale,
		V: mgl32.Vec3{float32(c.X) / quatScale, float32(c.Y) / quatScale, float32(c.Z) / quatScale},
	}
	if q.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return q.Normalize()
}

func quantizeUnit(f float32) int16 {
	return int16(math.Round(float64(mgl32.Clamp(f, -1, 1)) * quatScale))
}
