package protocol

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"google.golang.org/protobuf/encoding/protowire"

	"riftline/pkg/core"
)

var (
	ErrMalformed     = errors.New("protocol: malformed message")
	ErrWrongType     = errors.New("protocol: unexpected message type")
	ErrUnknownPacket = errors.New("protocol: unknown packet type")
)

// encoder 按字段号顺序追加 protobuf 线格式字段
type encoder struct {
	b []byte
}

func (e *encoder) varint(num protowire.Number, v uint64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) sint(num protowire.Number, v int64) {
	e.varint(num, protowire.EncodeZigZag(v))
}

func (e *encoder) boolean(num protowire.Number, v bool) {
	e.varint(num, protowire.EncodeBool(v))
}

func (e *encoder) float(num protowire.Number, f float32) {
	e.b = protowire.AppendTag(e.b, num, protowire.Fixed32Type)
	e.b = protowire.AppendFixed32(e.b, math.Float32bits(f))
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *encoder) str(num protowire.Number, v string) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) message(num protowire.Number, fn func(*encoder)) {
	var inner encoder
	fn(&inner)
	e.bytes(num, inner.b)
}

func (e *encoder) vec2(num protowire.Number, v mgl32.Vec2) {
	e.message(num, func(m *encoder) {
		m.float(1, v.X())
		m.float(2, v.Y())
	})
}

func (e *encoder) vec3(num protowire.Number, v mgl32.Vec3) {
	e.message(num, func(m *encoder) {
		m.float(1, v.X())
		m.float(2, v.Y())
		m.float(3, v.Z())
	})
}

func (e *encoder) cvec3(num protowire.Number, v core.CompressedVector3) {
	e.message(num, func(m *encoder) {
		m.sint(1, int64(v.X))
		m.sint(2, int64(v.Y))
		m.sint(3, int64(v.Z))
	})
}

// fieldFunc 处理一个字段，返回消耗的字节数；返回 0 表示未知字段，由 walk 跳过
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

// walk 遍历消息的所有字段
func walk(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		m := fn(num, typ, b)
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

func readVarint(typ protowire.Type, b []byte) (uint64, int) {
	if typ != protowire.VarintType {
		return 0, -1
	}
	return protowire.ConsumeVarint(b)
}

func readSint(typ protowire.Type, b []byte) (int64, int) {
	v, n := readVarint(typ, b)
	return protowire.DecodeZigZag(v), n
}

func readBool(typ protowire.Type, b []byte) (bool, int) {
	v, n := readVarint(typ, b)
	return protowire.DecodeBool(v), n
}

func readFloat(typ protowire.Type, b []byte) (float32, int) {
	if typ != protowire.Fixed32Type {
		return 0, -1
	}
	v, n := protowire.ConsumeFixed32(b)
	return math.Float32frombits(v), n
}

func readBytes(typ protowire.Type, b []byte) ([]byte, int) {
	if typ != protowire.BytesType {
		return nil, -1
	}
	return protowire.ConsumeBytes(b)
}

func readString(typ protowire.Type, b []byte) (string, int) {
	v, n := readBytes(typ, b)
	return string(v), n
}

// readMessage 读取嵌套消息并用 decode 解析；解析失败按格式错误处理
func readMessage(typ protowire.Type, b []byte, decode func([]byte) error) int {
	v, n := readBytes(typ, b)
	if n < 0 {
		return n
	}
	if err := decode(v); err != nil {
		return -1
	}
	return n
}

func decodeVec2(b []byte, out *mgl32.Vec2) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			out[0], n = readFloat(typ, b)
		case 2:
			out[1], n = readFloat(typ, b)
		}
		return n
	})
}

func decodeVec3(b []byte, out *mgl32.Vec3) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		var n int
		switch num {
		case 1:
			out[0], n = readFloat(typ, b)
		case 2:
			out[1], n = readFloat(typ, b)
		case 3:
			out[2], n = readFloat(typ, b)
		}
		return n
	})
}

func decodeCVec3(b []byte, out *core.CompressedVector3) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		v, n := readSint(typ, b)
		switch num {
		case 1:
			out.X = int32(v)
		case 2:
			out.Y = int32(v)
		case 3:
			out.Z = int32(v)
		default:
			return 0
		}
		return n
	})
}
