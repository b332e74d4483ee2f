package terrain

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/voxel/svo"
)

// CellCodec serializes terrain cells as a material byte plus the raw bits
// of the distance, so round trips preserve distances exactly.
type CellCodec struct{}

var _ svo.Codec[CellData, CellData] = CellCodec{}

func appendCellData(buf []byte, d *CellData) []byte {
	buf = append(buf, byte(d.Kind))
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(d.Distance))
}

func decodeCellData(buf []byte) (CellData, []byte, error) {
	if len(buf) < 5 {
		return CellData{}, nil, errors.New("truncated terrain cell")
	}
	kind := Kind(buf[0])
	if kind > KindBlue {
		return CellData{}, nil, errors.Errorf("invalid terrain material %d", kind)
	}
	bits := binary.LittleEndian.Uint32(buf[1:5])
	return CellData{Kind: kind, Distance: math.Float32frombits(bits)}, buf[5:], nil
}

// AppendLeaf implements svo.Codec.
func (CellCodec) AppendLeaf(buf []byte, leaf *CellData) []byte {
	return appendCellData(buf, leaf)
}

// DecodeLeaf implements svo.Codec.
func (CellCodec) DecodeLeaf(buf []byte) (CellData, []byte, error) {
	return decodeCellData(buf)
}

// AppendInternal implements svo.Codec.
func (CellCodec) AppendInternal(buf []byte, internal *CellData) []byte {
	return appendCellData(buf, internal)
}

// DecodeInternal implements svo.Codec.
func (CellCodec) DecodeInternal(buf []byte) (CellData, []byte, error) {
	return decodeCellData(buf)
}
