package svo

import (
	"encoding/binary"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Codec encodes and decodes the payload types of a tree. Append methods
// grow and return buf; Decode methods consume from the front of buf and
// return the remainder.
type Codec[D Data[D], I Data[I]] interface {
	AppendLeaf(buf []byte, leaf *D) []byte
	DecodeLeaf(buf []byte) (D, []byte, error)
	AppendInternal(buf []byte, internal *I) []byte
	DecodeInternal(buf []byte) (I, []byte, error)
}

// Serialization format identifiers.
var svoMagic = [4]byte{'s', 'v', 'o', '1'}

// Marshal serializes the tree, preserving its exact node structure.
func Marshal[D Data[D], I Data[I]](root *Cell[D, I], codec Codec[D, I]) ([]byte, error) {
	buf := append([]byte(nil), svoMagic[:]...)
	return appendCell(buf, root, codec), nil
}

func appendCell[D Data[D], I Data[I]](buf []byte, cell *Cell[D, I], codec Codec[D, I]) []byte {
	buf = append(buf, byte(cell.nodeType))
	switch cell.nodeType {
	case LeafNode:
		buf = codec.AppendLeaf(buf, &cell.leaf)
	case InternalNode:
		buf = codec.AppendInternal(buf, &cell.internal)
		for _, child := range cell.children {
			buf = appendCell(buf, child, codec)
		}
	case PackedNode:
		packed := cell.packed
		buf = binary.AppendUvarint(buf, uint64(packed.depth))
		for _, level := range packed.internals {
			for i := range level {
				buf = codec.AppendInternal(buf, &level[i])
			}
		}
		for i := range packed.leaves {
			buf = codec.AppendLeaf(buf, &packed.leaves[i])
		}
	}
	return buf
}

// Unmarshal reconstructs a tree written by Marshal.
func Unmarshal[D Data[D], I Data[I]](data []byte, codec Codec[D, I]) (*Cell[D, I], error) {
	if len(data) < len(svoMagic) || [4]byte(data[:4]) != svoMagic {
		return nil, errors.New("not a serialized octree")
	}
	cell, rest, err := decodeCell(data[4:], codec)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.Errorf("%d trailing bytes after octree", len(rest))
	}
	return cell, nil
}

func decodeCell[D Data[D], I Data[I]](buf []byte, codec Codec[D, I]) (*Cell[D, I], []byte, error) {
	if len(buf) == 0 {
		return nil, nil, errors.New("truncated octree: missing node tag")
	}
	tag := NodeType(buf[0])
	buf = buf[1:]
	switch tag {
	case LeafNode:
		leaf, rest, err := codec.DecodeLeaf(buf)
		if err != nil {
			return nil, nil, errors.Wrap(err, "decoding leaf")
		}
		return NewLeafCell[D, I](leaf), rest, nil
	case InternalNode:
		summary, rest, err := codec.DecodeInternal(buf)
		if err != nil {
			return nil, nil, errors.Wrap(err, "decoding internal summary")
		}
		var children [8]*Cell[D, I]
		for i := range children {
			child, childRest, err := decodeCell(rest, codec)
			if err != nil {
				return nil, nil, err
			}
			children[i] = child
			rest = childRest
		}
		return NewInternalCell(summary, children), rest, nil
	case PackedNode:
		depth, n := binary.Uvarint(buf)
		if n <= 0 {
			return nil, nil, errors.New("truncated octree: missing packed depth")
		}
		if depth > MaxPathDepth {
			return nil, nil, errors.Errorf("packed depth %d exceeds maximum %d", depth, MaxPathDepth)
		}
		rest := buf[n:]
		// Every payload occupies at least one byte, so the remaining input
		// bounds how many values the region can hold.
		if leaves := uint64(1) << (3 * depth); leaves > uint64(len(rest)) {
			return nil, nil, errors.Errorf(
				"truncated octree: %d packed leaves but %d bytes left", leaves, len(rest))
		}
		packed := &PackedCell[D, I]{depth: uint(depth)}
		packed.internals = make([][]I, depth)
		for k := range packed.internals {
			level := make([]I, 1<<(3*k))
			for i := range level {
				var err error
				level[i], rest, err = codec.DecodeInternal(rest)
				if err != nil {
					return nil, nil, errors.Wrapf(err, "decoding packed level %d", k)
				}
			}
			packed.internals[k] = level
		}
		packed.leaves = make([]D, 1<<(3*depth))
		for i := range packed.leaves {
			var err error
			packed.leaves[i], rest, err = codec.DecodeLeaf(rest)
			if err != nil {
				return nil, nil, errors.Wrap(err, "decoding packed leaves")
			}
		}
		return NewPackedNode(packed), rest, nil
	default:
		return nil, nil, errors.Errorf("invalid node tag %d", tag)
	}
}

// MarshalCompressed is Marshal followed by snappy compression.
func MarshalCompressed[D Data[D], I Data[I]](root *Cell[D, I], codec Codec[D, I]) ([]byte, error) {
	raw, err := Marshal(root, codec)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

// UnmarshalCompressed reconstructs a tree written by MarshalCompressed.
func UnmarshalCompressed[D Data[D], I Data[I]](data []byte, codec Codec[D, I]) (*Cell[D, I], error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing octree")
	}
	return Unmarshal(raw, codec)
}
