package terrain

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/voxel/svo"
)

func leafRefs(children [8]CellData) [8]svo.DataRef[CellData, CellData] {
	var refs [8]svo.DataRef[CellData, CellData]
	for i := range children {
		refs[i] = svo.LeafRef[CellData, CellData](&children[i])
	}
	return refs
}

func TestAggregate(t *testing.T) {
	var children [8]CellData
	for i := range children {
		children[i] = CellData{Kind: KindStone, Distance: float32(i)}
	}
	children[0].Kind = KindAir
	children[1].Kind = KindAir
	children[2].Kind = KindPink

	agg := CellData{}.Aggregate(leafRefs(children))
	test.That(t, agg.Kind, test.ShouldEqual, KindStone)
	test.That(t, agg.Distance, test.ShouldAlmostEqual, (0+1+2+3+4+5+6+7)/8.0, 1e-6)
}

func TestCanMerge(t *testing.T) {
	uniform := func(kind Kind, distance float32) [8]CellData {
		var children [8]CellData
		for i := range children {
			children[i] = CellData{Kind: kind, Distance: distance}
		}
		return children
	}

	far := uniform(KindStone, -50)
	test.That(t, CellData{}.CanMerge(&far), test.ShouldBeTrue)

	near := uniform(KindStone, -2)
	test.That(t, CellData{}.CanMerge(&near), test.ShouldBeFalse)

	mixed := uniform(KindStone, -50)
	mixed[3].Kind = KindAir
	test.That(t, CellData{}.CanMerge(&mixed), test.ShouldBeFalse)

	merged := CellData{}.Merge(far)
	test.That(t, merged.Kind, test.ShouldEqual, KindStone)
	test.That(t, merged.Distance, test.ShouldAlmostEqual, -50, 1e-6)
}

func TestDistanceStats(t *testing.T) {
	var children [8]CellData
	for i := range children {
		children[i] = CellData{Kind: KindStone, Distance: float32(i)}
	}
	test.That(t, MeanDistance(&children), test.ShouldAlmostEqual, 3.5, 1e-9)
	test.That(t, DensityDelta(&children), test.ShouldAlmostEqual, 2.449489742783178, 1e-9)

	var flat [8]CellData
	for i := range flat {
		flat[i] = CellData{Kind: KindStone, Distance: -4}
	}
	test.That(t, MeanDistance(&flat), test.ShouldAlmostEqual, -4, 1e-9)
	test.That(t, DensityDelta(&flat), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestEmpty(t *testing.T) {
	test.That(t, CellData{Kind: KindAir}.Empty(), test.ShouldBeTrue)
	test.That(t, CellData{Kind: KindInvalid}.Empty(), test.ShouldBeTrue)
	test.That(t, CellData{Kind: KindBlue, Distance: -1}.Empty(), test.ShouldBeFalse)
}

func TestSimplify(t *testing.T) {
	root := svo.NewLeafCell[CellData, CellData](CellData{Kind: KindStone, Distance: -100})
	svo.Split(root)
	svo.Split(root.MutChild(5))
	svo.UpdateAll(root)
	test.That(t, Simplify(root), test.ShouldBeTrue)
	test.That(t, root.IsLeaf(), test.ShouldBeTrue)

	// A surface-adjacent subtree stays subdivided.
	near := svo.NewLeafCell[CellData, CellData](CellData{Kind: KindStone, Distance: -2})
	svo.Split(near)
	svo.UpdateAll(near)
	test.That(t, Simplify(near), test.ShouldBeFalse)
	test.That(t, near.IsLeaf(), test.ShouldBeFalse)
}

func TestMergeInTree(t *testing.T) {
	root := svo.NewLeafCell[CellData, CellData](CellData{Kind: KindStone, Distance: -100})
	svo.Split(root)
	svo.UpdateAll(root)
	test.That(t, svo.AutoMerge(root), test.ShouldBeTrue)
	test.That(t, root.IsLeaf(), test.ShouldBeTrue)
	test.That(t, root.LeafData().Kind, test.ShouldEqual, KindStone)
}

func TestKind(t *testing.T) {
	test.That(t, KindAir.IsAir(), test.ShouldBeTrue)
	test.That(t, KindInvalid.IsAir(), test.ShouldBeTrue)
	test.That(t, KindStone.IsAir(), test.ShouldBeFalse)
	test.That(t, KindStone.String(), test.ShouldEqual, "stone")

	// Every material has a distinct display color.
	seen := map[string]Kind{}
	for kind := KindInvalid; kind <= KindBlue; kind++ {
		hex := kind.Color().Hex()
		prev, dup := seen[hex]
		test.That(t, dup, test.ShouldBeFalse)
		test.That(t, prev, test.ShouldEqual, KindInvalid)
		seen[hex] = kind
	}
}

func TestCellCodecRoundTrip(t *testing.T) {
	root := svo.NewLeafCell[CellData, CellData](CellData{Kind: KindStone, Distance: -3.25})
	svo.Split(root)
	root.MutChild(2).LeafData().Kind = KindAir
	root.MutChild(2).LeafData().Distance = 0.1
	svo.UpdateAll(root)

	buf, err := svo.Marshal[CellData, CellData](root, CellCodec{})
	test.That(t, err, test.ShouldBeNil)

	back, err := svo.Unmarshal[CellData, CellData](buf, CellCodec{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Child(2).LeafData().Kind, test.ShouldEqual, KindAir)
	// Distances survive bit-exactly, not just approximately.
	test.That(t, back.Child(2).LeafData().Distance, test.ShouldEqual, float32(0.1))
	test.That(t, *back.InternalData(), test.ShouldResemble, *root.InternalData())

	compressed, err := svo.MarshalCompressed[CellData, CellData](root, CellCodec{})
	test.That(t, err, test.ShouldBeNil)
	fromCompressed, err := svo.UnmarshalCompressed[CellData, CellData](compressed, CellCodec{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *fromCompressed.InternalData(), test.ShouldResemble, *root.InternalData())
}

func TestCellCodecRejectsBadMaterial(t *testing.T) {
	_, _, err := CellCodec{}.DecodeLeaf([]byte{0xFF, 0, 0, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = CellCodec{}.DecodeLeaf([]byte{0, 0})
	test.That(t, err, test.ShouldNotBeNil)
}
