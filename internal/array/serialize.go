package array

import (
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

// snapshot is the on-disk form of an array: shape, dtype, and the raw
// little-endian element bytes in row-major order.
type snapshot struct {
	Shape []int       `cbor:"shape"`
	DType dtype.DType `cbor:"dtype"`
	Data  []byte      `cbor:"data"`
}

// Save writes the array to w as a CBOR snapshot. The array is gathered to
// row-major order first, so views and strided layouts round-trip as plain
// dense arrays.
func (a *Array) Save(w io.Writer) error {
	h, err := a.Get()
	if err != nil {
		return err
	}
	c := h.Contiguous()
	return cbor.NewEncoder(w).Encode(snapshot{
		Shape: c.Shape,
		DType: c.DType,
		Data:  c.Data,
	})
}

// Load reads a CBOR snapshot and places it on the device.
func Load(ctx *Context, r io.Reader) (*Array, error) {
	var s snapshot
	if err := cbor.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	h := &HostArray{Shape: shape.Shape(s.Shape), DType: s.DType, Data: s.Data}
	if want := h.Shape.Size() * h.DType.Size(); want != len(h.Data) {
		return nil, shape.ErrViewSizeMismatch
	}
	return ToDevice(ctx, h)
}
