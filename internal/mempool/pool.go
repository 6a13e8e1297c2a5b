// Package mempool provides sized buffer pools for the detection hot
// path: input tensors are reused across inferences instead of being
// reallocated per image.
package mempool

import "sync"

var (
	float32Pools sync.Map // key: size class (int), value: *sync.Pool
	boolPools    sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next 1024 multiple to reduce churn.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	r := (n + step - 1) / step
	return r * step
}

// GetFloat32 retrieves a []float32 buffer of at least n elements from
// the pool. The returned slice has length n but may have larger
// capacity. Contents are unspecified; the caller must return it via
// PutFloat32 when done.
func GetFloat32(n int) []float32 {
	cls := sizeClass(n)
	pAny, _ := float32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	p := pAny.(*sync.Pool)
	buf := p.Get().([]float32)
	if cap(buf) < cls {
		buf = make([]float32, cls)
	}
	return buf[:cap(buf)][:n]
}

// PutFloat32 returns a buffer to the pool. Safe to pass a nil slice.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := float32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	pAny.(*sync.Pool).Put(buf[:cap(buf)]) //nolint:staticcheck
}

// GetBool retrieves a []bool buffer of at least n elements, cleared to
// false. The caller must return it via PutBool when done.
func GetBool(n int) []bool {
	cls := sizeClass(n)
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	p := pAny.(*sync.Pool)
	buf := p.Get().([]bool)
	if cap(buf) < cls {
		buf = make([]bool, cls)
	}
	buf = buf[:cap(buf)][:n]
	for i := range buf {
		buf[i] = false
	}
	return buf
}

// PutBool returns a buffer to the pool. Safe to pass a nil slice.
func PutBool(buf []bool) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := boolPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]bool, cls) }})
	pAny.(*sync.Pool).Put(buf[:cap(buf)]) //nolint:staticcheck
}
