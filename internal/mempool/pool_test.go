package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"small size gets minimum", 1, 1024},
		{"zero size", 0, 1024},
		{"exactly 1024", 1024, 1024},
		{"just over 1024", 1025, 2048},
		{"exact multiple", 2048, 2048},
		{"model input tensor", 3 * 640 * 640, 1228800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetFloat32Length(t *testing.T) {
	buf := GetFloat32(100)
	require.Len(t, buf, 100)
	assert.GreaterOrEqual(t, cap(buf), 1024)
	PutFloat32(buf)
}

func TestFloat32Reuse(t *testing.T) {
	buf := GetFloat32(3 * 640 * 640)
	buf[0] = 42
	PutFloat32(buf)

	again := GetFloat32(3 * 640 * 640)
	require.Len(t, again, 3*640*640)
	PutFloat32(again)
}

func TestPutFloat32Nil(t *testing.T) {
	assert.NotPanics(t, func() { PutFloat32(nil) })
}

func TestGetBoolCleared(t *testing.T) {
	buf := GetBool(64)
	for i := range buf {
		buf[i] = true
	}
	PutBool(buf)

	again := GetBool(64)
	require.Len(t, again, 64)
	for i, v := range again {
		require.False(t, v, "index %d not cleared", i)
	}
	PutBool(again)
}

func TestPutBoolNil(t *testing.T) {
	assert.NotPanics(t, func() { PutBool(nil) })
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				f := GetFloat32(2048)
				f[0] = 1
				PutFloat32(f)

				b := GetBool(512)
				b[0] = true
				PutBool(b)
			}
		}()
	}
	wg.Wait()
}
