package thumbnail

import (
	"math"
	"testing"

	"clubvid/internal/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource 总是返回边界值，用于验证区间端点
type fixedSource struct {
	intn  func(n int) int
	float float64
}

func (f fixedSource) Intn(n int) int   { return f.intn(n) }
func (f fixedSource) Float64() float64 { return f.float }

func TestPickTimestamp_LongClipBounds(t *testing.T) {
	durations := []float64{2.001, 2.5, 3, 3.999, 4, 4.5, 10, 10.4, 61.7, 3600}
	for seed := int64(0); seed < 50; seed++ {
		rnd := NewSeededSource(seed)
		for _, d := range durations {
			ts, err := PickTimestamp(d, rnd)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, ts, 1.0, "d=%v", d)
			assert.Less(t, ts, d-1, "d=%v", d)
			assert.Equal(t, math.Trunc(ts), ts, "long clips use whole seconds")
		}
	}
}

func TestPickTimestamp_ShortClipBounds(t *testing.T) {
	durations := []float64{0.001, 0.04, 0.5, 1, 1.999, 2}
	for seed := int64(0); seed < 50; seed++ {
		rnd := NewSeededSource(seed)
		for _, d := range durations {
			ts, err := PickTimestamp(d, rnd)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, ts, 0.0, "d=%v", d)
			assert.Less(t, ts, d, "d=%v", d)
		}
	}
}

func TestPickTimestamp_ShortClipStaysClearOfLastFrame(t *testing.T) {
	highest := fixedSource{float: math.Nextafter(1, 0)}

	tests := []struct {
		duration float64
		maxTS    float64
	}{
		{duration: 1, maxTS: 0.9},
		{duration: 2, maxTS: 1.9},
		{duration: 0.5, maxTS: 0.4},
		{duration: 0.1, maxTS: 0.05},
		{duration: 0.001, maxTS: 0.0005},
	}
	for _, tt := range tests {
		ts, err := PickTimestamp(tt.duration, highest)
		require.NoError(t, err)
		assert.LessOrEqual(t, ts, tt.maxTS, "d=%v", tt.duration)
		assert.Less(t, ts, tt.duration, "d=%v", tt.duration)
		assert.Equal(t, seekMillis(ts), ts, "d=%v", tt.duration)
	}
}

func seekMillis(ts float64) float64 {
	return math.Floor(ts*1000+1e-6) / 1000
}

func TestPickTimestamp_Extremes(t *testing.T) {
	lowest := fixedSource{intn: func(int) int { return 0 }, float: 0}
	highest := fixedSource{intn: func(n int) int { return n - 1 }, float: math.Nextafter(1, 0)}

	tests := []struct {
		name     string
		duration float64
		rnd      RandomSource
		want     float64
	}{
		{"10s lowest", 10, lowest, 1},
		{"10s highest", 10, highest, 8},
		{"3s highest", 3, highest, 1},
		{"2.5s highest", 2.5, highest, 1},
		{"1s lowest", 1, lowest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := PickTimestamp(tt.duration, tt.rnd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts)
		})
	}

	ts, err := PickTimestamp(1, highest)
	require.NoError(t, err)
	assert.Less(t, ts, 1.0)
}

func TestPickTimestamp_InvalidDuration(t *testing.T) {
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := PickTimestamp(d, DefaultSource())
		assert.ErrorIs(t, err, media.ErrUnreadableMedia, "d=%v", d)
	}
}

func TestSeededSource_Reproducible(t *testing.T) {
	a, b := NewSeededSource(42), NewSeededSource(42)
	for i := 0; i < 10; i++ {
		ta, _ := PickTimestamp(120, a)
		tb, _ := PickTimestamp(120, b)
		assert.Equal(t, ta, tb)
	}
}
