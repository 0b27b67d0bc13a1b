package thumbnail

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"clubvid/internal/media"
)

// RandomSource 截帧时间点的随机源，测试中注入固定种子
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

type globalSource struct{}

func (globalSource) Intn(n int) int   { return rand.Intn(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource 使用 math/rand 全局随机源（并发安全）
func DefaultSource() RandomSource {
	return globalSource{}
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource 返回可复现的、并发安全的随机源
func NewSeededSource(seed int64) RandomSource {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// tailMargin 短片段截帧点与结尾的最小距离，不小于低帧率素材的一帧
const tailMargin = 0.1

// PickTimestamp 选取截帧时间点（秒）。
// 时长大于 2 秒时取 [1, max(2, floor(d-1))) 内的整数秒，避开片头黑场和片尾淡出；
// 时长在 (0, 2] 时取 [0, d-min(tailMargin, d/2)) 内的值，截断到毫秒。
func PickTimestamp(duration float64, rnd RandomSource) (float64, error) {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return 0, fmt.Errorf("%w: cannot thumbnail duration %.3fs", media.ErrUnreadableMedia, duration)
	}

	if duration <= 2 {
		hi := duration - math.Min(tailMargin, duration/2)
		t := math.Floor(rnd.Float64()*hi*1000) / 1000
		if t >= hi {
			t = 0
		}
		return t, nil
	}

	hi := int(math.Floor(duration - 1))
	if hi < 2 {
		hi = 2
	}
	return float64(1 + rnd.Intn(hi-1)), nil
}
