package bot

import (
	"sync"
	"time"
)

// limiter 按键限频，配额桶算法
// 每个键有一个随时间回补的配额，发一条消息消耗一个单位，
// 配额不足时判定超限
type limiter struct {
	mu      sync.Mutex
	rate    uint64 // 单位时间允许的次数
	unit    uint64 // 时间窗口（纳秒）
	buckets map[string]*bucket
}

type bucket struct {
	allowance uint64 // 当前配额，放大 unit 倍存储避免浮点
	lastCheck int64
}

func newLimiter(rate int, per time.Duration) *limiter {
	nano := uint64(per)
	if nano < 1 {
		nano = uint64(time.Second)
	}
	if rate < 1 {
		rate = 1
	}
	return &limiter{
		rate:    uint64(rate),
		unit:    nano,
		buckets: make(map[string]*bucket),
	}
}

// limit 判断该键此刻是否超限，未超限时消耗一个单位配额
func (l *limiter) limit(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UnixNano()
	max := l.rate * l.unit

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{allowance: max, lastCheck: now}
		l.buckets[key] = b
	}

	// 按经过的时间回补配额
	passed := uint64(now - b.lastCheck)
	b.lastCheck = now
	b.allowance += passed * l.rate
	if b.allowance > max {
		b.allowance = max
	}

	if b.allowance < l.unit {
		return true
	}
	b.allowance -= l.unit
	return false
}
