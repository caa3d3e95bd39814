package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/Joy2225/timetable/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	if err != nil {
		t.Fatalf("连接 miniredis 失败: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

// ── 限流测试 ──

func TestCheckRateLimit_ConcurrentRequestsNeverExceedLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	const limit = 5

	var (
		allowed atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := c.CheckRateLimit(ctx, "ip:/api/v1/periods", limit, time.Minute)
			if err != nil {
				t.Errorf("CheckRateLimit 不应报错: %v", err)
				return
			}
			if ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != limit {
		t.Errorf("期望恰好放行 %d 次，实际 %d", limit, got)
	}
}

func TestCheckRateLimit_WindowSlides(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	window := 200 * time.Millisecond

	for i := 0; i < 2; i++ {
		if ok, _ := c.CheckRateLimit(ctx, "k", 2, window); !ok {
			t.Fatalf("第 %d 次请求应放行", i+1)
		}
	}
	if ok, _ := c.CheckRateLimit(ctx, "k", 2, window); ok {
		t.Fatal("超出阈值应被拒绝")
	}

	time.Sleep(window + 50*time.Millisecond)
	if ok, _ := c.CheckRateLimit(ctx, "k", 2, window); !ok {
		t.Error("窗口滑过后应重新放行")
	}
}

func TestCheckRateLimit_RejectedRequestNotCounted(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	c.CheckRateLimit(ctx, "k", 1, time.Minute)
	c.CheckRateLimit(ctx, "k", 1, time.Minute)
	c.CheckRateLimit(ctx, "k", 1, time.Minute)

	members, err := mr.ZMembers(rateLimitPrefix + "k")
	if err != nil {
		t.Fatalf("读取限流集合失败: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("被拒绝的请求不应写入窗口，期望 1 条记录，实际 %d", len(members))
	}
}

// ── 快照测试 ──

func TestSnapshot_RoundTripAndDelete(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if _, err := c.GetSnapshot(ctx, "desk"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("期望 ErrCacheMiss，实际: %v", err)
	}
	if err := c.SetSnapshot(ctx, "desk", []byte(`{"day":"MON"}`), 20*time.Minute); err != nil {
		t.Fatalf("SetSnapshot 应成功: %v", err)
	}
	got, err := c.GetSnapshot(ctx, "desk")
	if err != nil || string(got) != `{"day":"MON"}` {
		t.Fatalf("快照内容不符: %s %v", got, err)
	}
	if ttl := mr.TTL(snapshotPrefix + "desk"); ttl != 20*time.Minute {
		t.Errorf("期望 TTL=20m，实际 %s", ttl)
	}

	if err := c.SetSnapshot(ctx, "other", []byte(`{}`), 0); err != nil {
		t.Fatalf("ttl=0 应静默跳过: %v", err)
	}
	if mr.Exists(snapshotPrefix + "other") {
		t.Error("ttl=0 不应写入快照")
	}

	if err := c.DeleteSnapshot(ctx, "desk"); err != nil {
		t.Fatalf("DeleteSnapshot 应成功: %v", err)
	}
	if _, err := c.GetSnapshot(ctx, "desk"); !errors.Is(err, ErrCacheMiss) {
		t.Error("删除后应未命中")
	}
}

// ── 分布式锁测试 ──

func TestTryLock_ExclusiveAndTokenChecked(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	ok, token, err := c.TryLock(ctx, "refresh", time.Minute)
	if err != nil || !ok || token == "" {
		t.Fatalf("首次加锁应成功: ok=%v token=%q err=%v", ok, token, err)
	}
	if ok, _, _ := c.TryLock(ctx, "refresh", time.Minute); ok {
		t.Fatal("锁被持有时不应再次获得")
	}

	if err := c.Unlock(ctx, "refresh", "not-the-token"); err != nil {
		t.Fatalf("Unlock 不应报错: %v", err)
	}
	if ok, _, _ := c.TryLock(ctx, "refresh", time.Minute); ok {
		t.Fatal("错误令牌不应释放锁")
	}

	if err := c.Unlock(ctx, "refresh", token); err != nil {
		t.Fatalf("Unlock 应成功: %v", err)
	}
	if ok, _, _ := c.TryLock(ctx, "refresh", time.Minute); !ok {
		t.Error("释放后应可重新加锁")
	}
}
