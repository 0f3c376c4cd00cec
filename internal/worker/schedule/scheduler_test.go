package schedule

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/techscope/internal/metrics"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newTestScheduler(buf *bytes.Buffer) *Scheduler {
	return NewScheduler(metrics.NopCollector{}, newTestLogger(buf))
}

// waitFor は条件が真になるまで最大1秒待つ。
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("条件が時間内に満たされなかった")
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.Local)
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    clockTime
		wantErr bool
	}{
		{name: "正常な時刻", input: "09:00", want: clockTime{hour: 9, minute: 0}},
		{name: "深夜0時", input: "00:00", want: clockTime{hour: 0, minute: 0}},
		{name: "23時59分", input: "23:59", want: clockTime{hour: 23, minute: 59}},
		{name: "コロンなし", input: "0900", wantErr: true},
		{name: "時が範囲外", input: "24:00", wantErr: true},
		{name: "分が範囲外", input: "12:60", wantErr: true},
		{name: "数値でない", input: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClockTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseClockTime(%q) はエラーを返すべき", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClockTime(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseClockTime(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSchedulerFixedTime(t *testing.T) {
	t.Run("登録時刻のティックでジョブが起動する", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		var runs int32
		job := Job{Name: "facts:daily", Run: func(_ context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}}
		if err := s.AddFixed(job, "00:00"); err != nil {
			t.Fatalf("AddFixed() error = %v", err)
		}

		s.Tick(context.Background(), at(0, 0))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 })
	})

	t.Run("登録時刻以外のティックでは起動しない", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		var runs int32
		job := Job{Name: "stocks:refresh", Run: func(_ context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}}
		if err := s.AddFixed(job, "09:00"); err != nil {
			t.Fatalf("AddFixed() error = %v", err)
		}

		s.Tick(context.Background(), at(9, 1))
		s.Tick(context.Background(), at(8, 59))
		time.Sleep(10 * time.Millisecond)
		if atomic.LoadInt32(&runs) != 0 {
			t.Errorf("登録時刻以外で起動した: runs = %d", atomic.LoadInt32(&runs))
		}
	})

	t.Run("複数の固定時刻でそれぞれ起動する", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		var runs int32
		job := Job{Name: "news:ingest", Run: func(_ context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}}
		if err := s.AddFixed(job, "06:00", "12:00"); err != nil {
			t.Fatalf("AddFixed() error = %v", err)
		}

		s.Tick(context.Background(), at(6, 0))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 })

		s.Tick(context.Background(), at(12, 0))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 2 })
	})

	t.Run("不正な時刻形式はエラーになる", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		job := Job{Name: "bad", Run: func(_ context.Context) error { return nil }}
		if err := s.AddFixed(job, "25:00"); err == nil {
			t.Fatal("不正な時刻形式でエラーが返るべき")
		}
	})
}

func TestSchedulerInterval(t *testing.T) {
	t.Run("間隔経過後のティックで起動する", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		var runs int32
		job := Job{Name: "news:backfill", Run: func(_ context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}}
		if err := s.AddInterval(job, 30*time.Minute); err != nil {
			t.Fatalf("AddInterval() error = %v", err)
		}

		// 初回ティックで起動（lastRunゼロ値から30分以上経過）
		s.Tick(context.Background(), at(10, 0))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 })

		// 29分後はまだ起動しない
		s.Tick(context.Background(), at(10, 29))
		time.Sleep(10 * time.Millisecond)
		if atomic.LoadInt32(&runs) != 1 {
			t.Fatalf("間隔経過前に起動した: runs = %d", atomic.LoadInt32(&runs))
		}

		// 30分後に起動する
		s.Tick(context.Background(), at(10, 30))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 2 })
	})

	t.Run("0以下の間隔はエラーになる", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		job := Job{Name: "bad", Run: func(_ context.Context) error { return nil }}
		if err := s.AddInterval(job, 0); err == nil {
			t.Fatal("0以下の間隔でエラーが返るべき")
		}
	})
}

func TestSchedulerRunningGuard(t *testing.T) {
	t.Run("実行中のジョブはスキップされキューイングされない", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		var runs int32
		started := make(chan struct{})
		release := make(chan struct{})
		job := Job{Name: "news:ingest", Run: func(_ context.Context) error {
			atomic.AddInt32(&runs, 1)
			close(started)
			<-release
			return nil
		}}
		if err := s.AddInterval(job, time.Minute); err != nil {
			t.Fatalf("AddInterval() error = %v", err)
		}

		s.Tick(context.Background(), at(10, 0))
		<-started

		// 実行中のティックはスキップ
		s.Tick(context.Background(), at(10, 5))
		s.Tick(context.Background(), at(10, 10))
		if got := atomic.LoadInt32(&runs); got != 1 {
			t.Errorf("実行中にジョブが多重起動した: runs = %d", got)
		}
		if !strings.Contains(buf.String(), "スキップ") {
			t.Error("スキップのログが記録されていない")
		}

		close(release)
		waitFor(t, func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			return !s.entries[0].running
		})

		// 完了後のティックでは再び起動する
		s.Tick(context.Background(), at(10, 15))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 2 })
	})

	t.Run("同名ジョブは固定時刻と間隔でガードを共有する", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		job := Job{Name: "news:ingest", Run: func(_ context.Context) error { return nil }}
		if err := s.AddFixed(job, "06:00", "12:00"); err != nil {
			t.Fatalf("AddFixed() error = %v", err)
		}
		if err := s.AddInterval(job, 2*time.Hour); err != nil {
			t.Fatalf("AddInterval() error = %v", err)
		}

		s.mu.Lock()
		entries := len(s.entries)
		s.mu.Unlock()
		if entries != 1 {
			t.Errorf("同名ジョブが別エントリとして登録された: entries = %d", entries)
		}
	})
}

func TestSchedulerErrorHandling(t *testing.T) {
	t.Run("ジョブのエラーでループが止まらない", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		var runs int32
		job := Job{Name: "failing", Run: func(_ context.Context) error {
			atomic.AddInt32(&runs, 1)
			return errors.New("db connection failed")
		}}
		if err := s.AddInterval(job, time.Minute); err != nil {
			t.Fatalf("AddInterval() error = %v", err)
		}

		s.Tick(context.Background(), at(10, 0))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 })
		waitFor(t, func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			return !s.entries[0].running
		})

		if !strings.Contains(buf.String(), "ERROR") {
			t.Error("ジョブ失敗時にERRORレベルのログが記録されていない")
		}

		// 次のティックでも起動する
		s.Tick(context.Background(), at(10, 1))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 2 })
	})

	t.Run("ジョブのパニックが回収される", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		var runs int32
		job := Job{Name: "panicking", Run: func(_ context.Context) error {
			atomic.AddInt32(&runs, 1)
			panic("boom")
		}}
		if err := s.AddInterval(job, time.Minute); err != nil {
			t.Fatalf("AddInterval() error = %v", err)
		}

		s.Tick(context.Background(), at(10, 0))
		waitFor(t, func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			return atomic.LoadInt32(&runs) == 1 && !s.entries[0].running
		})

		if !strings.Contains(buf.String(), "パニック") {
			t.Error("パニックがエラーログに記録されていない")
		}

		// パニック後も再起動できる
		s.Tick(context.Background(), at(10, 1))
		waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 2 })
	})
}

func TestSchedulerStart(t *testing.T) {
	t.Run("起動直後に全ジョブが1回ずつ実行される", func(t *testing.T) {
		var buf bytes.Buffer
		s := newTestScheduler(&buf)

		var ingestRuns, factRuns int32
		if err := s.AddInterval(Job{Name: "news:ingest", Run: func(_ context.Context) error {
			atomic.AddInt32(&ingestRuns, 1)
			return nil
		}}, 2*time.Hour); err != nil {
			t.Fatalf("AddInterval() error = %v", err)
		}
		if err := s.AddFixed(Job{Name: "facts:daily", Run: func(_ context.Context) error {
			atomic.AddInt32(&factRuns, 1)
			return nil
		}}, "00:00"); err != nil {
			t.Fatalf("AddFixed() error = %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.Start(ctx)
			close(done)
		}()

		waitFor(t, func() bool {
			return atomic.LoadInt32(&ingestRuns) == 1 && atomic.LoadInt32(&factRuns) == 1
		})

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("キャンセル後にStartが終了しない")
		}
	})
}
