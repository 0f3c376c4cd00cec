// Package schedule はバックグラウンドジョブのスケジューリングを提供する。
// 固定時刻（毎日HH:MM）と間隔実行の2種類の起動条件をサポートし、
// 1分粒度のティッカーで駆動する。
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/techscope/internal/metrics"
)

// Job は名前付きのバックグラウンドジョブ。
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// clockTime は1日のうちの固定実行時刻（時・分）を表す。
type clockTime struct {
	hour   int
	minute int
}

// entry は登録済みジョブとその起動条件を保持する。
type entry struct {
	job      Job
	times    []clockTime   // 固定時刻。空なら時刻起動なし
	interval time.Duration // 間隔起動。0なら間隔起動なし
	lastRun  time.Time

	// running はジョブ実行中のスキップ判定に使用する。
	// 実行中のティックはスキップであり、キューイングはしない。
	running bool
}

// Scheduler は複数の名前付きジョブを時刻・間隔条件で起動する。
// 1つのジョブの失敗やパニックがループ全体を止めることはない。
type Scheduler struct {
	mu        sync.Mutex
	entries   []*entry
	collector metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(collector metrics.MetricsCollector, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// AddFixed はジョブを毎日の固定時刻（"HH:MM"形式）で起動するよう登録する。
// 同名ジョブが登録済みの場合は起動条件を追加し、実行中ガードを共有する。
func (s *Scheduler) AddFixed(job Job, times ...string) error {
	parsed := make([]clockTime, 0, len(times))
	for _, t := range times {
		ct, err := parseClockTime(t)
		if err != nil {
			return err
		}
		parsed = append(parsed, ct)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findOrCreate(job)
	e.times = append(e.times, parsed...)
	return nil
}

// AddInterval はジョブを指定間隔で起動するよう登録する。
// 同名ジョブが登録済みの場合は起動条件を追加し、実行中ガードを共有する。
func (s *Scheduler) AddInterval(job Job, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("不正な実行間隔です: %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findOrCreate(job)
	e.interval = interval
	return nil
}

func (s *Scheduler) findOrCreate(job Job) *entry {
	for _, e := range s.entries {
		if e.job.Name == job.Name {
			return e
		}
	}
	e := &entry{job: job}
	s.entries = append(s.entries, e)
	return e
}

// Start は1分間隔のティッカーでスケジューラを起動する。
// 起動直後に全ジョブを1回ずつ実行し、以降はコンテキストが
// キャンセルされるまでティックごとに起動条件を評価する。
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("ジョブスケジューラを開始しました",
		slog.Int("jobs", len(s.entries)),
	)

	// 起動直後に1回実行（コールドスタート）
	s.mu.Lock()
	for _, e := range s.entries {
		s.launch(ctx, e, s.now())
	}
	s.mu.Unlock()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ジョブスケジューラを停止しました")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick は指定時刻時点での起動条件を1回評価する。
// テストから決定的に時間を進めるために公開している。
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if !e.due(now) {
			continue
		}
		if e.running {
			s.logger.Warn("前回の実行が完了していないためジョブをスキップします",
				slog.String("job", e.job.Name),
			)
			continue
		}
		s.launch(ctx, e, now)
	}
}

// launch はジョブをgoroutineで起動する。呼び出し側がs.muを保持していること。
func (s *Scheduler) launch(ctx context.Context, e *entry, now time.Time) {
	e.running = true
	e.lastRun = now

	go func() {
		start := time.Now()
		err := s.runJob(ctx, e.job)
		duration := time.Since(start)

		s.collector.RecordJobRun(e.job.Name, err == nil)
		s.collector.RecordRunDuration(e.job.Name, duration)

		if err != nil {
			s.logger.Error("ジョブの実行に失敗しました",
				slog.String("job", e.job.Name),
				slog.String("error", err.Error()),
				slog.Float64("duration_ms", float64(duration.Milliseconds())),
			)
		} else {
			s.logger.Info("ジョブの実行が完了しました",
				slog.String("job", e.job.Name),
				slog.Float64("duration_ms", float64(duration.Milliseconds())),
			)
		}

		s.mu.Lock()
		e.running = false
		s.mu.Unlock()
	}()
}

// runJob はジョブを実行し、パニックをエラーとして回収する。
func (s *Scheduler) runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ジョブがパニックしました: %v\n%s", r, debug.Stack())
		}
	}()
	return job.Run(ctx)
}

// due は指定時刻にジョブを起動すべきかを判定する。
func (e *entry) due(now time.Time) bool {
	for _, ct := range e.times {
		if now.Hour() == ct.hour && now.Minute() == ct.minute {
			// 同一分内の多重起動を防ぐ
			if now.Sub(e.lastRun) >= time.Minute {
				return true
			}
		}
	}
	if e.interval > 0 && now.Sub(e.lastRun) >= e.interval {
		return true
	}
	return false
}

// parseClockTime は"HH:MM"形式の時刻文字列をパースする。
func parseClockTime(s string) (clockTime, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return clockTime{}, fmt.Errorf("不正な時刻形式です: %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return clockTime{}, fmt.Errorf("不正な時刻形式です: %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return clockTime{}, fmt.Errorf("不正な時刻形式です: %q", s)
	}
	return clockTime{hour: hour, minute: minute}, nil
}
