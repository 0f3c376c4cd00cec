// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// パイプラインやジョブから利用する。
type MetricsCollector interface {
	RecordSourceFetch(source string, success bool)
	RecordItemsFetched(source string, count int)
	RecordItemsStored(count int)
	RecordItemsDuplicate(count int)
	RecordEnrichment(attempted, succeeded int)
	RecordAnalysisFallback(strategy string)
	RecordJobRun(job string, success bool)
	RecordRunDuration(job string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sourceFetch      *prometheus.CounterVec
	itemsFetched     *prometheus.CounterVec
	itemsStored      prometheus.Counter
	itemsDuplicate   prometheus.Counter
	enrichAttempted  prometheus.Counter
	enrichSucceeded  prometheus.Counter
	analysisFallback *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sourceFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techscope_source_fetch_total",
			Help: "ソース別フェッチの合計数",
		}, []string{"source", "result"}),
		itemsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techscope_items_fetched_total",
			Help: "ソース別に取得した記事候補の合計数",
		}, []string{"source"}),
		itemsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techscope_items_stored_total",
			Help: "新規保存された記事の合計数",
		}),
		itemsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techscope_items_duplicate_total",
			Help: "URL重複で破棄された記事の合計数",
		}),
		enrichAttempted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techscope_enrich_attempted_total",
			Help: "本文補完を試みた記事の合計数",
		}),
		enrichSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techscope_enrich_succeeded_total",
			Help: "本文補完に成功した記事の合計数",
		}),
		analysisFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techscope_analysis_fallback_total",
			Help: "外部分析からルールエンジンへのフォールバック数",
		}, []string{"strategy"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techscope_job_runs_total",
			Help: "ジョブ実行の合計数",
		}, []string{"job", "result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "techscope_job_duration_seconds",
			Help:    "ジョブ実行時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}

	reg.MustRegister(
		c.sourceFetch,
		c.itemsFetched,
		c.itemsStored,
		c.itemsDuplicate,
		c.enrichAttempted,
		c.enrichSucceeded,
		c.analysisFallback,
		c.jobRuns,
		c.runDuration,
	)

	return c
}

// RecordSourceFetch はソース単位のフェッチ結果を記録する。
func (c *Collector) RecordSourceFetch(source string, success bool) {
	c.sourceFetch.WithLabelValues(source, resultLabel(success)).Inc()
}

// RecordItemsFetched はソースから取得した記事候補数を記録する。
func (c *Collector) RecordItemsFetched(source string, count int) {
	c.itemsFetched.WithLabelValues(source).Add(float64(count))
}

// RecordItemsStored は新規保存された記事数を記録する。
func (c *Collector) RecordItemsStored(count int) {
	c.itemsStored.Add(float64(count))
}

// RecordItemsDuplicate はURL重複で破棄された記事数を記録する。
func (c *Collector) RecordItemsDuplicate(count int) {
	c.itemsDuplicate.Add(float64(count))
}

// RecordEnrichment は本文補完の試行数と成功数を記録する。
func (c *Collector) RecordEnrichment(attempted, succeeded int) {
	c.enrichAttempted.Add(float64(attempted))
	c.enrichSucceeded.Add(float64(succeeded))
}

// RecordAnalysisFallback はルールエンジンへのフォールバックを記録する。
func (c *Collector) RecordAnalysisFallback(strategy string) {
	c.analysisFallback.WithLabelValues(strategy).Inc()
}

// RecordJobRun はジョブ実行の結果を記録する。
func (c *Collector) RecordJobRun(job string, success bool) {
	c.jobRuns.WithLabelValues(job, resultLabel(success)).Inc()
}

// RecordRunDuration はジョブの実行時間を記録する。
func (c *Collector) RecordRunDuration(job string, duration time.Duration) {
	c.runDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector実装。テストで使用する。
type NopCollector struct{}

func (NopCollector) RecordSourceFetch(source string, success bool)        {}
func (NopCollector) RecordItemsFetched(source string, count int)          {}
func (NopCollector) RecordItemsStored(count int)                          {}
func (NopCollector) RecordItemsDuplicate(count int)                       {}
func (NopCollector) RecordEnrichment(attempted, succeeded int)            {}
func (NopCollector) RecordAnalysisFallback(strategy string)               {}
func (NopCollector) RecordJobRun(job string, success bool)                {}
func (NopCollector) RecordRunDuration(job string, duration time.Duration) {}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
var _ MetricsCollector = NopCollector{}
