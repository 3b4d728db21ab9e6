package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 运行状态标签
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Metrics 总结流水线的 Prometheus 指标
type Metrics struct {
	RecordsParsed  prometheus.Counter
	RecordsSkipped prometheus.Counter
	Chunks         prometheus.Counter
	ChunkFailures  prometheus.Counter
	IntroFailures  prometheus.Counter
	Runs           *prometheus.CounterVec
}

// Default 注册到默认 Registerer 的指标，/metrics 暴露的即是这一组
var Default = New(prometheus.DefaultRegisterer)

// New 在指定 Registerer 上创建指标，测试中传入独立的 Registry
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RecordsParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "talk_digest_records_parsed_total",
			Help: "Total chat records parsed from transcripts",
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "talk_digest_records_skipped_total",
			Help: "Total timestamp markers skipped because they could not be parsed",
		}),
		Chunks: factory.NewCounter(prometheus.CounterOpts{
			Name: "talk_digest_chunks_total",
			Help: "Total chunks sent for summarization",
		}),
		ChunkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "talk_digest_chunk_failures_total",
			Help: "Total chunk summaries replaced by a placeholder",
		}),
		IntroFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "talk_digest_intro_failures_total",
			Help: "Total newsletter intro generations that failed",
		}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "talk_digest_runs_total",
			Help: "Total digest runs by final status",
		}, []string{"status"}),
	}
}
