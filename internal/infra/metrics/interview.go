package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		interviewTransitions,
		interviewTurns,
		questionFallbacks,
		languageMismatches,
		postponements,
		notificationFailures,
		audioChunkBytes,
		transcriptionLatencyMs,
	)
}

var (
	interviewTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_transitions_total",
			Help: "Session state transitions by target status.",
		},
		[]string{"status"},
	)

	interviewTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_turns_total",
			Help: "Completed turn boundaries by outcome.",
		},
		[]string{"outcome"}, // 'continued', 'closed', 'failed'
	)

	questionFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_question_fallbacks_total",
			Help: "Next-question generations answered by a fallback, by reason.",
		},
		[]string{"language", "reason"}, // 'timeout', 'error', 'empty', 'script'
	)

	languageMismatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_language_mismatch_total",
			Help: "Prepared question batches rejected by script validation.",
		},
		[]string{"language", "attempt"},
	)

	postponements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_postponements_total",
			Help: "Postponement requests by mode and result.",
		},
		[]string{"mode", "result"},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_notification_failures_total",
			Help: "Best-effort side effects that failed, by channel.",
		},
		[]string{"channel"}, // 'inbox', 'email'
	)

	audioChunkBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_audio_chunk_bytes",
			Help:    "Size distribution of accepted audio chunks.",
			Buckets: prometheus.ExponentialBuckets(512, 2, 12),
		},
	)

	transcriptionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interview_transcription_latency_ms",
			Help:    "Speech-to-text latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		},
		[]string{"language", "success"},
	)
)

func IncTransition(status string) {
	interviewTransitions.WithLabelValues(norm(status)).Inc()
}

func IncTurn(outcome string) {
	interviewTurns.WithLabelValues(norm(outcome)).Inc()
}

func IncQuestionFallback(language, reason string) {
	questionFallbacks.WithLabelValues(norm(language), norm(reason)).Inc()
}

func IncLanguageMismatch(language, attempt string) {
	languageMismatches.WithLabelValues(norm(language), norm(attempt)).Inc()
}

func IncPostponement(mode, result string) {
	postponements.WithLabelValues(norm(mode), norm(result)).Inc()
}

func IncNotificationFailure(channel string) {
	notificationFailures.WithLabelValues(norm(channel)).Inc()
}

func ObserveChunk(size int) {
	audioChunkBytes.Observe(float64(size))
}

func ObserveTranscription(language string, latencyMs int, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	transcriptionLatencyMs.WithLabelValues(norm(language), s).Observe(float64(latencyMs))
}
