package predictor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// predictionsTotal counts predictions by outcome, positive, negative or error
	predictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "should_i_play_predictions_total",
			Help: "Total number of predictions by outcome",
		},
		[]string{"outcome"},
	)

	predictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "should_i_play_prediction_duration_seconds",
			Help:    "Duration of predictions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	// reloadsTotal counts model reloads by result, ok or error
	reloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "should_i_play_model_reloads_total",
			Help: "Total number of model reloads by result",
		},
		[]string{"result"},
	)

	documentsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "should_i_play_model_documents",
			Help: "Number of matches in the live model",
		},
	)

	vocabularyGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "should_i_play_model_vocabulary",
			Help: "Number of distinct champions in the live model",
		},
	)
)
