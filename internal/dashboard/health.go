package dashboard

import (
	"net/http"
)

// ErrorRater reports the share of prediction calls that failed.
type ErrorRater interface {
	GetErrorRate() float64
}

// HealthReport is the body served on /health.
type HealthReport struct {
	Status              string  `json:"status"`
	PredictionErrorRate float64 `json:"prediction_error_rate"`
}

// HealthHandler answers liveness checks with the current prediction error
// rate. A nil rater reports zero.
func HealthHandler(rater ErrorRater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := HealthReport{Status: "ok"}
		if rater != nil {
			report.PredictionErrorRate = rater.GetErrorRate()
		}
		writeJSON(w, http.StatusOK, report)
	}
}
