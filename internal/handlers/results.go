// internal/handlers/results.go
package handlers

import (
	"fmt"
	"net/http"

	"neuroscreen/internal/assessment"
	"neuroscreen/internal/screening"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type ResultsHandler struct {
	log         *zap.Logger
	assessments *AssessmentHandler
}

func NewResultsHandler(log *zap.Logger, assessments *AssessmentHandler) *ResultsHandler {
	return &ResultsHandler{log: log, assessments: assessments}
}

// ResultsResponse is the record handed to the front-end together with
// ready-made chart options.
type ResultsResponse struct {
	assessment.Record
	Charts map[string]map[string]interface{} `json:"charts,omitempty"`
}

// ShowResults returns the combined record for the current attempt.
func (h *ResultsHandler) ShowResults(c *gin.Context) {
	a, ok := h.assessments.requireAttempt(c)
	if !ok {
		return
	}

	record := a.Record()
	resp := ResultsResponse{Record: record}
	if record.Screening != nil {
		resp.Charts = map[string]map[string]interface{}{
			"breakdown": generateBreakdownChart(*record.Screening).JSON(),
			"score":     generateScoreGauge(*record.Screening).JSON(),
		}
	}

	h.log.Debug("Results requested",
		zap.String("attempt_id", record.AttemptID),
		zap.Bool("screening_scored", record.Screening != nil),
		zap.Bool("trail_completed", record.Trail.Completed),
		zap.Bool("pattern_complete", record.Pattern.Complete),
	)
	c.JSON(http.StatusOK, resp)
}

func generateBreakdownChart(res screening.Result) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Screening Breakdown",
			Subtitle: fmt.Sprintf("%d of %d items passed", res.Score, screening.ItemCount),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Min:  0,
			Max:  1,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(res.Items))
	items := make([]opts.BarData, 0, len(res.Items))
	for _, it := range res.Items {
		value := 0
		if it.Passed {
			value = 1
		}
		labels = append(labels, it.ID.Title())
		items = append(items, opts.BarData{Name: it.ID.Title(), Value: value})
	}

	bar.SetXAxis(labels).AddSeries("Passed", items)
	bar.Validate()
	return bar
}

func generateScoreGauge(res screening.Result) *charts.Gauge {
	gauge := charts.NewGauge()
	gauge.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Screening Score",
			Subtitle: string(res.RiskTier) + " risk",
		}),
	)
	gauge.AddSeries("Score", []opts.GaugeData{{Name: "Percent", Value: res.Percent}})
	gauge.Validate()
	return gauge
}
