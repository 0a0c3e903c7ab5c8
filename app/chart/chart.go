// Package chart holds the dashboard's fixed chart widgets. Datasets are literal
// sample values, nothing here is computed. Widgets serialize to Chart.js configs
// and are bound to their container elements by id.
package chart

import (
	"encoding/json"
	"fmt"
)

// chart container element ids
const (
	TypeChartID      = "typeChart"
	AnalyticsChartID = "analyticsChart"
	TrendChartID     = "trendChart"
)

// Dataset is a single Chart.js dataset.
type Dataset struct {
	Label           string  `json:"label,omitempty"`
	Data            []int   `json:"data"`
	BackgroundColor any     `json:"backgroundColor,omitempty"` // string or []string
	BorderColor     string  `json:"borderColor,omitempty"`
	Fill            bool    `json:"fill,omitempty"`
	Tension         float64 `json:"tension,omitempty"`
}

// Data is the labels and datasets of a chart.
type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Widget is a chart bound to a container element.
type Widget struct {
	ID   string `json:"-"`
	Type string `json:"type"` // doughnut, pie or line
	Data Data   `json:"data"`
}

// Config returns the Chart.js config of the widget as JSON.
func (w Widget) Config() (string, error) {
	b, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("marshal chart %s: %w", w.ID, err)
	}
	return string(b), nil
}

var (
	threatLabels = []string{"Ransomware", "Malware", "Phishing", "Fraud"}
	threatCounts = []int{25, 20, 15, 10}
	threatColors = []string{"#FF4D4D", "#FFD700", "#007bff", "#4CAF50"}
)

// Widgets returns the three dashboard charts in page order.
// Each call returns fresh copies, callers may modify them.
func Widgets() []Widget {
	return []Widget{
		{
			ID:   TypeChartID,
			Type: "doughnut",
			Data: Data{
				Labels:   clone(threatLabels),
				Datasets: []Dataset{{Data: clone(threatCounts), BackgroundColor: clone(threatColors)}},
			},
		},
		{
			ID:   AnalyticsChartID,
			Type: "pie",
			Data: Data{
				Labels:   clone(threatLabels),
				Datasets: []Dataset{{Data: clone(threatCounts), BackgroundColor: clone(threatColors)}},
			},
		},
		{
			ID:   TrendChartID,
			Type: "line",
			Data: Data{
				Labels: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
				Datasets: []Dataset{{
					Label:           "Threats Per Day",
					Data:            []int{5, 7, 6, 10, 8, 9, 12},
					BorderColor:     "#0A2647",
					BackgroundColor: "rgba(10,38,71,0.1)",
					Fill:            true,
					Tension:         0.4,
				}},
			},
		},
	}
}

// ByID returns widgets keyed by container id.
func ByID() map[string]Widget {
	res := map[string]Widget{}
	for _, w := range Widgets() {
		res[w.ID] = w
	}
	return res
}

func clone[T any](s []T) []T {
	return append([]T(nil), s...)
}
