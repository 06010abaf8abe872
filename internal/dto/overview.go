package dto

import (
	"time"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/alerts"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/overview"
)

// OverviewResponse is the dashboard payload: one row per tracked student
// plus aggregate counts.
type OverviewResponse struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Rows        []overview.Row `json:"rows"`
	Totals      OverviewTotals `json:"totals"`
}

// OverviewTotals summarises the projection for dashboard headers.
type OverviewTotals struct {
	Students    int `json:"students"`
	AtRisk      int `json:"atRisk"`
	NeedsReview int `json:"needsReview"`
	Critical    int `json:"critical"`
	Warning     int `json:"warning"`
	Info        int `json:"info"`
}

// AlertFeedResponse is the severity-bucketed alert feed.
type AlertFeedResponse struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Critical    []alerts.Alert `json:"critical"`
	Warning     []alerts.Alert `json:"warning"`
	Info        []alerts.Alert `json:"info"`
	Counts      AlertCounts    `json:"counts"`
}

// AlertCounts carries per-severity totals.
type AlertCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}
