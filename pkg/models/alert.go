package models

import "time"

// AlertKind identifies the rule that produced an alert.
type AlertKind string

const (
	AlertMomentum  AlertKind = "momentum"
	AlertValuation AlertKind = "valuation"
)

// AlertSeverity grades how an alert should be presented.
type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
)

// Alert is a single edge-triggered notification emitted by the alert engine.
type Alert struct {
	ID             string        `json:"id"`
	Symbol         string        `json:"symbol"`
	Kind           AlertKind     `json:"kind"`
	Severity       AlertSeverity `json:"severity"`
	Message        string        `json:"message"`
	SuppressionKey string        `json:"suppressionKey"`
	At             time.Time     `json:"at"`
}
