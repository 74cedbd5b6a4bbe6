package models

import (
	"time"
)

// Severity levels reported by the analyzer.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// ScanStatusCompleted is the only status a scan can currently hold;
// scans are written once at the end of a successful analysis and never
// updated afterwards.
const ScanStatusCompleted = "completed"

// Vulnerability is a single finding reported by the AI analyzer.
type Vulnerability struct {
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Type     string `json:"type"`
	Problem  string `json:"problem"`
	Attack   string `json:"attack"`
	Fix      string `json:"fix"`
}

// Scan records one completed analysis for a user. Immutable once created.
type Scan struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	UserID               uint            `gorm:"not null;index" json:"user_id"`
	CodeLength           int             `gorm:"not null" json:"codeLength"`
	Language             string          `gorm:"not null" json:"language"`
	Status               string          `gorm:"not null" json:"status"`
	VulnerabilitiesCount int             `gorm:"not null" json:"vulnerabilitiesCount"`
	Vulnerabilities      []Vulnerability `gorm:"serializer:json" json:"vulnerabilities"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ScanSummary is the projection used for history listings. It omits the
// finding details, which are only returned at scan time.
type ScanSummary struct {
	ID                   uint      `json:"id"`
	Language             string    `json:"language"`
	CodeLength           int       `json:"codeLength"`
	VulnerabilitiesCount int       `json:"vulnerabilitiesCount"`
	Status               string    `json:"status"`
	ScannedAt            time.Time `json:"scannedAt"`
}

// Summary returns the history projection of the scan.
func (s *Scan) Summary() ScanSummary {
	return ScanSummary{
		ID:                   s.ID,
		Language:             s.Language,
		CodeLength:           s.CodeLength,
		VulnerabilitiesCount: s.VulnerabilitiesCount,
		Status:               s.Status,
		ScannedAt:            s.CreatedAt,
	}
}
