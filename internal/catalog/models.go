package catalog

import (
	"strings"
	"time"
)

// ValidationStatus describes the parser's judgment of a program body.
type ValidationStatus string

const (
	StatusPass        ValidationStatus = "PASS"
	StatusWarning     ValidationStatus = "WARNING"
	StatusDimensional ValidationStatus = "DIMENSIONAL"
	StatusBoreWarning ValidationStatus = "BORE_WARNING"
	StatusCritical    ValidationStatus = "CRITICAL"
	StatusRepeat      ValidationStatus = "REPEAT"
)

var severityRanks = map[ValidationStatus]int{
	StatusPass:        0,
	StatusWarning:     1,
	StatusDimensional: 2,
	StatusBoreWarning: 3,
	StatusCritical:    4,
	StatusRepeat:      5,
}

// SeverityRank orders validation statuses for parent election; lower is
// healthier. Unknown statuses sort worst.
func SeverityRank(status ValidationStatus) int {
	if rank, ok := severityRanks[status]; ok {
		return rank
	}
	return len(severityRanks)
}

// Confidence grades how a value was detected.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceNone   Confidence = "NONE"
)

var confidenceRanks = map[Confidence]int{
	ConfidenceHigh:   0,
	ConfidenceMedium: 1,
	ConfidenceLow:    2,
	ConfidenceNone:   3,
}

// ConfidenceRank orders confidences for parent election; lower is better.
func ConfidenceRank(c Confidence) int {
	if rank, ok := confidenceRanks[c]; ok {
		return rank
	}
	return len(confidenceRanks)
}

// DuplicateType classifies a record's duplication relationship.
type DuplicateType string

const (
	DuplicateNone          DuplicateType = ""
	DuplicateSolid         DuplicateType = "SOLID"
	DuplicateNameCollision DuplicateType = "NAME_COLLISION"
	DuplicateContent       DuplicateType = "CONTENT_DUP"
	DuplicateChild         DuplicateType = "CHILD"
)

// RoundSizeSource names the evidence source that produced a round size.
type RoundSizeSource string

const (
	SourceTitle     RoundSizeSource = "TITLE"
	SourceGCode     RoundSizeSource = "GCODE"
	SourceDimension RoundSizeSource = "DIMENSION"
	SourceManual    RoundSizeSource = "MANUAL"
)

// RegistryStatus is the allocation state of one identifier.
type RegistryStatus string

const (
	RegistryAvailable RegistryStatus = "AVAILABLE"
	RegistryInUse     RegistryStatus = "IN_USE"
	RegistryReserved  RegistryStatus = "RESERVED"
)

// ParseRegistryStatus converts a string into a known RegistryStatus.
func ParseRegistryStatus(value string) (RegistryStatus, bool) {
	normalized := RegistryStatus(strings.ToUpper(strings.TrimSpace(value)))
	switch normalized {
	case RegistryAvailable, RegistryInUse, RegistryReserved:
		return normalized, true
	}
	return "", false
}

// Program is one catalog record. Identifier is the observed token (canonical
// core plus any disambiguation suffix still carried from disk); NumericCore
// is the suffix-stripped number used for range membership.
type Program struct {
	Identifier          string
	NumericCore         int
	Title               string
	Material            string
	OBValue             float64
	OuterDiameter       float64
	FilePath            string
	ContentDigest       string
	DetectionConfidence Confidence
	DetectionMethod     string
	ValidationStatus    ValidationStatus
	// PriorStatus preserves the natural validation status while a record is
	// demoted to REPEAT, so reclassification can promote it back.
	PriorStatus         ValidationStatus
	DuplicateType       DuplicateType
	ParentFile          string
	DuplicateGroup      string
	LegacyNames         []LegacyName
	RoundSize           float64
	RoundSizeConfidence Confidence
	RoundSizeSource     RoundSizeSource
	InCorrectRange      bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NaturalStatus returns the status the record should hold when it is not a
// demoted duplicate child.
func (p *Program) NaturalStatus() ValidationStatus {
	if p.ValidationStatus == StatusRepeat && p.PriorStatus != "" {
		return p.PriorStatus
	}
	return p.ValidationStatus
}

// RegistryRow is the allocation record for one legal identifier. Rows are
// created once at registry initialization and only mutate status, file path,
// duplicate count, and notes afterward.
type RegistryRow struct {
	Identifier     string
	RoundSize      float64
	RangeStart     int
	RangeEnd       int
	Status         RegistryStatus
	FilePath       string
	DuplicateCount int
	Notes          string
}

// AuditRecord is one append-only resolution log entry. Records are never
// mutated or deleted; they are the sole mechanism for reconstructing rename
// history.
type AuditRecord struct {
	ID            int64
	CreatedAt     time.Time
	DuplicateType DuplicateType
	Identifiers   []string
	Action        string
	Files         []string
	OldValues     string
	NewValues     string
	Notes         string
}
