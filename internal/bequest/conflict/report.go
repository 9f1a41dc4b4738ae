// Package conflict validates the bequest graph of one estate. The detector
// is pure: it reads a snapshot of assignments plus externally supplied
// beneficiary facts and produces a structured report, never mutating either.
package conflict

import (
	"time"

	"github.com/shopspring/decimal"

	id "urithi/pkg/domain"
)

// Severity grades a detected conflict.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Likelihood grades a dependant-claim risk entry.
type Likelihood string

const (
	LikelihoodHigh   Likelihood = "HIGH"
	LikelihoodMedium Likelihood = "MEDIUM"
	LikelihoodLow    Likelihood = "LOW"
)

// Type names the conflict categories the detector reports.
type Type string

const (
	TypeDuplicateAsset      Type = "DUPLICATE_ASSET"
	TypePercentageOverflow  Type = "PERCENTAGE_OVERFLOW"
	TypeResiduaryMismatch   Type = "RESIDUARY_MISMATCH"
	TypeMissingResiduary    Type = "MISSING_RESIDUARY"
	TypeCircularAlternates  Type = "CIRCULAR_ALTERNATES"
	TypeImpossibleCondition Type = "IMPOSSIBLE_CONDITION"
)

// Conflict is one detected defect in the bequest graph. BequestIDs lists
// every assignment involved; Overflow is set only for PERCENTAGE_OVERFLOW.
type Conflict struct {
	Type       Type            `json:"type"`
	Severity   Severity        `json:"severity"`
	Message    string          `json:"message"`
	BequestIDs []id.BequestID  `json:"bequest_ids,omitempty"`
	AssetID    *id.AssetID     `json:"asset_id,omitempty"`
	Overflow   decimal.Decimal `json:"overflow,omitempty"`
}

// RiskEntry is a dependant-claim exposure that is not a hard defect but
// raises the chance of a successful challenge to the distribution.
type RiskEntry struct {
	Likelihood Likelihood  `json:"likelihood"`
	Message    string      `json:"message"`
	PersonID   id.PersonID `json:"person_id,omitempty"`
}

// Report is the sole output of a detector run.
type Report struct {
	EstateID    id.EstateID `json:"estate_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Conflicts   []Conflict  `json:"conflicts"`
	Warnings    []string    `json:"warnings"`
	Risks       []RiskEntry `json:"risks"`
	RiskScore   int         `json:"risk_score"`
}

// HasCritical reports whether any conflict is CRITICAL.
func (r Report) HasCritical() bool {
	for _, c := range r.Conflicts {
		if c.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

const (
	pointsPerWarning = 3
	maxRiskScore     = 100
)

var severityPoints = map[Severity]int{
	SeverityCritical: 25,
	SeverityHigh:     15,
	SeverityMedium:   10,
	SeverityLow:      5,
}

var likelihoodPoints = map[Likelihood]int{
	LikelihoodHigh:   20,
	LikelihoodMedium: 10,
	LikelihoodLow:    5,
}

// Score computes the capped aggregate risk score for the report contents.
func (r Report) Score() int {
	score := 0
	for _, c := range r.Conflicts {
		score += severityPoints[c.Severity]
	}
	score += pointsPerWarning * len(r.Warnings)
	for _, risk := range r.Risks {
		score += likelihoodPoints[risk.Likelihood]
	}
	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}
