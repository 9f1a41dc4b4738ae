package conflict

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"urithi/internal/bequest/models"
	id "urithi/pkg/domain"
	"urithi/pkg/money"
	platformstrings "urithi/pkg/platform/strings"
)

const (
	maxReasonableAge          = 100
	maxReasonableSurvivalDays = 365
	childShareSpreadThreshold = 20.0
)

// Relationship tags a beneficiary as supplied by the identity provider.
type Relationship string

const (
	RelationshipSpouse    Relationship = "SPOUSE"
	RelationshipChild     Relationship = "CHILD"
	RelationshipDependant Relationship = "DEPENDANT"
	RelationshipOther     Relationship = "OTHER"
)

// Beneficiary is an externally supplied fact about one person named in the
// bequest graph. The detector never resolves identities itself.
type Beneficiary struct {
	PersonID     id.PersonID
	Relationship Relationship
	Age          int
	Alive        bool
}

// Disinherited records a person deliberately left out of the distribution.
// BasisWeakness grades the documented legal basis from 0 (well documented)
// to 5 (no usable documentation).
type Disinherited struct {
	PersonID      id.PersonID
	LegalBasis    string
	BasisWeakness int
}

// Facts bundles the external inputs to dependant-risk scoring.
type Facts struct {
	Beneficiaries []Beneficiary
	Disinherited  []Disinherited
	// ShareJustificationDocumented is true when uneven children's shares
	// are explained in the will or a supporting memorandum.
	ShareJustificationDocumented bool
}

// Detector validates one estate's bequest graph. It holds no state, so a
// single instance is safe for concurrent use across estates.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector { return &Detector{} }

// Detect runs every check over the assignment snapshot and returns the
// report. Identical inputs produce identical reports: assignments are
// ordered before grouping and every pass emits in a deterministic order.
func (d *Detector) Detect(estateID id.EstateID, assignments []*models.BequestAssignment, facts Facts, now time.Time) Report {
	ordered := make([]*models.BequestAssignment, len(assignments))
	copy(ordered, assignments)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	report := Report{
		EstateID:    estateID,
		GeneratedAt: now,
		Conflicts:   []Conflict{},
		Warnings:    []string{},
		Risks:       []RiskEntry{},
	}

	d.checkDuplicateAssets(ordered, &report)
	d.checkPercentageClosure(ordered, &report)
	d.checkResiduary(ordered, &report)
	d.checkAlternateCycles(ordered, &report)
	d.checkConditions(ordered, &report)
	d.scoreDependantRisk(ordered, facts, &report)

	// Checks may repeat a warning; the score counts each warning once.
	report.Warnings = platformstrings.DedupeAndTrim(report.Warnings)
	report.RiskScore = report.Score()
	return report
}

// checkDuplicateAssets flags any asset promised to more than one assignment.
func (d *Detector) checkDuplicateAssets(assignments []*models.BequestAssignment, report *Report) {
	byAsset := make(map[id.AssetID][]id.BequestID)
	for _, a := range assignments {
		if a.ShareType == models.ShareSpecificAsset && a.AssetID != nil {
			byAsset[*a.AssetID] = append(byAsset[*a.AssetID], a.ID)
		}
	}

	assetIDs := make([]id.AssetID, 0, len(byAsset))
	for assetID := range byAsset {
		assetIDs = append(assetIDs, assetID)
	}
	sort.Slice(assetIDs, func(i, j int) bool { return assetIDs[i].String() < assetIDs[j].String() })

	for _, assetID := range assetIDs {
		group := byAsset[assetID]
		if len(group) < 2 {
			continue
		}
		aID := assetID
		report.Conflicts = append(report.Conflicts, Conflict{
			Type:     TypeDuplicateAsset,
			Severity: SeverityCritical,
			Message: fmt.Sprintf("asset %s is promised to %d separate bequests",
				assetID, len(group)),
			BequestIDs: group,
			AssetID:    &aID,
		})
	}
}

// checkPercentageClosure sums non-residuary percentage shares and reports
// the overflow beyond 100 as a critical mathematical defect.
func (d *Detector) checkPercentageClosure(assignments []*models.BequestAssignment, report *Report) {
	var shares []money.Percentage
	var involved []id.BequestID
	for _, a := range assignments {
		if a.ShareType == models.SharePercentage && a.SharePercent != nil {
			shares = append(shares, *a.SharePercent)
			involved = append(involved, a.ID)
		}
	}
	total, overflow := money.SumShares(shares)
	if overflow.IsPositive() {
		report.Conflicts = append(report.Conflicts, Conflict{
			Type:     TypePercentageOverflow,
			Severity: SeverityCritical,
			Message: fmt.Sprintf("percentage shares sum to %s, overflowing 100 by %s",
				total, overflow),
			BequestIDs: involved,
			Overflow:   overflow,
		})
	}
}

// checkResiduary enforces the residue rules: multiple residuary shares must
// close to exactly 100, and a graph with none at all risks partial intestacy.
func (d *Detector) checkResiduary(assignments []*models.BequestAssignment, report *Report) {
	var residuary []*models.BequestAssignment
	for _, a := range assignments {
		if a.ShareType == models.ShareResiduary {
			residuary = append(residuary, a)
		}
	}

	switch {
	case len(residuary) == 0:
		report.Conflicts = append(report.Conflicts, Conflict{
			Type:     TypeMissingResiduary,
			Severity: SeverityMedium,
			Message:  "no residuary assignment exists; any unallocated remainder falls to intestacy",
		})
		report.Warnings = append(report.Warnings,
			"partial-intestacy risk: add a residuary clause covering the remainder of the estate")

	case len(residuary) > 1:
		shares := make([]money.Percentage, 0, len(residuary))
		involved := make([]id.BequestID, 0, len(residuary))
		for _, a := range residuary {
			if a.SharePercent != nil {
				shares = append(shares, *a.SharePercent)
			}
			involved = append(involved, a.ID)
		}
		if !money.SharesCloseTo100(shares) {
			total, _ := money.SumShares(shares)
			report.Conflicts = append(report.Conflicts, Conflict{
				Type:     TypeResiduaryMismatch,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("%d residuary shares sum to %s instead of 100",
					len(residuary), total),
				BequestIDs: involved,
			})
		}
	}
}

// checkAlternateCycles walks the alternate graph looking for true cycles.
// Each assignment has at most one alternate, so the graph is a functional
// graph and every traversal is a chain walk with an explicit path stack;
// no recursion, bounded by the node count. Converging chains (two primaries
// sharing one alternate) are legal and terminate against the done set.
func (d *Detector) checkAlternateCycles(assignments []*models.BequestAssignment, report *Report) {
	next := make(map[id.BequestID]id.BequestID, len(assignments))
	known := make(map[id.BequestID]bool, len(assignments))
	for _, a := range assignments {
		known[a.ID] = true
		if a.AlternateID != nil {
			next[a.ID] = *a.AlternateID
		}
	}

	done := make(map[id.BequestID]bool, len(assignments))
	for _, a := range assignments {
		if done[a.ID] {
			continue
		}

		path := []id.BequestID{}
		onPath := make(map[id.BequestID]int)
		node := a.ID
		for {
			if at, ok := onPath[node]; ok {
				// Back-edge: everything from the first visit of
				// node to the end of the path is the cycle.
				cycle := append([]id.BequestID{}, path[at:]...)
				report.Conflicts = append(report.Conflicts, Conflict{
					Type:       TypeCircularAlternates,
					Severity:   SeverityHigh,
					Message:    fmt.Sprintf("alternate chain of %d bequests loops back on itself", len(cycle)),
					BequestIDs: rotateToSmallest(cycle),
				})
				break
			}
			if done[node] || !known[node] {
				break
			}
			onPath[node] = len(path)
			path = append(path, node)
			successor, ok := next[node]
			if !ok {
				break
			}
			node = successor
		}
		for _, visited := range path {
			done[visited] = true
		}
	}
}

// rotateToSmallest rotates a cycle to start at its lexicographically
// smallest id, so the same cycle is always reported identically.
func rotateToSmallest(cycle []id.BequestID) []id.BequestID {
	if len(cycle) == 0 {
		return cycle
	}
	smallest := 0
	for i := 1; i < len(cycle); i++ {
		if cycle[i].String() < cycle[smallest].String() {
			smallest = i
		}
	}
	rotated := make([]id.BequestID, 0, len(cycle))
	rotated = append(rotated, cycle[smallest:]...)
	rotated = append(rotated, cycle[:smallest]...)
	return rotated
}

// checkConditions flags conditions that are legal to record but unreasonable
// to satisfy. They are reported, never rejected.
func (d *Detector) checkConditions(assignments []*models.BequestAssignment, report *Report) {
	for _, a := range assignments {
		for _, c := range a.Conditions {
			switch {
			case c.Kind == models.ConditionAgeAttainment && c.RequiredAge > maxReasonableAge:
				report.Conflicts = append(report.Conflicts, Conflict{
					Type:     TypeImpossibleCondition,
					Severity: SeverityMedium,
					Message: fmt.Sprintf("bequest requires beneficiary to attain age %d, beyond any reasonable lifetime",
						c.RequiredAge),
					BequestIDs: []id.BequestID{a.ID},
				})
			case c.Kind == models.ConditionSurvivalPeriod && c.SurvivalDays > maxReasonableSurvivalDays:
				report.Conflicts = append(report.Conflicts, Conflict{
					Type:     TypeImpossibleCondition,
					Severity: SeverityLow,
					Message: fmt.Sprintf("bequest requires survival of %d days, beyond the customary one-year limit",
						c.SurvivalDays),
					BequestIDs: []id.BequestID{a.ID},
				})
			}
		}
	}
}

// scoreDependantRisk applies the dependant-provision heuristics: a missing
// spouse, uneven children's shares, and weakly documented disinheritance
// each raise the likelihood of a successful claim against the distribution.
func (d *Detector) scoreDependantRisk(assignments []*models.BequestAssignment, facts Facts, report *Report) {
	if len(facts.Beneficiaries) > 0 {
		hasSpouse := false
		for _, b := range facts.Beneficiaries {
			if b.Relationship == RelationshipSpouse {
				hasSpouse = true
				break
			}
		}
		if !hasSpouse {
			report.Risks = append(report.Risks, RiskEntry{
				Likelihood: LikelihoodHigh,
				Message:    "no beneficiary is tagged as spouse; a surviving spouse claim would take priority over every bequest",
			})
		}
	}

	d.scoreChildShareSpread(assignments, facts, report)

	for _, person := range facts.Disinherited {
		likelihood, ok := disinheritanceLikelihood(person.BasisWeakness)
		if !ok {
			continue
		}
		report.Risks = append(report.Risks, RiskEntry{
			Likelihood: likelihood,
			Message: fmt.Sprintf("disinheritance of %s rests on a weak documented basis (%s)",
				person.PersonID, person.LegalBasis),
			PersonID: person.PersonID,
		})
	}
}

func (d *Detector) scoreChildShareSpread(assignments []*models.BequestAssignment, facts Facts, report *Report) {
	if facts.ShareJustificationDocumented {
		return
	}
	children := make(map[id.PersonID]bool)
	for _, b := range facts.Beneficiaries {
		if b.Relationship == RelationshipChild {
			children[b.PersonID] = true
		}
	}
	if len(children) < 2 {
		return
	}

	totals := make(map[id.PersonID]decimal.Decimal)
	for _, a := range assignments {
		if !children[a.BeneficiaryID] || a.SharePercent == nil {
			continue
		}
		totals[a.BeneficiaryID] = totals[a.BeneficiaryID].Add(a.SharePercent.Value)
	}

	var minShare, maxShare decimal.Decimal
	first := true
	for child := range children {
		share := totals[child]
		if first {
			minShare, maxShare = share, share
			first = false
			continue
		}
		if share.LessThan(minShare) {
			minShare = share
		}
		if share.GreaterThan(maxShare) {
			maxShare = share
		}
	}

	spread := maxShare.Sub(minShare)
	if spread.GreaterThan(decimal.NewFromFloat(childShareSpreadThreshold)) {
		report.Risks = append(report.Risks, RiskEntry{
			Likelihood: LikelihoodMedium,
			Message: fmt.Sprintf("children's percentage shares differ by %s points with no documented justification",
				spread),
		})
	}
}

// disinheritanceLikelihood maps a basis-weakness rating to a claim
// likelihood. A rating of zero means the basis is well documented and
// raises no entry.
func disinheritanceLikelihood(weakness int) (Likelihood, bool) {
	switch {
	case weakness >= 4:
		return LikelihoodHigh, true
	case weakness >= 2:
		return LikelihoodMedium, true
	case weakness >= 1:
		return LikelihoodLow, true
	default:
		return "", false
	}
}
