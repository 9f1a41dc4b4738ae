package models

// DebtType classifies the origin of a liability for tiering.
type DebtType string

const (
	DebtTypeFuneralExpense      DebtType = "FUNERAL_EXPENSE"
	DebtTypeTestamentaryExpense DebtType = "TESTAMENTARY_EXPENSE"
	DebtTypeTax                 DebtType = "TAX"
	DebtTypeRates               DebtType = "RATES"
	DebtTypeWages               DebtType = "WAGES"
	DebtTypeLoan                DebtType = "LOAN"
	DebtTypeSupplier            DebtType = "SUPPLIER"
	DebtTypeMedical             DebtType = "MEDICAL"
	DebtTypeOther               DebtType = "OTHER"
)

// StatutoryTier is the payment priority class. Lower pays first.
type StatutoryTier int

const (
	// TierFuneralTestamentary: funeral and testamentary expenses. Always
	// paid first and never reclassified away.
	TierFuneralTestamentary StatutoryTier = 1
	// TierSecured: debts secured against estate property.
	TierSecured StatutoryTier = 2
	// TierPreferential: taxes, rates and wages.
	TierPreferential StatutoryTier = 3
	// TierUnsecured: everything else, paid last.
	TierUnsecured StatutoryTier = 4
)

// Limitation windows measured from the incurred date. Past the window the
// debt is statute-barred and no longer enforceable.
const (
	LimitationYearsSecured   = 12
	LimitationYearsUnsecured = 6
)

// ClassifyTier computes the statutory tier from the debt's type and
// security. The order is a total one: funeral/testamentary outranks
// security, security outranks the preferential types.
func ClassifyTier(debtType DebtType, isSecured bool) StatutoryTier {
	switch debtType {
	case DebtTypeFuneralExpense, DebtTypeTestamentaryExpense:
		return TierFuneralTestamentary
	}
	if isSecured {
		return TierSecured
	}
	switch debtType {
	case DebtTypeTax, DebtTypeRates, DebtTypeWages:
		return TierPreferential
	}
	return TierUnsecured
}

// LimitationYears returns the limitation window for the debt's security.
func LimitationYears(isSecured bool) int {
	if isSecured {
		return LimitationYearsSecured
	}
	return LimitationYearsUnsecured
}
