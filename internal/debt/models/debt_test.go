package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

type DebtModelSuite struct {
	suite.Suite
	now time.Time
}

func TestDebtModelSuite(t *testing.T) {
	suite.Run(t, new(DebtModelSuite))
}

func (s *DebtModelSuite) SetupTest() {
	s.now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func (s *DebtModelSuite) newDebt(debtType DebtType, principal float64, secured bool) *DebtLedgerEntry {
	amount, err := money.NewFromFloat(principal, "KES")
	s.Require().NoError(err)
	debt, err := NewDebtLedgerEntry(
		id.NewDebtID(), id.NewEstateID(), id.NewPersonID(),
		"claim against the estate", debtType, amount,
		s.now.AddDate(-1, 0, 0), secured, s.now,
	)
	s.Require().NoError(err)
	return debt
}

func (s *DebtModelSuite) TestTiering() {
	cases := []struct {
		name     string
		debtType DebtType
		secured  bool
		want     StatutoryTier
	}{
		{"funeral expenses are tier 1", DebtTypeFuneralExpense, false, TierFuneralTestamentary},
		{"testamentary expenses are tier 1", DebtTypeTestamentaryExpense, false, TierFuneralTestamentary},
		{"secured funeral expense stays tier 1", DebtTypeFuneralExpense, true, TierFuneralTestamentary},
		{"secured loans are tier 2", DebtTypeLoan, true, TierSecured},
		{"unsecured taxes are tier 3", DebtTypeTax, false, TierPreferential},
		{"secured taxes are tier 2", DebtTypeTax, true, TierSecured},
		{"wages are tier 3", DebtTypeWages, false, TierPreferential},
		{"unsecured loans are tier 4", DebtTypeLoan, false, TierUnsecured},
		{"suppliers are tier 4", DebtTypeSupplier, false, TierUnsecured},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, ClassifyTier(tc.debtType, tc.secured))
		})
	}
}

func (s *DebtModelSuite) TestPayments() {
	pay := func(v float64) money.Money {
		m, err := money.NewFromFloat(v, "KES")
		s.Require().NoError(err)
		return m
	}

	s.Run("partial payment keeps balance invariant", func() {
		debt := s.newDebt(DebtTypeLoan, 500_000, false)
		s.Require().NoError(debt.CanRecordPayment(pay(200_000), OverpaymentClamp))
		applied := debt.ApplyPayment(pay(200_000), "first instalment", "executor", s.now)

		s.True(applied.Equal(pay(200_000)))
		s.Equal(DebtPartiallyPaid, debt.Status)
		sum, err := debt.TotalPaid.Add(debt.OutstandingBalance)
		s.Require().NoError(err)
		s.True(sum.Equal(debt.Principal))
	})

	s.Run("overpayment clamps to balance and audits the discrepancy", func() {
		debt := s.newDebt(DebtTypeLoan, 500_000, false)
		s.Require().NoError(debt.CanRecordPayment(pay(600_000), OverpaymentClamp))
		applied := debt.ApplyPayment(pay(600_000), "final settlement", "executor", s.now)

		s.True(applied.Equal(pay(500_000)))
		s.True(debt.OutstandingBalance.IsZero())
		s.Equal(DebtSettled, debt.Status)

		s.Require().NotEmpty(debt.AuditLog)
		s.Contains(debt.AuditLog[0].Message, "overpayment clamped")
		s.Contains(debt.AuditLog[0].Message, "100000.00 KES")
	})

	s.Run("reject policy refuses overpayment", func() {
		debt := s.newDebt(DebtTypeLoan, 500_000, false)
		err := debt.CanRecordPayment(pay(600_000), OverpaymentReject)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("terminal debts reject payments", func() {
		debt := s.newDebt(DebtTypeLoan, 100, false)
		debt.ApplyPayment(pay(100), "paid in full", "executor", s.now)
		s.Require().Equal(DebtSettled, debt.Status)

		err := debt.CanRecordPayment(pay(1), OverpaymentClamp)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("non-positive payments rejected", func() {
		debt := s.newDebt(DebtTypeLoan, 100, false)
		err := debt.CanRecordPayment(money.Zero("KES"), OverpaymentClamp)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *DebtModelSuite) TestStatuteBar() {
	s.Run("unsecured bars after six years", func() {
		debt := s.newDebt(DebtTypeLoan, 1000, false)
		s.Equal(6, debt.LimitationYears)

		deadline := debt.IncurredDate.AddDate(6, 0, 0)
		s.False(debt.IsStatuteBarred(deadline.AddDate(0, 0, -1)))
		s.False(debt.IsStatuteBarred(deadline))
		s.True(debt.IsStatuteBarred(deadline.AddDate(0, 0, 1)))
	})

	s.Run("secured bars after twelve years", func() {
		debt := s.newDebt(DebtTypeLoan, 1000, true)
		s.Equal(12, debt.LimitationYears)
		s.False(debt.IsStatuteBarred(debt.IncurredDate.AddDate(11, 11, 0)))
		s.True(debt.IsStatuteBarred(debt.IncurredDate.AddDate(12, 0, 1)))
	})

	s.Run("barred debts are terminal", func() {
		debt := s.newDebt(DebtTypeLoan, 1000, false)
		asOf := debt.IncurredDate.AddDate(7, 0, 0)
		s.Require().NoError(debt.CanBar(asOf))
		debt.ApplyBar(asOf, "system", s.now)

		s.Equal(DebtStatuteBarred, debt.Status)
		s.True(debt.Status.IsTerminal())
		s.True(debt.EnforceableBalance().IsZero())
		amount, _ := money.NewFromFloat(1, "KES")
		s.Error(debt.CanRecordPayment(amount, OverpaymentClamp))
	})
}

func (s *DebtModelSuite) TestDisputes() {
	s.Run("dispute needs a substantial reason", func() {
		debt := s.newDebt(DebtTypeSupplier, 1000, false)
		s.Error(debt.CanDispute("bad"))
		s.Require().NoError(debt.CanDispute("invoice duplicates an earlier claim"))
		debt.ApplyDispute("invoice duplicates an earlier claim", "executor", s.now)
		s.Equal(DebtDisputed, debt.Status)
	})

	s.Run("upheld and dismissed return to outstanding", func() {
		for _, outcome := range []DisputeOutcome{DisputeUpheld, DisputeDismissed} {
			debt := s.newDebt(DebtTypeSupplier, 1000, false)
			debt.ApplyDispute("claim amount appears inflated", "executor", s.now)
			s.Require().NoError(debt.CanResolveDispute(outcome))
			debt.ApplyDisputeResolution(outcome, "executor", s.now)
			s.Equal(DebtOutstanding, debt.Status)
		}
	})

	s.Run("settled resolution discharges the balance", func() {
		debt := s.newDebt(DebtTypeSupplier, 1000, false)
		debt.ApplyDispute("claim amount appears inflated", "executor", s.now)
		debt.ApplyDisputeResolution(DisputeSettled, "executor", s.now)
		s.Equal(DebtSettled, debt.Status)
		s.True(debt.OutstandingBalance.IsZero())
		s.True(debt.TotalPaid.Equal(debt.Principal))
	})
}

func (s *DebtModelSuite) TestWriteOffRules() {
	s.Run("tier-1 debts can never be written off", func() {
		debt := s.newDebt(DebtTypeFuneralExpense, 1000, false)
		err := debt.CanWriteOff("creditor untraceable after diligent search")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeLegalRuleViolation))
	})

	s.Run("tax debts need external approval", func() {
		debt := s.newDebt(DebtTypeTax, 1000, false)
		err := debt.CanWriteOff("assessed liability waived by authority")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeLegalRuleViolation))

		s.Require().NoError(debt.RecordApproval("KRA/WAIVER/2024/001", "executor", s.now))
		s.Require().NoError(debt.CanWriteOff("assessed liability waived by authority"))
	})

	s.Run("ordinary debts write off with a reason", func() {
		debt := s.newDebt(DebtTypeSupplier, 1000, false)
		s.Error(debt.CanWriteOff("short"))
		s.Require().NoError(debt.CanWriteOff("creditor untraceable after diligent search"))
		debt.ApplyWriteOff("creditor untraceable after diligent search", "executor", s.now)
		s.Equal(DebtWrittenOff, debt.Status)
	})
}

func (s *DebtModelSuite) TestReclassification() {
	s.Run("tier-1 lock is absolute", func() {
		debt := s.newDebt(DebtTypeFuneralExpense, 1000, false)
		err := debt.CanReclassify(TierUnsecured, "recorded against wrong head")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeLegalRuleViolation))
	})

	s.Run("other tiers move with a reason", func() {
		debt := s.newDebt(DebtTypeLoan, 1000, false)
		s.Require().NoError(debt.CanReclassify(TierSecured, "security perfected after recording"))
		debt.ApplyReclassify(TierSecured, "security perfected after recording", "executor", s.now)
		s.Equal(TierSecured, debt.StatutoryTier)
	})

	s.Run("same-tier and unknown tiers rejected", func() {
		debt := s.newDebt(DebtTypeLoan, 1000, false)
		s.Error(debt.CanReclassify(TierUnsecured, "no change should be rejected"))
		s.Error(debt.CanReclassify(StatutoryTier(7), "tier out of range entirely"))
	})
}

func (s *DebtModelSuite) TestCanBePaid() {
	s.Run("requires all five facts", func() {
		debt := s.newDebt(DebtTypeTax, 1000, false)
		s.False(debt.CanBePaid())

		s.Require().NoError(debt.Verify("executor", s.now))
		s.False(debt.CanBePaid())

		debt.MarkIncludedInInventory("executor", s.now)
		s.False(debt.CanBePaid())

		debt.AuthorizePayment("executor", s.now)
		s.False(debt.CanBePaid(), "tax debt still lacks external approval")

		s.Require().NoError(debt.RecordApproval("KRA/CLR/2024/17", "executor", s.now))
		s.True(debt.CanBePaid())
	})

	s.Run("non-tax debts need no approval", func() {
		debt := s.newDebt(DebtTypeLoan, 1000, false)
		s.Require().NoError(debt.Verify("executor", s.now))
		debt.MarkIncludedInInventory("executor", s.now)
		debt.AuthorizePayment("executor", s.now)
		s.True(debt.CanBePaid())
	})
}
