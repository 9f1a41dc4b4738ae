package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

type EstateModelSuite struct {
	suite.Suite
	now time.Time
}

func TestEstateModelSuite(t *testing.T) {
	suite.Run(t, new(EstateModelSuite))
}

func (s *EstateModelSuite) SetupTest() {
	s.now = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (s *EstateModelSuite) newEstate() *Estate {
	estate, err := NewEstate(id.NewEstateID(), id.NewPersonID(), "KES", s.now)
	s.Require().NoError(err)
	return estate
}

func (s *EstateModelSuite) activeEstate() *Estate {
	estate := s.newEstate()
	s.Require().NoError(estate.Activate(s.now))
	return estate
}

func (s *EstateModelSuite) kes(v float64) money.Money {
	m, err := money.NewFromFloat(v, "KES")
	s.Require().NoError(err)
	return m
}

func (s *EstateModelSuite) TestNewEstate() {
	s.Run("starts in planning with revision zero", func() {
		estate := s.newEstate()
		s.Equal(EstatePlanning, estate.Status)
		s.Equal(uint64(0), estate.Revision)
		s.Nil(estate.DateOfDeath)
	})

	s.Run("currency is normalized", func() {
		estate, err := NewEstate(id.NewEstateID(), id.NewPersonID(), " kes ", s.now)
		s.Require().NoError(err)
		s.Equal("KES", estate.Currency)
	})

	s.Run("missing currency is rejected", func() {
		_, err := NewEstate(id.NewEstateID(), id.NewPersonID(), "", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *EstateModelSuite) TestMembership() {
	s.Run("adding bumps the revision and audits", func() {
		estate := s.activeEstate()
		member := NewAssetMember(id.NewAssetID(), s.kes(1_000_000))

		s.Require().NoError(estate.CanAddMember(member))
		estate.ApplyAddMember(member, "executor:test", s.now)

		s.Equal(uint64(1), estate.Revision)
		s.True(estate.HasMember(MemberAsset, member.RefID))
		s.Len(estate.AuditLog, 1)
	})

	s.Run("duplicate reference in the same estate conflicts", func() {
		estate := s.activeEstate()
		member := NewDebtMember(id.NewDebtID())
		estate.ApplyAddMember(member, "executor:test", s.now)

		err := estate.CanAddMember(member)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("asset members require a declared value", func() {
		estate := s.activeEstate()
		err := estate.CanAddMember(Member{Kind: MemberAsset, RefID: id.NewAssetID().String()})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("removal bumps the revision", func() {
		estate := s.activeEstate()
		member := NewGiftMember(id.NewGiftID())
		estate.ApplyAddMember(member, "executor:test", s.now)

		s.Require().NoError(estate.CanRemoveMember(MemberGift, member.RefID))
		estate.ApplyRemoveMember(MemberGift, member.RefID, "executor:test", s.now)

		s.Equal(uint64(2), estate.Revision)
		s.False(estate.HasMember(MemberGift, member.RefID))
	})

	s.Run("removing an absent reference is not found", func() {
		estate := s.activeEstate()
		err := estate.CanRemoveMember(MemberDebt, id.NewDebtID().String())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EstateModelSuite) TestFreezeLatch() {
	dateOfDeath := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	s.Run("recording a death freezes and locks membership", func() {
		estate := s.activeEstate()
		revBefore := estate.Revision

		s.Require().NoError(estate.CanRecordDeath(dateOfDeath))
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)

		s.Equal(EstateFrozen, estate.Status)
		s.Require().NotNil(estate.DateOfDeath)
		s.True(estate.DateOfDeath.Equal(dateOfDeath))
		s.Equal(revBefore+1, estate.Revision)

		err := estate.CanAddMember(NewDebtMember(id.NewDebtID()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("membership stays locked through the whole lineage", func() {
		estate := s.activeEstate()
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)
		member := NewAssetMember(id.NewAssetID(), s.kes(100))

		for _, stage := range []EstateStatus{EstateProbate, EstateAdministration, EstateDistributed, EstateClosed} {
			estate.ApplyAdvance(stage, "executor:test", s.now)
			err := estate.CanAddMember(member)
			s.Require().Error(err, string(stage))
			s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
		}
	})

	s.Run("death cannot be recorded in planning", func() {
		estate := s.newEstate()
		err := estate.CanRecordDeath(dateOfDeath)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("zero date is rejected", func() {
		estate := s.activeEstate()
		err := estate.CanRecordDeath(time.Time{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *EstateModelSuite) TestUnfreeze() {
	dateOfDeath := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	s.Run("reasoned unfreeze reopens membership and clears the date", func() {
		estate := s.activeEstate()
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)
		revBefore := estate.Revision

		s.Require().NoError(estate.CanUnfreeze("death certificate was issued for the wrong person"))
		estate.ApplyUnfreeze("death certificate was issued for the wrong person", "executor:test", s.now)

		s.Equal(EstateActive, estate.Status)
		s.Nil(estate.DateOfDeath)
		s.Equal(revBefore+1, estate.Revision)
		s.NoError(estate.CanAddMember(NewDebtMember(id.NewDebtID())))
	})

	s.Run("short reason is rejected", func() {
		estate := s.activeEstate()
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)

		err := estate.CanUnfreeze("oops")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("only a frozen estate can be unfrozen", func() {
		estate := s.activeEstate()
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)
		estate.ApplyAdvance(EstateProbate, "executor:test", s.now)

		err := estate.CanUnfreeze("probate opened against the wrong estate")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})
}

func (s *EstateModelSuite) TestAdvance() {
	dateOfDeath := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	s.Run("stages advance strictly forward", func() {
		estate := s.activeEstate()
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)

		for _, stage := range []EstateStatus{EstateProbate, EstateAdministration, EstateDistributed, EstateClosed} {
			s.Require().NoError(estate.CanAdvance(stage))
			estate.ApplyAdvance(stage, "executor:test", s.now)
		}
		s.Equal(EstateClosed, estate.Status)
	})

	s.Run("skipping a stage is refused", func() {
		estate := s.activeEstate()
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)

		err := estate.CanAdvance(EstateDistributed)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("advance never goes back to an open stage", func() {
		estate := s.activeEstate()
		err := estate.CanAdvance(EstateActive)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *EstateModelSuite) TestGrossAssetValue() {
	estate := s.activeEstate()
	estate.ApplyAddMember(NewAssetMember(id.NewAssetID(), s.kes(1_500_000)), "executor:test", s.now)
	estate.ApplyAddMember(NewAssetMember(id.NewAssetID(), s.kes(500_000)), "executor:test", s.now)
	estate.ApplyAddMember(NewDebtMember(id.NewDebtID()), "executor:test", s.now)

	s.True(estate.GrossAssetValue().Equal(s.kes(2_000_000)))
}

func (s *EstateModelSuite) TestCanDistribute() {
	dateOfDeath := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	s.Run("frozen estate with positive net can distribute", func() {
		estate := s.activeEstate()
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)
		s.NoError(estate.CanDistribute(s.kes(100)))
	})

	s.Run("zero net cannot distribute", func() {
		estate := s.activeEstate()
		estate.ApplyRecordDeath(dateOfDeath, "executor:test", s.now)

		err := estate.CanDistribute(money.Zero("KES"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("open and closed stages cannot distribute", func() {
		estate := s.activeEstate()
		err := estate.CanDistribute(s.kes(100))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})
}
