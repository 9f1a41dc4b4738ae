package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

type BequestModelSuite struct {
	suite.Suite
	now time.Time
}

func TestBequestModelSuite(t *testing.T) {
	suite.Run(t, new(BequestModelSuite))
}

func (s *BequestModelSuite) SetupTest() {
	s.now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func (s *BequestModelSuite) newBequest(shareType ShareType) *BequestAssignment {
	b, err := NewBequestAssignment(
		id.NewBequestID(), id.NewEstateID(), id.NewPersonID(), shareType, s.now)
	s.Require().NoError(err)
	return b
}

func (s *BequestModelSuite) TestShareTypePairing() {
	s.Run("specific asset needs an asset reference", func() {
		b := s.newBequest(ShareSpecificAsset)
		s.Error(b.Validate())

		assetID := id.NewAssetID()
		b.AssetID = &assetID
		s.NoError(b.Validate())
	})

	s.Run("percentage needs a share", func() {
		b := s.newBequest(SharePercentage)
		s.Error(b.Validate())

		p, err := money.NewPercentageFromFloat(25)
		s.Require().NoError(err)
		b.SharePercent = &p
		s.NoError(b.Validate())
	})

	s.Run("fixed amount needs a positive amount", func() {
		b := s.newBequest(ShareFixedAmount)
		s.Error(b.Validate())

		zero := money.Zero("KES")
		b.FixedAmount = &zero
		s.Error(b.Validate())

		amount, err := money.NewFromFloat(250_000, "KES")
		s.Require().NoError(err)
		b.FixedAmount = &amount
		s.NoError(b.Validate())
	})

	s.Run("residuary semantics never mix", func() {
		b := s.newBequest(ShareResiduary)
		p, err := money.NewPercentageFromFloat(100)
		s.Require().NoError(err)
		b.SharePercent = &p
		s.Require().NoError(b.Validate())

		amount, err := money.NewFromFloat(1, "KES")
		s.Require().NoError(err)
		b.FixedAmount = &amount
		err = b.Validate()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown share type rejected at construction", func() {
		_, err := NewBequestAssignment(
			id.NewBequestID(), id.NewEstateID(), id.NewPersonID(), ShareType("LIFE_INTEREST"), s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *BequestModelSuite) TestAlternateInvariant() {
	primary := id.NewBequestID()

	s.Run("alternate must reference a primary", func() {
		b := s.newBequest(ShareFixedAmount)
		amount, _ := money.NewFromFloat(100, "KES")
		b.FixedAmount = &amount
		b.IsAlternate = true
		s.Error(b.Validate())

		b.PrimaryID = &primary
		s.NoError(b.Validate())
	})

	s.Run("only alternates may reference a primary", func() {
		b := s.newBequest(ShareFixedAmount)
		amount, _ := money.NewFromFloat(100, "KES")
		b.FixedAmount = &amount
		b.PrimaryID = &primary
		s.Error(b.Validate())
	})
}

func (s *BequestModelSuite) TestLifecycle() {
	s.Run("planned activates then resolves", func() {
		b := s.newBequest(SharePercentage)
		s.Require().NoError(b.Activate(s.now))
		s.Equal(BequestActive, b.Status)

		s.Require().NoError(b.Resolve(BequestFulfilled, "asset transferred to beneficiary", s.now))
		s.Equal(BequestFulfilled, b.Status)
		s.True(b.Status.IsTerminal())
	})

	s.Run("planned may be revoked without activation", func() {
		b := s.newBequest(SharePercentage)
		s.Require().NoError(b.Resolve(BequestRevoked, "codicil replaced this clause", s.now))
		s.Equal(BequestRevoked, b.Status)
	})

	s.Run("terminal bequests reject further transitions", func() {
		b := s.newBequest(SharePercentage)
		s.Require().NoError(b.Activate(s.now))
		s.Require().NoError(b.Resolve(BequestAdeemed, "asset sold before death", s.now))

		err := b.Activate(s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
		s.Error(b.Resolve(BequestLapsed, "beneficiary predeceased", s.now))
	})

	s.Run("resolution needs a reason and a terminal outcome", func() {
		b := s.newBequest(SharePercentage)
		s.Require().NoError(b.Activate(s.now))

		s.Error(b.Resolve(BequestFulfilled, "  ", s.now))
		s.Error(b.Resolve(BequestActive, "not a terminal state", s.now))
	})
}
