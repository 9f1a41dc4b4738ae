package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"urithi/internal/gift/models"
	"urithi/internal/gift/store"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
	"urithi/pkg/platform/events"
	"urithi/pkg/requestcontext"
)

type HotchpotSuite struct {
	suite.Suite
	store     *store.InMemory
	publisher *events.MemoryPublisher
	service   *Service
	ctx       context.Context
	estateID  id.EstateID
	death     time.Time
}

func TestHotchpotSuite(t *testing.T) {
	suite.Run(t, new(HotchpotSuite))
}

func (s *HotchpotSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.publisher = events.NewMemoryPublisher()
	s.service = New(s.store, WithPublisher(s.publisher))
	s.estateID = id.NewEstateID()
	s.death = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithActor(
		requestcontext.WithTime(context.Background(), s.death),
		"executor:test",
	)
}

func (s *HotchpotSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *HotchpotSuite) recordGift(value float64, dateOfGift time.Time, reverts bool) *models.GiftLedgerEntry {
	amount, err := money.NewFromFloat(value, "KES")
	s.Require().NoError(err)
	gift, err := models.NewGiftLedgerEntry(
		id.NewGiftID(), s.estateID, id.NewPersonID(),
		amount, dateOfGift,
		models.AssetDetail{Kind: models.AssetKindFinancial, Financial: &models.FinancialDetail{
			Institution: "Equity Bank", AccountNumber: "0123456789",
		}},
		true, false, reverts, s.death.AddDate(-5, 0, 0),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.service.RecordGift(s.ctx, gift))
	return gift
}

func (s *HotchpotSuite) TestCalculateHotchpotValue() {
	s.Run("compounds over four full years", func() {
		// 2020-01-01 to 2024-01-01 spans exactly 1461 days = 4 × 365.25.
		gift := s.recordGift(1_000_000, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), false)

		updated, err := s.service.CalculateHotchpotValue(s.ctx, gift.ID, s.death, 0.05)
		s.Require().NoError(err)
		s.Require().NotNil(updated.InflationAdjustedValue)
		s.Equal(models.HotchpotCalculationPending, updated.HotchpotStatus)

		got := updated.InflationAdjustedValue.Amount.InexactFloat64()
		s.InDelta(1_215_506.25, got, 1.0)
	})

	s.Run("fractional years compound fractionally", func() {
		// Half a statutory year before death.
		halfYear := time.Duration(float64(365.25*24) * float64(time.Hour) / 2)
		gift := s.recordGift(100_000, s.death.Add(-halfYear), false)

		updated, err := s.service.CalculateHotchpotValue(s.ctx, gift.ID, s.death, 0.10)
		s.Require().NoError(err)
		want := 100_000 * math.Pow(1.10, 0.5)
		s.InDelta(want, updated.InflationAdjustedValue.Amount.InexactFloat64(), 1.0)
	})

	s.Run("emits the calculated fact", func() {
		gift := s.recordGift(50_000, time.Date(2022, 3, 10, 0, 0, 0, 0, time.UTC), false)
		_, err := s.service.CalculateHotchpotValue(s.ctx, gift.ID, s.death, 0.05)
		s.Require().NoError(err)

		published := s.publisher.ByKind(events.KindGiftHotchpotCalculated)
		s.Require().Len(published, 1)
		s.Equal(s.estateID, published[0].EstateID)
		s.Equal(gift.ID.String(), published[0].Attributes["gift_id"])
	})

	s.Run("rejects death before gift", func() {
		gift := s.recordGift(50_000, s.death.AddDate(1, 0, 0), false)
		_, err := s.service.CalculateHotchpotValue(s.ctx, gift.ID, s.death, 0.05)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("rejects negative rates and unknown gifts", func() {
		gift := s.recordGift(50_000, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), false)
		_, err := s.service.CalculateHotchpotValue(s.ctx, gift.ID, s.death, -0.01)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.service.CalculateHotchpotValue(s.ctx, id.NewGiftID(), s.death, 0.05)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *HotchpotSuite) TestIncludeExclude() {
	s.Run("include needs calculation first", func() {
		gift := s.recordGift(200_000, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), false)

		_, err := s.service.IncludeInHotchpot(s.ctx, gift.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

		_, err = s.service.CalculateHotchpotValue(s.ctx, gift.ID, s.death, 0.05)
		s.Require().NoError(err)
		updated, err := s.service.IncludeInHotchpot(s.ctx, gift.ID)
		s.Require().NoError(err)
		s.Equal(models.HotchpotIncluded, updated.HotchpotStatus)
	})

	s.Run("exclude requires a documented reason", func() {
		gift := s.recordGift(200_000, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), false)

		_, err := s.service.ExcludeFromHotchpot(s.ctx, gift.ID, "nope")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		updated, err := s.service.ExcludeFromHotchpot(s.ctx, gift.ID, "maintenance payment, not an advancement")
		s.Require().NoError(err)
		s.Equal(models.HotchpotExcluded, updated.HotchpotStatus)

		// Excluded is terminal for include.
		_, err = s.service.IncludeInHotchpot(s.ctx, gift.ID)
		s.Require().Error(err)
	})
}

func (s *HotchpotSuite) TestConditionReversion() {
	s.Run("failed condition on reverting gift triggers reclamation", func() {
		gift := s.recordGift(300_000, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), true)
		_, err := s.service.AttachCondition(s.ctx, gift.ID)
		s.Require().NoError(err)

		updated, err := s.service.ResolveCondition(s.ctx, gift.ID, models.ConditionFailed)
		s.Require().NoError(err)
		s.Equal(models.HotchpotReclaimed, updated.HotchpotStatus)
		s.Equal(models.ConditionFailed, updated.ConditionStatus)

		reclaimed := s.publisher.ByKind(events.KindGiftReclaimed)
		s.Require().Len(reclaimed, 1)
	})

	s.Run("failed condition without reversion flag leaves hotchpot alone", func() {
		gift := s.recordGift(300_000, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), false)
		_, err := s.service.AttachCondition(s.ctx, gift.ID)
		s.Require().NoError(err)

		updated, err := s.service.ResolveCondition(s.ctx, gift.ID, models.ConditionFailed)
		s.Require().NoError(err)
		s.Equal(models.HotchpotPending, updated.HotchpotStatus)
	})

	s.Run("met and waived outcomes never trigger reversion", func() {
		for _, outcome := range []models.ConditionStatus{models.ConditionMet, models.ConditionWaived} {
			gift := s.recordGift(10_000, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), true)
			_, err := s.service.AttachCondition(s.ctx, gift.ID)
			s.Require().NoError(err)
			updated, err := s.service.ResolveCondition(s.ctx, gift.ID, outcome)
			s.Require().NoError(err)
			s.Equal(models.HotchpotPending, updated.HotchpotStatus)
		}
	})
}
