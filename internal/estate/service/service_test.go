package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"urithi/internal/bequest/conflict"
	bequestmodels "urithi/internal/bequest/models"
	bequeststore "urithi/internal/bequest/store"
	debtmodels "urithi/internal/debt/models"
	debtservice "urithi/internal/debt/service"
	debtstore "urithi/internal/debt/store"
	"urithi/internal/estate/models"
	estatestore "urithi/internal/estate/store"
	giftmodels "urithi/internal/gift/models"
	giftservice "urithi/internal/gift/service"
	giftstore "urithi/internal/gift/store"
	taxmodels "urithi/internal/tax/models"
	taxservice "urithi/internal/tax/service"
	taxstore "urithi/internal/tax/store"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
	"urithi/pkg/platform/events"
	"urithi/pkg/requestcontext"
)

// fakeReportCache is a map-backed ReportCache for exercising the cache path
// without redis.
type fakeReportCache struct {
	mu      sync.Mutex
	entries map[string]conflict.Report
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{entries: make(map[string]conflict.Report)}
}

func (c *fakeReportCache) key(estateID id.EstateID, fingerprint uint64) string {
	return fmt.Sprintf("%s:%d", estateID, fingerprint)
}

func (c *fakeReportCache) Get(_ context.Context, estateID id.EstateID, fingerprint uint64) (*conflict.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.entries[c.key(estateID, fingerprint)]
	if !ok {
		return nil, nil
	}
	return &report, nil
}

func (c *fakeReportCache) Put(_ context.Context, estateID id.EstateID, fingerprint uint64, report conflict.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(estateID, fingerprint)] = report
	return nil
}

type EstateServiceSuite struct {
	suite.Suite
	estates   *estatestore.InMemory
	bequests  *bequeststore.InMemory
	gifts     *giftservice.Service
	debts     *debtservice.Service
	taxes     *taxservice.Service
	cache     *fakeReportCache
	publisher *events.MemoryPublisher
	service   *Service
	ctx       context.Context
	estateID  id.EstateID
	now       time.Time
}

func TestEstateServiceSuite(t *testing.T) {
	suite.Run(t, new(EstateServiceSuite))
}

func (s *EstateServiceSuite) SetupTest() {
	s.estates = estatestore.NewInMemory()
	s.bequests = bequeststore.NewInMemory()
	s.publisher = events.NewMemoryPublisher()
	s.cache = newFakeReportCache()

	s.gifts = giftservice.New(giftstore.NewInMemory(), giftservice.WithPublisher(s.publisher))
	s.debts = debtservice.New(debtstore.NewInMemory(), debtservice.WithPublisher(s.publisher))
	s.taxes = taxservice.New(taxstore.NewInMemory(), s.kes(500_000), taxservice.WithPublisher(s.publisher))

	s.service = New(s.estates, s.gifts, s.debts, s.taxes, s.bequests,
		WithPublisher(s.publisher), WithReportCache(s.cache))

	s.now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithActor(
		requestcontext.WithTime(context.Background(), s.now),
		"executor:test",
	)

	s.estateID = id.NewEstateID()
	_, err := s.service.CreateEstate(s.ctx, s.estateID, id.NewPersonID(), "KES")
	s.Require().NoError(err)
	_, err = s.service.Activate(s.ctx, s.estateID)
	s.Require().NoError(err)
}

func (s *EstateServiceSuite) kes(v float64) money.Money {
	m, err := money.NewFromFloat(v, "KES")
	s.Require().NoError(err)
	return m
}

func (s *EstateServiceSuite) dateOfDeath() time.Time {
	return time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
}

func (s *EstateServiceSuite) recordGift(subject bool, value float64, giftedAt time.Time) *giftmodels.GiftLedgerEntry {
	gift, err := giftmodels.NewGiftLedgerEntry(
		id.NewGiftID(), s.estateID, id.NewPersonID(), s.kes(value), giftedAt,
		giftmodels.AssetDetail{
			Kind:      giftmodels.AssetKindFinancial,
			Financial: &giftmodels.FinancialDetail{Institution: "Equity Bank", AccountNumber: "0100-17"},
		},
		subject, false, false, s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.gifts.RecordGift(s.ctx, gift))
	return gift
}

func (s *EstateServiceSuite) recordDebt(principal float64, incurred time.Time) *debtmodels.DebtLedgerEntry {
	debt, err := debtmodels.NewDebtLedgerEntry(
		id.NewDebtID(), s.estateID, id.NewPersonID(), "bank loan",
		debtmodels.DebtTypeLoan, s.kes(principal), incurred, false, s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.debts.RecordDebt(s.ctx, debt))
	return debt
}

func (s *EstateServiceSuite) addPercentageBequest(percent float64) *bequestmodels.BequestAssignment {
	b, err := bequestmodels.NewBequestAssignment(
		id.NewBequestID(), s.estateID, id.NewPersonID(), bequestmodels.SharePercentage, s.now)
	s.Require().NoError(err)
	p, err := money.NewPercentageFromFloat(percent)
	s.Require().NoError(err)
	b.SharePercent = &p
	s.Require().NoError(b.Validate())
	s.Require().NoError(s.bequests.Create(s.ctx, b))
	return b
}

func (s *EstateServiceSuite) addResiduaryBequest() *bequestmodels.BequestAssignment {
	b, err := bequestmodels.NewBequestAssignment(
		id.NewBequestID(), s.estateID, id.NewPersonID(), bequestmodels.ShareResiduary, s.now)
	s.Require().NoError(err)
	p, err := money.NewPercentageFromFloat(100)
	s.Require().NoError(err)
	b.SharePercent = &p
	s.Require().NoError(b.Validate())
	s.Require().NoError(s.bequests.Create(s.ctx, b))
	return b
}

func (s *EstateServiceSuite) TestRecordDeath() {
	s.Run("freezes the estate and emits the compliance fact", func() {
		estate, err := s.service.RecordDeath(s.ctx, s.estateID, s.dateOfDeath())
		s.Require().NoError(err)
		s.Equal(models.EstateFrozen, estate.Status)

		published := s.publisher.ByKind(events.KindEstateFrozen)
		s.Require().Len(published, 1)
		s.Equal("2024-05-15", published[0].Attributes["date_of_death"])
	})

	s.Run("second death record is refused", func() {
		_, err := s.service.RecordDeath(s.ctx, s.estateID, s.dateOfDeath())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})
}

func (s *EstateServiceSuite) TestUnfreeze() {
	_, err := s.service.RecordDeath(s.ctx, s.estateID, s.dateOfDeath())
	s.Require().NoError(err)

	estate, err := s.service.Unfreeze(s.ctx, s.estateID, "death certificate issued for the wrong person")
	s.Require().NoError(err)
	s.Equal(models.EstateActive, estate.Status)
	s.Nil(estate.DateOfDeath)
	s.Len(s.publisher.ByKind(events.KindEstateUnfrozen), 1)
}

func (s *EstateServiceSuite) TestAddMemberOwnership() {
	assetID := id.NewAssetID()
	member := models.NewAssetMember(assetID, s.kes(1_000_000))

	estate, err := s.service.AddMember(s.ctx, s.estateID, member)
	s.Require().NoError(err)
	s.Equal(uint64(1), estate.Revision)

	s.Run("the same reference cannot join a second estate", func() {
		otherID := id.NewEstateID()
		_, err := s.service.CreateEstate(s.ctx, otherID, id.NewPersonID(), "KES")
		s.Require().NoError(err)
		_, err = s.service.Activate(s.ctx, otherID)
		s.Require().NoError(err)

		_, err = s.service.AddMember(s.ctx, otherID, member)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("removal releases the claim", func() {
		_, err := s.service.RemoveMember(s.ctx, s.estateID, models.MemberAsset, assetID.String())
		s.Require().NoError(err)

		otherID := id.NewEstateID()
		_, err = s.service.CreateEstate(s.ctx, otherID, id.NewPersonID(), "KES")
		s.Require().NoError(err)
		_, err = s.service.Activate(s.ctx, otherID)
		s.Require().NoError(err)

		_, err = s.service.AddMember(s.ctx, otherID, member)
		s.Require().NoError(err)
	})
}

func (s *EstateServiceSuite) TestRunHotchpot() {
	subject := s.recordGift(true, 250_000, s.dateOfDeath().AddDate(-3, 0, 0))
	notSubject := s.recordGift(false, 80_000, s.dateOfDeath().AddDate(-1, 0, 0))

	s.Run("requires a recorded date of death", func() {
		_, err := s.service.RunHotchpot(s.ctx, s.estateID, 0)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("calculates eligible gifts and skips the rest", func() {
		_, err := s.service.RecordDeath(s.ctx, s.estateID, s.dateOfDeath())
		s.Require().NoError(err)

		updated, err := s.service.RunHotchpot(s.ctx, s.estateID, 0)
		s.Require().NoError(err)
		s.Require().Len(updated, 1)
		s.Equal(subject.ID, updated[0].ID)

		// Zero inflation leaves the value unchanged.
		s.Require().NotNil(updated[0].InflationAdjustedValue)
		s.True(updated[0].InflationAdjustedValue.Equal(s.kes(250_000)))

		unchanged, err := s.gifts.GetGift(s.ctx, notSubject.ID)
		s.Require().NoError(err)
		s.Nil(unchanged.InflationAdjustedValue)
	})
}

func (s *EstateServiceSuite) TestReviewDebts() {
	stale := s.recordDebt(40_000, s.now.AddDate(-7, 0, 0))
	s.recordDebt(60_000, s.now.AddDate(-1, 0, 0))

	barred, err := s.service.ReviewDebts(s.ctx, s.estateID, s.now)
	s.Require().NoError(err)
	s.Require().Len(barred, 1)
	s.Equal(stale.ID, barred[0].ID)
	s.Equal(debtmodels.DebtStatuteBarred, barred[0].Status)
	s.Len(s.publisher.ByKind(events.KindDebtStatuteBarred), 1)
}

func (s *EstateServiceSuite) TestValidateBequests() {
	s.addPercentageBequest(60)
	s.addPercentageBequest(60)
	s.addResiduaryBequest()

	s.Run("detects the overflow and publishes the report fact", func() {
		report, err := s.service.ValidateBequests(s.ctx, s.estateID, conflict.Facts{})
		s.Require().NoError(err)

		overflow := false
		for _, c := range report.Conflicts {
			if c.Type == conflict.TypePercentageOverflow {
				overflow = true
			}
		}
		s.True(overflow)
		s.Len(s.publisher.ByKind(events.KindConflictReportGenerated), 1)
	})

	s.Run("an unchanged estate is served from cache", func() {
		_, err := s.service.ValidateBequests(s.ctx, s.estateID, conflict.Facts{})
		s.Require().NoError(err)
		s.Len(s.publisher.ByKind(events.KindConflictReportGenerated), 1)
	})

	s.Run("a membership change invalidates the cached report", func() {
		_, err := s.service.AddMember(s.ctx, s.estateID, models.NewDebtMember(id.NewDebtID()))
		s.Require().NoError(err)

		_, err = s.service.ValidateBequests(s.ctx, s.estateID, conflict.Facts{})
		s.Require().NoError(err)
		s.Len(s.publisher.ByKind(events.KindConflictReportGenerated), 2)
	})

	s.Run("a bequest created after a cached report yields a fresh report", func() {
		s.addPercentageBequest(10)

		report, err := s.service.ValidateBequests(s.ctx, s.estateID, conflict.Facts{})
		s.Require().NoError(err)
		s.Len(s.publisher.ByKind(events.KindConflictReportGenerated), 3)

		var overflow decimal.Decimal
		for _, c := range report.Conflicts {
			if c.Type == conflict.TypePercentageOverflow {
				overflow = c.Overflow
			}
		}
		s.True(overflow.Equal(decimal.NewFromInt(30)), overflow.String())
	})

	s.Run("different facts are never served a cached report", func() {
		_, err := s.service.ValidateBequests(s.ctx, s.estateID, conflict.Facts{
			ShareJustificationDocumented: true,
		})
		s.Require().NoError(err)
		s.Len(s.publisher.ByKind(events.KindConflictReportGenerated), 4)
	})
}

func (s *EstateServiceSuite) TestNetDistributableValue() {
	_, err := s.service.AddMember(s.ctx, s.estateID, models.NewAssetMember(id.NewAssetID(), s.kes(1_000_000)))
	s.Require().NoError(err)

	gift := s.recordGift(true, 100_000, s.dateOfDeath().AddDate(-2, 0, 0))
	s.recordDebt(200_000, s.now.AddDate(-1, 0, 0))

	_, err = s.service.RecordDeath(s.ctx, s.estateID, s.dateOfDeath())
	s.Require().NoError(err)
	_, err = s.service.RunHotchpot(s.ctx, s.estateID, 0)
	s.Require().NoError(err)
	_, err = s.gifts.IncludeInHotchpot(s.ctx, gift.ID)
	s.Require().NoError(err)

	s.Run("assets plus included gifts minus outstanding debts", func() {
		net, err := s.service.NetDistributableValue(s.ctx, s.estateID)
		s.Require().NoError(err)
		s.True(net.Equal(s.kes(900_000)), net.String())
	})

	s.Run("an insolvent estate reports zero", func() {
		s.recordDebt(5_000_000, s.now.AddDate(-1, 0, 0))

		net, err := s.service.NetDistributableValue(s.ctx, s.estateID)
		s.Require().NoError(err)
		s.True(net.IsZero())
	})
}

func (s *EstateServiceSuite) TestAuthorizeDistribution() {
	_, err := s.service.AddMember(s.ctx, s.estateID, models.NewAssetMember(id.NewAssetID(), s.kes(400_000)))
	s.Require().NoError(err)
	_, err = s.service.RecordDeath(s.ctx, s.estateID, s.dateOfDeath())
	s.Require().NoError(err)

	s.Run("missing tax gate blocks distribution", func() {
		_, err := s.service.AuthorizeDistribution(s.ctx, s.estateID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeLegalRuleViolation))
	})

	s.Run("an exempt gate releases the net value", func() {
		_, err := s.taxes.OpenGate(s.ctx, s.estateID)
		s.Require().NoError(err)

		assessment, err := taxmodels.NewAssessment(s.kes(120_000), s.kes(0), s.kes(0), s.kes(0))
		s.Require().NoError(err)
		_, err = s.taxes.RecordAssessment(s.ctx, s.estateID, assessment)
		s.Require().NoError(err)
		_, err = s.taxes.MarkExempt(s.ctx, s.estateID, "estate below small-estate threshold")
		s.Require().NoError(err)

		net, err := s.service.AuthorizeDistribution(s.ctx, s.estateID)
		s.Require().NoError(err)
		s.True(net.Equal(s.kes(400_000)), net.String())
	})

	s.Run("a distributed estate cannot authorize again", func() {
		_, err := s.service.Advance(s.ctx, s.estateID, models.EstateProbate)
		s.Require().NoError(err)
		_, err = s.service.Advance(s.ctx, s.estateID, models.EstateAdministration)
		s.Require().NoError(err)
		_, err = s.service.MarkDistributed(s.ctx, s.estateID)
		s.Require().NoError(err)

		_, err = s.service.AuthorizeDistribution(s.ctx, s.estateID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})
}
