package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	bequeststore "urithi/internal/bequest/store"
	debtservice "urithi/internal/debt/service"
	debtstore "urithi/internal/debt/store"
	estatemodels "urithi/internal/estate/models"
	estateservice "urithi/internal/estate/service"
	estatestore "urithi/internal/estate/store"
	giftservice "urithi/internal/gift/service"
	giftstore "urithi/internal/gift/store"
	taxservice "urithi/internal/tax/service"
	taxstore "urithi/internal/tax/store"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
	"urithi/pkg/testutil"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	threshold, err := money.NewFromFloat(500_000, "KES")
	require.NoError(t, err)

	gifts := giftservice.New(giftstore.NewInMemory())
	debts := debtservice.New(debtstore.NewInMemory())
	taxes := taxservice.New(taxstore.NewInMemory(), threshold)
	estates := estateservice.New(estatestore.NewInMemory(), gifts, debts, taxes, bequeststore.NewInMemory())

	r := chi.NewRouter()
	New(estates, taxes, nil).Register(r)
	return r
}

func TestEstateLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	var estate estatemodels.Estate

	testutil.Given(t, "a newly created estate", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/estates", map[string]string{
			"deceased_id": "0d4f3a96-5f6a-4f0f-9b1d-2b7c1a6e8d10",
			"currency":    "KES",
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)
		estate = *testutil.UnmarshalResponse[estatemodels.Estate](t, rr)
		require.Equal(t, estatemodels.EstatePlanning, estate.Status)
	})

	testutil.When(t, "the estate is activated and a death is recorded", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodPost, "/estates/"+estate.ID.String()+"/activate"))
		testutil.AssertStatusOK(t, rr)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/estates/"+estate.ID.String()+"/death",
			map[string]string{"date_of_death": "2024-05-15"})
		req = testutil.WithActor(req, "executor:jane")
		req = testutil.WithRequestTime(req, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
		rr = testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
	})

	testutil.Then(t, "the estate reads back frozen", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodGet, "/estates/"+estate.ID.String()))
		testutil.AssertStatusOK(t, rr)

		got := testutil.UnmarshalResponse[estatemodels.Estate](t, rr)
		require.Equal(t, estatemodels.EstateFrozen, got.Status)
		require.NotNil(t, got.DateOfDeath)
	})
}

func TestEstateErrorMapping(t *testing.T) {
	router := newTestRouter(t)

	t.Run("malformed date of death is invalid input", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/estates/5f9e0a40-0a88-49a3-9a0e-3f2c6d4b8a21/death",
			map[string]string{"date_of_death": "15/05/2024"}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	t.Run("unknown estate is not found", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet,
			"/estates/5f9e0a40-0a88-49a3-9a0e-3f2c6d4b8a21"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	t.Run("distribution before tax clearance is a legal rule violation", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/estates", map[string]string{
			"deceased_id": "0d4f3a96-5f6a-4f0f-9b1d-2b7c1a6e8d10",
			"currency":    "KES",
		})
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)
		estate := testutil.UnmarshalResponse[estatemodels.Estate](t, rr)

		rr = testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodPost, "/estates/"+estate.ID.String()+"/activate"))
		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/estates/"+estate.ID.String()+"/members",
			map[string]any{"kind": "ASSET", "ref_id": "9b2e6c1d-7a54-4a3b-8f1e-6d2c5b4a3f90",
				"declared_value": map[string]string{"amount": "750000", "currency": "KES"}}))
		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/estates/"+estate.ID.String()+"/death",
			map[string]string{"date_of_death": "2024-05-15"}))
		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodPost, "/estates/"+estate.ID.String()+"/distribution"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, string(dErrors.CodeLegalRuleViolation))
	})
}
