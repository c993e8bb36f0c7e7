package cart

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

var (
	testNow     = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	testBilling = Billing{TaxBps: pricing.DefaultTaxBps, Currency: "INR"}
)

func mustStart(t *testing.T, name string) *Session {
	t.Helper()
	s, err := Start(name, testNow)
	require.NoError(t, err)
	return s
}

func money(t *testing.T, v string) pricing.Money {
	t.Helper()
	m, err := pricing.Parse(v)
	require.NoError(t, err)
	return m
}

func TestStartTrimsAndRejectsBlankNames(t *testing.T) {
	s := mustStart(t, "  Asha ")
	require.Equal(t, "Asha", s.CustomerName)
	require.Equal(t, StateActive, s.State())
	require.Empty(t, s.Items)
	require.True(t, s.RunningTotal.IsZero())

	_, err := Start("   ", testNow)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestScenarioTwoItemsFinalized(t *testing.T) {
	c := catalog.Default()
	s := mustStart(t, "Asha")

	line, err := s.AddItem(c, "rice", 2)
	require.NoError(t, err)
	require.Equal(t, "Rice", line.Name)
	require.True(t, s.RunningTotal.Equal(pricing.FromInt(100)))

	_, err = s.AddItem(c, "oil", 1)
	require.NoError(t, err)
	require.True(t, s.RunningTotal.Equal(pricing.FromInt(210)))

	inv, err := s.Finalize(testBilling, testNow.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "210.00", inv.Subtotal.StringFixed(2))
	require.Equal(t, "10.50", inv.TaxAmount.StringFixed(2))
	require.Equal(t, "220.50", inv.GrandTotal.StringFixed(2))
	require.Equal(t, "Asha", inv.CustomerName)
	require.Len(t, inv.Items, 2)
	require.NotEmpty(t, inv.Number)
	require.Equal(t, StateFinalized, s.State())
	require.NotNil(t, s.Invoice)
}

func TestScenarioMixedCaseKey(t *testing.T) {
	s := mustStart(t, "Ravi")
	line, err := s.AddItem(catalog.Default(), "Paneer", 1)
	require.NoError(t, err)
	require.Equal(t, "paneer", line.Key)
	require.True(t, s.RunningTotal.Equal(pricing.FromInt(400)))

	inv, err := s.Finalize(testBilling, testNow)
	require.NoError(t, err)
	require.True(t, inv.TaxAmount.Equal(pricing.FromInt(20)))
	require.True(t, inv.GrandTotal.Equal(pricing.FromInt(420)))
}

func TestScenarioFinalizeEmptyCart(t *testing.T) {
	s := mustStart(t, "X")
	_, err := s.Finalize(testBilling, testNow)
	require.ErrorIs(t, err, ErrEmptyCart)
	require.Nil(t, s.Invoice)
	require.True(t, s.Active)
}

func TestScenarioUnknownItem(t *testing.T) {
	s := mustStart(t, "Asha")
	_, err := s.AddItem(catalog.Default(), "gold", 1)
	require.ErrorIs(t, err, ErrItemNotFound)
	require.Empty(t, s.Items)
	require.True(t, s.RunningTotal.IsZero())
}

func TestAddRejectsNonPositiveQuantities(t *testing.T) {
	s := mustStart(t, "Asha")
	for _, qty := range []int{0, -1} {
		_, err := s.AddItem(catalog.Default(), "rice", qty)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
	require.Empty(t, s.Items)
}

func TestAddChecksQuantityBeforeLookup(t *testing.T) {
	s := mustStart(t, "Asha")
	_, err := s.AddItem(catalog.Default(), "gold", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDuplicateAddsStaySeparate(t *testing.T) {
	s := mustStart(t, "Asha")
	for i := 0; i < 2; i++ {
		_, err := s.AddItem(catalog.Default(), "soap", 1)
		require.NoError(t, err)
	}
	require.Len(t, s.Items, 2)
	require.True(t, s.RunningTotal.Equal(pricing.FromInt(40)))
}

func TestRemoveOutOfRangeLeavesCartUnchanged(t *testing.T) {
	s := mustStart(t, "Asha")
	_, err := s.AddItem(catalog.Default(), "salt", 3)
	require.NoError(t, err)
	before := s.Clone()

	for _, idx := range []int{-1, 1, 5} {
		_, err := s.RemoveItem(idx)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
		require.Equal(t, before, s)
	}
}

func TestAddThenRemoveRestoresCart(t *testing.T) {
	c := catalog.Default()
	s := mustStart(t, "Asha")
	_, err := s.AddItem(c, "rice", 1)
	require.NoError(t, err)
	before := s.Clone()

	_, err = s.AddItem(c, "boost", 2)
	require.NoError(t, err)
	removed, err := s.RemoveItem(len(s.Items) - 1)
	require.NoError(t, err)
	require.Equal(t, "boost", removed.Key)
	require.Equal(t, before.Items, s.Items)
	require.True(t, before.RunningTotal.Equal(s.RunningTotal))
}

func TestRemoveShiftsLaterLines(t *testing.T) {
	c := catalog.Default()
	s := mustStart(t, "Asha")
	for _, key := range []string{"rice", "sugar", "salt"} {
		_, err := s.AddItem(c, key, 1)
		require.NoError(t, err)
	}
	_, err := s.RemoveItem(0)
	require.NoError(t, err)
	require.Equal(t, "sugar", s.Items[0].Key)
	require.Equal(t, "salt", s.Items[1].Key)
	require.True(t, s.RunningTotal.Equal(pricing.FromInt(50)))
}

func TestRunningTotalMatchesLinesForRandomSequences(t *testing.T) {
	c := catalog.Default()
	keys := make([]string, 0, c.Len())
	for _, it := range c.Items() {
		keys = append(keys, it.Key)
	}
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		s := mustStart(t, "Prop")
		for step := 0; step < 40; step++ {
			if rng.Intn(3) == 0 {
				_, _ = s.RemoveItem(rng.Intn(len(s.Items)+2) - 1)
			} else {
				_, err := s.AddItem(c, keys[rng.Intn(len(keys))], rng.Intn(5)+1)
				require.NoError(t, err)
			}
			require.True(t, s.RunningTotal.Equal(s.Total()), "round %d step %d", round, step)
		}
	}
}

func TestFinalizedSessionRejectsMutations(t *testing.T) {
	c := catalog.Default()
	s := mustStart(t, "Asha")
	_, err := s.AddItem(c, "maggi", 2)
	require.NoError(t, err)
	_, err = s.Finalize(testBilling, testNow)
	require.NoError(t, err)

	_, err = s.AddItem(c, "rice", 1)
	require.ErrorIs(t, err, ErrSessionInactive)
	_, err = s.RemoveItem(0)
	require.ErrorIs(t, err, ErrSessionInactive)
	_, err = s.Finalize(testBilling, testNow)
	require.ErrorIs(t, err, ErrSessionInactive)
	require.Len(t, s.Items, 1)
}

func TestNilSessionIsStateNone(t *testing.T) {
	var s *Session
	require.Equal(t, StateNone, s.State())
	_, err := s.AddItem(catalog.Default(), "rice", 1)
	require.ErrorIs(t, err, ErrSessionInactive)
}

func TestFinalizeReturnsIndependentCopy(t *testing.T) {
	s := mustStart(t, "Asha")
	_, err := s.AddItem(catalog.Default(), "colgate", 1)
	require.NoError(t, err)
	inv, err := s.Finalize(testBilling, testNow)
	require.NoError(t, err)

	inv.Items[0].Quantity = 50
	require.Equal(t, 1, s.Invoice.Items[0].Quantity)
	require.Equal(t, 1, s.Items[0].Quantity)
	require.True(t, inv.TaxAmount.Equal(money(t, "4.25")))
}

func TestKindClassifiesWrappedErrors(t *testing.T) {
	_, err := Start("", testNow)
	require.Equal(t, KindInvalidInput, Kind(err))
	require.Equal(t, KindInternal, Kind(nil))
	require.Equal(t, KindEmptyCart, Kind(ErrEmptyCart))
}
