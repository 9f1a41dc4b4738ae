package testutil

import "testing"

// Given, When and Then wrap t.Run with a narrated prefix so lifecycle tests
// read as scenarios ("Given a newly created estate", "When a death is
// recorded", "Then the estate reads back frozen").

func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
