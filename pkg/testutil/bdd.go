package testutil

import "testing"

// Given, When, and Then wrap t.Run so workflow tests read as a narrative.
// A verification chain exercises several actors in sequence and the nested
// subtest names keep failure output legible.
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
