package invariant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrall/leasehold/pkg/guard"
	"github.com/ferrall/leasehold/pkg/types"
)

type account struct {
	Balance  int64
	Reserved int64
}

// TestEnforcePasses tests that holding invariants report nothing
func TestEnforcePasses(t *testing.T) {
	acct := account{Balance: 100, Reserved: 20}

	err := Enforce(acct,
		Declare("balance is non-negative", func(a account) bool { return a.Balance >= 0 }),
		Declare("reserved does not exceed balance", func(a account) bool { return a.Reserved <= a.Balance }),
	)
	require.NoError(t, err)
}

// TestEnforceReportsFirstFailure tests that the first failing description wins
func TestEnforceReportsFirstFailure(t *testing.T) {
	acct := account{Balance: -5, Reserved: 10}

	err := Enforce(acct,
		Declare("balance is non-negative", func(a account) bool { return a.Balance >= 0 }),
		Declare("reserved does not exceed balance", func(a account) bool { return a.Reserved <= a.Balance }),
	)
	require.Error(t, err)

	var iv *types.InvariantViolationError
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, "balance is non-negative", iv.Description)
}

// TestEnforceNoInvariants tests that an empty declaration list always passes
func TestEnforceNoInvariants(t *testing.T) {
	require.NoError(t, Enforce(account{}))
}

// TestEnforceInsideUpdate tests the intended transaction discipline: mutate,
// then enforce before releasing write access
func TestEnforceInsideUpdate(t *testing.T) {
	g := guard.New(account{Balance: 50})

	err := g.Update(func(a *account) error {
		a.Balance -= 80
		return Enforce(*a,
			Declare("balance is non-negative", func(a account) bool { return a.Balance >= 0 }),
		)
	})
	require.Error(t, err)

	var iv *types.InvariantViolationError
	require.ErrorAs(t, err, &iv)

	// no rollback: the mutation sticks even though the invariant failed
	var got account
	require.NoError(t, g.View(func(a account) { got = a }))
	assert.Equal(t, int64(-30), got.Balance)
}
