package room

import "github.com/squadbid/gavel/internal/catalog"

// Budget ledger reads. The ledger is a view over room state, never a separate
// mutable entity: budgets change only on the sale path.

// RemainingBudget returns the member's unspent allowance.
func (r *Room) RemainingBudget(memberID string) (int, error) {
	m, ok := r.Members[memberID]
	if !ok {
		return 0, ErrNotFound
	}
	return m.Budget, nil
}

// Spent returns how much of the initial allowance the member has committed.
func (r *Room) Spent(memberID string) (int, error) {
	m, ok := r.Members[memberID]
	if !ok {
		return 0, ErrNotFound
	}
	return r.InitialAllowance - m.Budget, nil
}

// AcquiredPoints sums the catalog points of every lot the member has won.
func (r *Room) AcquiredPoints(memberID string) (int, error) {
	m, ok := r.Members[memberID]
	if !ok {
		return 0, ErrNotFound
	}
	total := 0
	for lotID := range m.Acquired {
		if lot, ok := catalog.LotByID(lotID); ok {
			total += lot.Points
		}
	}
	return total, nil
}
