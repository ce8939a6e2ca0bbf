// Package ledger is the point transfer engine: it executes balanced sets of
// balance deltas as one atomic unit and appends the matching audit rows.
// All balance mutation in the system goes through here, except the weekly
// reset which intentionally performs an absolute reallocation (see jobs).
package ledger

// AllowedPoints is the fixed set of denominations a post may attach.
var AllowedPoints = []int{50, 100, 200, 500}

const (
	// LikeCost is the fixed price of one endorsement.
	LikeCost = 1.0

	// WeeklyAllocation is the allowance every user is reset to each period.
	WeeklyAllocation = 400.0

	// InitialAllocation is the balance granted at account creation.
	InitialAllocation = 400.0
)

// IsAllowedPoints returns true iff p is a valid post denomination.
func IsAllowedPoints(p int) bool {
	for _, allowed := range AllowedPoints {
		if p == allowed {
			return true
		}
	}
	return false
}
