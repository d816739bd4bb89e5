package lock

import (
	"context"
	"sort"
)

// Release frees everything obtained by one Acquire call. It is safe to call once.
type Release func()

// Locker grants exclusive access to a set of entity keys. Implementations take
// the keys in ascending order so two callers sharing any key can never deadlock,
// and give up with apperr.ErrOperationTimeout after a bounded wait.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (Release, error)
}

func LoanKey(loanID string) string    { return "loan:" + loanID }
func WalletKey(ownerID string) string { return "wallet:" + ownerID }

// BorrowerKey guards loan submission so a borrower never ends up with two
// pending loans.
func BorrowerKey(borrowerID string) string { return "borrower:" + borrowerID }

// ordered returns keys sorted ascending without duplicates or empties.
func ordered(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Noop grants every request immediately. Correctness then rests on the
// storage version checks alone.
type Noop struct{}

func (Noop) Acquire(context.Context, ...string) (Release, error) { return func() {}, nil }
