package kyc

import "context"

// Verifier answers whether the KYC subsystem has cleared a user.
type Verifier interface {
	IsVerified(ctx context.Context, userID string) (bool, error)
}

// Allow treats every user as verified; used when KYC is enforced upstream.
type Allow struct{}

func (Allow) IsVerified(context.Context, string) (bool, error) { return true, nil }

// Func adapts a function to Verifier.
type Func func(ctx context.Context, userID string) (bool, error)

func (f Func) IsVerified(ctx context.Context, userID string) (bool, error) { return f(ctx, userID) }
