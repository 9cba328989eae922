package ports

import "context"

// AccountClient is the port to the external account system that owns plan
// entitlements. Verification delegates the actual upgrade here.
type AccountClient interface {
	// UpgradePlan moves the user to the paid plan. The account API treats the
	// upgrade as idempotent, so duplicate redirects and retries are safe.
	UpgradePlan(ctx context.Context, userID string) error
}
