package payment

import "context"

type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway creates payment intents with the processor. Amounts are in minor
// currency units (cents).
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
}
