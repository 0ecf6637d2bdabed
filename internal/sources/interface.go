package sources

import "context"

// Source interface defines the contract for every place pasted text comes from
type Source interface {
	GetName() string
	Read(ctx context.Context) (string, error)
	IsEnabled() bool
}
