package health

import (
	"context"
	"errors"
	"fmt"
)

// Pinger is the slice of the game store the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database returns a [Checker] that probes the game store.
func Database(p Pinger) Checker {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("database ping: %w", err)
		}
		return nil
	}
}

// CatalogInfo reports the size of the loaded character catalog.
type CatalogInfo interface {
	Len() int
}

// Catalog returns a [Checker] that fails when no characters are loaded.
// A bot with an empty catalog can answer commands but cannot run games,
// so it should not be marked ready.
func Catalog(c CatalogInfo) Checker {
	return func(context.Context) error {
		if c.Len() == 0 {
			return errors.New("character catalog is empty")
		}
		return nil
	}
}
