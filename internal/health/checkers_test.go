package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeCatalog struct {
	n int
}

func (f fakeCatalog) Len() int { return f.n }

func TestDatabaseChecker(t *testing.T) {
	t.Parallel()

	if err := Database(fakePinger{})(context.Background()); err != nil {
		t.Errorf("healthy store: checker = %v, want nil", err)
	}

	pingErr := errors.New("connection refused")
	err := Database(fakePinger{err: pingErr})(context.Background())
	if err == nil {
		t.Fatal("failing store: checker = nil, want error")
	}
	if !errors.Is(err, pingErr) {
		t.Errorf("checker error %v does not wrap the ping error", err)
	}
}

func TestCatalogChecker(t *testing.T) {
	t.Parallel()

	if err := Catalog(fakeCatalog{n: 3})(context.Background()); err != nil {
		t.Errorf("loaded catalog: checker = %v, want nil", err)
	}
	if err := Catalog(fakeCatalog{n: 0})(context.Background()); err == nil {
		t.Error("empty catalog: checker = nil, want error")
	}
}
