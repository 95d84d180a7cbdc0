package addresses

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
)

func TestFindOwned(t *testing.T) {
	conn := dbtest.Open(t, "addresses")
	owner := dbtest.SeedUser(t, conn)
	other := dbtest.SeedUser(t, conn)
	addr := dbtest.SeedAddress(t, conn, owner.ID)

	repo := NewRepository(conn)
	ctx := context.Background()

	got, err := repo.FindOwned(ctx, addr.ID, owner.ID)
	if err != nil {
		t.Fatalf("find owned: %v", err)
	}
	if got.ID != addr.ID || got.City != "Springfield" {
		t.Fatalf("unexpected address %+v", got)
	}

	if _, err := repo.FindOwned(ctx, addr.ID, other.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	if _, err := repo.FindOwned(ctx, addr.ID+100, owner.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found for missing id, got %v", err)
	}
}

func TestWithTxNilKeepsRepository(t *testing.T) {
	repo := NewRepository(nil)
	if repo.WithTx(nil) != repo {
		t.Fatal("expected same repository when tx is nil")
	}
}
