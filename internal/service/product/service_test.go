package product

import (
	"context"
	"errors"
	"testing"

	"producermap/internal/domain"
	productrepo "producermap/internal/repository/product"
)

func TestService_ListByVendor(t *testing.T) {
	svc := New(productrepo.NewMemory(
		domain.Product{ID: 2, VendorID: 1, Name: "Miel", PriceCents: 900},
		domain.Product{ID: 1, VendorID: 1, Name: "Pommes", PriceCents: 300},
		domain.Product{ID: 3, VendorID: 2, Name: "Tomme", PriceCents: 1200},
	))
	ctx := context.Background()

	got, err := svc.ListByVendor(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 {
		t.Fatalf("unexpected products: %+v", got)
	}
	empty, err := svc.ListByVendor(ctx, 9)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", empty, err)
	}
	if _, err := svc.ListByVendor(ctx, 0); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestService_GetByID(t *testing.T) {
	svc := New(productrepo.NewMemory(
		domain.Product{ID: 1, VendorID: 1, Name: "Pommes", PriceCents: 300},
		domain.Product{ID: 2, Name: "Orphelin", PriceCents: 100},
	))
	ctx := context.Background()

	if p, err := svc.GetByID(ctx, 1); err != nil || p.Name != "Pommes" {
		t.Fatalf("get: %v %+v", err, p)
	}
	if _, err := svc.GetByID(ctx, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for product without vendor, got %v", err)
	}
	if _, err := svc.GetByID(ctx, 3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.GetByID(ctx, -1); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}
