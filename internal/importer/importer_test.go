package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"producermap/internal/domain"
)

type stubListingRepo struct {
	items []domain.Listing
	err   error
}

func (s *stubListingRepo) Upsert(_ context.Context, l domain.Listing) error {
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, l)
	return nil
}

type stubProductRepo struct {
	items []domain.Product
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) error {
	s.items = append(s.items, p)
	return nil
}

const header = "id,name,lat,lng,product_type,certification,purchase_mode,production_method,additional_service,availability,images,is_active,product.id,product.name,product.price_cents,product.unit\n"

func TestCSVImporter_Run(t *testing.T) {
	csvData := header +
		`1,Ferme des Lilas,45.76,4.83,Légumes;Fruits,Bio,Vente à la ferme,,,Toute l'année,https://example.com/a.jpg,,10,Panier,1500,panier
,,,,,,,,,,https://example.com/b.jpg,,11,Pommes,350,kg
2,Rucher du Vercors,45.05,5.45,Miel,,,,,,,false,,,,
`
	listings := &stubListingRepo{}
	products := &stubProductRepo{}
	res, err := NewCSVImporter(strings.NewReader(csvData), listings, products).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if res.Listings != 2 || res.Products != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	first := listings.items[0]
	if first.ID != 1 || first.Name != "Ferme des Lilas" || !first.IsActive {
		t.Fatalf("unexpected listing: %+v", first)
	}
	if len(first.Images) != 2 {
		t.Fatalf("expected 2 images, got %v", first.Images)
	}
	if !first.TagsFor(domain.CategoryProductType).Has("Fruits") || !first.TagsFor(domain.CategoryCertification).Has("Bio") {
		t.Fatalf("unexpected tags: %+v", first.Tags)
	}
	if _, ok := first.Tags[domain.CategoryProductionMethod]; ok {
		t.Fatalf("empty category should be absent")
	}
	if listings.items[1].IsActive {
		t.Fatalf("expected second listing inactive")
	}

	if products.items[1].VendorID != 1 || products.items[1].VendorName != "Ferme des Lilas" || products.items[1].PriceCents != 350 {
		t.Fatalf("unexpected product: %+v", products.items[1])
	}
}

func TestCSVImporter_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad id":           header + "x,Ferme,45,4,,,,,,,,,,,,\n",
		"missing name":     header + "1,,45,4,,,,,,,,,,,,\n",
		"bad coordinates":  header + "1,Ferme,95,4,,,,,,,,,,,,\n",
		"orphan row":       header + ",,,,,,,,,,https://example.com/a.jpg,,,,,\n",
		"bad product":      header + "1,Ferme,45,4,,,,,,,,,10,Panier,abc,\n",
		"missing id column": "name,lat,lng\nFerme,45,4\n",
	}
	for name, data := range cases {
		_, err := NewCSVImporter(strings.NewReader(data), &stubListingRepo{}, &stubProductRepo{}).Run(context.Background())
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("%s: expected invalid request, got %v", name, err)
		}
	}
}

func TestCSVImporter_WriterError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewCSVImporter(strings.NewReader(header+"1,Ferme,45,4,,,,,,,,,,,,\n"), &stubListingRepo{err: boom}, nil).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
}

func TestCSVImporter_NoProductsWriter(t *testing.T) {
	listings := &stubListingRepo{}
	res, err := NewCSVImporter(strings.NewReader(header+"1,Ferme,45,4,,,,,,,,,10,Panier,100,\n"), listings, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if res.Listings != 1 || res.Products != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
