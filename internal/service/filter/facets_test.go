package filter

import (
	"testing"

	"producermap/internal/domain"
)

func TestFacets(t *testing.T) {
	listings := []domain.Listing{
		{ID: 1, IsActive: true, Tags: map[domain.Category]domain.TagSet{domain.CategoryProductType: domain.NewTagSet("Fruits", "Légumes")}},
		{ID: 2, IsActive: true, Tags: map[domain.Category]domain.TagSet{domain.CategoryProductType: domain.NewTagSet("Légumes")}},
		{ID: 3, IsActive: false, Tags: map[domain.Category]domain.TagSet{domain.CategoryProductType: domain.NewTagSet("Miel")}},
	}
	state := Toggle(domain.NewFilterState(), domain.CategoryCertification, "Bio")

	got := Facets(listings, state)
	pt := got[domain.CategoryProductType]
	if len(pt) != 2 || pt[0].Value != "Légumes" || pt[0].Count != 2 || pt[1].Value != "Fruits" {
		t.Fatalf("unexpected product_type facets: %+v", pt)
	}
	cert := got[domain.CategoryCertification]
	if len(cert) != 1 || cert[0].Count != 0 || !cert[0].Selected {
		t.Fatalf("expected selected zero-count facet, got %+v", cert)
	}
	if len(got) != len(domain.Categories) {
		t.Fatalf("expected every category, got %d", len(got))
	}
}
