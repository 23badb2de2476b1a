// Package seed provides demo producers across France with tags and
// products. Writes are upserts, so Apply can run repeatedly.
package seed

import (
	"context"
	"fmt"

	"producermap/internal/domain"
)

type ListingWriter interface {
	Upsert(ctx context.Context, l domain.Listing) error
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) error
}

type town struct {
	Name string
	Lat  float64
	Lng  float64
}

var towns = []town{
	{"Lyon", 45.764, 4.8357},
	{"Bordeaux", 44.8378, -0.5792},
	{"Nantes", 47.2184, -1.5536},
	{"Toulouse", 43.6047, 1.4442},
	{"Lille", 50.6292, 3.0573},
	{"Strasbourg", 48.5734, 7.7521},
	{"Rennes", 48.1173, -1.6778},
	{"Montpellier", 43.6108, 3.8767},
	{"Dijon", 47.322, 5.0415},
	{"Clermont-Ferrand", 45.7772, 3.087},
	{"Annecy", 45.8992, 6.1294},
	{"Tours", 47.3941, 0.6848},
	{"Avignon", 43.9493, 4.8055},
	{"Rouen", 49.4432, 1.0999},
	{"Pau", 43.2951, -0.3708},
}

var farmNames = []string{"Ferme", "Domaine", "Jardins"}

var tagValues = map[domain.Category][]string{
	domain.CategoryProductType:       {"Légumes", "Fruits", "Fromages", "Miel", "Viandes", "Vins"},
	domain.CategoryCertification:     {"Bio", "Label Rouge", "AOP", "Nature & Progrès"},
	domain.CategoryPurchaseMode:      {"Vente à la ferme", "Marché", "Panier", "Livraison"},
	domain.CategoryProductionMethod:  {"Agriculture biologique", "Raisonnée", "Permaculture"},
	domain.CategoryAdditionalService: {"Visite", "Cueillette", "Dégustation"},
	domain.CategoryAvailability:      {"Toute l'année", "Saisonnier", "Week-end"},
}

var productsByType = map[string][]string{
	"Légumes":  {"Panier de légumes", "Pommes de terre"},
	"Fruits":   {"Pommes", "Confiture"},
	"Fromages": {"Tomme", "Chèvre frais"},
	"Miel":     {"Miel de fleurs", "Miel de châtaignier"},
	"Viandes":  {"Colis de veau", "Saucisson"},
	"Vins":     {"Rouge", "Blanc"},
}

// Listings returns the demo listings. Every tenth listing is inactive.
func Listings() []domain.Listing {
	out := make([]domain.Listing, 0, len(towns)*len(farmNames))
	id := int64(0)
	for ti, t := range towns {
		for fi, farm := range farmNames {
			id++
			n := ti*len(farmNames) + fi
			l := domain.Listing{
				ID:   id,
				Name: fmt.Sprintf("%s de %s %d", farm, t.Name, fi+1),
				Position: domain.LatLng{
					Lat: t.Lat + float64(fi)*0.03,
					Lng: t.Lng - float64(fi)*0.04,
				},
				Tags:     make(map[domain.Category]domain.TagSet, len(domain.Categories)),
				Images:   []string{fmt.Sprintf("https://images.example.com/producers/%d.jpg", id)},
				IsActive: id%10 != 0,
			}
			for ci, c := range domain.Categories {
				values := tagValues[c]
				first := values[(n+ci)%len(values)]
				set := domain.NewTagSet(first)
				if n%2 == 0 {
					set = domain.NewTagSet(first, values[(n+ci+1)%len(values)])
				}
				// Leave some categories untagged.
				if (n+ci)%5 == 4 {
					continue
				}
				l.Tags[c] = set
			}
			out = append(out, l)
		}
	}
	return out
}

// Products returns two products per listing, named after its first product
// type. Product ids are listingID*100+k.
func Products(listings []domain.Listing) []domain.Product {
	out := make([]domain.Product, 0, len(listings)*2)
	for _, l := range listings {
		names := productsByType["Légumes"]
		if types := l.TagsFor(domain.CategoryProductType).Values(); len(types) > 0 {
			if n, ok := productsByType[types[0]]; ok {
				names = n
			}
		}
		for k, name := range names {
			out = append(out, domain.Product{
				ID:         l.ID*100 + int64(k+1),
				VendorID:   l.ID,
				VendorName: l.Name,
				Name:       name,
				PriceCents: 250 + (l.ID%7)*100 + int64(k)*150,
				Unit:       "pièce",
			})
		}
	}
	return out
}

// Result counts what Apply wrote.
type Result struct {
	Listings int
	Products int
}

// Apply writes the demo listings and their products.
func Apply(ctx context.Context, listings ListingWriter, products ProductWriter) (Result, error) {
	var res Result
	ls := Listings()
	for _, l := range ls {
		if err := listings.Upsert(ctx, l); err != nil {
			return res, fmt.Errorf("upsert listing %d: %w", l.ID, err)
		}
		res.Listings++
	}
	if products == nil {
		return res, nil
	}
	for _, p := range Products(ls) {
		if err := products.Upsert(ctx, p); err != nil {
			return res, fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
		res.Products++
	}
	return res, nil
}
