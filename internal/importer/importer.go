package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"producermap/internal/domain"
)

type ListingWriter interface {
	Upsert(ctx context.Context, l domain.Listing) error
}

type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) error
}

// CSVImporter reads producer CSV exports and inserts/updates listings and
// their products. A row with an id starts a listing; following rows without
// an id add images or products to it.
type CSVImporter struct {
	reader   *csv.Reader
	listings ListingWriter
	products ProductWriter
}

// NewCSVImporter builds an importer. products may be nil, in which case
// product columns are ignored.
func NewCSVImporter(r io.Reader, listings ListingWriter, products ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{reader: csvr, listings: listings, products: products}
}

// Result counts what a run wrote.
type Result struct {
	Listings int
	Products int
}

type csvRow struct {
	line     int
	ID       string
	Name     string
	Lat      string
	Lng      string
	Tags     map[domain.Category][]string
	Images   []string
	Active   string
	Products []productRow
}

type productRow struct {
	line  int
	ID    string
	Name  string
	Cents string
	Unit  string
}

// Run parses CSV rows and upserts listings grouped by listing id.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result
	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["id"]; !ok {
		return res, fmt.Errorf("%w: missing id column", domain.ErrInvalidRequest)
	}

	var current *csvRow
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index, line)
		if row == nil {
			continue
		}
		if row.ID != "" {
			if current != nil {
				if err := i.save(ctx, current, &res); err != nil {
					return res, err
				}
			}
			current = row
			continue
		}

		// Continuation rows belong to the current listing.
		if current == nil {
			return res, fmt.Errorf("%w: line %d: continuation row before any listing", domain.ErrInvalidRequest, line)
		}
		current.Images = append(current.Images, row.Images...)
		current.Products = append(current.Products, row.Products...)
	}

	if current != nil {
		if err := i.save(ctx, current, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow, res *Result) error {
	l, err := row.listing()
	if err != nil {
		return err
	}
	if err := i.listings.Upsert(ctx, l); err != nil {
		return fmt.Errorf("upsert listing %d: %w", l.ID, err)
	}
	res.Listings++

	if i.products == nil {
		return nil
	}
	for _, pr := range row.Products {
		p, err := pr.product(l)
		if err != nil {
			return err
		}
		if err := i.products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
		res.Products++
	}
	return nil
}

func (r *csvRow) listing() (domain.Listing, error) {
	id, err := strconv.ParseInt(r.ID, 10, 64)
	if err != nil || id <= 0 {
		return domain.Listing{}, fmt.Errorf("%w: line %d: invalid id %q", domain.ErrInvalidRequest, r.line, r.ID)
	}
	if r.Name == "" {
		return domain.Listing{}, fmt.Errorf("%w: line %d: name required", domain.ErrInvalidRequest, r.line)
	}
	lat, errLat := strconv.ParseFloat(r.Lat, 64)
	lng, errLng := strconv.ParseFloat(r.Lng, 64)
	pos := domain.LatLng{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !pos.Valid() {
		return domain.Listing{}, fmt.Errorf("%w: line %d: invalid coordinates %q,%q", domain.ErrInvalidRequest, r.line, r.Lat, r.Lng)
	}
	active := true
	if r.Active != "" {
		active, err = strconv.ParseBool(r.Active)
		if err != nil {
			return domain.Listing{}, fmt.Errorf("%w: line %d: invalid is_active %q", domain.ErrInvalidRequest, r.line, r.Active)
		}
	}

	l := domain.Listing{
		ID:       id,
		Name:     r.Name,
		Position: pos,
		Tags:     make(map[domain.Category]domain.TagSet, len(r.Tags)),
		Images:   append([]string{}, r.Images...),
		IsActive: active,
	}
	for c, values := range r.Tags {
		if set := domain.NewTagSet(values...); len(set) > 0 {
			l.Tags[c] = set
		}
	}
	return l, nil
}

func (p productRow) product(l domain.Listing) (domain.Product, error) {
	id, err := strconv.ParseInt(p.ID, 10, 64)
	if err != nil || id <= 0 {
		return domain.Product{}, fmt.Errorf("%w: line %d: invalid product id %q", domain.ErrInvalidRequest, p.line, p.ID)
	}
	cents, err := strconv.ParseInt(p.Cents, 10, 64)
	if err != nil || cents < 0 || p.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: line %d: invalid product %q", domain.ErrInvalidRequest, p.line, p.ID)
	}
	return domain.Product{
		ID:         id,
		VendorID:   l.ID,
		VendorName: l.Name,
		Name:       p.Name,
		PriceCents: cents,
		Unit:       p.Unit,
	}, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) *csvRow {
	row := &csvRow{
		line:   line,
		ID:     pick(record, index, "id"),
		Name:   pick(record, index, "name"),
		Lat:    pick(record, index, "lat"),
		Lng:    pick(record, index, "lng"),
		Active: pick(record, index, "is_active"),
		Tags:   make(map[domain.Category][]string),
		Images: splitList(pick(record, index, "images")),
	}
	for _, c := range domain.Categories {
		if values := splitList(pick(record, index, string(c))); len(values) > 0 {
			row.Tags[c] = values
		}
	}
	if pid := pick(record, index, "product.id"); pid != "" {
		row.Products = append(row.Products, productRow{
			line:  line,
			ID:    pid,
			Name:  pick(record, index, "product.name"),
			Cents: pick(record, index, "product.price_cents"),
			Unit:  pick(record, index, "product.unit"),
		})
	}
	if row.ID == "" && len(row.Images) == 0 && len(row.Products) == 0 {
		return nil
	}
	return row
}

// splitList splits a multi-value cell on ';'.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
