package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// CSVSource reads products from a CSV export so the storefront can run
// without reaching the remote API. Expected header:
// id,title,price,category,image,rating.rate,rating.count,description
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Products(_ context.Context) ([]domain.Product, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog csv: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]domain.Product, error) {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas

	headers, err := csvr.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var products []domain.Product
	for {
		record, err := csvr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return products, fmt.Errorf("read row: %w", err)
		}

		p, err := parseRow(record, index)
		if err != nil {
			return products, err
		}
		products = append(products, p)
	}
	return products, nil
}

func parseRow(record []string, index map[string]int) (domain.Product, error) {
	idStr := pick(record, index, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid id %q: %w", idStr, err)
	}

	priceStr := pick(record, index, "price")
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid price %q for id %d: %w", priceStr, id, err)
	}
	if price.IsNegative() {
		return domain.Product{}, fmt.Errorf("negative price %s for id %d", priceStr, id)
	}

	title := pick(record, index, "title")
	if title == "" {
		return domain.Product{}, fmt.Errorf("missing title for id %d", id)
	}

	rate, _ := strconv.ParseFloat(pick(record, index, "rating.rate"), 64)
	count, _ := strconv.Atoi(pick(record, index, "rating.count"))

	return domain.Product{
		ID:          id,
		Title:       title,
		Price:       price,
		Category:    pick(record, index, "category"),
		Image:       pick(record, index, "image"),
		Rating:      domain.Rating{Rate: rate, Count: count},
		Description: pick(record, index, "description"),
	}, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

func pick(record []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
