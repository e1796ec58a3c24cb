// Package statement pulls seller details out of the markup of a printed
// seller statement. The markup is not under our control and has changed
// shape over time, so every field is found by a cascade of increasingly
// loose strategies and falls back to a placeholder when all of them fail.
package statement

import (
	"payform-backend/internal/components/assert"
	"payform-backend/internal/components/chrono"
	"payform-backend/lib/scrapers/auctionsite"

	"github.com/shopspring/decimal"
)

// Extractor is safe for concurrent use, extraction has no side effects.
type Extractor struct {
	time chrono.TimeAPI
}

// NewExtractor creates an Extractor, `time` supplies the date used when a
// statement carries none.
func NewExtractor(time chrono.TimeAPI) Extractor {
	assert.NotNil(time, "time")
	return Extractor{time: time}
}

// Extract never fails, fields that cannot be found hold their placeholder
// and are missing from Record.Found. Given the same markup, query and
// date it always returns the same record.
func (e Extractor) Extract(markup string, query auctionsite.StatementQuery) Record {
	p := newPage(markup)

	record := Record{
		Name:          NamePlaceholder,
		Email:         EmailPlaceholder,
		AuctionTitle:  AuctionTitlePlaceholder,
		StatementDate: e.time.Now().Format(DateLayout),
		TotalDue:      decimal.Zero,
		Sources:       map[Field]Layer{},
	}

	for _, spec := range fieldSpecs(query.SellerId) {
		value, layer, ok := spec.extract(p)
		record.Sources[spec.field] = layer
		if !ok {
			continue
		}

		switch spec.field {
		case FieldName:
			record.Name = value
		case FieldEmail:
			record.Email = value
		case FieldAuctionTitle:
			record.AuctionTitle = value
		case FieldStatementDate:
			record.StatementDate = value
		case FieldTotalDue:
			amount, err := ParseAmount(value)
			if err != nil {
				record.Sources[spec.field] = LayerDefault
				continue
			}
			record.TotalDue = amount
		}
		record.Found |= spec.field
	}

	return record
}
