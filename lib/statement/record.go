package statement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field is one of the values pulled out of a statement, fields can be
// combined into a set with bitwise or.
type Field uint8

const (
	FieldName Field = 1 << iota
	FieldEmail
	FieldAuctionTitle
	FieldStatementDate
	FieldTotalDue
)

var allFields = []Field{FieldName, FieldEmail, FieldAuctionTitle, FieldStatementDate, FieldTotalDue}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldEmail:
		return "email"
	case FieldAuctionTitle:
		return "auction_title"
	case FieldStatementDate:
		return "statement_date"
	case FieldTotalDue:
		return "total_due"
	}
	var names []string
	for _, field := range allFields {
		if f&field != 0 {
			names = append(names, field.String())
		}
	}
	return strings.Join(names, "|")
}

// Layer names the strategy that produced a field.
type Layer string

const (
	LayerSelector   Layer = "selector"
	LayerLabelled   Layer = "labelled"
	LayerTabular    Layer = "tabular"
	LayerPositional Layer = "positional"
	LayerRaw        Layer = "raw"
	LayerIncidental Layer = "incidental"
	LayerDefault    Layer = "default"
)

const (
	NamePlaceholder         = "Name Not Found"
	EmailPlaceholder        = "Email Not Found"
	AuctionTitlePlaceholder = "Auction Title Not Found"
	// DateLayout is the layout of the statement date used when the
	// statement does not carry one.
	DateLayout = "01/02/2006"
)

// Record is everything extracted from one seller statement. Fields that
// could not be extracted hold their placeholder and are absent from Found.
type Record struct {
	Name          string
	Email         string
	AuctionTitle  string
	StatementDate string
	TotalDue      decimal.Decimal

	// Found is the set of fields that were extracted rather than defaulted.
	Found Field
	// Sources records which layer produced each field.
	Sources map[Field]Layer
}

func (r Record) Has(f Field) bool {
	return r.Found&f == f
}

// Missing returns the fields that hold placeholders.
func (r Record) Missing() []Field {
	var out []Field
	for _, f := range allFields {
		if !r.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// CoreMissing reports whether name, email and total due were all defaulted,
// such a record does not identify a seller at all.
func (r Record) CoreMissing() bool {
	return r.Found&(FieldName|FieldEmail|FieldTotalDue) == 0
}
