package statement

import (
	"regexp"
)

// gap between a label and its value in raw markup: whitespace, entities
// and any number of tags
const tagGap = `(?:\s|&nbsp;|&#160;|<[^>]*>)*`

const rawAmount = `(\(?-?\$?\s*\d[\d,]*(?:\.\d+)?\)?)`

// fieldSpec is the cascade for one field, layers are tried in the order
// selector, labelled, tabular, positional, raw, incidental and the first
// candidate accepted by normalize wins.
type fieldSpec struct {
	field      Field
	selectors  []string
	labels     []*regexp.Regexp
	keywords   []string
	positional string
	excluded   []string
	raw        []*regexp.Regexp
	incidental []string
	normalize  func(string) (string, bool)
}

func labels(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

var (
	nameSelectors = []string{
		"#seller-name", "#sellerName", "#consignor-name",
		".seller-name", ".sellerName", ".consignor-name",
		"[data-field='seller-name']",
	}
	nameLabels = labels(
		`\bSeller\s*(?:Number|No\.|#)\s*:`,
		`\bConsignor\s*(?:Number|No\.|#)\s*:`,
		`\b(?:Seller|Consignor)\s+Name\s*:`,
		`\b(?:Seller|Consignor)\s*:`,
		`^Name\s*:`,
	)
	nameKeywords = []string{"sellername", "consignorname", "seller", "consignor"}
	// words that disqualify a heading or bold run from being a person's name
	nameExcluded = []string{
		"auction", "statement", "total", "amount", "due", "seller", "consignor",
		"date", "page", "invoice", "settlement", "summary", "lot", "commission",
		"fee", "check", "payment", "report", "mclemore", "company", "email", "phone",
	}
	nameRaw = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:Seller|Consignor)\s*(?:Number|No\.|#|Name)?\s*:` + tagGap + `(?:#?\d+` + tagGap + `)?([A-Za-z][^<\r\n]{1,80})`),
	}

	emailSelectors = []string{
		"#seller-email", "#sellerEmail", "#consignor-email",
		".seller-email", ".sellerEmail", ".consignor-email",
		"[data-field='seller-email']",
	}
	emailLabels   = labels(`\bE-?mail(?:\s+Address)?\s*:`)
	emailKeywords = []string{"emailaddress", "email"}
	emailRaw      = []*regexp.Regexp{
		regexp.MustCompile(`(?is)E-?mail(?:\s+Address)?\s*:?` + tagGap + `([A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,})`),
	}
	// addresses that belong to the auction house rather than the seller
	IncidentalEmailExclusions = []string{
		"support@", "info@", "noreply@", "no-reply@", "admin@", "office@",
		"sales@", "contact@", "help@", "billing@", "webmaster@",
		"@mclemoreauction.com",
	}

	titleSelectors = []string{
		"#auction-title", "#auctionTitle", ".auction-title", ".auctionTitle",
		".auction-name", "[data-field='auction-title']",
	}
	titleLabels = labels(
		`\bStatement\s+For\s*:`,
		`\bAuction\s+(?:Title|Name)\s*:`,
		`\bAuction\s*:`,
		`\bSale\s+Name\s*:`,
	)
	titleKeywords = []string{"auctiontitle", "auctionname", "statementfor"}
	titleExcluded = []string{
		"statement", "sellerstatement", "consignorstatement", "sellersettlement",
		"summary", "mclemore", "mclemoreauctioncompany",
	}
	titleRaw = []*regexp.Regexp{
		regexp.MustCompile(`(?is)Statement\s+For\s*:?` + tagGap + `([^<\r\n]{3,150})`),
		regexp.MustCompile(`(?is)Auction\s+(?:Title|Name)\s*:` + tagGap + `([^<\r\n]{3,150})`),
	}

	dateSelectors = []string{
		"#statement-date", "#statementDate", ".statement-date", ".statementDate",
		"[data-field='statement-date']",
	}
	dateLabels = labels(
		`\bStatement\s+Date\s*:?`,
		`\b(?:Sale|Auction)\s+Date\s*:?`,
		`\bDate\s*:`,
	)
	dateKeywords = []string{"statementdate", "saledate", "date"}
	dateRaw      = []*regexp.Regexp{
		regexp.MustCompile(`(?is)Statement\s+Date\s*:?` + tagGap + `(\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2}|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})`),
	}

	totalSelectors = []string{
		"#total-due", "#totalDue", "#amount-due",
		".total-due", ".totalDue", ".amount-due", ".total-amount-due",
		"[data-field='total-due']",
	}
	totalLabels = labels(
		`\bTotal\s+Amount\s+Due\b\s*:?`,
		`\bNet\s+Amount\s+Due\b\s*:?`,
		`\bBalance\s+Due\b\s*:?`,
		`\bTotal\s+Due\b\s*:?`,
		`\bAmount\s+Due\b\s*:?`,
	)
	totalKeywords = []string{"totalamountdue", "netamountdue", "balancedue", "totaldue", "amountdue"}
	totalRaw      = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:Total\s+Amount\s+Due|Amount\s+Due|Total\s+Due|Balance\s+Due)\s*:?` + tagGap + rawAmount),
		regexp.MustCompile(`(?is)(?:Total|Due|Amount)\s+\$\s*(\d[\d,]*(?:\.\d+)?)`),
	}
)

func fieldSpecs(sellerId string) []fieldSpec {
	return []fieldSpec{
		{
			field:      FieldName,
			selectors:  nameSelectors,
			labels:     nameLabels,
			keywords:   nameKeywords,
			positional: "b, strong, h1, h2, h3, h4",
			excluded:   nameExcluded,
			raw:        nameRaw,
			normalize:  normalizeName(sellerId),
		},
		{
			field:      FieldEmail,
			selectors:  emailSelectors,
			labels:     emailLabels,
			keywords:   emailKeywords,
			raw:        emailRaw,
			incidental: IncidentalEmailExclusions,
			normalize:  normalizeEmail,
		},
		{
			field:      FieldAuctionTitle,
			selectors:  titleSelectors,
			labels:     titleLabels,
			keywords:   titleKeywords,
			positional: "h1, h2, h3",
			excluded:   titleExcluded,
			raw:        titleRaw,
			normalize:  normalizeTitle,
		},
		{
			field:     FieldStatementDate,
			selectors: dateSelectors,
			labels:    dateLabels,
			keywords:  dateKeywords,
			raw:       dateRaw,
			normalize: normalizeDate,
		},
		{
			field:     FieldTotalDue,
			selectors: totalSelectors,
			labels:    totalLabels,
			keywords:  totalKeywords,
			raw:       totalRaw,
			normalize: normalizeAmount,
		},
	}
}

// extract runs the cascade for one field against the page.
func (s fieldSpec) extract(p page) (string, Layer, bool) {
	layers := []struct {
		layer      Layer
		candidates func() []string
	}{
		{LayerSelector, func() []string { return selectorCandidates(p, s.selectors) }},
		{LayerLabelled, func() []string { return labelledCandidates(p, s.labels) }},
		{LayerTabular, func() []string { return tabularCandidates(p, s.keywords) }},
		{LayerPositional, func() []string {
			if s.positional == "" {
				return nil
			}
			return positionalCandidates(p, s.positional, s.excluded)
		}},
		{LayerRaw, func() []string { return rawCandidates(p, s.raw) }},
		{LayerIncidental, func() []string {
			if s.incidental == nil {
				return nil
			}
			return incidentalEmails(p, s.incidental)
		}},
	}

	for _, l := range layers {
		for _, candidate := range l.candidates() {
			// positional candidates have no label vouching for them
			if l.layer == LayerPositional && s.field == FieldName && !personName.MatchString(scrubText(candidate)) {
				continue
			}
			value, ok := s.normalize(candidate)
			if ok {
				return value, l.layer, true
			}
		}
	}
	return "", LayerDefault, false
}
