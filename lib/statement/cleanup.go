package statement

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"payform-backend/lib/htmlutil"
	"payform-backend/lib/textutil"
)

var (
	phonePattern   = regexp.MustCompile(`\(?\b\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}\b`)
	addressPattern = regexp.MustCompile(`(?i)\b\d{1,6}\s+(?:[A-Za-z0-9.']+\s+){0,4}(?:St|Street|Rd|Road|Ave|Avenue|Blvd|Boulevard|Dr|Drive|Ln|Lane|Pike|Hwy|Highway|Way|Ct|Court|Pl|Place|Cir|Circle|Pkwy|Parkway)\b\.?`)
	poBoxPattern   = regexp.MustCompile(`(?i)\bP\.?\s*O\.?\s+Box\s+\d+`)
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)
	datePattern    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b|\b(?i:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`)
	dollarPattern  = regexp.MustCompile(`\(?-?\s*\$\s*-?\d[\d,]*(?:\.\d+)?\)?`)
	numberPattern  = regexp.MustCompile(`\(?-?\d[\d,]*(?:\.\d+)?\)?`)

	// company footer text that bleeds into values on printed statements
	footerPattern = regexp.MustCompile(`(?i)\b(?:mclemore\s+auction(?:\s+(?:company|co\b\.?))?|mclemoreauction\.com|powered\s+by|all\s+rights\s+reserved|printed\s+on|page\s+\d+\s+of\s+\d+|phone|fax|tel|cell)\b`)

	leadingLabel    = regexp.MustCompile(`(?i)^\s*(?:seller|consignor|statement\s+for|auction(?:\s+(?:title|name))?|name)\b[^:]{0,15}:\s*`)
	leadingSellerNo = regexp.MustCompile(`(?i)^(?:#|no\.?)?\s*\d+\s*[-:]?\s+`)

	// the start of the next "Label:" on a line, values never run past it
	nextLabel = regexp.MustCompile(`(?i)\b(?:seller|consignor|e-?mail|phone|fax|tel|cell|address|statement|auction|date|total|amount|balance|net|check|lot|page|printed|commission|premium)\b[A-Za-z #]{0,25}:`)

	personName = regexp.MustCompile(`^[A-Z][A-Za-z.'-]*(?:\s+(?:&\s+)?[A-Z][A-Za-z.'-]*){1,5}$`)
)

// every label the cascade knows, a value equal to one of these is a label
// that was picked up by mistake
var knownLabels = []string{
	"seller", "sellername", "sellernumber", "seller#", "sellerno",
	"consignor", "consignorname", "consignornumber", "consignor#",
	"email", "emailaddress", "name", "phone", "address",
	"auction", "auctiontitle", "auctionname",
	"statement", "statementfor", "statementdate", "sellerstatement", "consignorstatement",
	"date", "total", "totaldue", "amountdue", "totalamountdue", "balancedue",
}

const trimCutset = " \t,;:-|#>*<\"'"

// boundValue stops a labelled value at the next label on the same line
// or at an embedded phone number.
func boundValue(rest string) string {
	if loc := nextLabel.FindStringIndex(rest); loc != nil && loc[0] > 0 {
		rest = rest[:loc[0]]
	}
	if loc := phonePattern.FindStringIndex(rest); loc != nil && loc[0] > 0 {
		rest = rest[:loc[0]]
	}
	return strings.TrimSpace(rest)
}

// cutAt removes the first match of pattern and everything after it, if
// the match is at the very start only the match itself is removed.
func cutAt(s string, pattern *regexp.Regexp) string {
	loc := pattern.FindStringIndex(s)
	if loc == nil {
		return s
	}
	if strings.TrimSpace(s[:loc[0]]) == "" {
		return s[loc[1]:]
	}
	return s[:loc[0]]
}

// scrubText strips phone numbers, street addresses, email addresses and
// company footer text from a name or title.
// dropInvalid removes invalid utf-8 and the replacement characters the
// html parser substitutes for it.
func dropInvalid(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, string(utf8.RuneError), "")
}

func scrubText(s string) string {
	s = htmlutil.NormalizeSpace(html.UnescapeString(dropInvalid(s)))
	s = leadingLabel.ReplaceAllString(s, "")
	for _, pattern := range []*regexp.Regexp{phonePattern, addressPattern, poBoxPattern, emailPattern, footerPattern} {
		// a pattern can match more than once when the first match was leading
		for i := 0; i < 3 && pattern.MatchString(s); i++ {
			s = cutAt(s, pattern)
		}
	}
	s = htmlutil.NormalizeSpace(s)
	return strings.Trim(s, trimCutset)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func normalizeName(sellerId string) func(string) (string, bool) {
	return func(value string) (string, bool) {
		value = htmlutil.NormalizeSpace(html.UnescapeString(dropInvalid(value)))
		value = leadingLabel.ReplaceAllString(value, "")
		if sellerId != "" {
			value = strings.TrimPrefix(value, sellerId+" ")
		}
		value = leadingSellerNo.ReplaceAllString(value, "")
		value = scrubText(value)

		if len(value) < 2 || len(value) > 80 || !hasLetter(value) {
			return "", false
		}
		if strings.Contains(value, "@") || len(strings.Fields(value)) > 8 {
			return "", false
		}
		if textutil.SimilarLabel(value, knownLabels) {
			return "", false
		}
		return value, true
	}
}

func normalizeTitle(value string) (string, bool) {
	value = scrubText(value)
	if len(value) < 3 || len(value) > 150 || !hasLetter(value) {
		return "", false
	}
	if textutil.SimilarLabel(value, knownLabels) {
		return "", false
	}
	return value, true
}

func normalizeEmail(value string) (string, bool) {
	email := emailPattern.FindString(html.UnescapeString(value))
	if email == "" {
		return "", false
	}
	return strings.Trim(email, "."), true
}

func normalizeDate(value string) (string, bool) {
	date := datePattern.FindString(value)
	if date == "" {
		return "", false
	}
	return date, true
}

func normalizeAmount(value string) (string, bool) {
	candidate := dollarPattern.FindString(value)
	if candidate == "" {
		candidate = numberPattern.FindString(value)
	}
	if candidate == "" {
		return "", false
	}
	amount, err := ParseAmount(candidate)
	if err != nil {
		return "", false
	}
	return amount.String(), true
}
