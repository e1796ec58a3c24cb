package auctionsite

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"payform-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_fetch_statement = "client.fetch-statement"

// DefaultStatementPaths are the url templates a seller statement has been
// seen at, {auction} and {seller} are substituted with the query.
var DefaultStatementPaths = []string{
	"/admin/statements/printreport/auction/{auction}/sellerid/{seller}",
	"/statements/printreport/auction/{auction}/sellerid/{seller}",
	"/admin/statements/view/auction/{auction}/sellerid/{seller}",
	"/admin/statements/printreport/auction/{auction}/consignorid/{seller}",
}

// the login page is an angular app mounted on this attribute, older
// versions render a plain form with a password field
const loginPageSelector = `[ng-app="rwd"], form input[type="password"]`

// a page has to mention at least one of these to be a statement, they
// cover the labels the statement extractor understands
var statementSentinels = []string{
	"statement",
	"consignor",
	"seller",
	"total due",
	"amount due",
	"balance due",
}

var queryPart = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// StatementQuery identifies the statement of one seller in one auction.
type StatementQuery struct {
	AuctionCode string `json:"auctionCode"`
	SellerId    string `json:"sellerId"`
}

func (q StatementQuery) Validate() error {
	if q.AuctionCode == "" || q.SellerId == "" {
		return fmt.Errorf("auction code and seller id are required")
	}
	if !queryPart.MatchString(q.AuctionCode) {
		return fmt.Errorf("invalid auction code: %q", q.AuctionCode)
	}
	if !queryPart.MatchString(q.SellerId) {
		return fmt.Errorf("invalid seller id: %q", q.SellerId)
	}
	return nil
}

func (q StatementQuery) expand(template string) string {
	return strings.NewReplacer(
		"{auction}", url.PathEscape(q.AuctionCode),
		"{seller}", url.PathEscape(q.SellerId),
	).Replace(template)
}

// Statement is the raw markup of a statement page and where it came from.
type Statement struct {
	Url  string
	Html string
}

// candidatePage is a statement candidate parsed once.
type candidatePage struct {
	doc *goquery.Document
}

func parseCandidate(markup string) (candidatePage, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return candidatePage{}, false
	}
	return candidatePage{doc: doc}, true
}

// login reports whether this is the site's login page, which is what it
// serves instead of a statement to a session it does not accept.
func (p candidatePage) login() bool {
	return p.doc.Find(loginPageSelector).Length() > 0
}

// alert returns the error shown on a login page, if any.
func (p candidatePage) alert() string {
	return htmlutil.NormalizeSpace(p.doc.Find(loginErrorSelector).First().Text())
}

// statement reports whether the visible text mentions a statement sentinel.
func (p candidatePage) statement() bool {
	text := strings.ToLower(p.doc.Text())
	for _, sentinel := range statementSentinels {
		if strings.Contains(text, sentinel) {
			return true
		}
	}
	return false
}

// IsLoginPage reports whether the markup is the site's login page.
func IsLoginPage(markup string) bool {
	page, ok := parseCandidate(markup)
	return ok && page.login()
}

// IsStatement reports whether the markup looks like a seller statement.
func IsStatement(markup string) bool {
	page, ok := parseCandidate(markup)
	return ok && !page.login() && page.statement()
}

// FetchStatement tries every candidate url in order and returns the first
// one that answers with a statement, no further urls are requested once
// one matched. It fails with a NotFoundError listing every url tried.
func (c *Client) FetchStatement(ctx context.Context, query StatementQuery) (Statement, error) {
	ctx, span := tracer.Start(ctx, "client:FetchStatement")
	defer span.End()

	err := query.Validate()
	if err != nil {
		span.SetStatus(codes.Error, "invalid query")
		return Statement{}, err
	}

	tried := make([]string, 0, len(c.statementPaths))
	for _, template := range c.statementPaths {
		path := query.expand(template)
		full := c.BaseUrl.String() + path
		tried = append(tried, full)

		res, err := c.Http.R().
			SetContext(ctx).
			SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
			SetHeader("Referer", c.BaseUrl.String()+"/admin/").
			SetHeader("Cache-Control", "no-cache").
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return Statement{}, ctx.Err()
			}
			c.tel.ReportWarning(report_fetch_statement, full, err)
			continue
		}
		if !res.IsSuccess() {
			c.tel.ReportDebug("statement candidate rejected", full, res.StatusCode())
			continue
		}

		body := res.String()
		page, ok := parseCandidate(body)
		if !ok {
			c.tel.ReportDebug("statement candidate is not html", full)
			continue
		}
		if page.login() {
			c.tel.ReportDebug("statement candidate is the login page", full, page.alert())
			continue
		}
		if !page.statement() {
			c.tel.ReportDebug("statement candidate is not a statement", full)
			continue
		}

		span.SetAttributes(attribute.String("statement.url", full))
		return Statement{Url: full, Html: body}, nil
	}

	span.SetStatus(codes.Error, "statement not found")
	return Statement{}, NotFoundError{TriedUrls: tried}
}
