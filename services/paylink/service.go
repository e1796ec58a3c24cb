// Package paylink issues payment links: it turns a staff request for one
// seller's statement into a signed link carrying the seller's details and
// emails it to the seller.
package paylink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"payform-backend/internal/components/assert"
	"payform-backend/internal/components/telemetry"
	"payform-backend/lib/scrapers/auctionsite"
	"payform-backend/lib/statement"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("payform.services.paylink")

const (
	report_authenticate   = "service.authenticate"
	report_restore        = "service.restore-session"
	report_admin_login    = "service.admin-login"
	report_fetch          = "service.fetch-statement"
	report_missing_field  = "service.missing-field"
	report_notify         = "service.notify"
	report_cached_session = "service.cached-sessions"
)

// AdminCredentials are the auction site credentials the service logs in
// with when staff authenticate against local accounts.
type AdminCredentials struct {
	Username string
	Password string
}

func (c AdminCredentials) configured() bool {
	return c.Username != "" && c.Password != ""
}

type Options struct {
	Site      Site
	Tokens    Tokens
	Extractor statement.Extractor
	Notifier  Notifier
	// PublicBaseUrl is where the payment form is served, share urls are
	// built as <PublicBaseUrl>/?token=<token>.
	PublicBaseUrl string
	// Admin switches the service to admin mode when set, Staff then holds
	// the accounts staff authenticate against.
	Admin AdminCredentials
	Staff []StaffAccount
	// SessionCacheSize enables caching of auction site sessions when
	// greater than zero.
	SessionCacheSize int
	SessionCacheTTL  time.Duration

	Tel telemetry.API
}

type Service struct {
	site      Site
	tokens    Tokens
	extractor statement.Extractor
	notifier  Notifier
	baseUrl   string
	admin     AdminCredentials
	staff     []StaffAccount
	cache     *sessionCache
	tel       telemetry.API
}

func NewService(opts Options) (Service, error) {
	assert.NotNil(opts.Site, "site")
	assert.NotNil(opts.Notifier, "notifier")
	assert.NotNil(opts.Tel, "tel")

	if opts.Tokens.secret == nil {
		return Service{}, fmt.Errorf("%w: tokens are not configured", ErrConfig)
	}
	if opts.PublicBaseUrl == "" {
		return Service{}, fmt.Errorf("%w: public base url is required", ErrConfig)
	}
	parsed, err := url.Parse(opts.PublicBaseUrl)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Service{}, fmt.Errorf("%w: public base url must be absolute: %q", ErrConfig, opts.PublicBaseUrl)
	}
	if opts.Admin.configured() && len(opts.Staff) == 0 {
		return Service{}, fmt.Errorf("%w: admin mode requires at least one staff account", ErrConfig)
	}

	return Service{
		site:      opts.Site,
		tokens:    opts.Tokens,
		extractor: opts.Extractor,
		notifier:  opts.Notifier,
		baseUrl:   strings.TrimSuffix(opts.PublicBaseUrl, "/"),
		admin:     opts.Admin,
		staff:     opts.Staff,
		cache:     newSessionCache(opts.SessionCacheSize, opts.SessionCacheTTL),
		tel:       opts.Tel,
	}, nil
}

// Mode is the mode staff tokens are minted in.
func (s Service) Mode() Mode {
	if s.admin.configured() {
		return ModeAdmin
	}
	return ModeProxy
}

// Authenticate checks staff credentials and returns a staff token. In
// proxy mode the credentials are the staff member's auction site login and
// the resulting session cookies are carried in the token.
func (s Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		span.SetStatus(codes.Error, "missing credentials")
		return "", fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	span.SetAttributes(attribute.String("mode", string(s.Mode())))

	if s.Mode() == ModeAdmin {
		account, ok := checkAccount(s.staff, username, password)
		if !ok {
			span.SetStatus(codes.Error, "invalid staff credentials")
			return "", auctionsite.AuthFailure{Reason: "invalid username or password"}
		}
		return s.tokens.MintStaffToken(StaffSession{
			Username: account.Username,
			Role:     account.Role,
			Mode:     ModeAdmin,
		})
	}

	session, err := s.site.Login(ctx, username, password)
	if err != nil {
		if !errors.Is(err, ErrAuthFailure) {
			s.tel.ReportBroken(report_authenticate, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "auction site login failed")
		return "", err
	}

	id := uuid.NewString()
	token, err := s.tokens.MintStaffToken(StaffSession{
		Id:       id,
		Username: username,
		Role:     defaultRole,
		Mode:     ModeProxy,
		Cookies:  session.Cookies(),
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	s.cache.Add(sessionKey(StaffSession{Id: id, Mode: ModeProxy}), session)
	return token, nil
}

// Staff decodes a staff token minted by Authenticate.
func (s Service) Staff(token string) (StaffSession, error) {
	return s.tokens.ParseStaffToken(token)
}

func sessionKey(staff StaffSession) string {
	if staff.Mode == ModeAdmin {
		return "admin"
	}
	return "staff:" + staff.Id
}

// session returns an auction site session usable for the staff member,
// from the cache when possible.
func (s Service) session(ctx context.Context, staff StaffSession) (Session, string, error) {
	key := sessionKey(staff)
	if cached, ok := s.cache.Get(key); ok {
		return cached, key, nil
	}

	var (
		session Session
		err     error
	)
	switch staff.Mode {
	case ModeAdmin:
		if !s.admin.configured() {
			return nil, key, fmt.Errorf("%w: admin token but no admin credentials configured", ErrSessionExpired)
		}
		session, err = s.site.Login(ctx, s.admin.Username, s.admin.Password)
		if err != nil {
			if ctx.Err() != nil {
				return nil, key, ctx.Err()
			}
			s.tel.ReportBroken(report_admin_login, err)
			// the auth failure is not kept in the chain, it is not the staff member's
			return nil, key, fmt.Errorf("%w: %v", ErrAdminLogin, err)
		}
	default:
		session, err = s.site.Restore(ctx, staff.Cookies)
		if err != nil {
			if ctx.Err() != nil {
				return nil, key, ctx.Err()
			}
			s.tel.ReportWarning(report_restore, staff.Username, err)
			return nil, key, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
	}

	s.cache.Add(key, session)
	s.tel.ReportCount(report_cached_session, int64(s.cache.Len()))
	return session, key, nil
}

// IssuedLink is the result of IssueLink.
type IssuedLink struct {
	ShareUrl      string
	NotifiedEmail string
	Seller        SellerData
	ExpiresAt     time.Time
}

func sellerData(record statement.Record) SellerData {
	return SellerData{
		Name:          record.Name,
		Email:         record.Email,
		AuctionTitle:  record.AuctionTitle,
		StatementDate: record.StatementDate,
		TotalDue:      record.TotalDue,
	}
}

// IssueLink fetches the statement of one seller, mints a payment link out
// of the seller details on it and emails the link to the seller.
//
// When the email cannot be sent the link is still returned alongside an
// error matching ErrNotifyFailed, the link stays valid and can be passed
// on by hand.
func (s Service) IssueLink(ctx context.Context, staffToken string, query auctionsite.StatementQuery) (IssuedLink, error) {
	ctx, span := tracer.Start(ctx, "IssueLink")
	defer span.End()

	staff, err := s.tokens.ParseStaffToken(staffToken)
	if err != nil {
		span.SetStatus(codes.Error, "invalid staff token")
		return IssuedLink{}, err
	}
	query.AuctionCode = strings.TrimSpace(query.AuctionCode)
	query.SellerId = strings.TrimSpace(query.SellerId)
	err = query.Validate()
	if err != nil {
		span.SetStatus(codes.Error, "invalid query")
		return IssuedLink{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	span.SetAttributes(
		attribute.String("staff", staff.Username),
		attribute.String("auction_code", query.AuctionCode),
		attribute.String("seller_id", query.SellerId),
	)

	session, key, err := s.session(ctx, staff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no auction site session")
		return IssuedLink{}, err
	}

	fetched, err := session.FetchStatement(ctx, query)
	if err != nil {
		// a session that cannot fetch is not worth keeping
		s.cache.Remove(key)
		if ctx.Err() != nil {
			return IssuedLink{}, ctx.Err()
		}
		s.tel.ReportWarning(report_fetch, query.AuctionCode, query.SellerId, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "statement not fetched")
		return IssuedLink{}, ExtractionError{Reason: ExtractionFetch, Err: err}
	}

	record := s.extractor.Extract(fetched.Html, query)
	if record.CoreMissing() {
		span.SetStatus(codes.Error, "no seller details in statement")
		return IssuedLink{}, ExtractionError{Reason: ExtractionParse}
	}
	for _, field := range record.Missing() {
		s.tel.ReportWarning(report_missing_field, field.String(), fetched.Url)
	}

	seller := sellerData(record)
	token, err := s.tokens.MintPaymentLink(seller, query)
	if err != nil {
		span.RecordError(err)
		return IssuedLink{}, err
	}
	link, err := s.tokens.ParsePaymentLink(token)
	if err != nil {
		span.RecordError(err)
		return IssuedLink{}, err
	}

	issued := IssuedLink{
		ShareUrl:  s.ShareUrl(token),
		Seller:    seller,
		ExpiresAt: link.ExpiresAt,
	}

	if !record.Has(statement.FieldEmail) {
		s.tel.ReportWarning(report_notify, "no seller email", fetched.Url)
		span.SetStatus(codes.Error, "no seller email")
		return issued, fmt.Errorf("%w: no email address on the statement", ErrNotifyFailed)
	}

	err = s.notifier.SendPaymentLink(ctx, PaymentLinkEmail{
		To:           seller.Email,
		SellerName:   seller.Name,
		AuctionTitle: seller.AuctionTitle,
		AmountDue:    seller.TotalDue.StringFixed(2),
		ShareUrl:     issued.ShareUrl,
		ExpiresAt:    issued.ExpiresAt,
	})
	if err != nil {
		s.tel.ReportBroken(report_notify, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "email not sent")
		return issued, fmt.Errorf("%w: %w", ErrNotifyFailed, err)
	}

	issued.NotifiedEmail = seller.Email
	return issued, nil
}

// ShareUrl is the url a seller opens to reach the payment form.
func (s Service) ShareUrl(token string) string {
	return fmt.Sprintf("%s/?token=%s", s.baseUrl, url.QueryEscape(token))
}

// PaymentDetails decodes a payment link token, it fails with
// ErrSessionExpired for expired or forged links.
func (s Service) PaymentDetails(ctx context.Context, token string) (PaymentLink, error) {
	_, span := tracer.Start(ctx, "PaymentDetails")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		span.SetStatus(codes.Error, "missing token")
		return PaymentLink{}, fmt.Errorf("%w: missing payment link token", ErrSessionExpired)
	}
	link, err := s.tokens.ParsePaymentLink(token)
	if err != nil {
		span.SetStatus(codes.Error, "invalid payment link")
		return PaymentLink{}, err
	}
	return link, nil
}
