package paylink

import (
	"errors"
	"fmt"
	"time"

	"payform-backend/internal/components/assert"
	"payform-backend/internal/components/chrono"
	"payform-backend/lib/scrapers/auctionsite"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const issuer = "payform"

const (
	audienceStaff       = "staff"
	audiencePaymentLink = "payment-link"
)

const (
	DefaultStaffTokenTTL  = time.Hour
	DefaultPaymentLinkTTL = 24 * time.Hour
)

// Mode is how a staff session relates to the auction site.
type Mode string

const (
	// ModeProxy sessions logged into the auction site with the staff
	// member's own credentials, the site's cookies travel in the token.
	ModeProxy Mode = "proxy"
	// ModeAdmin sessions were authenticated locally, the service logs into
	// the auction site with its own admin credentials.
	ModeAdmin Mode = "admin"
)

type staffClaims struct {
	Role    string                         `json:"role,omitempty"`
	Mode    Mode                           `json:"mode"`
	Cookies []auctionsite.SerializedCookie `json:"cookies,omitempty"`
	jwt.RegisteredClaims
}

type paymentClaims struct {
	SellerName    string `json:"seller_name"`
	SellerEmail   string `json:"seller_email"`
	AuctionTitle  string `json:"auction_title"`
	StatementDate string `json:"statement_date"`
	AmountDue     string `json:"amount_due"`
	AuctionCode   string `json:"auction_code"`
	SellerId      string `json:"seller_id"`
	jwt.RegisteredClaims
}

// StaffSession is the decoded content of a staff token.
type StaffSession struct {
	Id        string
	Username  string
	Role      string
	Mode      Mode
	Cookies   []auctionsite.SerializedCookie
	ExpiresAt time.Time
}

// SellerData is what a payment link carries about the seller.
type SellerData struct {
	Name          string
	Email         string
	AuctionTitle  string
	StatementDate string
	TotalDue      decimal.Decimal
}

// PaymentLink is the decoded content of a payment link token.
type PaymentLink struct {
	Id        string
	Seller    SellerData
	Query     auctionsite.StatementQuery
	ExpiresAt time.Time
}

type TokenOptions struct {
	Secret         string
	StaffTokenTTL  time.Duration
	PaymentLinkTTL time.Duration
	Time           chrono.TimeAPI
}

// Tokens mints and verifies the HS256 tokens handed to staff and sellers.
type Tokens struct {
	secret   []byte
	staffTTL time.Duration
	linkTTL  time.Duration
	time     chrono.TimeAPI
}

func NewTokens(opts TokenOptions) (Tokens, error) {
	assert.NotNil(opts.Time, "time")
	if opts.Secret == "" {
		return Tokens{}, fmt.Errorf("%w: signing secret is required", ErrConfig)
	}
	staffTTL := opts.StaffTokenTTL
	if staffTTL <= 0 {
		staffTTL = DefaultStaffTokenTTL
	}
	linkTTL := opts.PaymentLinkTTL
	if linkTTL <= 0 {
		linkTTL = DefaultPaymentLinkTTL
	}
	return Tokens{
		secret:   []byte(opts.Secret),
		staffTTL: staffTTL,
		linkTTL:  linkTTL,
		time:     opts.Time,
	}, nil
}

func (t Tokens) registered(id, subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.time.Now()
	if id == "" {
		id = uuid.NewString()
	}
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        id,
	}
}

func (t Tokens) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t Tokens) parse(token, audience string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.time.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return nil
}

func expiresAt(claims jwt.RegisteredClaims) time.Time {
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// MintStaffToken creates a token for a staff member who just authenticated,
// a random id is assigned when session.Id is empty.
func (t Tokens) MintStaffToken(session StaffSession) (string, error) {
	if session.Username == "" {
		return "", errors.New("staff token requires a username")
	}
	return t.sign(staffClaims{
		Role:             session.Role,
		Mode:             session.Mode,
		Cookies:          session.Cookies,
		RegisteredClaims: t.registered(session.Id, session.Username, audienceStaff, t.staffTTL),
	})
}

// ParseStaffToken verifies a staff token, it fails with ErrSessionExpired
// when the token is expired, tampered with or not a staff token at all.
func (t Tokens) ParseStaffToken(token string) (StaffSession, error) {
	var claims staffClaims
	err := t.parse(token, audienceStaff, &claims)
	if err != nil {
		return StaffSession{}, err
	}
	return StaffSession{
		Id:        claims.ID,
		Username:  claims.Subject,
		Role:      claims.Role,
		Mode:      claims.Mode,
		Cookies:   claims.Cookies,
		ExpiresAt: expiresAt(claims.RegisteredClaims),
	}, nil
}

// MintPaymentLink creates the token a seller redeems to open the payment
// form, it is valid for the payment link ttl.
func (t Tokens) MintPaymentLink(seller SellerData, query auctionsite.StatementQuery) (string, error) {
	return t.sign(paymentClaims{
		SellerName:       seller.Name,
		SellerEmail:      seller.Email,
		AuctionTitle:     seller.AuctionTitle,
		StatementDate:    seller.StatementDate,
		AmountDue:        seller.TotalDue.String(),
		AuctionCode:      query.AuctionCode,
		SellerId:         query.SellerId,
		RegisteredClaims: t.registered("", query.SellerId, audiencePaymentLink, t.linkTTL),
	})
}

// ParsePaymentLink verifies a payment link token and returns the seller
// data it was minted with.
func (t Tokens) ParsePaymentLink(token string) (PaymentLink, error) {
	var claims paymentClaims
	err := t.parse(token, audiencePaymentLink, &claims)
	if err != nil {
		return PaymentLink{}, err
	}
	amount, err := decimal.NewFromString(claims.AmountDue)
	if err != nil {
		return PaymentLink{}, fmt.Errorf("%w: amount due: %w", ErrSessionExpired, err)
	}
	return PaymentLink{
		Id: claims.ID,
		Seller: SellerData{
			Name:          claims.SellerName,
			Email:         claims.SellerEmail,
			AuctionTitle:  claims.AuctionTitle,
			StatementDate: claims.StatementDate,
			TotalDue:      amount,
		},
		Query: auctionsite.StatementQuery{
			AuctionCode: claims.AuctionCode,
			SellerId:    claims.SellerId,
		},
		ExpiresAt: expiresAt(claims.RegisteredClaims),
	}, nil
}
