// Package paymentform accepts the banking details a seller submits through
// a payment link and keeps them, with the account number encrypted.
package paymentform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"payform-backend/internal/components/assert"
	"payform-backend/internal/components/chrono"
	"payform-backend/internal/components/telemetry"
	"payform-backend/services/paylink"
	"payform-backend/services/paymentform/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("payform.services.paymentform")

const report_submit = "service.submit"

var ErrAlreadySubmitted = errors.New("this payment link has already been used")

// LinkVerifier decodes payment link tokens.
type LinkVerifier interface {
	PaymentDetails(ctx context.Context, token string) (paylink.PaymentLink, error)
}

// Receipt is returned for an accepted submission.
type Receipt struct {
	ConfirmationCode string
	Method           string
}

type Options struct {
	DB     *sql.DB
	Links  LinkVerifier
	Sealer Sealer
	Time   chrono.TimeAPI
	Tel    telemetry.API
}

type Service struct {
	store  Store
	makeTx db.MakeTx
	links  LinkVerifier
	sealer Sealer
	time   chrono.TimeAPI
	tel    telemetry.API
}

func NewService(opts Options) Service {
	assert.NotNil(opts.DB, "db")
	assert.NotNil(opts.Links, "links")
	assert.NotNil(opts.Time, "time")
	assert.NotNil(opts.Tel, "tel")

	return Service{
		store:  NewStore(opts.DB, opts.Sealer),
		makeTx: db.NewMakeTx(opts.DB),
		links:  opts.Links,
		sealer: opts.Sealer,
		time:   opts.Time,
		tel:    opts.Tel,
	}
}

func (s Service) Store() Store {
	return s.store
}

func last4(account string) string {
	if len(account) <= 4 {
		return account
	}
	return account[len(account)-4:]
}

func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: payment_submission."+column)
}

// Submit validates a submission made through the payment link `token` and
// stores it. Each link accepts a single submission.
func (s Service) Submit(ctx context.Context, token string, submission Submission) (Receipt, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()

	link, err := s.links.PaymentDetails(ctx, token)
	if err != nil {
		span.SetStatus(codes.Error, "invalid payment link")
		return Receipt{}, err
	}
	span.SetAttributes(
		attribute.String("auction_code", link.Query.AuctionCode),
		attribute.String("seller_id", link.Query.SellerId),
	)

	valid, err := submission.validate()
	if err != nil {
		span.SetStatus(codes.Error, "invalid submission")
		return Receipt{}, err
	}

	var sealed []byte
	if valid.accountNumber != "" {
		sealed, err = s.sealer.Seal([]byte(valid.accountNumber))
		if err != nil {
			span.RecordError(err)
			return Receipt{}, err
		}
	}

	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		span.RecordError(err)
		return Receipt{}, err
	}
	defer discard()

	used, err := txqry.LinkWasUsed(ctx, link.Id)
	if err != nil {
		span.RecordError(err)
		return Receipt{}, err
	}
	if used {
		span.SetStatus(codes.Error, "link already used")
		return Receipt{}, ErrAlreadySubmitted
	}

	params := db.CreatePaymentSubmissionParams{
		LinkID:              link.Id,
		AuctionCode:         link.Query.AuctionCode,
		SellerID:            link.Query.SellerId,
		SellerName:          link.Seller.Name,
		SellerEmail:         link.Seller.Email,
		AuctionTitle:        link.Seller.AuctionTitle,
		StatementDate:       link.Seller.StatementDate,
		AmountDue:           link.Seller.TotalDue.StringFixed(2),
		Method:              valid.method,
		EntityName:          valid.entityName,
		RoutingNumber:       valid.routingNumber,
		AccountType:         valid.accountType,
		AccountLast4:        last4(valid.accountNumber),
		AccountNumberSealed: sealed,
		CheckImage:          valid.checkImage,
		CheckImageType:      valid.checkImageType,
		CreatedAt:           s.time.Now().Unix(),
	}

	// confirmation codes are random, retry the rare collision
	for attempt := 0; ; attempt++ {
		params.ConfirmationCode, err = random.String(8)
		if err != nil {
			span.RecordError(err)
			return Receipt{}, err
		}
		params.ConfirmationCode = strings.ToUpper(params.ConfirmationCode)

		_, err = txqry.CreatePaymentSubmission(ctx, params)
		if isUniqueViolation(err, "confirmation_code") && attempt < 3 {
			continue
		}
		break
	}
	if isUniqueViolation(err, "link_id") {
		span.SetStatus(codes.Error, "link already used")
		return Receipt{}, ErrAlreadySubmitted
	}
	if err != nil {
		s.tel.ReportBroken(report_submit, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store submission")
		return Receipt{}, fmt.Errorf("store submission: %w", err)
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_submit, err)
		span.RecordError(err)
		return Receipt{}, err
	}

	return Receipt{
		ConfirmationCode: params.ConfirmationCode,
		Method:           string(valid.method),
	}, nil
}
