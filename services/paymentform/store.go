package paymentform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"payform-backend/services/paymentform/db"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// Summary is a stored submission without its sensitive fields.
type Summary struct {
	ConfirmationCode string
	AuctionCode      string
	SellerId         string
	SellerName       string
	SellerEmail      string
	AmountDue        string
	Method           string
	AccountLast4     string
	CreatedAt        time.Time
}

// Store reads submissions back out of the database.
type Store struct {
	qry    *db.Queries
	sealer Sealer
}

func NewStore(database *sql.DB, sealer Sealer) Store {
	return Store{qry: db.New(database), sealer: sealer}
}

func (s Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.qry.ListPaymentSubmissions(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(rows))
	for i, row := range rows {
		out[i] = Summary{
			ConfirmationCode: row.ConfirmationCode,
			AuctionCode:      row.AuctionCode,
			SellerId:         row.SellerID,
			SellerName:       row.SellerName,
			SellerEmail:      row.SellerEmail,
			AmountDue:        row.AmountDue,
			Method:           string(row.Method),
			AccountLast4:     row.AccountLast4,
			CreatedAt:        time.Unix(row.CreatedAt, 0),
		}
	}
	return out, nil
}

func (s Store) Get(ctx context.Context, confirmationCode string) (db.PaymentSubmission, error) {
	row, err := s.qry.GetPaymentSubmission(ctx, confirmationCode)
	if errors.Is(err, sql.ErrNoRows) {
		return db.PaymentSubmission{}, ErrSubmissionNotFound
	}
	return row, err
}

// AccountNumber decrypts the account number of a submission made with the
// manual method.
func (s Store) AccountNumber(row db.PaymentSubmission) (string, error) {
	if len(row.AccountNumberSealed) == 0 {
		return "", nil
	}
	plaintext, err := s.sealer.Open(row.AccountNumberSealed)
	if err != nil {
		return "", fmt.Errorf("open account number of %s: %w", row.ConfirmationCode, err)
	}
	return string(plaintext), nil
}
