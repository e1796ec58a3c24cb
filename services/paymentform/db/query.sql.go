package db

import (
	"context"
)

const createPaymentSubmission = `-- name: CreatePaymentSubmission :one
insert into payment_submission(
    confirmation_code, link_id, auction_code, seller_id, seller_name,
    seller_email, auction_title, statement_date, amount_due, method,
    entity_name, routing_number, account_type, account_last4,
    account_number_sealed, check_image, check_image_type, created_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
returning id
`

type CreatePaymentSubmissionParams struct {
	ConfirmationCode    string
	LinkID              string
	AuctionCode         string
	SellerID            string
	SellerName          string
	SellerEmail         string
	AuctionTitle        string
	StatementDate       string
	AmountDue           string
	Method              Method
	EntityName          string
	RoutingNumber       string
	AccountType         string
	AccountLast4        string
	AccountNumberSealed []byte
	CheckImage          []byte
	CheckImageType      string
	CreatedAt           int64
}

func (q *Queries) CreatePaymentSubmission(ctx context.Context, arg CreatePaymentSubmissionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createPaymentSubmission,
		arg.ConfirmationCode,
		arg.LinkID,
		arg.AuctionCode,
		arg.SellerID,
		arg.SellerName,
		arg.SellerEmail,
		arg.AuctionTitle,
		arg.StatementDate,
		arg.AmountDue,
		arg.Method,
		arg.EntityName,
		arg.RoutingNumber,
		arg.AccountType,
		arg.AccountLast4,
		arg.AccountNumberSealed,
		arg.CheckImage,
		arg.CheckImageType,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const linkWasUsed = `-- name: LinkWasUsed :one
select exists(select 1 from payment_submission where link_id = ?)
`

func (q *Queries) LinkWasUsed(ctx context.Context, linkID string) (bool, error) {
	row := q.db.QueryRowContext(ctx, linkWasUsed, linkID)
	var used bool
	err := row.Scan(&used)
	return used, err
}

const getPaymentSubmission = `-- name: GetPaymentSubmission :one
select id, confirmation_code, link_id, auction_code, seller_id, seller_name, seller_email, auction_title, statement_date, amount_due, method, entity_name, routing_number, account_type, account_last4, account_number_sealed, check_image, check_image_type, created_at from payment_submission where confirmation_code = ?
`

func (q *Queries) GetPaymentSubmission(ctx context.Context, confirmationCode string) (PaymentSubmission, error) {
	row := q.db.QueryRowContext(ctx, getPaymentSubmission, confirmationCode)
	var i PaymentSubmission
	err := row.Scan(
		&i.ID,
		&i.ConfirmationCode,
		&i.LinkID,
		&i.AuctionCode,
		&i.SellerID,
		&i.SellerName,
		&i.SellerEmail,
		&i.AuctionTitle,
		&i.StatementDate,
		&i.AmountDue,
		&i.Method,
		&i.EntityName,
		&i.RoutingNumber,
		&i.AccountType,
		&i.AccountLast4,
		&i.AccountNumberSealed,
		&i.CheckImage,
		&i.CheckImageType,
		&i.CreatedAt,
	)
	return i, err
}

const listPaymentSubmissions = `-- name: ListPaymentSubmissions :many
select
    id, confirmation_code, auction_code, seller_id, seller_name,
    seller_email, amount_due, method, account_last4, created_at
from payment_submission
order by created_at desc, id desc
limit ?
`

type ListPaymentSubmissionsRow struct {
	ID               int64
	ConfirmationCode string
	AuctionCode      string
	SellerID         string
	SellerName       string
	SellerEmail      string
	AmountDue        string
	Method           Method
	AccountLast4     string
	CreatedAt        int64
}

func (q *Queries) ListPaymentSubmissions(ctx context.Context, limit int64) ([]ListPaymentSubmissionsRow, error) {
	rows, err := q.db.QueryContext(ctx, listPaymentSubmissions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPaymentSubmissionsRow
	for rows.Next() {
		var i ListPaymentSubmissionsRow
		if err := rows.Scan(
			&i.ID,
			&i.ConfirmationCode,
			&i.AuctionCode,
			&i.SellerID,
			&i.SellerName,
			&i.SellerEmail,
			&i.AmountDue,
			&i.Method,
			&i.AccountLast4,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
