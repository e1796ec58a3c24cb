package db

type PaymentSubmission struct {
	ID                  int64
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
