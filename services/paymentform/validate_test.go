package paymentform

import (
	"bytes"
	"encoding/base64"
	"testing"

	"payform-backend/services/paymentform/db"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestValidRoutingNumber(t *testing.T) {
	for _, valid := range []string{"021000021", "011401533", "111000025"} {
		require.True(t, ValidRoutingNumber(valid), valid)
	}
	for _, invalid := range []string{"123456789", "02100002", "0210000210", "02100002a", ""} {
		require.False(t, ValidRoutingNumber(invalid), invalid)
	}
}

func manualSubmission() Submission {
	return Submission{
		Method:         "manual",
		EntityName:     "Sarah Williams",
		RoutingNumber:  "021000021",
		AccountNumber:  "0001234567",
		AccountType:    "checking",
		TermsAgreement: true,
	}
}

func TestValidateManual(t *testing.T) {
	valid, err := manualSubmission().validate()
	require.NoError(t, err)
	require.Equal(t, db.METHOD_MANUAL, valid.method)
	require.Equal(t, "0001234567", valid.accountNumber)

	sub := manualSubmission()
	sub.AccountNumber = "0001 2345-67"
	sub.AccountType = "Savings"
	valid, err = sub.validate()
	require.NoError(t, err)
	require.Equal(t, "0001234567", valid.accountNumber)
	require.Equal(t, AccountSavings, valid.accountType)

	cases := map[string]func(*Submission){
		"termsAgreement": func(s *Submission) { s.TermsAgreement = false },
		"method":         func(s *Submission) { s.Method = "" },
		"entityName":     func(s *Submission) { s.EntityName = "  " },
		"routingNumber":  func(s *Submission) { s.RoutingNumber = "123456789" },
		"accountNumber":  func(s *Submission) { s.AccountNumber = "123" },
		"accountType":    func(s *Submission) { s.AccountType = "brokerage" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			sub := manualSubmission()
			mutate(&sub)
			_, err := sub.validate()
			require.ErrorIs(t, err, ErrInvalidSubmission)
			var validationErr ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, field, validationErr.Field)
		})
	}

	sub = manualSubmission()
	sub.AccountNumber = "123456789012345678"
	_, err = sub.validate()
	require.ErrorIs(t, err, ErrInvalidSubmission)
}

func TestValidateCheck(t *testing.T) {
	image := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)

	sub := Submission{
		Method:         "check",
		CheckImage:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
		TermsAgreement: true,
	}
	valid, err := sub.validate()
	require.NoError(t, err)
	require.Equal(t, db.METHOD_CHECK, valid.method)
	require.Equal(t, "image/png", valid.checkImageType)
	require.Equal(t, image, valid.checkImage)

	sub.CheckImage = base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 voided check"))
	valid, err = sub.validate()
	require.NoError(t, err)
	require.Equal(t, "application/pdf", valid.checkImageType)

	rejected := []string{
		"",
		"not base64!",
		base64.StdEncoding.EncodeToString([]byte("just some text")),
		base64.StdEncoding.EncodeToString(append(append([]byte{}, pngHeader...), make([]byte, MaxCheckImageSize)...)),
	}
	for _, encoded := range rejected {
		sub.CheckImage = encoded
		_, err := sub.validate()
		require.ErrorIs(t, err, ErrInvalidSubmission)
	}
}
