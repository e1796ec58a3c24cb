package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"payform-backend/internal/components/chrono"
	"payform-backend/internal/components/telemetry"
	"payform-backend/lib/scrapers/auctionsite"
	"payform-backend/lib/scrapers/auctionsite/auctionsitetest"
	"payform-backend/lib/sqliteutil"
	"payform-backend/lib/statement"
	"payform-backend/services/paylink"
	"payform-backend/services/paymentform"
	"payform-backend/services/paymentform/db"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const statementPage = `<html><body>
<h2>Seller Statement</h2>
<p>Seller Number: 145 Sarah Williams</p>
<p>Email: sarah.williams@example.com</p>
<p>Statement For: Estate Liquidation - Franklin, TN</p>
<p>Statement Date: 03/27/2025</p>
<p>Total Amount Due $1,245.78</p>
</body></html>`

type fakeNotifier struct {
	mu   sync.Mutex
	sent []paylink.PaymentLinkEmail
	err  error
}

func (n *fakeNotifier) SendPaymentLink(ctx context.Context, msg paylink.PaymentLinkEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

type fixture struct {
	router   *gin.Engine
	notifier *fakeNotifier
	forms    paymentform.Service
}

type fixtureOptions struct {
	notifyErr error
	// runs the service in admin mode logging in with this password, the
	// fake site accepts "correct-horse"
	adminPassword string
}

func setup(t testing.TB, opts fixtureOptions) fixture {
	gin.SetMode(gin.TestMode)

	siteUser, sitePass := "staff", "hunter2"
	if opts.adminPassword != "" {
		siteUser, sitePass = "admin", "correct-horse"
	}
	srv := auctionsitetest.NewServer(auctionsitetest.Options{
		Username: siteUser,
		Password: sitePass,
		Statements: map[string]string{
			"/admin/statements/printreport/auction/EL0325/sellerid/145": statementPage,
		},
	})
	t.Cleanup(srv.Close)

	clock := chrono.NewFixedImpl(time.Date(2025, time.March, 27, 9, 30, 0, 0, time.UTC))
	tel := telemetry.NewRecorder()

	tokens, err := paylink.NewTokens(paylink.TokenOptions{Secret: "test-secret", Time: clock})
	require.NoError(t, err)
	notifier := &fakeNotifier{err: opts.notifyErr}
	linkOpts := paylink.Options{
		Site: paylink.NewAuctionSite(auctionsite.NewSite(auctionsite.ClientOptions{
			BaseUrl: srv.URL,
			Timeout: 5 * time.Second,
			Tel:     tel,
		})),
		Tokens:        tokens,
		Extractor:     statement.NewExtractor(clock),
		Notifier:      notifier,
		PublicBaseUrl: "https://pay.example.com",
		Tel:           tel,
	}
	if opts.adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte("clerk-pass"), bcrypt.MinCost)
		require.NoError(t, err)
		linkOpts.Admin = paylink.AdminCredentials{Username: "admin", Password: opts.adminPassword}
		linkOpts.Staff = []paylink.StaffAccount{{Username: "clerk", PasswordHash: string(hash)}}
	}
	links, err := paylink.NewService(linkOpts)
	require.NoError(t, err)

	database, err := sqliteutil.OpenMemory(db.Schema)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	key, err := paymentform.GenerateKey()
	require.NoError(t, err)
	sealer, err := paymentform.NewSealer(key)
	require.NoError(t, err)
	forms := paymentform.NewService(paymentform.Options{
		DB:     database,
		Links:  links,
		Sealer: sealer,
		Time:   clock,
		Tel:    tel,
	})

	return fixture{
		router: NewRouter(Options{
			Links:         links,
			Forms:         forms,
			AllowedOrigin: "https://pay.example.com",
			Tel:           tel,
		}),
		notifier: notifier,
		forms:    forms,
	}
}

func (f fixture) do(t testing.TB, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		req.Header[key] = values
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func decode[T any](t testing.TB, res *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out), res.Body.String())
	return out
}

func (f fixture) login(t testing.TB) string {
	res := f.do(t, http.MethodPost, "/api/authenticate", authenticateRequest{Username: "staff", Password: "hunter2"}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	body := decode[authenticateResponse](t, res)
	require.Equal(t, "Authentication successful", body.Message)
	require.Equal(t, body.StaffAuthToken, body.Token)
	require.Equal(t, "staff", body.User.Username)
	require.Equal(t, "staff", body.User.Role)
	return body.StaffAuthToken
}

func (f fixture) issue(t testing.TB, staffToken string) string {
	res := f.do(t, http.MethodPost, "/api/send-payment-link", sendPaymentLinkRequest{
		StaffAuthToken: staffToken,
		AuctionCode:    "EL0325",
		SellerId:       "145",
	}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	body := decode[sendPaymentLinkResponse](t, res)
	require.Equal(t, "sarah.williams@example.com", body.Recipient)

	shareUrl, err := url.Parse(body.ShareUrl)
	require.NoError(t, err)
	return shareUrl.Query().Get("token")
}

func TestPaymentLinkFlow(t *testing.T) {
	f := setup(t, fixtureOptions{})

	token := f.issue(t, f.login(t))
	require.NotEmpty(t, token)
	require.Len(t, f.notifier.sent, 1)

	res := f.do(t, http.MethodGet, "/api/get-payment-details?token="+url.QueryEscape(token), nil, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.JSONEq(t, `{
		"sellerName": "Sarah Williams",
		"sellerEmail": "sarah.williams@example.com",
		"auctionDetails": "Estate Liquidation - Franklin, TN",
		"statementDate": "03/27/2025",
		"amountDue": 1245.78,
		"auctionCode": "EL0325",
		"sellerId": "145",
		"expiresAt": "2025-03-28T09:30:00Z"
	}`, res.Body.String())

	submission := map[string]any{
		"token":          token,
		"method":         "manual",
		"entityName":     "Sarah Williams",
		"routingNumber":  "021000021",
		"accountNumber":  "0001234567",
		"accountType":    "checking",
		"termsAgreement": true,
	}
	res = f.do(t, http.MethodPost, "/api/payment-details", submission, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	receipt := decode[submitResponse](t, res)
	require.Len(t, receipt.ConfirmationCode, 8)

	stored, err := f.forms.Store().Get(context.Background(), receipt.ConfirmationCode)
	require.NoError(t, err)
	require.Equal(t, "EL0325", stored.AuctionCode)

	res = f.do(t, http.MethodPost, "/api/payment-details", submission, nil)
	require.Equal(t, http.StatusConflict, res.Code, res.Body.String())
}

func TestLegacyFunctionPaths(t *testing.T) {
	f := setup(t, fixtureOptions{})

	res := f.do(t, http.MethodPost, "/.netlify/functions/authenticate", authenticateRequest{Username: "staff", Password: "hunter2"}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	staffToken := decode[authenticateResponse](t, res).Token

	res = f.do(t, http.MethodPost, "/.netlify/functions/send-payment-link", sendPaymentLinkRequest{
		AuctionCode: "EL0325",
		SellerId:    "145",
	}, http.Header{"Authorization": {"Bearer " + staffToken}})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
}

func TestAuthenticateRejected(t *testing.T) {
	f := setup(t, fixtureOptions{})

	res := f.do(t, http.MethodPost, "/api/authenticate", authenticateRequest{Username: "staff", Password: "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, res.Code, res.Body.String())
	require.Contains(t, decode[errorResponse](t, res).Message, "Invalid credentials")
}

func TestSendPaymentLinkErrors(t *testing.T) {
	f := setup(t, fixtureOptions{})
	staffToken := f.login(t)

	cases := []struct {
		name    string
		request sendPaymentLinkRequest
		status  int
	}{
		{
			name:    "missing token",
			request: sendPaymentLinkRequest{AuctionCode: "EL0325", SellerId: "145"},
			status:  http.StatusUnauthorized,
		},
		{
			name:    "forged token",
			request: sendPaymentLinkRequest{StaffAuthToken: "not-a-token", AuctionCode: "EL0325", SellerId: "145"},
			status:  http.StatusUnauthorized,
		},
		{
			name:    "invalid query",
			request: sendPaymentLinkRequest{StaffAuthToken: staffToken, AuctionCode: "EL0325", SellerId: "../145"},
			status:  http.StatusBadRequest,
		},
		{
			name:    "unknown seller",
			request: sendPaymentLinkRequest{StaffAuthToken: staffToken, AuctionCode: "EL0325", SellerId: "999"},
			status:  http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.do(t, http.MethodPost, "/api/send-payment-link", tc.request, nil)
			require.Equal(t, tc.status, res.Code, res.Body.String())
		})
	}
}

func TestSendPaymentLinkNotifyFailed(t *testing.T) {
	f := setup(t, fixtureOptions{notifyErr: errors.New("smtp down")})

	res := f.do(t, http.MethodPost, "/api/send-payment-link", sendPaymentLinkRequest{
		StaffAuthToken: f.login(t),
		AuctionCode:    "EL0325",
		SellerId:       "145",
	}, nil)
	require.Equal(t, http.StatusBadGateway, res.Code, res.Body.String())
	body := decode[errorResponse](t, res)
	require.Contains(t, body.ShareUrl, "https://pay.example.com/?token=")
}

func TestSendPaymentLinkAdminLoginRejected(t *testing.T) {
	f := setup(t, fixtureOptions{adminPassword: "stale"})

	res := f.do(t, http.MethodPost, "/api/authenticate", authenticateRequest{Username: "clerk", Password: "clerk-pass"}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	staffToken := decode[authenticateResponse](t, res).StaffAuthToken

	res = f.do(t, http.MethodPost, "/api/send-payment-link", sendPaymentLinkRequest{
		StaffAuthToken: staffToken,
		AuctionCode:    "EL0325",
		SellerId:       "145",
	}, nil)
	require.Equal(t, http.StatusInternalServerError, res.Code, res.Body.String())
	require.Equal(t, msgAdminLogin, decode[errorResponse](t, res).Message)
}

func TestStaffError(t *testing.T) {
	rejected := auctionsite.AuthFailure{Reason: "Invalid username or password."}

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "staff credentials rejected",
			err:     fmt.Errorf("log in: %w", rejected),
			status:  http.StatusUnauthorized,
			message: "Invalid credentials: Invalid username or password.",
		},
		{
			name:    "admin account rejected",
			err:     fmt.Errorf("%w: %v", paylink.ErrAdminLogin, rejected),
			status:  http.StatusInternalServerError,
			message: msgAdminLogin,
		},
		{
			name:    "session expired",
			err:     fmt.Errorf("%w: cookies", paylink.ErrSessionExpired),
			status:  http.StatusUnauthorized,
			message: msgSessionExpired,
		},
		{
			name:    "statement not found",
			err:     paylink.ExtractionError{Reason: paylink.ExtractionFetch},
			status:  http.StatusNotFound,
			message: msgNoSellerData,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, res := staffError(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.message, res.Message)
		})
	}
}

func TestPaymentDetailsInvalidToken(t *testing.T) {
	f := setup(t, fixtureOptions{})

	for _, path := range []string{"/api/get-payment-details", "/api/get-payment-details?token=garbage"} {
		res := f.do(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusNotFound, res.Code, path)
		require.Equal(t, msgInvalidLink, decode[errorResponse](t, res).Message)
	}

	// a staff token must not open the payment form
	staffToken := f.login(t)
	res := f.do(t, http.MethodGet, "/api/get-payment-details?token="+url.QueryEscape(staffToken), nil, nil)
	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestSubmitValidationError(t *testing.T) {
	f := setup(t, fixtureOptions{})
	token := f.issue(t, f.login(t))

	res := f.do(t, http.MethodPost, "/api/payment-details", map[string]any{
		"token":          token,
		"method":         "manual",
		"entityName":     "Sarah Williams",
		"routingNumber":  "123456789",
		"accountNumber":  "0001234567",
		"accountType":    "checking",
		"termsAgreement": true,
	}, nil)
	require.Equal(t, http.StatusBadRequest, res.Code, res.Body.String())
	require.Equal(t, "routingNumber", decode[errorResponse](t, res).Field)
}

func TestAllowOrigin(t *testing.T) {
	f := setup(t, fixtureOptions{})

	res := f.do(t, http.MethodOptions, "/api/send-payment-link", nil, http.Header{"Origin": {"https://pay.example.com"}})
	require.Equal(t, http.StatusNoContent, res.Code)
	require.Equal(t, "https://pay.example.com", res.Header().Get("Access-Control-Allow-Origin"))

	res = f.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
}
