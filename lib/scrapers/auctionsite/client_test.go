package auctionsite

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"payform-backend/internal/components/telemetry"
	"payform-backend/lib/scrapers/auctionsite/auctionsitetest"

	"github.com/stretchr/testify/require"
)

const testStatement = `<html><body>
<h2>Seller Statement</h2>
<p>Seller Number: 145 Sarah Williams</p>
<p>Total Amount Due $1,245.78</p>
</body></html>`

var testQuery = StatementQuery{AuctionCode: "A1", SellerId: "145"}

func newTestClient(t testing.TB, srv *auctionsitetest.Server, tel telemetry.API) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl: srv.URL,
		Timeout: 5 * time.Second,
		Tel:     tel,
	})
	require.NoError(t, err)
	return client
}

func newTestServer(opts auctionsitetest.Options) *auctionsitetest.Server {
	opts.Username = "staff"
	opts.Password = "hunter2"
	if opts.Statements == nil {
		opts.Statements = map[string]string{
			"/admin/statements/printreport/auction/A1/sellerid/145": testStatement,
		}
	}
	return auctionsitetest.NewServer(opts)
}

func TestLoginSuccessSignals(t *testing.T) {
	signals := map[string]auctionsitetest.LoginSignal{
		"json and cookie": auctionsitetest.SignalBoth,
		"json only":       auctionsitetest.SignalJSON,
		"cookie only":     auctionsitetest.SignalCookie,
	}

	for name, signal := range signals {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(auctionsitetest.Options{Signal: signal})
			defer srv.Close()

			client := newTestClient(t, srv, telemetry.NewRecorder())
			err := client.Login(context.Background(), "staff", "hunter2")
			require.NoError(t, err)

			require.Equal(t, 1, srv.Requested("GET /api/initdata"))
			require.Equal(t, 1, srv.Requested("POST /api/auctions"))

			statement, err := client.FetchStatement(context.Background(), testQuery)
			require.NoError(t, err)
			require.Contains(t, statement.Html, "Sarah Williams")
		})
	}
}

func TestLoginHandshakeOrder(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{})
	defer srv.Close()

	client := newTestClient(t, srv, telemetry.NewRecorder())
	err := client.Login(context.Background(), "staff", "hunter2")
	require.NoError(t, err)

	require.Equal(t, []string{
		"GET /login",
		"GET /api/cookies",
		"GET /api/getsession",
		"POST /api/setrequesturl",
		"POST /api/ajaxlogin",
		"GET /api/initdata",
		"POST /api/auctions",
	}, srv.Requests())
}

func TestLoginRejected(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{})
	defer srv.Close()

	client := newTestClient(t, srv, telemetry.NewRecorder())
	err := client.Login(context.Background(), "staff", "wrong")
	require.ErrorIs(t, err, ErrAuthFailure)

	var failure AuthFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, "Invalid username or password.", failure.Reason)

	require.Equal(t, 0, srv.Requested("GET /api/initdata"))
}

func TestLoginNonSuccessStatus(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{LoginStatus: http.StatusForbidden})
	defer srv.Close()

	client := newTestClient(t, srv, telemetry.NewRecorder())
	err := client.Login(context.Background(), "staff", "hunter2")
	require.ErrorIs(t, err, ErrAuthFailure)
}

func TestBootstrapFailureTolerated(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{FailBootstrap: true})
	defer srv.Close()

	tel := telemetry.NewRecorder()
	client := newTestClient(t, srv, tel)
	err := client.Login(context.Background(), "staff", "hunter2")
	require.NoError(t, err)

	bootstrapWarnings := 0
	for _, report := range tel.Reports(telemetry.KindWarning) {
		if report.Id == report_bootstrap {
			bootstrapWarnings++
		}
	}
	require.Equal(t, 4, bootstrapWarnings)
}

func TestFetchStatementCandidates(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{
		Statements: map[string]string{
			"/admin/statements/printreport/auction/A1/sellerid/145":    "<html><body>Report unavailable</body></html>",
			"/admin/statements/view/auction/A1/sellerid/145":           testStatement,
			"/admin/statements/printreport/auction/A1/consignorid/145": testStatement,
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv, telemetry.NewRecorder())
	require.NoError(t, client.Login(context.Background(), "staff", "hunter2"))

	statement, err := client.FetchStatement(context.Background(), testQuery)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/admin/statements/view/auction/A1/sellerid/145", statement.Url)

	require.Equal(t, 1, srv.Requested("GET /admin/statements/printreport/auction/A1/sellerid/145"))
	require.Equal(t, 1, srv.Requested("GET /statements/printreport/auction/A1/sellerid/145"))
	require.Equal(t, 1, srv.Requested("GET /admin/statements/view/auction/A1/sellerid/145"))
	require.Equal(t, 0, srv.Requested("GET /admin/statements/printreport/auction/A1/consignorid/145"))
}

func TestFetchStatementNotFound(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{Statements: map[string]string{}})
	defer srv.Close()

	client := newTestClient(t, srv, telemetry.NewRecorder())
	require.NoError(t, client.Login(context.Background(), "staff", "hunter2"))

	_, err := client.FetchStatement(context.Background(), testQuery)
	require.ErrorIs(t, err, ErrNotFound)

	var notFound NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Len(t, notFound.TriedUrls, len(DefaultStatementPaths))
	require.Equal(t, srv.URL+"/admin/statements/printreport/auction/A1/sellerid/145", notFound.TriedUrls[0])
}

func TestFetchStatementRejectsLoginPage(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{})
	defer srv.Close()

	// never logged in, the site answers with its login page
	client := newTestClient(t, srv, telemetry.NewRecorder())
	_, err := client.FetchStatement(context.Background(), testQuery)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRestore(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{})
	defer srv.Close()

	site := NewSite(ClientOptions{BaseUrl: srv.URL, Tel: telemetry.NewRecorder()})
	original, err := site.Login(context.Background(), "staff", "hunter2")
	require.NoError(t, err)
	cookies := original.Cookies()
	require.NotEmpty(t, cookies)

	restored, err := site.Restore(context.Background(), cookies)
	require.NoError(t, err)
	require.Equal(t, 2, srv.Requested("GET /api/initdata"))

	statement, err := restored.FetchStatement(context.Background(), testQuery)
	require.NoError(t, err)
	require.Contains(t, statement.Html, "Seller Number")

	srv.ExpireSessions()
	_, err = site.Restore(context.Background(), cookies)
	require.Error(t, err)

	_, err = site.Restore(context.Background(), nil)
	require.Error(t, err)
}

func TestStatementQueryValidate(t *testing.T) {
	require.NoError(t, StatementQuery{AuctionCode: "spring-2025", SellerId: "145"}.Validate())
	require.Error(t, StatementQuery{AuctionCode: "", SellerId: "145"}.Validate())
	require.Error(t, StatementQuery{AuctionCode: "A1", SellerId: ""}.Validate())
	require.Error(t, StatementQuery{AuctionCode: "../admin", SellerId: "145"}.Validate())
	require.Error(t, StatementQuery{AuctionCode: "A1", SellerId: "1 45"}.Validate())
}

func TestIsStatement(t *testing.T) {
	require.True(t, IsStatement(testStatement))
	require.False(t, IsStatement(auctionsitetest.LoginPage))
	require.False(t, IsStatement("<html><body>Nothing here</body></html>"))

	statements := []string{
		"<h3>Statement</h3><p>Seller: Jane Roe</p><p>Email: jane@example.com</p><p>Total Due: $5.00</p>",
		"<p>Seller: Jane Roe</p><p>Balance Due: $5.00</p>",
		"<p>Consignor #: 12 Jane Roe</p>",
	}
	for _, markup := range statements {
		require.True(t, IsStatement(markup), markup)
	}

	// sentinels only count in the visible text
	require.False(t, IsStatement(`<html><body><a href="/admin/statements/">Back</a></body></html>`))
}

func TestFetchStatementPlainLabels(t *testing.T) {
	srv := newTestServer(auctionsitetest.Options{
		Statements: map[string]string{
			"/admin/statements/printreport/auction/A1/sellerid/145": "<html><body><h3>Statement</h3><p>Seller: Jane Roe</p><p>Total Due: $5.00</p></body></html>",
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv, telemetry.NewRecorder())
	require.NoError(t, client.Login(context.Background(), "staff", "hunter2"))

	statement, err := client.FetchStatement(context.Background(), testQuery)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/admin/statements/printreport/auction/A1/sellerid/145", statement.Url)
}
