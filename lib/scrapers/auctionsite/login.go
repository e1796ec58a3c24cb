package auctionsite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"payform-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("payform.scrapers.auctionsite")

const (
	report_bootstrap  = "client.bootstrap"
	report_login      = "client.login"
	report_initialize = "client.initialize"
)

// SessionCookieName is the cookie the auction site sets once a login succeeded.
const SessionCookieName = "sessiontoken"

const loginErrorSelector = ".alert-danger, .alert-error, .error-message, .message-error"

type loginResponse struct {
	Status  string `json:"status"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

func (c *Client) ajax() *resty.Request {
	return c.Http.R().
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetHeader("Accept", "application/json, text/plain, */*")
}

// bootstrap walks the same pages a browser loads before the login form is
// submitted. None of the steps are required for the login to work so
// failures are only reported.
func (c *Client) bootstrap(ctx context.Context) {
	steps := []struct {
		name string
		send func() (*resty.Response, error)
	}{
		{"login-page", func() (*resty.Response, error) {
			return c.Http.R().SetContext(ctx).Get("/login")
		}},
		{"cookies", func() (*resty.Response, error) {
			return c.ajax().SetContext(ctx).Get("/api/cookies")
		}},
		{"session", func() (*resty.Response, error) {
			return c.ajax().SetContext(ctx).Get("/api/getsession")
		}},
		{"request-url", func() (*resty.Response, error) {
			return c.ajax().
				SetContext(ctx).
				SetFormData(map[string]string{"url": c.BaseUrl.String() + "/"}).
				Post("/api/setrequesturl")
		}},
	}

	for _, step := range steps {
		res, err := step.send()
		if err != nil {
			c.tel.ReportWarning(report_bootstrap, step.name, err)
			continue
		}
		if !res.IsSuccess() {
			c.tel.ReportWarning(report_bootstrap, step.name, res.StatusCode())
		}
	}
}

func (c *Client) hasSessionCookie(res *resty.Response) bool {
	for _, cookie := range res.Cookies() {
		if cookie.Name == SessionCookieName && cookie.Value != "" {
			return true
		}
	}
	for _, cookie := range c.jar.Cookies(c.BaseUrl) {
		if cookie.Name == SessionCookieName && cookie.Value != "" {
			return true
		}
	}
	return false
}

// loginFailureReason finds the message the site gave for a rejected login,
// either in the json body or in the alert of an html page.
func loginFailureReason(res *resty.Response, parsed loginResponse) string {
	if parsed.Msg != "" {
		return parsed.Msg
	}
	if parsed.Message != "" {
		return parsed.Message
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return ""
	}
	alert := doc.Find(loginErrorSelector).First()
	if alert.Length() == 0 {
		return ""
	}
	return htmlutil.NormalizeSpace(alert.Text())
}

// Login performs the browser handshake, submits the credentials and
// initializes the session so that statements can be fetched.
//
// A login counts as successful if the site answers with a json status of
// "success" or if it set the session cookie, it is rejected with an
// AuthFailure otherwise.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	c.bootstrap(ctx)

	res, err := c.ajax().
		SetContext(ctx).
		SetFormData(map[string]string{
			"user_name": username,
			"password":  password,
			"autologin": "",
		}).
		SetHeader("Origin", c.BaseUrl.String()).
		SetHeader("Referer", c.BaseUrl.String()+"/login/").
		Post("/api/ajaxlogin")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		c.tel.ReportBroken(report_login, err)
		return fmt.Errorf("login request: %w", err)
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "login rejected")
		return AuthFailure{Reason: fmt.Sprintf("login returned status %d", res.StatusCode())}
	}

	var parsed loginResponse
	// the body is not always json, a parse failure is the same as no status
	_ = json.Unmarshal(res.Body(), &parsed)

	if !strings.EqualFold(parsed.Status, "success") && !c.hasSessionCookie(res) {
		span.SetStatus(codes.Error, "login rejected")
		return AuthFailure{Reason: loginFailureReason(res, parsed)}
	}

	err = c.initialize(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize session")
		return AuthFailure{Reason: err.Error()}
	}
	return nil
}

// initialize makes the two calls the site requires before it will render
// statements for a session.
func (c *Client) initialize(ctx context.Context) error {
	res, err := c.ajax().
		SetContext(ctx).
		SetHeader("Referer", c.BaseUrl.String()+"/").
		Get("/api/initdata")
	if err != nil {
		c.tel.ReportBroken(report_initialize, "initdata", err)
		return fmt.Errorf("initialize session: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("initialize session: initdata returned status %d", res.StatusCode())
	}

	res, err = c.ajax().
		SetContext(ctx).
		SetHeader("Referer", c.BaseUrl.String()+"/").
		SetFormData(map[string]string{
			"past_sales": "false",
			"meta_also":  "true",
		}).
		Post("/api/auctions")
	if err != nil {
		c.tel.ReportBroken(report_initialize, "auctions", err)
		return fmt.Errorf("initialize session: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("initialize session: auctions returned status %d", res.StatusCode())
	}
	return nil
}
