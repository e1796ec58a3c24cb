package auctionsite

import (
	"context"
	"errors"
	"net/http"
)

// SerializedCookie is the portable form of one session cookie, it is what
// gets embedded in a staff token.
type SerializedCookie struct {
	Name  string `json:"n"`
	Value string `json:"v"`
}

var errNoCookies = errors.New("no cookies to restore")

// Cookies returns the cookies the site has set for this session.
func (c *Client) Cookies() []SerializedCookie {
	cookies := c.jar.Cookies(c.BaseUrl)
	out := make([]SerializedCookie, 0, len(cookies))
	for _, cookie := range cookies {
		out = append(out, SerializedCookie{Name: cookie.Name, Value: cookie.Value})
	}
	return out
}

// Restore loads previously serialized cookies into the client and runs the
// session initialization again, the restored session is only usable if
// that succeeds.
func (c *Client) Restore(ctx context.Context, cookies []SerializedCookie) error {
	ctx, span := tracer.Start(ctx, "client:Restore")
	defer span.End()

	if len(cookies) == 0 {
		return errNoCookies
	}

	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		httpCookies = append(httpCookies, &http.Cookie{
			Name:  cookie.Name,
			Value: cookie.Value,
			Path:  "/",
		})
	}
	c.jar.SetCookies(c.BaseUrl, httpCookies)

	err := c.initialize(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
