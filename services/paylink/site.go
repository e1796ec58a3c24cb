package paylink

import (
	"context"

	"payform-backend/lib/scrapers/auctionsite"
)

// Session is an authenticated auction site session.
type Session interface {
	FetchStatement(ctx context.Context, query auctionsite.StatementQuery) (auctionsite.Statement, error)
	Cookies() []auctionsite.SerializedCookie
}

// Site opens sessions against the auction site.
//
// note: fault injection point
type Site interface {
	Login(ctx context.Context, username, password string) (Session, error)
	Restore(ctx context.Context, cookies []auctionsite.SerializedCookie) (Session, error)
}

type auctionSite struct {
	site auctionsite.Site
}

// NewAuctionSite adapts an auctionsite.Site to the Site interface.
func NewAuctionSite(site auctionsite.Site) Site {
	return auctionSite{site: site}
}

func (s auctionSite) Login(ctx context.Context, username, password string) (Session, error) {
	client, err := s.site.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s auctionSite) Restore(ctx context.Context, cookies []auctionsite.SerializedCookie) (Session, error) {
	client, err := s.site.Restore(ctx, cookies)
	if err != nil {
		return nil, err
	}
	return client, nil
}
