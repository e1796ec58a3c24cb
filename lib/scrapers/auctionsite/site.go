package auctionsite

import "context"

// Site creates sessions against one auction site.
type Site struct {
	opts ClientOptions
}

func NewSite(opts ClientOptions) Site {
	return Site{opts: opts}
}

// Login creates a fresh client and logs it in.
func (s Site) Login(ctx context.Context, username, password string) (*Client, error) {
	client, err := NewClient(s.opts)
	if err != nil {
		return nil, err
	}
	err = client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Restore creates a fresh client out of previously serialized cookies.
func (s Site) Restore(ctx context.Context, cookies []SerializedCookie) (*Client, error) {
	client, err := NewClient(s.opts)
	if err != nil {
		return nil, err
	}
	err = client.Restore(ctx, cookies)
	if err != nil {
		return nil, err
	}
	return client, nil
}
