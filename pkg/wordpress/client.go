// Package wordpress is a read-only client for the WordPress REST API
// (https://developer.wordpress.org/rest-api/reference/). It lists and
// retrieves posts and pages and exposes their text fields as plaintext.
package wordpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	apiRoot = "/wp-json/wp/v2/"

	HeaderTotal      = "X-WP-Total"
	HeaderTotalPages = "X-WP-TotalPages"

	// Unknown is reported for Total and TotalPages when the server omits the
	// pagination headers or sends a non-numeric value.
	Unknown = -1
)

// Collection names a remote collection endpoint.
type Collection string

const (
	Posts Collection = "posts"
	Pages Collection = "pages"
)

var (
	ErrInvalidBaseURL    = errors.New("invalid base url")
	ErrUnknownCollection = errors.New("unknown collection")
)

func (c Collection) validate() error {
	switch c {
	case Posts, Pages:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCollection, string(c))
}

// Client talks to a single WordPress installation. It keeps no state
// between calls and is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	transport Transport
	logger    Logger
}

type ClientOption func(*Client)

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithHTTPClient uses hc for the default transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.transport = NewHTTPTransport(hc)
	}
}

func WithLogger(l Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the installation at siteURL, e.g.
// "https://wordpress.org/news". No request is made.
func New(siteURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, siteURL)
	}
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		baseURL:   joinURL(u, apiRoot),
		transport: NewHTTPTransport(nil),
		logger:    NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root, e.g. "https://example.org/wp-json/wp/v2/".
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchCollection lists one page of the collection. PageSize and Offset in
// opts always win over per_page and offset keys in opts.Params.
func (c *Client) FetchCollection(ctx context.Context, coll Collection, opts Options) (*Response, error) {
	if err := coll.validate(); err != nil {
		return nil, err
	}
	query, err := opts.paginatedQuery()
	if err != nil {
		return nil, err
	}

	u := joinURL(c.baseURL, string(coll))
	u.RawQuery = query.Encode()
	target := u.String()
	c.logger.Log("http", "url: "+target)

	var records []record
	headers, err := c.transport.Get(ctx, target, &records)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(records))
	for _, r := range records {
		items = append(items, newItem(r))
	}

	return &Response{
		Total:      parseCount(headers, HeaderTotal),
		TotalPages: parseCount(headers, HeaderTotalPages),
		PageSize:   opts.pageSize(),
		Items:      items,
	}, nil
}

// FetchItem retrieves a single item. A missing id surfaces as the
// transport's *StatusError with StatusCode 404.
func (c *Client) FetchItem(ctx context.Context, id int, coll Collection) (*Item, error) {
	if err := coll.validate(); err != nil {
		return nil, err
	}

	target := joinURL(c.baseURL, string(coll), strconv.Itoa(id)).String()
	c.logger.Log("http", "url: "+target)

	var r record
	if _, err := c.transport.Get(ctx, target, &r); err != nil {
		return nil, err
	}
	return newItem(r), nil
}

// CountItems reports the total number of items matching opts using a HEAD
// request. No pagination defaults are added to the query.
func (c *Client) CountItems(ctx context.Context, coll Collection, opts Options) (int, error) {
	if err := coll.validate(); err != nil {
		return 0, err
	}
	query, err := opts.countQuery()
	if err != nil {
		return 0, err
	}

	u := joinURL(c.baseURL, string(coll))
	u.RawQuery = query.Encode()
	target := u.String()
	c.logger.Log("http", "url: "+target)

	headers, err := c.transport.Head(ctx, target)
	if err != nil {
		return 0, err
	}
	return parseCount(headers, HeaderTotal), nil
}

func (c *Client) FetchPosts(ctx context.Context, opts Options) (*Response, error) {
	return c.FetchCollection(ctx, Posts, opts)
}

func (c *Client) FetchPost(ctx context.Context, id int) (*Item, error) {
	return c.FetchItem(ctx, id, Posts)
}

func (c *Client) FetchPages(ctx context.Context, opts Options) (*Response, error) {
	return c.FetchCollection(ctx, Pages, opts)
}

func (c *Client) FetchPage(ctx context.Context, id int) (*Item, error) {
	return c.FetchItem(ctx, id, Pages)
}

func (c *Client) CountPosts(ctx context.Context, opts Options) (int, error) {
	return c.CountItems(ctx, Posts, opts)
}

func (c *Client) CountPages(ctx context.Context, opts Options) (int, error) {
	return c.CountItems(ctx, Pages, opts)
}

func parseCount(h http.Header, key string) int {
	v := h.Get(key)
	if v == "" {
		return Unknown
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return Unknown
	}
	return n
}
