package ldap

import (
	"context"
	"fmt"

	goldap "github.com/go-ldap/ldap/v3"

	"persondir/internal/rowset"
)

// Conn is the subset of *ldap.Conn the searcher needs.
type Conn interface {
	Search(req *goldap.SearchRequest) (*goldap.SearchResult, error)
}

// Client is the production Searcher over a go-ldap connection. The connection
// is owned by the caller and created once at configuration time; dialing,
// binding and TLS are configured there.
type Client struct {
	conn   Conn
	baseDN string

	// sizeLimit caps the entries returned per search; 0 means no client-side
	// limit beyond what the server enforces.
	sizeLimit int
}

// NewClient builds a searcher over an established directory connection.
func NewClient(conn Conn, baseDN string, sizeLimit int) *Client {
	return &Client{conn: conn, baseDN: baseDN, sizeLimit: sizeLimit}
}

// Search runs a whole-subtree search under the base DN. Each entry becomes a
// row keyed by directory attribute name, with the full multi-valued attribute
// value list preserved.
func (c *Client) Search(ctx context.Context, filter string, attributes []string) ([]rowset.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := goldap.NewSearchRequest(
		c.baseDN,
		goldap.ScopeWholeSubtree,
		goldap.NeverDerefAliases,
		c.sizeLimit,
		0, // time limit is enforced by the connection's configured timeout
		false,
		filter,
		attributes,
		nil,
	)

	res, err := c.conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("ldap search %q under %q: %w", filter, c.baseDN, err)
	}

	rows := make([]rowset.Row, 0, len(res.Entries))
	for _, entry := range res.Entries {
		row := make(rowset.Row, len(entry.Attributes))
		for _, attr := range entry.Attributes {
			row[attr.Name] = attr.Values
		}
		rows = append(rows, row)
	}
	return rows, nil
}
