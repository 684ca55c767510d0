package tracker

import (
	"context"
	"net/url"
	"strconv"
)

// placeholderDomain satisfies the protocol's mandatory domain argument
// when a query is keyed by fid alone. It never reaches callers.
const placeholderDomain = "mogfiledebug"

// Query selects a file either by (domain, key) or by fid. Exactly one
// variant is used per lookup.
type Query interface {
	args() url.Values
}

// ByKey looks a file up by its domain and key.
type ByKey struct {
	Domain string
	Key    string
}

func (q ByKey) args() url.Values {
	v := url.Values{}
	v.Set("domain", q.Domain)
	v.Set("key", q.Key)
	return v
}

// ByFID looks a file up by its numeric file ID.
type ByFID struct {
	FID int64
}

func (q ByFID) args() url.Values {
	v := url.Values{}
	v.Set("domain", placeholderDomain)
	v.Set("fid", strconv.FormatInt(q.FID, 10))
	return v
}

// FileDebug issues the file_debug command and returns the flat field map
// describing the file: devpath_* copy URLs plus <group>_<field> records.
func (c *Client) FileDebug(ctx context.Context, q Query) (map[string]string, error) {
	vals, err := c.Do(ctx, "file_debug", q.args())
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(vals))
	for k := range vals {
		fields[k] = vals.Get(k)
	}
	return fields, nil
}
