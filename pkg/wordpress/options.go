package wordpress

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 10

var ErrUnsupportedParam = errors.New("unsupported query parameter value")

// Options controls a collection request. Params carries any documented
// endpoint argument (order, orderby, search, categories, ...) verbatim.
type Options struct {
	PageSize int
	Offset   int
	Params   map[string]any
}

func (o Options) pageSize() int {
	if o.PageSize <= 0 {
		return DefaultPageSize
	}
	return o.PageSize
}

func (o Options) offset() int {
	if o.Offset < 0 {
		return 0
	}
	return o.Offset
}

// paginatedQuery serializes Params and then overwrites per_page and offset
// with the effective values.
func (o Options) paginatedQuery() (url.Values, error) {
	q, err := encodeParams(o.Params)
	if err != nil {
		return nil, err
	}
	q.Set("per_page", strconv.Itoa(o.pageSize()))
	q.Set("offset", strconv.Itoa(o.offset()))
	return q, nil
}

// countQuery serializes Params, adding per_page and offset only when the
// caller set them.
func (o Options) countQuery() (url.Values, error) {
	q, err := encodeParams(o.Params)
	if err != nil {
		return nil, err
	}
	if o.PageSize > 0 {
		q.Set("per_page", strconv.Itoa(o.PageSize))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	return q, nil
}

func encodeParams(params map[string]any) (url.Values, error) {
	q := make(url.Values, len(params)+2)
	for k, v := range params {
		s, err := scalarString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, k)
		}
		q.Set(k, s)
	}
	return q, nil
}

func scalarString(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", fmt.Errorf("%w (nil %T)", ErrUnsupportedParam, v)
	}

	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), nil
	case reflect.String:
		return rv.String(), nil
	}
	return "", fmt.Errorf("%w (%T)", ErrUnsupportedParam, v)
}

// joinURL appends path segments to base with exactly one slash between them.
// The base path is kept as sent: escapes such as %2F survive and dot
// segments are not resolved. A trailing slash on the last segment is kept.
func joinURL(base *url.URL, segments ...string) *url.URL {
	joined := strings.TrimRight(base.EscapedPath(), "/")
	for _, seg := range segments {
		if seg = strings.Trim(seg, "/"); seg != "" {
			joined += "/" + seg
		}
	}
	trailing := len(segments) > 0 && strings.HasSuffix(segments[len(segments)-1], "/")
	if trailing || joined == "" {
		joined += "/"
	}

	u := *base
	u.RawPath = joined
	if p, err := url.PathUnescape(joined); err == nil {
		u.Path = p
	} else {
		u.Path = joined
	}
	return &u
}
