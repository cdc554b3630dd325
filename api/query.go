// ABOUTME: Query-string builder for CRM list endpoints
// ABOUTME: Drops empty values and expands slices into repeated keys
package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Param is one query-string key and its raw value.
type Param struct {
	Key   string
	Value any
}

// Params keeps insertion order so identical filters always build identical paths.
type Params []Param

// WithQueryParams appends params to path. Nil values, nil pointers, empty
// strings and empty slices are skipped. Slices produce one key per element.
func WithQueryParams(path string, params Params) string {
	var parts []string
	for _, p := range params {
		for _, v := range paramValues(p.Value) {
			parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(v))
		}
	}
	if len(parts) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(parts, "&")
}

func paramValues(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return nonEmpty(v)
	case *string:
		if v == nil {
			return nil
		}
		return nonEmpty(*v)
	case int:
		return []string{strconv.Itoa(v)}
	case *int:
		if v == nil {
			return nil
		}
		return []string{strconv.Itoa(*v)}
	case bool:
		return []string{strconv.FormatBool(v)}
	case *bool:
		if v == nil {
			return nil
		}
		return []string{strconv.FormatBool(*v)}
	case uuid.UUID:
		return []string{v.String()}
	case *uuid.UUID:
		if v == nil {
			return nil
		}
		return []string{v.String()}
	case []string:
		var out []string
		for _, s := range v {
			out = append(out, nonEmpty(s)...)
		}
		return out
	case []uuid.UUID:
		out := make([]string, 0, len(v))
		for _, id := range v {
			out = append(out, id.String())
		}
		return out
	case fmt.Stringer:
		return nonEmpty(v.String())
	default:
		return nonEmpty(fmt.Sprint(v))
	}
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
