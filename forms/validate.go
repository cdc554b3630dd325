// ABOUTME: Field validation for CRM forms
// ABOUTME: Collects per-field messages so a form can show them inline before any request
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrInvalid = errors.New("invalid input")
	ErrPending = errors.New("a submission is already in progress")
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// Err returns nil when there are no errors.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Fields: fe}
}

type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

func required(fe FieldErrors, field, v string) {
	if strings.TrimSpace(v) == "" {
		fe.add(field, "is required")
	}
}

func email(fe FieldErrors, field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		fe.add(field, "must be a valid email address")
	}
}

// webURL accepts http(s) URLs and bare hosts such as acme.com, which are
// stored as typed.
func webURL(fe FieldErrors, field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	u, err := url.ParseRequestURI(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !strings.Contains(u.Hostname(), ".") {
		fe.add(field, "must be a web address")
	}
}

func maxLen(fe FieldErrors, field, v string, limit int) {
	if len(v) > limit {
		fe.add(field, fmt.Sprintf("must be at most %d characters", limit))
	}
}

func oneOf(fe FieldErrors, field, v string, allowed []string) {
	if v == "" {
		return
	}
	for _, a := range allowed {
		if a == v {
			return
		}
	}
	fe.add(field, "must be one of "+strings.Join(allowed, ", "))
}

// changed returns a pointer to next when it differs from prev after trimming.
func changed(prev, next string) *string {
	next = strings.TrimSpace(next)
	if next == prev {
		return nil
	}
	return &next
}
