package mets

import (
	"net/url"
	"strings"

	"emperror.dev/errors"
)

type urlParts struct {
	scheme    string
	netloc    string
	hasNetloc bool
	path      string
	params    string
	query     string
	fragment  string
}

func isSchemeChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case first:
		return false
	case c >= '0' && c <= '9', c == '+', c == '-', c == '.':
		return true
	}
	return false
}

func splitURL(raw string) (*urlParts, error) {
	p := &urlParts{}
	rest := raw
	if i := strings.Index(rest, ":"); i > 0 {
		valid := true
		for j := 0; j < i; j++ {
			if !isSchemeChar(rest[j], j == 0) {
				valid = false
				break
			}
		}
		if valid {
			p.scheme = strings.ToLower(rest[:i])
			rest = rest[i+1:]
		}
	}
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		p.netloc = rest[:end]
		p.hasNetloc = true
		rest = rest[end:]
		if strings.Contains(p.netloc, "[") != strings.Contains(p.netloc, "]") {
			return nil, errors.Errorf("invalid IPv6 url '%s'", raw)
		}
	}
	if i := strings.Index(rest, "#"); i >= 0 {
		p.fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.Index(rest, "?"); i >= 0 {
		p.query = rest[i+1:]
		rest = rest[:i]
	}
	last := strings.LastIndex(rest, "/")
	if i := strings.Index(rest[last+1:], ";"); i >= 0 {
		p.params = rest[last+1+i+1:]
		rest = rest[:last+1+i]
	}
	p.path = rest
	return p, nil
}

func (p *urlParts) String() string {
	var sb strings.Builder
	if p.scheme != "" {
		sb.WriteString(p.scheme)
		sb.WriteString(":")
	}
	if p.hasNetloc {
		sb.WriteString("//")
		sb.WriteString(p.netloc)
		if p.path != "" && !strings.HasPrefix(p.path, "/") {
			sb.WriteString("/")
		}
	}
	sb.WriteString(p.path)
	if p.params != "" {
		sb.WriteString(";")
		sb.WriteString(p.params)
	}
	if p.query != "" {
		sb.WriteString("?")
		sb.WriteString(p.query)
	}
	if p.fragment != "" {
		sb.WriteString("#")
		sb.WriteString(p.fragment)
	}
	return sb.String()
}

func quotePlus(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2F", "/")
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// unquotePlus decodes '+' and valid %XX escapes and keeps everything else.
func unquotePlus(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '+':
			sb.WriteByte(' ')
		case '%':
			if i+2 < len(s) {
				h, ok1 := unhex(s[i+1])
				l, ok2 := unhex(s[i+2])
				if ok1 && ok2 {
					sb.WriteByte(h<<4 | l)
					i += 2
					continue
				}
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// URLEncode percent-encodes path, params, query and fragment of raw.
// Scheme and network location are kept.
func URLEncode(raw string) (string, error) {
	p, err := splitURL(raw)
	if err != nil {
		return "", errors.WithStack(err)
	}
	p.path = quotePlus(p.path)
	p.params = quotePlus(p.params)
	p.query = quotePlus(p.query)
	p.fragment = quotePlus(p.fragment)
	return p.String(), nil
}

// URLDecode reverses URLEncode.
func URLDecode(raw string) (string, error) {
	p, err := splitURL(raw)
	if err != nil {
		return "", errors.WithStack(err)
	}
	p.path = unquotePlus(p.path)
	p.params = unquotePlus(p.params)
	p.query = unquotePlus(p.query)
	p.fragment = unquotePlus(p.fragment)
	return p.String(), nil
}
