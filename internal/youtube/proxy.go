package youtube

import (
	"errors"
	"net/url"
	"regexp"
)

// ErrInvalidProxy is returned when a proxy string does not match the
// user:pass@host:port format.
var ErrInvalidProxy = errors.New("invalid proxy string format, expected username:password@hostname:port")

var proxyPattern = regexp.MustCompile(`^([^:]+):([^@]+)@([^:]+):(\d+)$`)

// ProxyConfig is an authenticated HTTP proxy for upstream calls.
type ProxyConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

// ParseProxy parses a user:pass@host:port string.
func ParseProxy(s string) (*ProxyConfig, error) {
	m := proxyPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, ErrInvalidProxy
	}
	return &ProxyConfig{
		Username: m[1],
		Password: m[2],
		Host:     m[3],
		Port:     m[4],
	}, nil
}

// URL builds the http proxy URL for use with http.Transport.
func (p *ProxyConfig) URL() *url.URL {
	return &url.URL{
		Scheme: "http",
		User:   url.UserPassword(p.Username, p.Password),
		Host:   p.Host + ":" + p.Port,
	}
}
