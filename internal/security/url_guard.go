package security

import (
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// URLGuard はインポート元URLへの外部アクセスを制限する。
// 事前の静的チェックと、接続時にIPを検証するHTTPクライアントの両方を提供する。
type URLGuard interface {
	// Check はURLを解析し、スキーム・ホストが許可されている場合に返す。
	Check(rawURL string) (*url.URL, error)

	// Client は接続先IPをダイヤル時に検証するHTTPクライアントを返す。
	Client() *http.Client
}

var allowedSchemes = []string{"http", "https"}

// blockedPrefixes はDNS解決前に拒否するアドレス範囲。
var blockedPrefixes = mustParsePrefixes(
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

var blockedHosts = []string{
	"localhost",
	"metadata.google.internal",
}

func mustParsePrefixes(cidrs ...string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		prefixes = append(prefixes, netip.MustParsePrefix(c))
	}
	return prefixes
}

type urlGuard struct {
	client *http.Client
}

// NewURLGuard は指定タイムアウトのsafeurlクライアントを持つURLGuardを生成する。
// safeurlはDialerのControlフックで解決後のIPを検証するため、DNS再バインディングも防げる。
func NewURLGuard(timeout time.Duration) *urlGuard {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return &urlGuard{client: safeurl.Client(cfg).Client}
}

// Client はSSRF対策済みのHTTPクライアントを返す。
func (g *urlGuard) Client() *http.Client {
	return g.client
}

// Check はDNS解決を伴わない静的な検証を行う。
func (g *urlGuard) Check(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, s := range allowedSchemes {
		if scheme == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("disallowed scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("missing host")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isBlockedAddr(addr) {
			return nil, &BlockedError{Host: host}
		}
		return u, nil
	}

	if isBlockedHost(host) {
		return nil, &BlockedError{Host: host}
	}
	return u, nil
}

// BlockedError は内部ネットワーク宛てとして拒否されたことを表す。
type BlockedError struct {
	Host string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("blocked host: %s", e.Host)
}

func isBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func isBlockedHost(host string) bool {
	host = strings.TrimSuffix(host, ".")
	for _, b := range blockedHosts {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	// 10.0.0.1.nip.io のような名前解決で内部IPになるホストは接続時にsafeurlが拒否する
	return false
}
