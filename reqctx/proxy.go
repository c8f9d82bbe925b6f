package reqctx

import (
	"net"
	"strings"
)

// Protocol returns "https" when the transport connection is encrypted.
// Otherwise X-Forwarded-Proto is consulted only when proxy trust is enabled;
// the first comma-separated token wins, defaulting to "http".
func (c *Context) Protocol() string {
	if c.req.TLS != nil {
		return "https"
	}
	if !c.cfg.Proxy {
		return "http"
	}
	if proto := firstToken(c.Get("X-Forwarded-Proto")); proto != "" {
		return proto
	}
	return "http"
}

// Secure reports whether the effective protocol is https.
func (c *Context) Secure() bool { return c.Protocol() == "https" }

// Host returns the effective host (hostname:port). With proxy trust enabled
// X-Forwarded-Host wins; otherwise the :authority pseudo-header for HTTP/2+
// connections, then the Host header. The first comma-separated token is
// taken. Returns "" when nothing is present.
func (c *Context) Host() string {
	var host string
	if c.cfg.Proxy {
		host = c.Get("X-Forwarded-Host")
	}
	if host == "" && c.req.ProtoMajor >= 2 {
		host = c.Get(":authority")
	}
	if host == "" {
		host = c.Get("Host")
	}
	if host == "" {
		// net/http promotes the Host header out of the header map
		host = c.req.Host
	}
	return firstToken(host)
}

// Hostname is Host with any port stripped. IPv6 literals ("[::1]:8080")
// are delegated to the memoized URL so brackets and port are stripped
// correctly; "" if that URL is unresolved.
func (c *Context) Hostname() string {
	host := c.Host()
	if host == "" {
		return ""
	}
	if strings.HasPrefix(host, "[") {
		return c.URL().Hostname()
	}
	hostname, _, _ := strings.Cut(host, ":")
	return hostname
}

// IP returns the client address: the first entry of IPs when present,
// otherwise the socket's remote address. Computed once per Context; later
// header changes don't alter it. SetIP overrides the memo directly.
func (c *Context) IP() string {
	if !c.ipSet {
		c.ipSet = true
		if ips := c.IPs(); len(ips) > 0 {
			c.ip = ips[0]
		} else {
			c.ip = remoteAddr(c.req.RemoteAddr)
		}
	}
	return c.ip
}

// SetIP overrides the memoized client address.
func (c *Context) SetIP(ip string) {
	c.ip = ip
	c.ipSet = true
}

// IPs returns the X-Forwarded-For chain (first entry is the original
// client, last the nearest trusted proxy) when proxy trust is enabled,
// otherwise nil.
func (c *Context) IPs() []string {
	if !c.cfg.Proxy {
		return nil
	}
	value := c.Get("X-Forwarded-For")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	ips := make([]string, 0, len(parts))
	for _, p := range parts {
		ips = append(ips, strings.TrimSpace(p))
	}
	return ips
}

// Subdomains returns the hostname's labels, leftmost-last, excluding the
// trailing SubdomainOffset labels. A literal IP address has no subdomains.
func (c *Context) Subdomains() []string {
	hostname := c.Hostname()
	if hostname == "" || net.ParseIP(hostname) != nil {
		return nil
	}
	labels := strings.Split(hostname, ".")
	// reverse so the registrable domain comes first, then drop it
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	if c.cfg.SubdomainOffset >= len(labels) {
		return nil
	}
	return labels[c.cfg.SubdomainOffset:]
}

func firstToken(value string) string {
	token, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(token)
}

// remoteAddr strips the port net/http includes in RemoteAddr. Values
// without a port pass through as-is.
func remoteAddr(addr string) string {
	if addr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
