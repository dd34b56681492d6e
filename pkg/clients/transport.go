package clients

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single HTTP attempt against a vendor API.
const DefaultTimeout = 30 * time.Second

// DefaultTransport returns a transport sized for a handful of concurrent
// vendor calls per invocation.
func DefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxConnsPerHost:     10,
		MaxIdleConnsPerHost: 4,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// DefaultHTTPClient returns a client using DefaultTransport and DefaultTimeout.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Transport: DefaultTransport(), Timeout: DefaultTimeout}
}
