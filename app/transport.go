package app

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/fiffu/buzdealz/config"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

func NewTransport(log *zap.Logger) http.RoundTripper {
	return &transport{http.DefaultTransport, log}
}

type transport struct {
	base http.RoundTripper
	log  *zap.Logger
}

func (tpt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	res, err := tpt.base.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		tpt.log.Debug("Outbound request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	tpt.log.Debug("Outbound request", append(fields, zap.Int("status", res.StatusCode))...)
	return res, nil
}

// NewHTTPClient is the client for the backend API. The session lives in its
// cookie jar.
func NewHTTPClient(cfg *config.Config, transport http.RoundTripper) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.APITimeout(),
	}, nil
}
