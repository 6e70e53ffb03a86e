package utils

import "strings"

//go:generate $MOCKGEN -source=user_agent_provider.go -destination=mocks/user_agent_provider_mock.go

// UserAgentProvider supplies the User-Agent sent with requests that do not carry one.
type UserAgentProvider interface {
	// GetUserAgent returns a User-Agent string.
	GetUserAgent() string
}

// StaticUserAgentProvider always returns the same User-Agent.
type StaticUserAgentProvider struct {
	userAgent string
}

// NewStaticUserAgentProvider returns a provider for userAgent.
// A blank userAgent falls back to fallback.
func NewStaticUserAgentProvider(userAgent, fallback string) UserAgentProvider {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		userAgent = fallback
	}

	return &StaticUserAgentProvider{userAgent: userAgent}
}

// GetUserAgent returns the configured User-Agent.
func (p *StaticUserAgentProvider) GetUserAgent() string {
	return p.userAgent
}
