package models

import (
	"fmt"
	"strings"
)

// VerificationStatus represents the vetting state of a pool account
type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
	VerificationOther      VerificationStatus = "other"
)

// ParseVerificationStatus normalizes a raw status cell into a known value.
// Anything that isn't "verified" or "unverified" maps to VerificationOther.
func ParseVerificationStatus(raw string) VerificationStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(VerificationVerified):
		return VerificationVerified
	case string(VerificationUnverified):
		return VerificationUnverified
	default:
		return VerificationOther
	}
}

// SessionTokens holds the two cookie values the upstream service requires.
// Produced by the two-stage cookie-blob parser in the accounts package.
type SessionTokens struct {
	SessionID string `json:"jsessionid"` // JSESSIONID cookie value
	AuthToken string `json:"li_at"`      // li_at cookie value
}

// Complete reports whether both required tokens are present
func (t SessionTokens) Complete() bool {
	return t.SessionID != "" && t.AuthToken != ""
}

// Account represents one credential record from the pool store.
// Row is the back-reference into the store (1-based data row) used for
// usage writebacks. Usage counts dispatches, not profiles.
type Account struct {
	Row        int                `json:"row"`
	RawCookie  string             `json:"-"` // Never serialized; parsed into Tokens at load
	Tokens     SessionTokens      `json:"-"`
	Proxy      string             `json:"-"`
	Status     VerificationStatus `json:"status"`
	DailyUsage int                `json:"daily_usage"`
}

// Eligible reports whether this account may be handed to a dispatcher:
// verified, under quota, and carrying both session tokens.
func (a *Account) Eligible(dailyLimit int) bool {
	return a.Status == VerificationVerified &&
		a.DailyUsage < dailyLimit &&
		a.Tokens.Complete()
}

// Label returns a short identifier for logs, derived from the store row
func (a *Account) Label() string {
	return fmt.Sprintf("account[row=%d]", a.Row)
}

// AccountView is the masked representation exposed by the accounts status
// endpoint. Tokens and proxies never leave the process.
type AccountView struct {
	Row        int    `json:"row"`
	Status     string `json:"status"`
	DailyUsage int    `json:"daily_usage"`
	DailyLimit int    `json:"daily_limit"`
	Eligible   bool   `json:"eligible"`
	HasTokens  bool   `json:"has_tokens"`
	Proxy      string `json:"proxy"` // Redacted to host only
}

// View returns the masked status row for this account
func (a *Account) View(dailyLimit int) AccountView {
	return AccountView{
		Row:        a.Row,
		Status:     string(a.Status),
		DailyUsage: a.DailyUsage,
		DailyLimit: dailyLimit,
		Eligible:   a.Eligible(dailyLimit),
		HasTokens:  a.Tokens.Complete(),
		Proxy:      redactProxy(a.Proxy),
	}
}

// redactProxy strips credentials from a proxy descriptor, keeping only the
// host portion so operators can still tell pools apart.
func redactProxy(proxy string) string {
	if proxy == "" {
		return ""
	}
	// user:pass@host:port form - keep everything after the last '@'
	if at := strings.LastIndex(proxy, "@"); at >= 0 && at < len(proxy)-1 {
		return "***@" + proxy[at+1:]
	}
	// scheme://host:port form without credentials passes through
	return proxy
}
