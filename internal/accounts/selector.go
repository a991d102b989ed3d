package accounts

import (
	"errors"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// ErrNoEligibleAccount is returned when every account in the pool is
// unverified, over quota, or missing session tokens.
var ErrNoEligibleAccount = errors.New("no eligible account available")

// Selector picks scraping accounts from the pool. Accounts are considered
// in pool order and the first eligible one wins, so low-usage accounts do
// not get preferential treatment; the daily quota is the only brake.
type Selector struct {
	dailyLimit int
	logger     arbor.ILogger
}

func NewSelector(dailyLimit int, logger arbor.ILogger) *Selector {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Selector{
		dailyLimit: dailyLimit,
		logger:     logger,
	}
}

// Select returns the first eligible account in pool order.
func (s *Selector) Select(pool []*models.Account) (*models.Account, error) {
	for _, account := range pool {
		if account == nil {
			continue
		}
		if account.Eligible(s.dailyLimit) {
			return account, nil
		}
		s.logSkip(account)
	}
	return nil, ErrNoEligibleAccount
}

// Available returns every eligible account, preserving pool order.
func (s *Selector) Available(pool []*models.Account) []*models.Account {
	eligible := make([]*models.Account, 0, len(pool))
	for _, account := range pool {
		if account == nil {
			continue
		}
		if account.Eligible(s.dailyLimit) {
			eligible = append(eligible, account)
		}
	}
	return eligible
}

// DailyLimit reports the quota ceiling the selector enforces.
func (s *Selector) DailyLimit() int {
	return s.dailyLimit
}

func (s *Selector) logSkip(account *models.Account) {
	event := s.logger.Debug().
		Str("account", account.Label()).
		Str("status", string(account.Status)).
		Int("daily_usage", account.DailyUsage)

	switch {
	case account.Status != models.VerificationVerified:
		event.Msg("Account skipped: not verified")
	case account.DailyUsage >= s.dailyLimit:
		event.Msg("Account skipped: daily quota reached")
	case !account.Tokens.Complete():
		event.Msg("Account skipped: incomplete session tokens")
	default:
		event.Msg("Account skipped")
	}
}
