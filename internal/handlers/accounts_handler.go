package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/accounts"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// AccountsHandler exposes the credential pool status
type AccountsHandler struct {
	config   *common.Config
	store    interfaces.AccountStore
	selector *accounts.Selector
	logger   arbor.ILogger
}

// NewAccountsHandler creates a new AccountsHandler
func NewAccountsHandler(config *common.Config, store interfaces.AccountStore, logger arbor.ILogger) *AccountsHandler {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &AccountsHandler{
		config:   config,
		store:    store,
		selector: accounts.NewSelector(config.Accounts.DailyLimit, logger),
		logger:   logger,
	}
}

// StatusHandler handles GET /api/accounts/status.
// Cookies and tokens never leave the server; the response carries masked
// per-row views only.
func (h *AccountsHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	pool, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load account pool")
		WriteError(w, http.StatusInternalServerError, "Failed to load account pool")
		return
	}

	eligible := h.selector.Available(pool)

	views := make([]models.AccountView, 0, len(pool))
	for _, account := range pool {
		views = append(views, account.View(h.config.Accounts.DailyLimit))
	}

	WriteJSON(w, http.StatusOK, models.AccountsStatusResponse{
		Total:      len(pool),
		Eligible:   len(eligible),
		DailyLimit: h.config.Accounts.DailyLimit,
		Accounts:   views,
	})
}
