package accounts

import (
	"testing"

	"github.com/ternarybob/colligo/internal/models"
)

func verifiedAccount(row int, usage int) *models.Account {
	return &models.Account{
		Row: row,
		Tokens: models.SessionTokens{
			SessionID: "ajax:token",
			AuthToken: "AQEDAtoken",
		},
		Status:     models.VerificationVerified,
		DailyUsage: usage,
	}
}

func TestSelector_Select_PoolOrder(t *testing.T) {
	selector := NewSelector(250, nil)

	first := verifiedAccount(2, 249)
	second := verifiedAccount(3, 10)
	pool := []*models.Account{first, second}

	// Pool order wins even though the second account has far lower usage.
	selected, err := selector.Select(pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected != first {
		t.Fatalf("selected row %d, want row %d", selected.Row, first.Row)
	}

	// Once the first account hits quota, selection moves to the next one.
	first.DailyUsage++
	selected, err = selector.Select(pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected != second {
		t.Fatalf("selected row %d, want row %d", selected.Row, second.Row)
	}
}

func TestSelector_Select_SkipsIneligible(t *testing.T) {
	unverified := verifiedAccount(2, 0)
	unverified.Status = models.VerificationUnverified

	overQuota := verifiedAccount(3, 250)

	missingTokens := verifiedAccount(4, 0)
	missingTokens.Tokens.AuthToken = ""

	eligible := verifiedAccount(5, 100)

	selector := NewSelector(250, nil)
	selected, err := selector.Select([]*models.Account{unverified, overQuota, missingTokens, nil, eligible})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected != eligible {
		t.Fatalf("selected row %d, want row %d", selected.Row, eligible.Row)
	}
}

func TestSelector_Select_Exhausted(t *testing.T) {
	selector := NewSelector(250, nil)

	pool := []*models.Account{
		verifiedAccount(2, 250),
		verifiedAccount(3, 300),
	}

	if _, err := selector.Select(pool); err != ErrNoEligibleAccount {
		t.Fatalf("err = %v, want ErrNoEligibleAccount", err)
	}

	if _, err := selector.Select(nil); err != ErrNoEligibleAccount {
		t.Fatalf("empty pool err = %v, want ErrNoEligibleAccount", err)
	}
}

func TestSelector_Available(t *testing.T) {
	a := verifiedAccount(2, 0)
	b := verifiedAccount(3, 250)
	c := verifiedAccount(4, 249)

	selector := NewSelector(250, nil)
	available := selector.Available([]*models.Account{a, b, c})

	if len(available) != 2 {
		t.Fatalf("len(available) = %d, want 2", len(available))
	}
	if available[0] != a || available[1] != c {
		t.Errorf("available order = [%d, %d], want [2, 4]", available[0].Row, available[1].Row)
	}
}
