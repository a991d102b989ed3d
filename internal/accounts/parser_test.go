package accounts

import "testing"

func TestParseCookieBlob_JSONObject(t *testing.T) {
	tokens, err := ParseCookieBlob(`{"JSESSIONID": "ajax:1234567890", "li_at": "AQEDAxyz"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.SessionID != "ajax:1234567890" {
		t.Errorf("SessionID = %q, want %q", tokens.SessionID, "ajax:1234567890")
	}
	if tokens.AuthToken != "AQEDAxyz" {
		t.Errorf("AuthToken = %q, want %q", tokens.AuthToken, "AQEDAxyz")
	}
}

func TestParseCookieBlob_SingleQuotedDict(t *testing.T) {
	tokens, err := ParseCookieBlob(`{'JSESSIONID': 'ajax:987', 'li_at': 'AQEDAabc'}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.SessionID != "ajax:987" || tokens.AuthToken != "AQEDAabc" {
		t.Errorf("got (%q, %q), want (ajax:987, AQEDAabc)", tokens.SessionID, tokens.AuthToken)
	}
}

func TestParseCookieBlob_HeaderStyle(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		sessionID string
		authToken string
	}{
		{
			name:      "semicolon separated",
			raw:       `JSESSIONID=ajax:111; li_at=AQEDA111; bcookie=v2`,
			sessionID: "ajax:111",
			authToken: "AQEDA111",
		},
		{
			name:      "comma separated",
			raw:       `JSESSIONID=ajax:222, li_at=AQEDA222`,
			sessionID: "ajax:222",
			authToken: "AQEDA222",
		},
		{
			name:      "quoted values",
			raw:       `JSESSIONID="ajax:333"; li_at='AQEDA333'`,
			sessionID: "ajax:333",
			authToken: "AQEDA333",
		},
		{
			name:      "case insensitive keys",
			raw:       `jsessionid=ajax:444; LI_AT=AQEDA444`,
			sessionID: "ajax:444",
			authToken: "AQEDA444",
		},
		{
			name:      "missing auth token",
			raw:       `JSESSIONID=ajax:555; bscookie=x`,
			sessionID: "ajax:555",
			authToken: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := ParseCookieBlob(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tokens.SessionID != tt.sessionID {
				t.Errorf("SessionID = %q, want %q", tokens.SessionID, tt.sessionID)
			}
			if tokens.AuthToken != tt.authToken {
				t.Errorf("AuthToken = %q, want %q", tokens.AuthToken, tt.authToken)
			}
		})
	}
}

func TestParseCookieBlob_Unparseable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no pairs at all", "not a cookie"},
		{"broken json without pairs", "{JSESSIONID ajax}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCookieBlob(tt.raw); err == nil {
				t.Errorf("ParseCookieBlob(%q) expected error, got nil", tt.raw)
			}
		})
	}
}

func TestParseCookieBlob_IncompleteTokensNoError(t *testing.T) {
	// Parse succeeds even when the required cookies are absent; the
	// eligibility check catches incomplete token sets downstream.
	tokens, err := ParseCookieBlob(`bcookie=v2; lang=en`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.Complete() {
		t.Error("expected incomplete tokens")
	}
}
