package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/loans", "/api/v1/loans"},
		{"/api/v1/loans/mine", "/api/v1/loans/mine"},
		{"/api/v1/loans/01HX5K3J8M", "/api/v1/loans/:id"},
		{"/api/v1/loans/01HX5K3J8M/repayments", "/api/v1/loans/:id/repayments"},
		{"/api/v1/loans/01HX5K3J8M/fund", "/api/v1/loans/:id/fund"},
		{"/api/v1/loans/01HX5K3J8M/status", "/api/v1/loans/:id/status"},
		{"/api/v1/ledger", "/api/v1/ledger"},
		{"/api/v1/ledger/balance", "/api/v1/ledger/balance"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
