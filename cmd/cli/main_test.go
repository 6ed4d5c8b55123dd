package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestTruncate(t *testing.T) {
	if got := truncate("LN-000001", 20); got != "LN-000001" {
		t.Fatalf("expected value unchanged, got %q", got)
	}

	if got := truncate("insufficient balance in scope", 10); got != "insuffi..." {
		t.Fatalf("expected insuffi..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			Balance string `json:"balance"`
		}{Balance: "1500"})
	})

	expected := "{\n  \"balance\": \"1500\"\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestComputeEMI(t *testing.T) {
	out := captureOutput(t, func() {
		if err := computeEMI("1200", "0", "12"); err != nil {
			t.Fatalf("computeEMI failed: %v", err)
		}
	})

	// Zero rate splits the principal evenly across the term.
	if !strings.Contains(out, "Installment:   100") {
		t.Fatalf("expected installment 100, got:\n%s", out)
	}
	if !strings.Contains(out, "Interest:      0") {
		t.Fatalf("expected zero interest, got:\n%s", out)
	}
}

func TestComputeEMIRejectsBadInput(t *testing.T) {
	if err := computeEMI("not-a-number", "1.5", "12"); err == nil {
		t.Fatal("expected error for invalid principal")
	}
	if err := computeEMI("1000", "1.5", "twelve"); err == nil {
		t.Fatal("expected error for invalid term")
	}
}

func TestHashPasswordCmd(t *testing.T) {
	orig := bcryptGenerate
	bcryptGenerate = func(p []byte, cost int) ([]byte, error) {
		return []byte("hashed-value"), nil
	}
	defer func() { bcryptGenerate = orig }()

	cmd := hashPasswordCmd()
	cmd.SetArgs([]string{"secret"})

	out := captureOutput(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("command failed: %v", err)
		}
	})

	if strings.TrimSpace(out) != "hashed-value" {
		t.Fatalf("expected hashed-value, got %q", out)
	}
}
