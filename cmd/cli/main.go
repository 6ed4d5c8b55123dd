package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/loanledger/internal/domain"
)

var (
	baseURL   string
	authToken string
	timeout   time.Duration

	// seam for tests
	bcryptGenerate = bcrypt.GenerateFromPassword
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "loanledger-cli",
		Short: "LoanLedger CLI tool",
		Long:  `A command line interface for the LoanLedger API and related admin tasks.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the LoanLedger API")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Bearer token for authenticated endpoints")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency()
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a scope balance",
		Run: func(cmd *cobra.Command, args []string) {
			userID, _ := cmd.Flags().GetString("user")
			studentID, _ := cmd.Flags().GetString("student")
			showBalance(userID, studentID)
		},
	}
	balanceCmd.Flags().String("user", "", "Scope to a user's sub-ledger")
	balanceCmd.Flags().String("student", "", "Scope to one student application (requires --user)")

	ledgerCmd.AddCommand(consistencyCmd, balanceCmd)

	emiCmd := &cobra.Command{
		Use:   "emi <principal> <monthly-rate-percent> <term-months>",
		Short: "Compute the fixed installment for a loan offline",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return computeEMI(args[0], args[1], args[2])
		},
	}

	rootCmd.AddCommand(ledgerCmd, emiCmd, hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// hashPasswordCmd hashes a password for seeding admin users directly in the
// database.
func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Produce a bcrypt hash for seeding users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

func computeEMI(principalArg, rateArg, termArg string) error {
	principal, err := decimal.NewFromString(principalArg)
	if err != nil {
		return fmt.Errorf("invalid principal %q: %w", principalArg, err)
	}

	rate, err := decimal.NewFromString(rateArg)
	if err != nil {
		return fmt.Errorf("invalid rate %q: %w", rateArg, err)
	}

	var term int
	if _, err := fmt.Sscanf(termArg, "%d", &term); err != nil {
		return fmt.Errorf("invalid term %q: %w", termArg, err)
	}

	result, err := domain.ComputeAmortization(principal, rate, term)
	if err != nil {
		return err
	}

	fmt.Printf("Installment:   %s\n", result.Installment)
	fmt.Printf("Total payable: %s\n", result.TotalPayable)
	fmt.Printf("Interest:      %s\n", result.TotalPayable.Sub(principal))
	return nil
}

func apiGet(path string) ([]byte, int, error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

func checkConsistency() {
	body, status, err := apiGet("/api/v1/ledger/consistency")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}

	if status != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", status, truncate(string(body), 500))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Consistency check PASSED\n")
	printJSON(result)
}

func showBalance(userID, studentID string) {
	path := "/api/v1/ledger/balance"
	if userID != "" {
		path += "?user_id=" + userID
		if studentID != "" {
			path += "&student_id=" + studentID
		}
	}

	body, status, err := apiGet(path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}

	if status != http.StatusOK {
		fmt.Printf("Balance request failed (Status: %d)\nResponse: %s\n", status, truncate(string(body), 500))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printJSON(result)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to format output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
