package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Loan metrics
	LoansSubmitted  prometheus.Counter
	LoansFunded     prometheus.Counter
	LoansCompleted  prometheus.Counter
	StatusOverrides *prometheus.CounterVec
	LoanPrincipal   prometheus.Histogram

	// Repayment metrics
	RepaymentsApplied prometheus.Counter
	RepaymentAmount   prometheus.Histogram

	// Ledger metrics
	WithdrawalAmount    prometheus.Histogram
	WithdrawalsRejected prometheus.Counter
	DepositAmount       prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		LoansSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_loans_submitted_total",
			Help: "Total number of loan applications submitted",
		}),
		LoansFunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_loans_funded_total",
			Help: "Total number of loans disbursed",
		}),
		LoansCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_loans_completed_total",
			Help: "Total number of loans fully repaid",
		}),
		StatusOverrides: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loanledger_status_overrides_total",
			Help: "Total number of admin status overrides by target status",
		}, []string{"target"}),
		LoanPrincipal: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanledger_loan_principal",
			Help:    "Requested principal of submitted loans",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}),
		RepaymentsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_repayments_applied_total",
			Help: "Total number of repayments applied",
		}),
		RepaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanledger_repayment_amount",
			Help:    "Amount of individual repayments",
			Buckets: prometheus.ExponentialBuckets(10, 10, 6),
		}),
		WithdrawalAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanledger_withdrawal_amount",
			Help:    "Amount of ledger withdrawals",
			Buckets: prometheus.ExponentialBuckets(10, 10, 6),
		}),
		WithdrawalsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_withdrawals_rejected_total",
			Help: "Total number of withdrawals rejected for insufficient balance",
		}),
		DepositAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanledger_deposit_amount",
			Help:    "Amount of ledger deposits",
			Buckets: prometheus.ExponentialBuckets(10, 10, 6),
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loanledger_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loanledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		HTTPInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "loanledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}
