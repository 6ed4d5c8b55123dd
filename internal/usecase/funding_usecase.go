package usecase

import (
	"context"
	"time"

	"github.com/iho/loanledger/internal/domain"
)

// FundingUseCase disburses approved loans. Funding recomputes the debt
// snapshot from the stored principal, marks the loan Disbursed and appends
// the Credit ledger entry, all in one transaction.
type FundingUseCase struct {
	txManager   TransactionManager
	loanRepo    LoanRepository
	ledgerRepo  LedgerRepository
	studentRepo StudentRepository
	outbox      OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	cache       Cache
}

// NewFundingUseCase creates a new FundingUseCase.
func NewFundingUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	ledgerRepo LedgerRepository,
	studentRepo StudentRepository,
	outbox OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	cache Cache,
) *FundingUseCase {
	return &FundingUseCase{
		txManager:   txManager,
		loanRepo:    loanRepo,
		ledgerRepo:  ledgerRepo,
		studentRepo: studentRepo,
		outbox:      outbox,
		auditRepo:   auditRepo,
		idGen:       idGen,
		cache:       cache,
	}
}

// FundLoanInput identifies the loan and the funding partner.
type FundLoanInput struct {
	LoanID    string
	PartnerID string
	RequestID string
}

// FundLoan disburses a loan on behalf of a partner. The partner must be
// linked to the loan's owner through a student referral; a loan that was
// already disbursed is rejected, so double funding cannot create a second
// Credit entry.
func (uc *FundingUseCase) FundLoan(ctx context.Context, input FundLoanInput) (*domain.Loan, error) {
	loan, err := uc.loanRepo.GetByID(ctx, input.LoanID)
	if err != nil {
		return nil, err
	}

	student, err := uc.studentRepo.FindByUserAndPartner(ctx, loan.UserID, input.PartnerID)
	if err != nil {
		return nil, domain.ErrPartnerNotLinked
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Re-read under lock: the pre-check above is only advisory.
	loan, err = uc.loanRepo.GetByIDForUpdate(ctx, tx, input.LoanID)
	if err != nil {
		return nil, err
	}

	before := domain.MarshalState(loan)

	am, err := domain.ComputeAmortization(loan.PrincipalRequested, loan.MonthlyRatePercent, loan.PeriodMonths)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if err := loan.MarkDisbursed(am.Installment, am.TotalPayable, now); err != nil {
		return nil, err
	}

	loan.StudentID = &student.ID
	loan.PartnerID = &input.PartnerID
	loan.UpdatedAt = now

	if err := uc.loanRepo.Update(ctx, tx, loan); err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:             uc.idGen.Generate(),
		Reference:      uc.idGen.PaymentReference(),
		UserID:         loan.UserID,
		StudentID:      loan.StudentID,
		LoanID:         &loan.ID,
		Direction:      domain.DirectionCredit,
		Amount:         loan.PrincipalRequested,
		Description:    "Loan disbursement",
		SubDescription: loan.Reference,
		Status:         domain.EntryStatusCompleted,
		CreatedAt:      now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanFunded,
		Payload: domain.MarshalState(domain.LoanFundedEvent{
			LoanID:      loan.ID,
			Reference:   loan.Reference,
			UserID:      loan.UserID,
			PartnerID:   input.PartnerID,
			Principal:   loan.PrincipalRequested.String(),
			Installment: loan.MonthlyPayment.String(),
		}),
		CreatedAt: now,
	}

	if err := uc.outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	audit := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       input.PartnerID,
		Action:       string(domain.AuditActionLoanFund),
		ResourceType: domain.AggregateTypeLoan,
		ResourceID:   loan.ID,
		RequestID:    input.RequestID,
		BeforeState:  before,
		AfterState:   domain.MarshalState(loan),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		invalidateScopes(ctx, uc.cache, entry)
	}

	return loan, nil
}
