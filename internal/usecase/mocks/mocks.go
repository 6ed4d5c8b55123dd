package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// FakeTx is a fake transaction. When handed out by FakeTransactionManager it
// carries the row locks taken through FakeLoanRepository.GetByIDForUpdate and
// releases them on Commit or Rollback, mirroring how FOR UPDATE locks behave.
type FakeTx struct {
	mu       sync.Mutex
	unlocks  []func()
	released bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *FakeTx) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.release()
	return nil
}

func (t *FakeTx) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	t.release()
	return nil
}

func (t *FakeTx) onRelease(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unlocks = append(t.unlocks, f)
}

func (t *FakeTx) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
}

// FakeTransactionManager hands out FakeTx transactions.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &FakeTx{}, nil
}

// FakeLoanRepository is an in-memory LoanRepository with real row-locking
// semantics: GetByIDForUpdate blocks while another open transaction holds the
// same loan, exactly like SELECT ... FOR UPDATE.
type FakeLoanRepository struct {
	mu       sync.RWMutex
	loans    map[string]*domain.Loan
	rowLocks map[string]*sync.Mutex

	CreateFunc           func(ctx context.Context, loan *domain.Loan) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	HasPendingFunc       func(ctx context.Context, userID, category string) (bool, error)
	ListByOwnerFunc      func(ctx context.Context, userID string, limit, offset int) ([]*domain.Loan, error)
	ListFunc             func(ctx context.Context, filter usecase.LoanFilter) ([]*domain.Loan, int, error)
}

func NewFakeLoanRepository() *FakeLoanRepository {
	return &FakeLoanRepository{
		loans:    make(map[string]*domain.Loan),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

// Seed stores a loan directly, bypassing hooks.
func (m *FakeLoanRepository) Seed(loan *domain.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *loan
	m.loans[loan.ID] = &cp
	if _, ok := m.rowLocks[loan.ID]; !ok {
		m.rowLocks[loan.ID] = &sync.Mutex{}
	}
}

// Stored returns the stored state of a loan.
func (m *FakeLoanRepository) Stored(id string) *domain.Loan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if loan, ok := m.loans[id]; ok {
		cp := *loan
		return &cp
	}
	return nil
}

func (m *FakeLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, loan)
	}
	m.Seed(loan)
	return nil
}

func (m *FakeLoanRepository) CreateTx(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	return m.Create(ctx, loan)
}

func (m *FakeLoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if loan := m.Stored(id); loan != nil {
		return loan, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *FakeLoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}

	m.mu.Lock()
	lock, ok := m.rowLocks[id]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrLoanNotFound
	}
	m.mu.Unlock()

	lock.Lock()
	if fakeTx, ok := tx.(*FakeTx); ok {
		fakeTx.onRelease(lock.Unlock)
	} else {
		lock.Unlock()
	}

	return m.GetByID(ctx, id)
}

func (m *FakeLoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, loan)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.loans[loan.ID]
	if !ok {
		return domain.ErrLoanNotFound
	}

	if stored.Version != loan.Version {
		return domain.ErrStaleLoan
	}

	cp := *loan
	cp.Version++
	m.loans[loan.ID] = &cp
	loan.Version = cp.Version

	return nil
}

func (m *FakeLoanRepository) HasPendingByOwnerAndCategory(ctx context.Context, userID, category string) (bool, error) {
	if m.HasPendingFunc != nil {
		return m.HasPendingFunc(ctx, userID, category)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loan := range m.loans {
		if loan.UserID == userID && loan.Category == category && loan.Status == domain.LoanStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *FakeLoanRepository) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]*domain.Loan, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var loans []*domain.Loan
	for _, loan := range m.loans {
		if loan.UserID == userID {
			cp := *loan
			loans = append(loans, &cp)
		}
	}
	return loans, nil
}

func (m *FakeLoanRepository) List(ctx context.Context, filter usecase.LoanFilter) ([]*domain.Loan, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var loans []*domain.Loan
	for _, loan := range m.loans {
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		if filter.Category != "" && loan.Category != filter.Category {
			continue
		}
		if filter.UserID != "" && loan.UserID != filter.UserID {
			continue
		}
		cp := *loan
		loans = append(loans, &cp)
	}
	return loans, len(loans), nil
}

// FakeLedgerRepository is an in-memory append-only ledger.
type FakeLedgerRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry

	CreateFunc      func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	SumByScopeFunc  func(ctx context.Context, scope domain.LedgerScope) (decimal.Decimal, error)
	LockScopeFunc   func(ctx context.Context, tx usecase.Transaction, scope domain.LedgerScope) error
	ConsistencyFunc func(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error)
}

func NewFakeLedgerRepository() *FakeLedgerRepository {
	return &FakeLedgerRepository{}
}

// Entries returns a snapshot of all appended entries.
func (m *FakeLedgerRepository) Entries() []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *FakeLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *FakeLedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrLedgerEntryNotFound
}

func (m *FakeLedgerRepository) ListByScope(ctx context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.inScope(m.entries[i], scope) {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *FakeLedgerRepository) inScope(e *domain.LedgerEntry, scope domain.LedgerScope) bool {
	if scope.IsGlobal() {
		return true
	}
	if scope.UserID != "" && e.UserID != scope.UserID {
		return false
	}
	if scope.StudentID != "" && (e.StudentID == nil || *e.StudentID != scope.StudentID) {
		return false
	}
	return true
}

func (m *FakeLedgerRepository) SumByScope(ctx context.Context, scope domain.LedgerScope) (decimal.Decimal, error) {
	if m.SumByScopeFunc != nil {
		return m.SumByScopeFunc(ctx, scope)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if m.inScope(e, scope) {
			sum = sum.Add(e.Signed())
		}
	}
	return sum, nil
}

func (m *FakeLedgerRepository) SumByScopeTx(ctx context.Context, tx usecase.Transaction, scope domain.LedgerScope) (decimal.Decimal, error) {
	return m.SumByScope(ctx, scope)
}

func (m *FakeLedgerRepository) LockScope(ctx context.Context, tx usecase.Transaction, scope domain.LedgerScope) error {
	if m.LockScopeFunc != nil {
		return m.LockScopeFunc(ctx, tx, scope)
	}
	return nil
}

func (m *FakeLedgerRepository) SumRepaymentsByLoan(ctx context.Context, loanID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.LoanID != nil && *e.LoanID == loanID && e.Direction == domain.DirectionDebit {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (m *FakeLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	if m.ConsistencyFunc != nil {
		return m.ConsistencyFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	credits, debits, net := decimal.Zero, decimal.Zero, decimal.Zero
	for _, e := range m.entries {
		if e.Direction == domain.DirectionCredit {
			credits = credits.Add(e.Amount)
		} else {
			debits = debits.Add(e.Amount)
		}
		net = net.Add(e.Signed())
	}
	return credits, debits, net, nil
}

// FakeStudentRepository is an in-memory StudentRepository.
type FakeStudentRepository struct {
	mu       sync.RWMutex
	students map[string]*domain.Student

	FindByUserAndPartnerFunc func(ctx context.Context, userID, partnerID string) (*domain.Student, error)
}

func NewFakeStudentRepository() *FakeStudentRepository {
	return &FakeStudentRepository{
		students: make(map[string]*domain.Student),
	}
}

func (m *FakeStudentRepository) Seed(student *domain.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *student
	m.students[student.ID] = &cp
}

func (m *FakeStudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrStudentNotFound
}

func (m *FakeStudentRepository) FindByUserAndPartner(ctx context.Context, userID, partnerID string) (*domain.Student, error) {
	if m.FindByUserAndPartnerFunc != nil {
		return m.FindByUserAndPartnerFunc(ctx, userID, partnerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.UserID == userID && s.PartnerID == partnerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrStudentNotFound
}

func (m *FakeStudentRepository) ListByPartner(ctx context.Context, partnerID string, limit, offset int) ([]*domain.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Student
	for _, s := range m.students {
		if s.PartnerID == partnerID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FakeOutboxRepository collects outbox events in memory.
type FakeOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewFakeOutboxRepository() *FakeOutboxRepository {
	return &FakeOutboxRepository{}
}

func (m *FakeOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events = append(m.events, &cp)
	return nil
}

func (m *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			cp := *e
			out = append(out, &cp)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *FakeOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published || e.CreatedAt.After(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// FakeAuditRepository collects audit logs in memory.
type FakeAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewFakeAuditRepository() *FakeAuditRepository {
	return &FakeAuditRepository{}
}

func (m *FakeAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditLog, len(m.logs))
	copy(out, m.logs)
	return out
}

func (m *FakeAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *log
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *FakeAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *FakeAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *FakeAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// FakeUserRepository is an in-memory UserRepository.
type FakeUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	GetByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *FakeUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *FakeUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUnauthorized
}

func (m *FakeUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUnauthorized
}

func (m *FakeUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *FakeUserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *FakeUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// FakeIDGenerator hands out sequential IDs and references.
type FakeIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) next() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.counter
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	return "id-" + itoa(m.next())
}

func (m *FakeIDGenerator) LoanReference() string {
	return "LN-" + itoa(m.next())
}

func (m *FakeIDGenerator) PaymentReference() string {
	return "TXN-" + itoa(m.next())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// PassthroughRetrier runs the operation once, no retries.
type PassthroughRetrier struct {
	Calls int
	mu    sync.Mutex
}

func (r *PassthroughRetrier) Retry(ctx context.Context, operation func() error) error {
	r.mu.Lock()
	r.Calls++
	r.mu.Unlock()
	return operation()
}

// FakeCache is an in-memory Cache (TTLs ignored).
type FakeCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	Deletes []string
}

func NewFakeCache() *FakeCache {
	return &FakeCache{
		data: make(map[string][]byte),
	}
}

func (c *FakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (c *FakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *FakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.Deletes = append(c.Deletes, key)
	return nil
}

// FakeIdempotencyStore is an in-memory IdempotencyStore.
type FakeIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *FakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
