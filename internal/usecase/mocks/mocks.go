package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/iho/subscriptions/internal/domain"
)

// MockLedgerRepository is a mock implementation of LedgerRepository backed
// by an in-memory map keyed by idempotency key.
type MockLedgerRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.LedgerEntry
	byKey map[string]*domain.LedgerEntry

	InsertFunc                   func(ctx context.Context, entry *domain.LedgerEntry) error
	GetByIDFunc                  func(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIdempotencyKeyFunc      func(ctx context.Context, key string) (*domain.LedgerEntry, error)
	MarkCompletedFunc            func(ctx context.Context, id, paymentReferenceID string, completedAt time.Time) error
	MarkProcessedFunc            func(ctx context.Context, id string, processedAt time.Time) error
	UpdateRetryFunc              func(ctx context.Context, id string, retryCount int, status domain.LedgerStatus, errorMessage *string) error
	ListCompletedUnprocessedFunc func(ctx context.Context, olderThan time.Time, limit int) ([]*domain.LedgerEntry, error)
	ListStaleInitiatedFunc       func(ctx context.Context, olderThan time.Time, limit int) ([]*domain.LedgerEntry, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		byID:  make(map[string]*domain.LedgerEntry),
		byKey: make(map[string]*domain.LedgerEntry),
	}
}

func (m *MockLedgerRepository) Insert(ctx context.Context, entry *domain.LedgerEntry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[entry.IdempotencyKey]; ok {
		return domain.ErrDuplicateRequest
	}
	m.byID[entry.ID] = entry
	m.byKey[entry.IdempotencyKey] = entry
	return nil
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrLedgerEntryNotFound
}

func (m *MockLedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerEntry, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.byKey[key]; ok {
		return e, nil
	}
	return nil, domain.ErrLedgerEntryNotFound
}

func (m *MockLedgerRepository) MarkCompleted(ctx context.Context, id, paymentReferenceID string, completedAt time.Time) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, id, paymentReferenceID, completedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byID[id]; ok {
		e.Status = domain.StatusCompleted
		e.PaymentReferenceID = &paymentReferenceID
		e.CompletedAt = &completedAt
		return nil
	}
	return domain.ErrLedgerEntryNotFound
}

func (m *MockLedgerRepository) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, id, processedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byID[id]; ok {
		e.Status = domain.StatusProcessed
		e.ProcessedAt = &processedAt
		return nil
	}
	return domain.ErrLedgerEntryNotFound
}

func (m *MockLedgerRepository) UpdateRetry(ctx context.Context, id string, retryCount int, status domain.LedgerStatus, errorMessage *string) error {
	if m.UpdateRetryFunc != nil {
		return m.UpdateRetryFunc(ctx, id, retryCount, status, errorMessage)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byID[id]; ok {
		e.RetryCount = retryCount
		e.Status = status
		e.ErrorMessage = errorMessage
		return nil
	}
	return domain.ErrLedgerEntryNotFound
}

func (m *MockLedgerRepository) ListCompletedUnprocessed(ctx context.Context, olderThan time.Time, limit int) ([]*domain.LedgerEntry, error) {
	if m.ListCompletedUnprocessedFunc != nil {
		return m.ListCompletedUnprocessedFunc(ctx, olderThan, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, e := range m.byID {
		if e.Status == domain.StatusCompleted && e.ProcessedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockLedgerRepository) ListStaleInitiated(ctx context.Context, olderThan time.Time, limit int) ([]*domain.LedgerEntry, error) {
	if m.ListStaleInitiatedFunc != nil {
		return m.ListStaleInitiatedFunc(ctx, olderThan, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, e := range m.byID {
		if e.Status == domain.StatusInitiated && e.CreatedAt.Before(olderThan) {
			out = append(out, e)
		}
	}
	return out, nil
}

// MockSubscriptionRepository is a mock implementation of
// SubscriptionRepository.
type MockSubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[string]*domain.Subscription

	InsertFunc                  func(ctx context.Context, sub *domain.Subscription) error
	GetByIDFunc                 func(ctx context.Context, id string) (*domain.Subscription, error)
	FindActiveFunc              func(ctx context.Context, userID, accountID, durationTypeID string) (*domain.Subscription, error)
	UpdateEndDateFunc           func(ctx context.Context, id string, endDate, updatedAt time.Time) error
	UpdateStatusFunc            func(ctx context.Context, id string, status domain.SubscriptionStatus, updatedAt time.Time) error
	ListByUserFunc              func(ctx context.Context, userID string) ([]*domain.Subscription, error)
	ListActiveByUserFunc        func(ctx context.Context, userID string) ([]*domain.Subscription, error)
	ExpireBeforeFunc            func(ctx context.Context, cutoff, updatedAt time.Time) (int64, error)
	ListActiveEndingBetweenFunc func(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error)
}

func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{subs: make(map[string]*domain.Subscription)}
}

func (m *MockSubscriptionRepository) Insert(ctx context.Context, sub *domain.Subscription) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, sub)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID] = sub
	return nil
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.subs[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (m *MockSubscriptionRepository) FindActive(ctx context.Context, userID, accountID, durationTypeID string) (*domain.Subscription, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, userID, accountID, durationTypeID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.subs {
		if s.UserID == userID && s.AccountID == accountID && s.DurationTypeID == durationTypeID && s.Status == domain.SubscriptionActive {
			return s, nil
		}
	}
	return nil, nil
}

func (m *MockSubscriptionRepository) UpdateEndDate(ctx context.Context, id string, endDate, updatedAt time.Time) error {
	if m.UpdateEndDateFunc != nil {
		return m.UpdateEndDateFunc(ctx, id, endDate, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[id]; ok {
		s.EndDate = endDate
		s.LastUpdatedAt = updatedAt
		return nil
	}
	return domain.ErrSubscriptionNotFound
}

func (m *MockSubscriptionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[id]; ok {
		s.Status = status
		s.LastUpdatedAt = updatedAt
		return nil
	}
	return domain.ErrSubscriptionNotFound
}

func (m *MockSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Subscription
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	if m.ListActiveByUserFunc != nil {
		return m.ListActiveByUserFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Subscription
	for _, s := range m.subs {
		if s.UserID == userID && s.Status == domain.SubscriptionActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepository) ExpireBefore(ctx context.Context, cutoff, updatedAt time.Time) (int64, error) {
	if m.ExpireBeforeFunc != nil {
		return m.ExpireBeforeFunc(ctx, cutoff, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.subs {
		if s.Status == domain.SubscriptionActive && s.EndDate.Before(cutoff) {
			s.Status = domain.SubscriptionExpired
			s.LastUpdatedAt = updatedAt
			n++
		}
	}
	return n, nil
}

func (m *MockSubscriptionRepository) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error) {
	if m.ListActiveEndingBetweenFunc != nil {
		return m.ListActiveEndingBetweenFunc(ctx, from, to)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Subscription
	for _, s := range m.subs {
		if s.Status == domain.SubscriptionActive && !s.EndDate.Before(from) && !s.EndDate.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

// MockPlanRepository is a mock implementation of PlanRepository.
type MockPlanRepository struct {
	mu    sync.RWMutex
	plans map[string]*domain.SubscriptionPlan

	InsertFunc                             func(ctx context.Context, plan *domain.SubscriptionPlan) error
	GetByIDFunc                            func(ctx context.Context, id string) (*domain.SubscriptionPlan, error)
	ListActiveByAccountFunc                func(ctx context.Context, accountID string) ([]*domain.SubscriptionPlan, error)
	FindActiveByAccountAndDurationTypeFunc func(ctx context.Context, accountID, durationTypeID string) (*domain.SubscriptionPlan, error)
	UpdateFunc                             func(ctx context.Context, plan *domain.SubscriptionPlan) error
	DeactivateFunc                         func(ctx context.Context, id string, deletedAt time.Time) error
}

func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{plans: make(map[string]*domain.SubscriptionPlan)}
}

func (m *MockPlanRepository) Insert(ctx context.Context, plan *domain.SubscriptionPlan) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, plan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID] = plan
	return nil
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id string) (*domain.SubscriptionPlan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.plans[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPlanNotFound
}

func (m *MockPlanRepository) ListActiveByAccount(ctx context.Context, accountID string) ([]*domain.SubscriptionPlan, error) {
	if m.ListActiveByAccountFunc != nil {
		return m.ListActiveByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.SubscriptionPlan
	for _, p := range m.plans {
		if p.AccountID == accountID && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPlanRepository) FindActiveByAccountAndDurationType(ctx context.Context, accountID, durationTypeID string) (*domain.SubscriptionPlan, error) {
	if m.FindActiveByAccountAndDurationTypeFunc != nil {
		return m.FindActiveByAccountAndDurationTypeFunc(ctx, accountID, durationTypeID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.plans {
		if p.AccountID == accountID && p.DurationTypeID == durationTypeID && p.Active {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MockPlanRepository) Update(ctx context.Context, plan *domain.SubscriptionPlan) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, plan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID] = plan
	return nil
}

func (m *MockPlanRepository) Deactivate(ctx context.Context, id string, deletedAt time.Time) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id, deletedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.plans[id]; ok {
		p.Active = false
		p.DeletedAt = &deletedAt
		return nil
	}
	return domain.ErrPlanNotFound
}

// MockDurationTypeRepository is a mock implementation of
// DurationTypeRepository.
type MockDurationTypeRepository struct {
	mu    sync.RWMutex
	types map[string]*domain.DurationType

	GetByIDFunc func(ctx context.Context, id string) (*domain.DurationType, error)
	ListFunc    func(ctx context.Context) ([]*domain.DurationType, error)
}

func NewMockDurationTypeRepository() *MockDurationTypeRepository {
	return &MockDurationTypeRepository{types: make(map[string]*domain.DurationType)}
}

func (m *MockDurationTypeRepository) Add(dt *domain.DurationType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[dt.ID] = dt
}

func (m *MockDurationTypeRepository) GetByID(ctx context.Context, id string) (*domain.DurationType, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if dt, ok := m.types[id]; ok {
		return dt, nil
	}
	return nil, domain.ErrDurationTypeNotFound
}

func (m *MockDurationTypeRepository) List(ctx context.Context) ([]*domain.DurationType, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.DurationType, 0, len(m.types))
	for _, dt := range m.types {
		out = append(out, dt)
	}
	return out, nil
}

// MockRuleRepository is a mock implementation of RuleRepository.
type MockRuleRepository struct {
	mu    sync.RWMutex
	rules map[string]*domain.Rule

	GetByKeyFunc   func(ctx context.Context, key string) (*domain.Rule, error)
	ListActiveFunc func(ctx context.Context) ([]*domain.Rule, error)
}

func NewMockRuleRepository() *MockRuleRepository {
	return &MockRuleRepository{rules: make(map[string]*domain.Rule)}
}

func (m *MockRuleRepository) Add(rule *domain.Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.Key] = rule
}

func (m *MockRuleRepository) GetByKey(ctx context.Context, key string) (*domain.Rule, error) {
	if m.GetByKeyFunc != nil {
		return m.GetByKeyFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules[key], nil
}

func (m *MockRuleRepository) ListActive(ctx context.Context) ([]*domain.Rule, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Rule
	for _, r := range m.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockIdempotencyGuard is an in-memory set-if-absent guard, safe for
// concurrent use so dedup races can be tested realistically.
type MockIdempotencyGuard struct {
	mu   sync.Mutex
	keys map[string]time.Time

	CheckAndSetFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

func NewMockIdempotencyGuard() *MockIdempotencyGuard {
	return &MockIdempotencyGuard{keys: make(map[string]time.Time)}
}

func (m *MockIdempotencyGuard) CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if expiry, ok := m.keys[key]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	m.keys[key] = time.Now().Add(ttl)
	return true, nil
}

// MockEventProducer records published entries.
type MockEventProducer struct {
	mu        sync.Mutex
	published []*domain.LedgerEntry

	PublishFunc func(ctx context.Context, entry *domain.LedgerEntry) error
}

func NewMockEventProducer() *MockEventProducer {
	return &MockEventProducer{}
}

func (m *MockEventProducer) Publish(ctx context.Context, entry *domain.LedgerEntry) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, entry)
	return nil
}

func (m *MockEventProducer) Published() []*domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.LedgerEntry, len(m.published))
	copy(out, m.published)
	return out
}

// MockPaymentProcessor records enqueued entries.
type MockPaymentProcessor struct {
	mu       sync.Mutex
	enqueued []*domain.LedgerEntry

	ProcessAsyncFunc func(entry *domain.LedgerEntry)
}

func NewMockPaymentProcessor() *MockPaymentProcessor {
	return &MockPaymentProcessor{}
}

func (m *MockPaymentProcessor) ProcessAsync(entry *domain.LedgerEntry) {
	if m.ProcessAsyncFunc != nil {
		m.ProcessAsyncFunc(entry)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, entry)
}

func (m *MockPaymentProcessor) Enqueued() []*domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.LedgerEntry, len(m.enqueued))
	copy(out, m.enqueued)
	return out
}

// MockNotifier records notification hooks.
type MockNotifier struct {
	mu       sync.Mutex
	Created  []*domain.Subscription
	Extended []*domain.Subscription
	Expiring []*domain.Subscription
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) SubscriptionCreated(ctx context.Context, sub *domain.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, sub)
}

func (m *MockNotifier) SubscriptionExtended(ctx context.Context, sub *domain.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Extended = append(m.Extended, sub)
}

func (m *MockNotifier) SubscriptionExpiring(ctx context.Context, sub *domain.Subscription, daysUntilExpiry int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Expiring = append(m.Expiring, sub)
}

// MockBusinessMetrics counts metric calls.
type MockBusinessMetrics struct {
	mu                     sync.Mutex
	CreatedCount           int
	ExtendedCount          int
	LedgerEvents           int
	MaterializationRetries int
}

func NewMockBusinessMetrics() *MockBusinessMetrics {
	return &MockBusinessMetrics{}
}

func (m *MockBusinessMetrics) SubscriptionCreated(accountID, durationTypeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatedCount++
}

func (m *MockBusinessMetrics) SubscriptionExtended(accountID, durationTypeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtendedCount++
}

func (m *MockBusinessMetrics) LedgerEvent(eventType, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LedgerEvents++
}

func (m *MockBusinessMetrics) MaterializationRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MaterializationRetries++
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu    sync.RWMutex
	items map[string]string

	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string]string)}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[key], nil
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return "id-" + itoa(m.next)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.SubscriptionAccount

	GetByIDFunc func(ctx context.Context, id string) (*domain.SubscriptionAccount, error)
	ListFunc    func(ctx context.Context) ([]*domain.SubscriptionAccount, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*domain.SubscriptionAccount)}
}

func (m *MockAccountRepository) Add(account *domain.SubscriptionAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.SubscriptionAccount, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if account, ok := m.accounts[id]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*domain.SubscriptionAccount, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SubscriptionAccount, 0, len(m.accounts))
	for _, account := range m.accounts {
		out = append(out, account)
	}
	return out, nil
}
