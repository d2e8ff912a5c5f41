package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"typeit/config"
	"typeit/internal/domain/entity"
	"typeit/internal/domain/repository"
	"typeit/internal/domain/service"
	"typeit/internal/infra/auth"
	"typeit/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:        bcrypt.MinCost,
			TempCredentialTTL: 5 * time.Minute,
			ResetPassword: &config.ResetPasswordConfig{
				Length:         14,
				Numbers:        true,
				Symbols:        true,
				ExcludeSimilar: true,
				Strict:         true,
			},
		},
		Mail: &config.MailConfig{
			From:          "noreply@typeit.local",
			VerifyBaseURL: "http://localhost:5000/api/auth/verifyemail/",
		},
	}
	cfg.SecretKey.Signing = "test-signing-secret"

	return cfg
}

// --- storage fakes ---

// memoryStore is the shared state behind the fake repositories.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]entity.Account
	records  map[uuid.UUID][]entity.TestRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: make(map[uuid.UUID]entity.Account),
		records:  make(map[uuid.UUID][]entity.TestRecord),
	}
}

func (s *memoryStore) snapshot() (map[uuid.UUID]entity.Account, map[uuid.UUID][]entity.TestRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make(map[uuid.UUID]entity.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	records := make(map[uuid.UUID][]entity.TestRecord, len(s.records))
	for k, v := range s.records {
		records[k] = append([]entity.TestRecord(nil), v...)
	}

	return accounts, records
}

func (s *memoryStore) restore(accounts map[uuid.UUID]entity.Account, records map[uuid.UUID][]entity.TestRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = accounts
	s.records = records
}

func (s *memoryStore) accountsWithEmail(email string) []entity.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.Account
	for _, a := range s.accounts {
		if a.Email == email {
			out = append(out, a)
		}
	}

	return out
}

func (s *memoryStore) addRecords(accountID uuid.UUID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range n {
		s.records[accountID] = append(s.records[accountID], entity.TestRecord{
			ID:         uuid.New(),
			AccountID:  accountID,
			Language:   "english",
			TestTime:   60,
			TimeOfTest: time.Now().Add(-time.Duration(i) * time.Hour),
			Speed:      70,
			Accuracy:   95,
		})
	}
}

type fakeAccountRepository struct {
	store *memoryStore
}

func (r *fakeAccountRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return &a, nil
}

func (r *fakeAccountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, a := range r.store.accounts {
		if a.Email == email {
			return &a, nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

func (r *fakeAccountRepository) Create(_ context.Context, account *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.store.accounts[account.ID] = *account

	return nil
}

// update applies fn to the stored account under the store lock.
func (r *fakeAccountRepository) update(id uuid.UUID, fn func(*entity.Account)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	fn(&a)
	a.UpdatedAt = time.Now()
	r.store.accounts[id] = a

	return nil
}

func (r *fakeAccountRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(id, func(a *entity.Account) { a.PasswordHash = passwordHash })
}

func (r *fakeAccountRepository) UpdateStats(_ context.Context, id uuid.UUID, stats entity.UsageStats) error {
	return r.update(id, func(a *entity.Account) { a.Stats = stats })
}

func (r *fakeAccountRepository) UpdateProfile(_ context.Context, id uuid.UUID, firstName, lastName, userName string) error {
	return r.update(id, func(a *entity.Account) {
		a.FirstName = firstName
		a.LastName = lastName
		a.UserName = userName
	})
}

func (r *fakeAccountRepository) Activate(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(a *entity.Account) { a.Status = entity.StatusActive })
}

func (r *fakeAccountRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(r.store.accounts, id)

	return nil
}

type fakeTestRecordRepository struct {
	store *memoryStore
}

func (r *fakeTestRecordRepository) ListByAccountID(_ context.Context, accountID uuid.UUID) ([]*entity.TestRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]*entity.TestRecord, 0, len(r.store.records[accountID]))
	for _, rec := range r.store.records[accountID] {
		out = append(out, &rec)
	}

	return out, nil
}

func (r *fakeTestRecordRepository) DeleteByAccountID(_ context.Context, accountID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n := int64(len(r.store.records[accountID]))
	delete(r.store.records, accountID)

	return n, nil
}

type fakeRepositoryFactory struct {
	store *memoryStore
}

func (f *fakeRepositoryFactory) NewAccountRepository() repository.AccountRepository {
	return &fakeAccountRepository{store: f.store}
}

func (f *fakeRepositoryFactory) NewTestRecordRepository() repository.TestRecordRepository {
	return &fakeTestRecordRepository{store: f.store}
}

// fakeTransactionManager restores the store snapshot when fn fails.
type fakeTransactionManager struct {
	store *memoryStore
}

func (tm *fakeTransactionManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	accounts, records := tm.store.snapshot()
	if err := fn(&fakeRepositoryFactory{store: tm.store}); err != nil {
		tm.store.restore(accounts, records)

		return err
	}

	return nil
}

// interleavingAccountRepository runs a hook once, right before the first call of the
// chosen write reaches the store, to reproduce a concurrent request landing in between.
type interleavingAccountRepository struct {
	repository.AccountRepository

	before string
	once   sync.Once
	hook   func()
}

func (r *interleavingAccountRepository) fire(method string) {
	if method == r.before {
		r.once.Do(r.hook)
	}
}

func (r *interleavingAccountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.fire("UpdatePasswordHash")

	return r.AccountRepository.UpdatePasswordHash(ctx, id, passwordHash)
}

func (r *interleavingAccountRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats entity.UsageStats) error {
	r.fire("UpdateStats")

	return r.AccountRepository.UpdateStats(ctx, id, stats)
}

func (r *interleavingAccountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, userName string) error {
	r.fire("UpdateProfile")

	return r.AccountRepository.UpdateProfile(ctx, id, firstName, lastName, userName)
}

// --- cache fake ---

// fakeCredentialCache expires entries against a manually advanced clock.
type fakeCredentialCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     time.Time
	entries map[string]fakeCacheEntry
}

type fakeCacheEntry struct {
	hash      string
	expiresAt time.Time
}

func newFakeCredentialCache(ttl time.Duration) *fakeCredentialCache {
	return &fakeCredentialCache{
		ttl:     ttl,
		now:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		entries: make(map[string]fakeCacheEntry),
	}
}

func (c *fakeCredentialCache) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	for email, e := range c.entries {
		if !c.now.Before(e.expiresAt) {
			delete(c.entries, email)
		}
	}
}

func (c *fakeCredentialCache) Put(_ context.Context, email, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[email] = fakeCacheEntry{hash: hash, expiresAt: c.now.Add(c.ttl)}

	return nil
}

func (c *fakeCredentialCache) Get(_ context.Context, email string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[email]
	if !ok {
		return "", false, nil
	}

	return e.hash, true, nil
}

func (c *fakeCredentialCache) Remove(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, email)

	return nil
}

func (c *fakeCredentialCache) has(email string) bool {
	_, found, _ := c.Get(context.Background(), email)

	return found
}

// --- dispatcher fake ---

type sentReset struct {
	email    string
	password string
}

// recordingDispatcher captures dispatched emails and reports a fixed result.
type recordingDispatcher struct {
	mu            sync.Mutex
	result        usecase.DeliveryResult
	verifications []string
	resets        []sentReset
}

func (d *recordingDispatcher) SendVerification(_ context.Context, email string) usecase.DeliveryResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.verifications = append(d.verifications, email)

	return d.result
}

func (d *recordingDispatcher) SendReset(_ context.Context, email, password string) usecase.DeliveryResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.resets = append(d.resets, sentReset{email: email, password: password})

	return d.result
}

func (d *recordingDispatcher) lastResetPassword(t *testing.T) string {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()

	require.NotEmpty(t, d.resets, "no reset email dispatched")

	return d.resets[len(d.resets)-1].password
}

// --- testify mocks ---

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(secret string) (string, error) {
	args := m.Called(secret)

	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Check(secret, hash string) bool {
	return m.Called(secret, hash).Bool(0)
}

type mockCredentialCache struct {
	mock.Mock
}

func (m *mockCredentialCache) Put(ctx context.Context, email, hash string) error {
	return m.Called(ctx, email, hash).Error(0)
}

func (m *mockCredentialCache) Get(ctx context.Context, email string) (string, bool, error) {
	args := m.Called(ctx, email)

	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockCredentialCache) Remove(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

// --- fixtures ---

// accountServiceFixtures holds all test dependencies for account service tests.
type accountServiceFixtures struct {
	service    usecase.AccountUsecase
	store      *memoryStore
	records    *fakeTestRecordRepository
	cache      *fakeCredentialCache
	dispatcher *recordingDispatcher
	hasher     service.PasswordHasher
	tokens     service.TokenService
	cfg        *config.Config
}

type fixtureOption func(*AccountServiceParams)

func withHasher(h service.PasswordHasher) fixtureOption {
	return func(p *AccountServiceParams) { p.Hasher = h }
}

func withCredentialCache(c service.CredentialCache) fixtureOption {
	return func(p *AccountServiceParams) { p.CredentialCache = c }
}

func withAccountRepository(wrap func(repository.AccountRepository) repository.AccountRepository) fixtureOption {
	return func(p *AccountServiceParams) { p.AccountRepo = wrap(p.AccountRepo) }
}

func withUniformResetResponse() fixtureOption {
	return func(p *AccountServiceParams) { p.Config.Auth.UniformResetResponse = true }
}

func createTestAccountService(t *testing.T, opts ...fixtureOption) accountServiceFixtures {
	t.Helper()

	cfg := newTestConfig()
	store := newMemoryStore()
	cache := newFakeCredentialCache(cfg.Auth.TempCredentialTTL)
	dispatcher := &recordingDispatcher{result: usecase.DeliveryDelivered}
	hasher := auth.NewBcryptHasher(cfg)

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	generator, err := auth.NewPasswordGenerator(cfg)
	require.NoError(t, err)

	params := AccountServiceParams{
		TxManager:         &fakeTransactionManager{store: store},
		AccountRepo:       &fakeAccountRepository{store: store},
		Hasher:            hasher,
		TokenService:      tokens,
		CredentialCache:   cache,
		PasswordGenerator: generator,
		Dispatcher:        dispatcher,
		Config:            cfg,
		Logger:            newDiscardLogger(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	return accountServiceFixtures{
		service:    NewAccountService(params),
		store:      store,
		records:    &fakeTestRecordRepository{store: store},
		cache:      cache,
		dispatcher: dispatcher,
		hasher:     hasher,
		tokens:     tokens,
		cfg:        cfg,
	}
}

// seedAccount stores an account with the given status and password.
func (f accountServiceFixtures) seedAccount(t *testing.T, email, password string, status entity.VerificationStatus) *entity.Account {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)

	account := &entity.Account{
		Email:        email,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		UserName:     "ada",
		PasswordHash: hash,
		Status:       status,
	}
	require.NoError(t, (&fakeAccountRepository{store: f.store}).Create(context.Background(), account))

	return account
}

func (f accountServiceFixtures) reload(t *testing.T, id uuid.UUID) *entity.Account {
	t.Helper()

	account, err := (&fakeAccountRepository{store: f.store}).FindByID(context.Background(), id)
	require.NoError(t, err)

	return account
}

// verificationTokenFor issues a token the same way the dispatch service does.
func (f accountServiceFixtures) verificationTokenFor(t *testing.T, email string) string {
	t.Helper()

	proof, err := f.hasher.Hash(email)
	require.NoError(t, err)
	token, err := f.tokens.IssueVerificationToken(email, proof)
	require.NoError(t, err)

	return token
}
