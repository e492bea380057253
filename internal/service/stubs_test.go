package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"pharmacyos/internal/dto"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"
	"pharmacyos/internal/worker"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store ──────────────────────────────────────────────────────────

// memStore backs every stub repository. memTx serializes transactions and
// restores a snapshot when fn fails, which is what Postgres gives the real
// repositories.
type memStore struct {
	mu        sync.Mutex
	drugs     map[uuid.UUID]model.Drug
	batches   map[uuid.UUID]model.InventoryBatch
	customers map[uuid.UUID]model.Customer
	sales     map[uuid.UUID]model.SalesOrder
	payments  []model.CreditPayment
	sessions  map[uuid.UUID]model.ChatSession
	messages  []model.ChatMessage
	users     map[uuid.UUID]model.User

	// fail maps a method name to the error it returns.
	fail map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		drugs:     make(map[uuid.UUID]model.Drug),
		batches:   make(map[uuid.UUID]model.InventoryBatch),
		customers: make(map[uuid.UUID]model.Customer),
		sales:     make(map[uuid.UUID]model.SalesOrder),
		sessions:  make(map[uuid.UUID]model.ChatSession),
		users:     make(map[uuid.UUID]model.User),
		fail:      make(map[string]error),
	}
}

func (s *memStore) failWith(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = err
}

// injected must be called with mu held.
func (s *memStore) injected(method string) error {
	return s.fail[method]
}

type memSnapshot struct {
	drugs     map[uuid.UUID]model.Drug
	batches   map[uuid.UUID]model.InventoryBatch
	customers map[uuid.UUID]model.Customer
	sales     map[uuid.UUID]model.SalesOrder
	payments  []model.CreditPayment
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		drugs:     copyMap(s.drugs),
		batches:   copyMap(s.batches),
		customers: copyMap(s.customers),
		sales:     copyMap(s.sales),
		payments:  append([]model.CreditPayment(nil), s.payments...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drugs = snap.drugs
	s.batches = snap.batches
	s.customers = snap.customers
	s.sales = snap.sales
	s.payments = snap.payments
}

type memTx struct {
	store *memStore
	mu    sync.Mutex
}

var _ repository.TxRunner = (*memTx)(nil)

func (t *memTx) RunInTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// ── Drugs ────────────────────────────────────────────────────────────────────

type memDrugs struct{ s *memStore }

var _ repository.DrugRepository = (*memDrugs)(nil)

func (r *memDrugs) barcodeTaken(d *model.Drug) bool {
	if d.Barcode == nil {
		return false
	}
	for _, o := range r.s.drugs {
		if o.ID != d.ID && o.OrganizationID == d.OrganizationID && o.Barcode != nil && *o.Barcode == *d.Barcode {
			return true
		}
	}
	return false
}

func (r *memDrugs) Create(_ context.Context, d *model.Drug) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("DrugCreate"); err != nil {
		return err
	}
	if r.barcodeTaken(d) {
		return uniqueViolation("uni_drugs_org_barcode")
	}
	r.s.drugs[d.ID] = *d
	return nil
}

func (r *memDrugs) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Drug, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drugs[id]
	if !ok || d.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *memDrugs) FindByBarcode(_ context.Context, orgID uuid.UUID, barcode string) (*model.Drug, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.drugs {
		if d.OrganizationID == orgID && d.Barcode != nil && *d.Barcode == barcode {
			return &d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDrugs) sorted(orgID uuid.UUID, search string) []model.Drug {
	var out []model.Drug
	for _, d := range r.s.drugs {
		if d.OrganizationID != orgID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *memDrugs) List(_ context.Context, orgID uuid.UUID, filter dto.DrugFilter) ([]model.Drug, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted(orgID, filter.Search)
	start := (filter.Page - 1) * filter.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *memDrugs) ListAll(_ context.Context, orgID uuid.UUID) ([]model.Drug, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(orgID, ""), nil
}

func (r *memDrugs) Update(_ context.Context, d *model.Drug) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.barcodeTaken(d) {
		return uniqueViolation("uni_drugs_org_barcode")
	}
	r.s.drugs[d.ID] = *d
	return nil
}

// ── Batches ──────────────────────────────────────────────────────────────────

type memBatches struct{ s *memStore }

var _ repository.BatchRepository = (*memBatches)(nil)

func sortFEFO(b []model.InventoryBatch) {
	sort.Slice(b, func(i, j int) bool {
		if !b[i].ExpiryDate.Equal(b[j].ExpiryDate) {
			return b[i].ExpiryDate.Before(b[j].ExpiryDate)
		}
		return b[i].ID.String() < b[j].ID.String()
	})
}

func (r *memBatches) Create(_ context.Context, b *model.InventoryBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("BatchCreate"); err != nil {
		return err
	}
	stored := *b
	stored.Drug = nil
	r.s.batches[b.ID] = stored
	return nil
}

func (r *memBatches) ListByDrug(_ context.Context, drugID uuid.UUID) ([]model.InventoryBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.InventoryBatch
	for _, b := range r.s.batches {
		if b.DrugID == drugID {
			out = append(out, b)
		}
	}
	sortFEFO(out)
	return out, nil
}

func (r *memBatches) TotalStock(_ context.Context, drugID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := 0
	for _, b := range r.s.batches {
		if b.DrugID == drugID {
			total += b.QuantityOnHand
		}
	}
	return total, nil
}

func (r *memBatches) StockByDrug(_ context.Context, orgID uuid.UUID) (map[uuid.UUID]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]int)
	for _, b := range r.s.batches {
		if d, ok := r.s.drugs[b.DrugID]; ok && d.OrganizationID == orgID {
			out[b.DrugID] += b.QuantityOnHand
		}
	}
	return out, nil
}

func (r *memBatches) ListActiveByExpiry(_ context.Context, drugID uuid.UUID) ([]model.InventoryBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.InventoryBatch
	for _, b := range r.s.batches {
		if b.DrugID == drugID && b.Status == model.BatchActive && b.QuantityOnHand > 0 {
			out = append(out, b)
		}
	}
	sortFEFO(out)
	return out, nil
}

func (r *memBatches) LockActiveByExpiryTx(ctx context.Context, _ *gorm.DB, drugID uuid.UUID) ([]model.InventoryBatch, error) {
	r.s.mu.Lock()
	err := r.s.injected("LockActiveByExpiryTx")
	r.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.ListActiveByExpiry(ctx, drugID)
}

func (r *memBatches) UpdateQuantityTx(_ context.Context, _ *gorm.DB, id uuid.UUID, quantity int, status model.BatchStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("UpdateQuantityTx"); err != nil {
		return err
	}
	if quantity < 0 {
		return &pgconn.PgError{Code: "23514", ConstraintName: "inventory_batches_quantity_on_hand_check"}
	}
	b, ok := r.s.batches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.QuantityOnHand = quantity
	b.Status = status
	r.s.batches[id] = b
	return nil
}

func (r *memBatches) withDrugs(orgID uuid.UUID, keep func(model.InventoryBatch) bool) []model.InventoryBatch {
	var out []model.InventoryBatch
	for _, b := range r.s.batches {
		d, ok := r.s.drugs[b.DrugID]
		if !ok || d.OrganizationID != orgID || !keep(b) {
			continue
		}
		dc := d
		b.Drug = &dc
		out = append(out, b)
	}
	sortFEFO(out)
	return out
}

func (r *memBatches) ExpiringWithin(_ context.Context, orgID uuid.UUID, from, to time.Time) ([]model.InventoryBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.withDrugs(orgID, func(b model.InventoryBatch) bool {
		return !b.ExpiryDate.Before(from) && !b.ExpiryDate.After(to)
	}), nil
}

func (r *memBatches) ListForExport(_ context.Context, orgID uuid.UUID) ([]model.InventoryBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.withDrugs(orgID, func(model.InventoryBatch) bool { return true }), nil
}

func (r *memBatches) MarkExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, b := range r.s.batches {
		if b.ExpiryDate.Before(before) && (b.Status == model.BatchActive || b.Status == model.BatchLowStock) {
			b.Status = model.BatchExpired
			r.s.batches[id] = b
			n++
		}
	}
	return n, nil
}

// ── Customers ────────────────────────────────────────────────────────────────

type memCustomers struct{ s *memStore }

var _ repository.CustomerRepository = (*memCustomers)(nil)

func (r *memCustomers) Create(_ context.Context, c *model.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.customers[c.ID] = *c
	return nil
}

func (r *memCustomers) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok || c.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *memCustomers) List(_ context.Context, orgID uuid.UUID, filter dto.CustomerFilter) ([]model.Customer, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Customer
	for _, c := range r.s.customers {
		if c.OrganizationID != orgID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.FullName()), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, int64(len(out)), nil
}

func (r *memCustomers) FindForUpdateTx(ctx context.Context, _ *gorm.DB, orgID, id uuid.UUID) (*model.Customer, error) {
	return r.FindByID(ctx, orgID, id)
}

func (r *memCustomers) UpdateBalanceTx(_ context.Context, _ *gorm.DB, id uuid.UUID, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("UpdateBalanceTx"); err != nil {
		return err
	}
	if balance.IsNegative() {
		return &pgconn.PgError{Code: "23514", ConstraintName: "customers_current_balance_check"}
	}
	c := r.s.customers[id]
	c.CurrentBalance = balance
	r.s.customers[id] = c
	return nil
}

func (r *memCustomers) CreatePaymentTx(_ context.Context, _ *gorm.DB, p *model.CreditPayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("CreatePaymentTx"); err != nil {
		return err
	}
	r.s.payments = append(r.s.payments, *p)
	return nil
}

// ── Sales ────────────────────────────────────────────────────────────────────

type memSales struct{ s *memStore }

var _ repository.SaleRepository = (*memSales)(nil)

func (r *memSales) CreateTx(_ context.Context, _ *gorm.DB, o *model.SalesOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("SaleCreateTx"); err != nil {
		return err
	}
	for _, existing := range r.s.sales {
		if existing.OrganizationID == o.OrganizationID && existing.SaleNumber == o.SaleNumber {
			return uniqueViolation("uni_sales_orders_org_number")
		}
	}
	stored := *o
	stored.Items = append([]model.SalesLineItem(nil), o.Items...)
	r.s.sales[o.ID] = stored
	return nil
}

func (r *memSales) CountNumbersWithPrefixTx(_ context.Context, _ *gorm.DB, orgID uuid.UUID, prefix string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, o := range r.s.sales {
		if o.OrganizationID == orgID && (o.SaleNumber == prefix || strings.HasPrefix(o.SaleNumber, prefix+"-")) {
			n++
		}
	}
	return n, nil
}

func (r *memSales) FindByID(_ context.Context, orgID, id uuid.UUID) (*model.SalesOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.sales[id]
	if !ok || o.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	o = r.preload(o)
	return &o, nil
}

// preload attaches drugs and allocation batches the way the GORM preloads do.
// Must be called with mu held.
func (r *memSales) preload(o model.SalesOrder) model.SalesOrder {
	items := make([]model.SalesLineItem, len(o.Items))
	for i, it := range o.Items {
		if d, ok := r.s.drugs[it.DrugID]; ok {
			it.Drug = &d
		}
		allocs := make([]model.SalesBatchAllocation, len(it.Allocations))
		for j, a := range it.Allocations {
			if b, ok := r.s.batches[a.BatchID]; ok {
				a.Batch = &b
			}
			allocs[j] = a
		}
		it.Allocations = allocs
		items[i] = it
	}
	o.Items = items
	return o
}

func (r *memSales) List(_ context.Context, orgID uuid.UUID, f repository.SaleFilter) ([]model.SalesOrder, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.SalesOrder
	for _, o := range r.s.sales {
		if o.OrganizationID != orgID {
			continue
		}
		if f.From != nil && o.SaleDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !o.SaleDate.Before(*f.To) {
			continue
		}
		if f.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *f.CustomerID) {
			continue
		}
		out = append(out, r.preload(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return out, int64(len(out)), nil
}

// ── Chat / users ─────────────────────────────────────────────────────────────

type memChats struct{ s *memStore }

var _ repository.ChatRepository = (*memChats)(nil)

func (r *memChats) CreateSession(_ context.Context, sess *model.ChatSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[sess.ID] = *sess
	return nil
}

func (r *memChats) FindSession(_ context.Context, orgID, userID, id uuid.UUID) (*model.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok || sess.OrganizationID != orgID || sess.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return &sess, nil
}

func (r *memChats) AddMessage(_ context.Context, m *model.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("AddMessage"); err != nil {
		return err
	}
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r *memChats) RecentMessages(_ context.Context, sessionID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ChatMessage
	for _, m := range r.s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type memUsers struct{ s *memStore }

var _ repository.UserRepository = (*memUsers)(nil)

func (r *memUsers) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.users {
		if strings.EqualFold(o.Email, u.Email) {
			return uniqueViolation("users_email_key")
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) && u.IsActive {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *memUsers) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, u := range r.s.users {
		if u.OrganizationID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

// ── Cache / queue fakes ──────────────────────────────────────────────────────

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

var _ Cache = (*memCache)(nil)

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return ok && json.Unmarshal(b, dst) == nil
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, err := json.Marshal(v); err == nil {
		c.data[key] = b
	}
}

func (c *memCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
}

type captureReceipts struct {
	mu   sync.Mutex
	jobs []worker.ReceiptJobPayload
}

func (c *captureReceipts) EnqueueReceipt(_ context.Context, p worker.ReceiptJobPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, p)
	return nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memStore
	tx        *memTx
	drugs     *memDrugs
	batches   *memBatches
	customers *memCustomers
	sales     *memSales
	cache     *memCache
	receipts  *captureReceipts
	auth      AuthContext
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	return &fixture{
		store:     s,
		tx:        &memTx{store: s},
		drugs:     &memDrugs{s: s},
		batches:   &memBatches{s: s},
		customers: &memCustomers{s: s},
		sales:     &memSales{s: s},
		cache:     newMemCache(),
		receipts:  &captureReceipts{},
		auth: AuthContext{
			OrganizationID: uuid.New(),
			UserID:         uuid.New(),
			Role:           model.RolePharmacist,
		},
		now: time.Date(2026, 10, 17, 14, 30, 5, 0, time.UTC),
	}
}

func (f *fixture) saleService(opts SaleOptions) SaleService {
	if opts.Now == nil {
		opts.Now = func() time.Time { return f.now }
	}
	return NewSaleService(f.tx, f.sales, f.drugs, f.batches, f.customers, f.cache, f.receipts, opts)
}

func defaultSaleOptions() SaleOptions {
	return SaleOptions{EnforceCreditLimit: true}
}

func (f *fixture) addDrug(name, price string, barcode string) model.Drug {
	d := model.Drug{
		ID:             uuid.New(),
		OrganizationID: f.auth.OrganizationID,
		Name:           name,
		Form:           "tablet",
		Price:          decimal.RequireFromString(price),
		ReorderLevel:   model.DefaultReorderLevel,
	}
	if barcode != "" {
		d.Barcode = &barcode
	}
	f.store.drugs[d.ID] = d
	return d
}

func (f *fixture) addBatch(drug model.Drug, lot string, qty int, expiry time.Time) model.InventoryBatch {
	b := model.InventoryBatch{
		ID:             uuid.New(),
		DrugID:         drug.ID,
		LotNumber:      lot,
		QuantityOnHand: qty,
		ExpiryDate:     expiry,
		Status:         model.BatchActive,
	}
	f.store.batches[b.ID] = b
	return b
}

func (f *fixture) addCustomer(allowCredit bool, limit, balance string) model.Customer {
	email := "patient@example.com"
	c := model.Customer{
		ID:             uuid.New(),
		OrganizationID: f.auth.OrganizationID,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          &email,
		AllowCredit:    allowCredit,
		CreditLimit:    decimal.RequireFromString(limit),
		CurrentBalance: decimal.RequireFromString(balance),
	}
	f.store.customers[c.ID] = c
	return c
}

func (f *fixture) batch(id uuid.UUID) model.InventoryBatch {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.batches[id]
}

func (f *fixture) customer(id uuid.UUID) model.Customer {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.customers[id]
}

func (f *fixture) stockOf(drugID uuid.UUID) int {
	n, _ := f.batches.TotalStock(context.Background(), drugID)
	return n
}

func (f *fixture) saleCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.sales)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string { return &s }
