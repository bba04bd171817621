package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/kodisha-api/internal/domain/entity"
	"github.com/kodisha/kodisha-api/internal/domain/enum"
	"github.com/kodisha/kodisha-api/internal/domain/event"
	"github.com/kodisha/kodisha-api/internal/domain/repository"
	"github.com/kodisha/kodisha-api/pkg/apperror"
	"github.com/kodisha/kodisha-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// In-memory fakes for the service tests. They copy entities on the way in
// and out so mutations only become visible through Update, the same as a
// real database round trip.

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]entity.Invoice

	// listSentHook, when set, runs inside ListSentDueBefore while the
	// caller holds the sweep lock. Used to exercise concurrent sweeps.
	listSentHook func()

	// updateErr, when set, is returned by Update to exercise write failures
	updateErr error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]entity.Invoice)}
}

func (r *fakeInvoiceRepo) add(inv entity.Invoice) entity.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.invoices[inv.ID] = inv
	return inv
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *fakeInvoiceRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeInvoiceRepo) GetWithLineItems(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) ListOpenByTenant(ctx context.Context, tenantID uuid.UUID) ([]entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Invoice
	for _, inv := range r.invoices {
		if inv.IssuedTo == tenantID && inv.Status.IsOpen() {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *fakeInvoiceRepo) ListSentDueBefore(ctx context.Context, now time.Time) ([]entity.Invoice, error) {
	if r.listSentHook != nil {
		r.listSentHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Invoice
	for _, inv := range r.invoices {
		if inv.Status == enum.InvoiceStatusSent && inv.DueDate.Before(now) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *fakeInvoiceRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enum.InvoiceStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.Status != from {
		return false, nil
	}
	inv.Status = to
	r.invoices[id] = inv
	return true, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]entity.Payment

	// listUnlinkedHook, when set, runs inside ListUnlinkedApproved while
	// the caller holds the sweep lock
	listUnlinkedHook func()
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]entity.Payment)}
}

func (r *fakePaymentRepo) add(p entity.Payment) entity.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments[p.ID] = p
	return p
}

// Create enforces reference uniqueness per company, the same constraint the
// unique index carries in Postgres.
func (r *fakePaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payment.ReferenceNumber != nil {
		for _, p := range r.payments {
			if p.CompanyID == payment.CompanyID &&
				p.ReferenceNumber != nil && *p.ReferenceNumber == *payment.ReferenceNumber {
				return apperror.NewConflictError("A payment with this reference already exists")
			}
		}
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *fakePaymentRepo) GetByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ReferenceNumber != nil && *p.ReferenceNumber == reference {
			match := p
			return &match, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, payment *entity.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil
	}
	p.Status = status
	r.payments[id] = p
	return nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) List(ctx context.Context, params *repository.PaymentFilterParams) ([]entity.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) ListUnlinkedApproved(ctx context.Context) ([]entity.Payment, error) {
	if r.listUnlinkedHook != nil {
		r.listUnlinkedHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Payment
	for _, p := range r.payments {
		if p.Status == enum.PaymentStatusApproved && p.InvoiceID == nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out, nil
}

func (r *fakePaymentRepo) SumSettledForInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.InvoiceID == nil || *p.InvoiceID != invoiceID {
			continue
		}
		if p.Status == enum.PaymentStatusApproved || p.Status == enum.PaymentStatusCompleted {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]entity.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: make(map[uuid.UUID]entity.Tenant)}
}

func (r *fakeTenantRepo) add(t entity.Tenant) entity.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.tenants[t.ID] = t
	return t
}

func (r *fakeTenantRepo) Create(ctx context.Context, tenant *entity.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	r.tenants[tenant.ID] = *tenant
	return nil
}

func (r *fakeTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *fakeTenantRepo) GetByEmail(ctx context.Context, email string) (*entity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.Email != nil && *t.Email == email {
			match := t
			return &match, nil
		}
	}
	return nil, nil
}

func (r *fakeTenantRepo) Update(ctx context.Context, tenant *entity.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[tenant.ID] = *tenant
	return nil
}

func (r *fakeTenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tenants, id)
	return nil
}

func (r *fakeTenantRepo) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Tenant, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies map[uuid.UUID]entity.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: make(map[uuid.UUID]entity.Company)}
}

func (r *fakeCompanyRepo) add(c entity.Company) entity.Company {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.companies[c.ID] = c
	return c
}

func (r *fakeCompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	r.companies[company.ID] = *company
	return nil
}

func (r *fakeCompanyRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeCompanyRepo) GetBySlug(ctx context.Context, slug string) (*entity.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if c.Slug == slug {
			match := c
			return &match, nil
		}
	}
	return nil, nil
}

func (r *fakeCompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[company.ID] = *company
	return nil
}

func (r *fakeCompanyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.companies, id)
	return nil
}

func (r *fakeCompanyRepo) GetUserCompanies(ctx context.Context, userID uuid.UUID, params *pagination.PaginationParams) ([]entity.Company, int64, error) {
	return nil, 0, nil
}

func (r *fakeCompanyRepo) AddMember(ctx context.Context, membership *entity.CompanyMembership) error {
	return nil
}

func (r *fakeCompanyRepo) RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error {
	return nil
}

func (r *fakeCompanyRepo) GetMembers(ctx context.Context, companyID uuid.UUID) ([]entity.CompanyMembership, error) {
	return nil, nil
}

func (r *fakeCompanyRepo) IsMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	return true, nil
}

func (r *fakeCompanyRepo) GetMembership(ctx context.Context, companyID, userID uuid.UUID) (*entity.CompanyMembership, error) {
	return nil, nil
}

func (r *fakeCompanyRepo) UpdateMemberRole(ctx context.Context, companyID, userID uuid.UUID, role string) error {
	return nil
}

func (r *fakeCompanyRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	c, _ := r.GetBySlug(ctx, slug)
	return c != nil, nil
}

func (r *fakeCompanyRepo) ListAll(ctx context.Context, params *pagination.PaginationParams) ([]entity.Company, int64, error) {
	return nil, 0, nil
}

func (r *fakeCompanyRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.companies)), nil
}

type fakeSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{counters: make(map[string]int64)}
}

func (r *fakeSequenceRepo) Next(ctx context.Context, companyID uuid.UUID, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := companyID.String() + "/" + name
	r.counters[key]++
	return r.counters[key], nil
}

// passthroughTx runs the function directly; the fakes are already atomic
// enough for the scenarios under test.
type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// countingTx runs the function directly while tracking how many top-level
// transactions were opened. Nested Do calls join the outer one, like the
// production manager.
type countingTx struct {
	mu       sync.Mutex
	depth    int
	topLevel int
}

func (c *countingTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	c.mu.Lock()
	c.depth++
	if c.depth == 1 {
		c.topLevel++
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.depth--
		c.mu.Unlock()
	}()
	return fn(ctx)
}

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	events []event.BillingEvent
}

func (p *capturingPublisher) Publish(events ...event.BillingEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *capturingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

func (p *capturingPublisher) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
