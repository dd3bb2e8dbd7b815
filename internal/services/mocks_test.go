package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"cafe-pickup-service/internal/domain"
	"cafe-pickup-service/internal/ports"
)

// mockRepo is an in-memory PackageRepository for service tests.
// Error fields, when set, fail the matching call.
type mockRepo struct {
	mu       sync.Mutex
	packages map[int64]*domain.Package
	nextID   int64

	updateErr error
	markErr   error
	listErr   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{packages: map[int64]*domain.Package{}}
}

func (m *mockRepo) add(pkg *domain.Package) *domain.Package {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	pkg.ID = m.nextID
	cp := *pkg
	m.packages[pkg.ID] = &cp
	return pkg
}

func (m *mockRepo) Create(ctx context.Context, pkg *domain.Package) error {
	m.add(pkg)
	return nil
}

func (m *mockRepo) CreateBatch(ctx context.Context, pkgs []*domain.Package) error {
	for _, pkg := range pkgs {
		m.add(pkg)
	}
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkg, ok := m.packages[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *pkg
	return &cp, nil
}

func (m *mockRepo) Update(ctx context.Context, pkg *domain.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.packages[pkg.ID]; !ok {
		return ports.ErrNotFound
	}
	cp := *pkg
	m.packages[pkg.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.packages[id]; !ok {
		return ports.ErrNotFound
	}
	delete(m.packages, id)
	return nil
}

func (m *mockRepo) DeleteWhere(ctx context.Context, status domain.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, pkg := range m.packages {
		if status == "" || pkg.Status == status {
			delete(m.packages, id)
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) List(ctx context.Context, q ports.ListQuery) ([]*domain.Package, int, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return all, len(all), nil
}

func (m *mockRepo) ListAll(ctx context.Context) ([]*domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*domain.Package, 0, len(m.packages))
	for id := int64(1); id <= m.nextID; id++ {
		if pkg, ok := m.packages[id]; ok {
			cp := *pkg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Package, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, pkg := range all {
		if pkg.Status == status {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []*domain.Package{}
	for _, id := range ids {
		if pkg, ok := m.packages[id]; ok {
			cp := *pkg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) ListPendingEmail(ctx context.Context, kind domain.NotificationKind) ([]*domain.Package, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	want := domain.StatusWarehouseArrived
	if kind == domain.NotifyCafeArrival {
		want = domain.StatusCafeArrived
	}

	out := []*domain.Package{}
	for _, pkg := range all {
		if pkg.Status == want && !pkg.EmailSent(kind) {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (m *mockRepo) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pkg := range m.packages {
		if pkg.TrackingNumber == trackingNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) PickupCodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pkg := range m.packages {
		if pkg.PickupCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) MarkEmailSent(ctx context.Context, id int64, kind domain.NotificationKind, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.markErr != nil {
		return m.markErr
	}
	pkg, ok := m.packages[id]
	if !ok {
		return ports.ErrNotFound
	}
	switch kind {
	case domain.NotifyWarehouseArrival:
		pkg.WarehouseEmailSent = true
	case domain.NotifyCafeArrival:
		pkg.CafeEmailSent = true
	}
	pkg.UpdatedAt = at
	return nil
}

func (m *mockRepo) Stats(ctx context.Context, now time.Time) (*ports.Stats, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	s := &ports.Stats{Total: len(all)}
	today := now.UTC().Format("2006-01-02")
	for _, pkg := range all {
		switch pkg.Status {
		case domain.StatusWarehouseArrived:
			s.WarehouseArrived++
		case domain.StatusCafeArrived:
			s.CafeArrived++
		case domain.StatusPickedUp:
			s.PickedUp++
		}
		if pkg.CafeArrivalAt != nil && strings.HasPrefix(pkg.CafeArrivalAt.UTC().Format(time.RFC3339), today) {
			s.TodayCafeArrived++
		}
	}
	return s, nil
}

// mockPublisher records status events; Err fails every publish.
type mockPublisher struct {
	mu     sync.Mutex
	events []ports.StatusEvent

	Err error
}

func (p *mockPublisher) PublishStatusEvent(ctx context.Context, ev ports.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *mockPublisher) Close() error { return nil }

func (p *mockPublisher) published() []ports.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]ports.StatusEvent, len(p.events))
	copy(out, p.events)
	return out
}
