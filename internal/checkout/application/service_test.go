package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/checkout/domain"
	"github.com/wyfcoding/storefront/internal/checkout/infrastructure/persistence/memory"
	invapp "github.com/wyfcoding/storefront/internal/inventory/application"
	invclient "github.com/wyfcoding/storefront/internal/inventory/client"
	invdomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	invmemory "github.com/wyfcoding/storefront/internal/inventory/infrastructure/persistence/memory"
	"github.com/wyfcoding/storefront/pkg/auth"
)

type staticVerifier map[string]string

func (v staticVerifier) Verify(token string) (string, error) {
	if u, ok := v[token]; ok {
		return u, nil
	}
	return "", auth.ErrInvalidToken
}

// localInventory 直接调用库存应用服务
type localInventory struct {
	svc     *invapp.InventoryService
	down    bool
	updates atomic.Int32
	// 扣减成功后调用，模拟调用方在此刻断开
	afterUpdate func()
}

func (l *localInventory) GetAllProducts(ctx context.Context) ([]invdomain.Product, error) {
	if l.down {
		return nil, invclient.ErrUnavailable
	}
	return l.svc.GetAllProducts(ctx), nil
}

func (l *localInventory) UpdateQuantities(ctx context.Context, updates []invdomain.QuantityUpdate) ([]invdomain.Product, error) {
	l.updates.Add(1)
	products, err := l.svc.UpdateQuantities(ctx, updates)
	if err == nil && l.afterUpdate != nil {
		l.afterUpdate()
	}
	return products, err
}

// statsStore 与 gorm 一样在 ctx 结束后拒绝写入
type statsStore struct {
	*memory.StatsRepository
	failSave error
}

func (r *statsStore) Save(ctx context.Context, stats domain.Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.failSave != nil {
		return r.failSave
	}
	return r.StatsRepository.Save(ctx, stats)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

type notification struct {
	username string
	ids      []int64
}

func (r *recordingNotifier) Notify(username string, ids []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notification{username, ids})
}

type recordingPublisher struct {
	events chan domain.PurchaseConfirmedEvent
}

func (p *recordingPublisher) PublishPurchaseConfirmed(ctx context.Context, e domain.PurchaseConfirmedEvent) error {
	p.events <- e
	return nil
}

type fixture struct {
	svc       *CheckoutService
	inventory *localInventory
	repo      *statsStore
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	invSvc := invapp.NewInventoryService(invmemory.NewProductRepository(
		invdomain.Product{ID: 1, Name: "Keyboard", Subcategory: "A", Price: decimal.NewFromInt(10), AvailableQuantity: 5},
		invdomain.Product{ID: 2, Name: "Cable", Subcategory: "B", Price: decimal.RequireFromString("2.50"), AvailableQuantity: 100},
	))
	if err := invSvc.Load(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		inventory: &localInventory{svc: invSvc},
		repo:      &statsStore{StatsRepository: memory.NewStatsRepository()},
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{events: make(chan domain.PurchaseConfirmedEvent, 64)},
	}
	f.svc = NewCheckoutService(staticVerifier{"tok-alice": "alice"}, f.inventory, f.repo, f.publisher, f.notifier, nil)
	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return f
}

func quantityOf(t *testing.T, f *fixture, id int64) int64 {
	t.Helper()
	for _, p := range f.inventory.svc.GetAllProducts(context.Background()) {
		if p.ID == id {
			return p.AvailableQuantity
		}
	}
	t.Fatalf("product %d not found", id)
	return 0
}

func TestConfirmPurchaseScenarioA(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", []domain.PurchaseItem{{ProductID: 1, Quantity: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message == "" {
		t.Fatal("expected confirmation message")
	}
	if got := quantityOf(t, f, 1); got != 3 {
		t.Fatalf("expected quantity 3, got %d", got)
	}

	stats := f.svc.Stats()
	if stats.TotalProductsPurchased != 2 || !stats.TotalMoneySpent.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected stats: %d / %s", stats.TotalProductsPurchased, stats.TotalMoneySpent)
	}
	persisted, _ := f.repo.Load(context.Background())
	if persisted.TotalProductsPurchased != 2 {
		t.Fatalf("stats not persisted: %+v", persisted)
	}

	if len(f.notifier.calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.calls))
	}
	call := f.notifier.calls[0]
	if call.username != "alice" || len(call.ids) != 2 || call.ids[0] != 1 || call.ids[1] != 1 {
		t.Fatalf("unexpected notification: %+v", call)
	}

	event := <-f.publisher.events
	if event.Username != "alice" || event.TotalQuantity != 2 || event.TotalMoney != "20.00" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestConfirmPurchaseScenarioB(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", []domain.PurchaseItem{{ProductID: 1, Quantity: 2}}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", []domain.PurchaseItem{{ProductID: 1, Quantity: 10}})
	if !errors.Is(err, invdomain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := quantityOf(t, f, 1); got != 3 {
		t.Fatalf("expected quantity to stay 3, got %d", got)
	}
	if stats := f.svc.Stats(); stats.TotalProductsPurchased != 2 {
		t.Fatalf("stats changed on rejected purchase: %+v", stats)
	}
	if len(f.notifier.calls) != 1 {
		t.Fatalf("rejected purchase must not notify")
	}
}

func TestConfirmPurchaseNonPositiveQuantitiesExcludedFromStats(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", []domain.PurchaseItem{
		{ProductID: 2, Quantity: 4},
		{ProductID: 1, Quantity: -3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := quantityOf(t, f, 1); got != 8 {
		t.Fatalf("negative entry must still reach inventory, got quantity %d", got)
	}
	stats := f.svc.Stats()
	if stats.TotalProductsPurchased != 4 || !stats.TotalMoneySpent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected stats: %d / %s", stats.TotalProductsPurchased, stats.TotalMoneySpent)
	}
}

func TestConfirmPurchaseOnlyNonPositiveQuantitiesSkipsNotification(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", []domain.PurchaseItem{{ProductID: 1, Quantity: -2}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := quantityOf(t, f, 1); got != 7 {
		t.Fatalf("expected quantity 7, got %d", got)
	}
	if len(f.notifier.calls) != 0 {
		t.Fatalf("expected no notification without purchased units, got %+v", f.notifier.calls)
	}
}

func TestConfirmPurchaseCompletesAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.inventory.afterUpdate = cancel

	if _, err := f.svc.ConfirmPurchase(ctx, "tok-alice", []domain.PurchaseItem{{ProductID: 1, Quantity: 2}}); err != nil {
		t.Fatalf("purchase debited stock but failed afterwards: %v", err)
	}
	if got := quantityOf(t, f, 1); got != 3 {
		t.Fatalf("expected quantity 3, got %d", got)
	}
	persisted, _ := f.repo.Load(context.Background())
	if persisted.TotalProductsPurchased != 2 || f.svc.Stats().TotalProductsPurchased != 2 {
		t.Fatalf("stats lost after cancellation: persisted %+v", persisted)
	}
	if len(f.notifier.calls) != 1 {
		t.Fatalf("expected notification after cancellation, got %d", len(f.notifier.calls))
	}
	if event := <-f.publisher.events; event.TotalQuantity != 2 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestConfirmPurchaseRejectsBadToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmPurchase(context.Background(), "forged", []domain.PurchaseItem{{ProductID: 1, Quantity: 1}})
	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if f.inventory.updates.Load() != 0 || quantityOf(t, f, 1) != 5 {
		t.Fatal("unauthenticated purchase must have no side effects")
	}
}

func TestConfirmPurchaseRejectsEmptyList(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", nil); !errors.Is(err, ErrEmptyPurchase) {
		t.Fatalf("expected ErrEmptyPurchase, got %v", err)
	}
}

func TestConfirmPurchaseInventoryUnavailable(t *testing.T) {
	f := newFixture(t)
	f.inventory.down = true

	_, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", []domain.PurchaseItem{{ProductID: 1, Quantity: 1}})
	if !invclient.IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if f.inventory.updates.Load() != 0 || f.svc.Stats().TotalProductsPurchased != 0 {
		t.Fatal("nothing may be mutated when inventory is unreachable")
	}
}

func TestConfirmPurchaseStatsPersistFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.failSave = errors.New("disk full")

	_, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", []domain.PurchaseItem{{ProductID: 1, Quantity: 1}})
	if !errors.Is(err, ErrStatsPersist) {
		t.Fatalf("expected ErrStatsPersist, got %v", err)
	}
	if f.svc.Stats().TotalProductsPurchased != 0 {
		t.Fatal("in-memory stats must not change when persistence fails")
	}
}

func TestConcurrentPurchasesAccumulateStats(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.ConfirmPurchase(context.Background(), "tok-alice", []domain.PurchaseItem{{ProductID: 2, Quantity: 1}}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	stats := f.svc.Stats()
	if stats.TotalProductsPurchased != 20 || !stats.TotalMoneySpent.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected stats: %d / %s", stats.TotalProductsPurchased, stats.TotalMoneySpent)
	}
}
