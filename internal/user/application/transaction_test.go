package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wyfcoding/storefront/internal/user/domain"
	"github.com/wyfcoding/storefront/internal/user/infrastructure/persistence/memory"
)

type stagedKey struct{}

// staged 事务内暂存的写入，提交时按序应用
type staged struct{ writes []func() }

// stagingTransactor fn 返回错误时丢弃暂存写入
type stagingTransactor struct {
	mu      sync.Mutex
	commits int
}

func (t *stagingTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s := &staged{}
	if err := fn(context.WithValue(ctx, stagedKey{}, s)); err != nil {
		return err
	}
	for _, w := range s.writes {
		w()
	}
	t.mu.Lock()
	t.commits++
	t.mu.Unlock()
	return nil
}

func stagedFrom(ctx context.Context) (*staged, error) {
	s, ok := ctx.Value(stagedKey{}).(*staged)
	if !ok {
		return nil, errors.New("write outside transaction")
	}
	return s, nil
}

// stagedRepository 写入只进入当前事务
type stagedRepository struct{ *memory.UserRepository }

func (r stagedRepository) Save(ctx context.Context, user *domain.User) error {
	s, err := stagedFrom(ctx)
	if err != nil {
		return err
	}
	u := *user
	u.History = append([]int64{}, user.History...)
	s.writes = append(s.writes, func() { _ = r.UserRepository.Save(context.Background(), &u) })
	return nil
}

func (r stagedRepository) Create(ctx context.Context, user *domain.User) (bool, error) {
	s, err := stagedFrom(ctx)
	if err != nil {
		return false, err
	}
	if _, err := r.Get(ctx, user.Username); err == nil {
		return false, nil
	}
	u := *user
	s.writes = append(s.writes, func() { _, _ = r.UserRepository.Create(context.Background(), &u) })
	return true, nil
}

// outboxRecorder 只接受事务内的事件写入
type outboxRecorder struct {
	fail       error
	registered []string
	histories  []domain.HistoryUpdatedEvent
}

func (p *outboxRecorder) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	if _, err := stagedFrom(ctx); err != nil {
		return err
	}
	if p.fail != nil {
		return p.fail
	}
	p.registered = append(p.registered, event.Username)
	return nil
}

func (p *outboxRecorder) PublishHistoryUpdated(ctx context.Context, event domain.HistoryUpdatedEvent) error {
	if _, err := stagedFrom(ctx); err != nil {
		return err
	}
	if p.fail != nil {
		return p.fail
	}
	p.histories = append(p.histories, event)
	return nil
}

func newTransactionalService(users ...string) (*UserService, *stagingTransactor, *outboxRecorder, *recordingForwarder) {
	tx := &stagingTransactor{}
	outbox := &outboxRecorder{}
	fwd := &recordingForwarder{}
	svc := NewUserService(Deps{
		Verifier:    tokenVerifier{},
		Repo:        stagedRepository{memory.NewUserRepository(users...)},
		Cache:       memory.NewRecommendationCache(3),
		Publisher:   outbox,
		Forwarder:   fwd,
		Transactor:  tx,
		Inventory:   catalog(),
		LockStripes: 4,
	})
	return svc, tx, outbox, fwd
}

func TestRecordPurchasesCommitsHistoryWithEvent(t *testing.T) {
	ctx := context.Background()
	svc, tx, outbox, fwd := newTransactionalService("alice")

	if err := svc.RecordPurchases(ctx, "alice", []int64{7, 3}); err != nil {
		t.Fatal(err)
	}
	if tx.commits != 1 {
		t.Fatalf("expected one commit, got %d", tx.commits)
	}
	if len(outbox.histories) != 1 || outbox.histories[0].HistoryLen != 2 {
		t.Fatalf("unexpected events: %+v", outbox.histories)
	}
	history, err := svc.GetUserHistoryProducts(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected committed history, got %+v", history)
	}
	if len(fwd.out) != 1 {
		t.Fatalf("expected one forward after commit, got %v", fwd.out)
	}
}

func TestRecordPurchasesRollsBackWhenEventWriteFails(t *testing.T) {
	ctx := context.Background()
	svc, tx, outbox, fwd := newTransactionalService("alice")
	outbox.fail = errors.New("outbox table locked")

	err := svc.RecordPurchases(ctx, "alice", []int64{7})
	if err == nil || !errors.Is(err, outbox.fail) {
		t.Fatalf("expected outbox error, got %v", err)
	}
	if tx.commits != 0 {
		t.Fatalf("expected no commit, got %d", tx.commits)
	}
	history, err := svc.GetUserHistoryProducts(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Fatalf("history must roll back with the event, got %+v", history)
	}
	if len(fwd.out) != 0 {
		t.Fatalf("rolled back history must not be forwarded, got %v", fwd.out)
	}

	// 恢复后下一次购买从空历史开始
	outbox.fail = nil
	if err := svc.RecordPurchases(ctx, "alice", []int64{3}); err != nil {
		t.Fatal(err)
	}
	if len(outbox.histories) != 1 || outbox.histories[0].HistoryLen != 1 {
		t.Fatalf("unexpected events after recovery: %+v", outbox.histories)
	}
}

func TestRegisterUserRollsBackWhenEventWriteFails(t *testing.T) {
	ctx := context.Background()
	svc, _, outbox, _ := newTransactionalService()
	outbox.fail = errors.New("outbox table locked")

	if _, err := svc.RegisterUser(ctx, "bob"); !errors.Is(err, outbox.fail) {
		t.Fatalf("expected outbox error, got %v", err)
	}
	if err := svc.RecordPurchases(ctx, "bob", []int64{1}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("user row must roll back with the event, got %v", err)
	}

	outbox.fail = nil
	created, err := svc.RegisterUser(ctx, "bob")
	if err != nil || !created {
		t.Fatalf("expected bob to be created on retry, got created=%v err=%v", created, err)
	}
	if len(outbox.registered) != 1 || outbox.registered[0] != "bob" {
		t.Fatalf("unexpected registration events: %v", outbox.registered)
	}

	// 已存在的用户不再写事件
	if created, err := svc.RegisterUser(ctx, "bob"); err != nil || created {
		t.Fatalf("expected existing user, got created=%v err=%v", created, err)
	}
	if len(outbox.registered) != 1 {
		t.Fatalf("existing user must not emit an event, got %v", outbox.registered)
	}
}
