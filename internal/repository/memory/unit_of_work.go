package memory

import (
	"context"
	"fmt"
	"sync"

	"cleaning-reservation-be/internal/repository/contract"
	"cleaning-reservation-be/internal/repository/unitofwork"
)

type repositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &repositoryFactory{store: store}
}

func (f *repositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

type UnitOfWork struct {
	store *Store

	mu   sync.Mutex
	inTx bool
	ops  []op
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.inTx = true
	u.ops = nil
	return nil
}

// Commit re-validates every staged write under the store lock and applies
// all of them or none.
func (u *UnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	ops := u.ops
	u.ops = nil
	u.inTx = false

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for _, o := range ops {
		if err := o.check(u.store); err != nil {
			return err
		}
	}
	for _, o := range ops {
		o.apply(u.store)
	}
	return nil
}

func (u *UnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ops = nil
	u.inTx = false
	return nil
}

// exec stages o inside a transaction, failing early when it already cannot
// succeed, or applies it immediately outside one.
func (u *UnitOfWork) exec(o op) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.inTx {
		u.store.mu.Lock()
		defer u.store.mu.Unlock()
		if err := o.check(u.store); err != nil {
			return err
		}
		o.apply(u.store)
		return nil
	}

	u.store.mu.RLock()
	err := o.check(u.store)
	u.store.mu.RUnlock()
	if err != nil {
		return err
	}
	u.ops = append(u.ops, o)
	return nil
}

func (u *UnitOfWork) ReservationRepository() contract.ReservationRepository {
	return &reservationRepository{uow: u}
}

func (u *UnitOfWork) UserRepository() contract.UserRepository {
	return &userRepository{uow: u}
}

func (u *UnitOfWork) OutboxRepository() contract.OutboxRepository {
	return &outboxRepository{uow: u}
}
