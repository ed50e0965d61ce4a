// Package memstore is an in-memory ledger.Store used by unit tests and the
// DATA_BACKEND=memory mode. It enforces the same uniqueness contracts as the
// SQL store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"marate/models"
	"marate/pkg/ledger"
)

type Store struct {
	mu sync.Mutex

	roles    map[string]models.Role
	users    map[uint]models.User
	receipts map[uint]models.Receipt
	expenses map[uint]models.Expense
	clients  map[uint]models.Client

	nextID uint
}

func New() *Store {
	s := &Store{
		roles:    map[string]models.Role{},
		users:    map[uint]models.User{},
		receipts: map[uint]models.Receipt{},
		expenses: map[uint]models.Expense{},
		clients:  map[uint]models.Client{},
	}
	s.roles[ledger.RoleAdmin] = models.Role{ID: s.id(), Name: ledger.RoleAdmin, Description: "full access"}
	s.roles[ledger.RoleUser] = models.Role{ID: s.id(), Name: ledger.RoleUser, Description: "regular user"}
	return s
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) RoleByName(_ context.Context, name string) (*models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: "role"}
	}
	out := r
	return &out, nil
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return &ledger.ConflictError{Entity: "username", Value: u.Username}
		}
	}
	u.ID = s.id()
	u.CreatedAt = time.Now()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: "user", ID: id}
	}
	out := u
	return &out, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, &ledger.NotFoundError{Entity: "user"}
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return &ledger.NotFoundError{Entity: "user", ID: u.ID}
	}
	for _, existing := range s.users {
		if existing.Username == u.Username && existing.ID != u.ID {
			return &ledger.ConflictError{Entity: "username", Value: u.Username}
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return &ledger.NotFoundError{Entity: "user", ID: id}
	}
	delete(s.users, id)
	// detach ownership, never cascade
	for rid, r := range s.receipts {
		if r.OwnerUserID != nil && *r.OwnerUserID == id {
			r.OwnerUserID = nil
			s.receipts[rid] = r
		}
	}
	for eid, x := range s.expenses {
		if x.OwnerUserID != nil && *x.OwnerUserID == id {
			x.OwnerUserID = nil
			s.expenses[eid] = x
		}
	}
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateReceipt(_ context.Context, r *models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.receipts {
		if existing.ReceiptNumber == r.ReceiptNumber {
			return &ledger.ConflictError{Entity: "receipt number", Value: r.ReceiptNumber}
		}
	}
	r.ID = s.id()
	r.CreatedAt = time.Now()
	s.receipts[r.ID] = *r
	return nil
}

func (s *Store) ReceiptByID(_ context.Context, id uint) (*models.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[id]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: "receipt", ID: id}
	}
	out := r
	return &out, nil
}

func (s *Store) UpdateReceipt(_ context.Context, r *models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[r.ID]; !ok {
		return &ledger.NotFoundError{Entity: "receipt", ID: r.ID}
	}
	s.receipts[r.ID] = *r
	return nil
}

func (s *Store) DeleteReceipt(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[id]; !ok {
		return &ledger.NotFoundError{Entity: "receipt", ID: id}
	}
	delete(s.receipts, id)
	return nil
}

func (s *Store) ReceiptsInScope(_ context.Context, scope ledger.Scope) ([]models.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		if scope.Includes(r.OwnerUserID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, e *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	e.CreatedAt = time.Now()
	s.expenses[e.ID] = *e
	return nil
}

func (s *Store) ExpenseByID(_ context.Context, id uint) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: "expense", ID: id}
	}
	out := e
	return &out, nil
}

func (s *Store) UpdateExpense(_ context.Context, e *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; !ok {
		return &ledger.NotFoundError{Entity: "expense", ID: e.ID}
	}
	s.expenses[e.ID] = *e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return &ledger.NotFoundError{Entity: "expense", ID: id}
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ExpensesInScope(_ context.Context, scope ledger.Scope) ([]models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if scope.Includes(e.OwnerUserID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateClient(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	c.CreatedAt = time.Now()
	s.clients[c.ID] = *c
	return nil
}

func (s *Store) ClientByID(_ context.Context, id uint) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: "client", ID: id}
	}
	out := c
	return &out, nil
}

func (s *Store) UpdateClient(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		return &ledger.NotFoundError{Entity: "client", ID: c.ID}
	}
	s.clients[c.ID] = *c
	return nil
}

func (s *Store) DeleteClient(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return &ledger.NotFoundError{Entity: "client", ID: id}
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) ListClients(_ context.Context) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }
