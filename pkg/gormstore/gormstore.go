package gormstore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"marate/models"
	"marate/pkg/ledger"
)

// Store implements ledger.Store on a GORM database. Uniqueness of receipt
// numbers and usernames is enforced by the schema's unique indexes; duplicate
// writes come back as *ledger.ConflictError.
type Store struct {
	db *gorm.DB
}

// New wraps an open GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the schema and seeds the role master table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&models.Role{}); err != nil {
		return err
	}
	// seed master roles
	roles := []models.Role{
		{Name: ledger.RoleAdmin, Description: "full access"},
		{Name: ledger.RoleUser, Description: "regular user"},
	}
	for _, r := range roles {
		var cnt int64
		s.db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			if err := s.db.Create(&r).Error; err != nil {
				return err
			}
		}
	}
	for _, m := range []any{&models.User{}, &models.Receipt{}, &models.Expense{}, &models.Client{}} {
		if err := s.db.AutoMigrate(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	// Role is a master-table association; only the foreign key is written.
	if err := s.db.WithContext(ctx).Omit("Role").Create(u).Error; err != nil {
		if isUniqueConstraintError(err) {
			return &ledger.ConflictError{Entity: "username", Value: u.Username}
		}
		return err
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&u, id).Error; err != nil {
		return nil, userErr(err, id)
	}
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Role").Where("username = ?", username).First(&u).Error; err != nil {
		return nil, userErr(err, 0)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Omit("Role").Save(u).Error; err != nil {
		if isUniqueConstraintError(err) {
			return &ledger.ConflictError{Entity: "username", Value: u.Username}
		}
		return err
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// detach, never cascade: records outlive their owner as unattributed
		if err := tx.Model(&models.Receipt{}).Where("owner_user_id = ?", id).Update("owner_user_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Expense{}).Where("owner_user_id = ?", id).Update("owner_user_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ledger.NotFoundError{Entity: "user", ID: id}
		}
		return nil
	})
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Preload("Role").Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if isUniqueConstraintError(err) {
			return &ledger.ConflictError{Entity: "receipt number", Value: r.ReceiptNumber}
		}
		return err
	}
	return nil
}

func (s *Store) ReceiptByID(ctx context.Context, id uint) (*models.Receipt, error) {
	var r models.Receipt
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, wrapNotFound(err, "receipt", id)
	}
	return &r, nil
}

func (s *Store) UpdateReceipt(ctx context.Context, r *models.Receipt) error {
	return s.db.WithContext(ctx).Save(r).Error
}

func (s *Store) DeleteReceipt(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Receipt{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ledger.NotFoundError{Entity: "receipt", ID: id}
	}
	return nil
}

func (s *Store) ReceiptsInScope(ctx context.Context, scope ledger.Scope) ([]models.Receipt, error) {
	q := s.db.WithContext(ctx).Model(&models.Receipt{})
	if uid, personal := scope.Personal(); personal {
		q = q.Where("owner_user_id = ?", uid)
	}
	var receipts []models.Receipt
	if err := q.Order("id asc").Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *Store) ExpenseByID(ctx context.Context, id uint) (*models.Expense, error) {
	var e models.Expense
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, wrapNotFound(err, "expense", id)
	}
	return &e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *models.Expense) error {
	return s.db.WithContext(ctx).Save(e).Error
}

func (s *Store) DeleteExpense(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Expense{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ledger.NotFoundError{Entity: "expense", ID: id}
	}
	return nil
}

func (s *Store) ExpensesInScope(ctx context.Context, scope ledger.Scope) ([]models.Expense, error) {
	q := s.db.WithContext(ctx).Model(&models.Expense{})
	if uid, personal := scope.Personal(); personal {
		q = q.Where("owner_user_id = ?", uid)
	}
	var expenses []models.Expense
	if err := q.Order("id asc").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) ClientByID(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, wrapNotFound(err, "client", id)
	}
	return &c, nil
}

func (s *Store) UpdateClient(ctx context.Context, c *models.Client) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *Store) DeleteClient(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Client{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ledger.NotFoundError{Entity: "client", ID: id}
	}
	return nil
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).Order("id asc").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func wrapNotFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ledger.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func userErr(err error, id uint) error {
	return wrapNotFound(err, "user", id)
}

// isUniqueConstraintError sniffs driver-level duplicate key errors. Postgres
// and sqlite word these differently, hence the string check.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "UNIQUE constraint") || strings.Contains(s, "already exists")
}
