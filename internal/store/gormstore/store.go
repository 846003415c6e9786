// Package gormstore persists the e-Fatura engine through gorm on Postgres or SQLite
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

// Open connects to the database. SQLite is limited to a single connection
// so concurrent writers queue instead of failing with SQLITE_BUSY.
func Open(driver, dsn string, log zerolog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("gormstore: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newQueryLogger(log),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return &Store{db: db}, nil
}

// New wraps an existing connection
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.Business{},
		&model.Customer{},
		&model.Service{},
		&model.Order{},
		&model.OrderItem{},
		&model.Settings{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.InvoiceLog{},
	)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Orders

func (s *Store) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	var o model.Order
	err := s.db.WithContext(ctx).
		Preload("Business").
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Service").
		First(&o, "id = ?", orderID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *Store) SaveOrder(ctx context.Context, o *model.Order) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(o).Error
	return translate(err)
}

// Settings

func (s *Store) GetSettings(ctx context.Context, businessID string) (*model.Settings, error) {
	var st model.Settings
	if err := s.db.WithContext(ctx).First(&st, "business_id = ?", businessID).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st *model.Settings) error {
	return translate(s.db.WithContext(ctx).Save(st).Error)
}

func (s *Store) NextInvoiceSequence(ctx context.Context, businessID string) (int64, *model.Settings, error) {
	var st model.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Settings{}).
			Where("business_id = ?", businessID).
			UpdateColumn("invoice_counter", gorm.Expr("invoice_counter + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.First(&st, "business_id = ?", businessID).Error
	})
	if err != nil {
		return 0, nil, translate(err)
	}
	return st.InvoiceCounter, &st, nil
}

// Invoices

func (s *Store) CreateInvoice(ctx context.Context, inv *model.Invoice, log *model.InvoiceLog) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		if log != nil {
			return tx.Create(log).Error
		}
		return nil
	})
	return translate(err)
}

func (s *Store) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	var inv model.Invoice
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		First(&inv, "id = ?", invoiceID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (s *Store) GetInvoiceByOrder(ctx context.Context, orderID string) (*model.Invoice, error) {
	var inv model.Invoice
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		First(&inv, "order_id = ?", orderID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

// UpdateInvoice is a compare-and-set on gib_status. Items are never
// rewritten after creation.
func (s *Store) UpdateInvoice(ctx context.Context, inv *model.Invoice, from model.GIBStatus, log *model.InvoiceLog) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Invoice{}).
			Where("id = ? AND gib_status = ?", inv.ID, from).
			Select("*").
			Omit("id", "created_at", clause.Associations).
			Updates(inv)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&model.Invoice{}).Where("id = ?", inv.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return store.ErrNotFound
			}
			return store.ErrStale
		}
		if log != nil {
			return tx.Create(log).Error
		}
		return nil
	})
	return translate(err)
}

func (s *Store) ListInvoices(ctx context.Context, f store.InvoiceFilter) ([]model.Invoice, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Invoice{})
	if f.BusinessID != "" {
		q = q.Where("business_id = ?", f.BusinessID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("gib_status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("invoice_date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("invoice_date <= ?", f.To.UTC())
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.OrderID != "" {
		q = q.Where("order_id = ?", f.OrderID)
	}
	if f.NumberContains != "" {
		q = q.Where(`invoice_number LIKE ? ESCAPE '\'`, "%"+escapeLike(f.NumberContains)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("invoice_date DESC").Order("invoice_number DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var invoices []model.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

type aggregate struct {
	Count  int64
	Amount decimal.NullDecimal
}

type statusCount struct {
	GIBStatus model.GIBStatus
	Count     int64
}

func (s *Store) InvoiceStats(ctx context.Context, businessID string, since time.Time) (*store.InvoiceStats, error) {
	db := s.db.WithContext(ctx)
	base := func() *gorm.DB {
		return db.Model(&model.Invoice{}).Where("business_id = ?", businessID)
	}

	var all, recent aggregate
	if err := base().Select("COUNT(*) AS count, SUM(total_amount) AS amount").Scan(&all).Error; err != nil {
		return nil, err
	}
	if err := base().Where("created_at >= ?", since.UTC()).
		Select("COUNT(*) AS count, SUM(total_amount) AS amount").Scan(&recent).Error; err != nil {
		return nil, err
	}

	var rows []statusCount
	if err := base().Select("gib_status, COUNT(*) AS count").Group("gib_status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &store.InvoiceStats{
		TotalCount:   all.Count,
		TotalAmount:  all.Amount.Decimal,
		RecentCount:  recent.Count,
		RecentAmount: recent.Amount.Decimal,
		ByStatus:     make(map[model.GIBStatus]int64, len(rows)),
	}
	for _, r := range rows {
		stats.ByStatus[r.GIBStatus] = r.Count
	}
	return stats, nil
}

// DeleteDrafts removes stale drafts and their items. Log rows are kept.
func (s *Store) DeleteDrafts(ctx context.Context, businessID string, olderThan time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&model.Invoice{}).
			Where("business_id = ? AND gib_status = ? AND created_at < ?", businessID, model.StatusDraft, olderThan.UTC()).
			Pluck("id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}
		if err := tx.Where("invoice_id IN ?", ids).Delete(&model.InvoiceItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Invoice{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, translate(err)
}

// Audit log

func (s *Store) AppendLog(ctx context.Context, log *model.InvoiceLog) error {
	return translate(s.db.WithContext(ctx).Create(log).Error)
}

func (s *Store) ListLogs(ctx context.Context, invoiceID string) ([]model.InvoiceLog, error) {
	var logs []model.InvoiceLog
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").Order("id ASC").
		Find(&logs).Error
	return logs, err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
	}
	return err
}

// isUniqueViolation catches drivers whose errors gorm does not translate
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
