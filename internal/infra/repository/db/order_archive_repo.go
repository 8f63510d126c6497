package db

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IOrderArchiveRepository interface {
	SaveOrder(ctx context.Context, order domain.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, limit int) ([]domain.Order, error)
}

type OrderArchiveRepo struct {
	db *gorm.DB
}

func NewOrderArchiveRepo(db *gorm.DB) *OrderArchiveRepo {
	return &OrderArchiveRepo{db: db}
}

var _ IOrderArchiveRepository = (*OrderArchiveRepo)(nil)

// SaveOrder 重複的 order id 直接忽略，ledger 上的訂單不會被改寫
func (r *OrderArchiveRepo) SaveOrder(ctx context.Context, order domain.Order) error {
	record := toRecord(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Items").Create(&record)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || len(record.Items) == 0 {
			return nil
		}
		return tx.Create(&record.Items).Error
	})
	if err != nil {
		return fmt.Errorf("archive order %s: %w", order.ID, err)
	}
	return nil
}

func (r *OrderArchiveRepo) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var record model.OrderRecord
	err := r.db.WithContext(ctx).Preload("Items", orderItemsByName).Where("order_id = ?", orderID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	order := toDomain(record)
	return &order, nil
}

// ListOrders 新的在前
func (r *OrderArchiveRepo) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	var records []model.OrderRecord
	q := r.db.WithContext(ctx).Preload("Items", orderItemsByName).Order("placed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, toDomain(rec))
	}
	return orders, nil
}

func orderItemsByName(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}

func toRecord(order domain.Order) model.OrderRecord {
	record := model.OrderRecord{
		OrderID:       order.ID,
		PlacedAt:      order.Timestamp,
		Coupon:        order.Coupon,
		Subtotal:      order.Totals.Subtotal,
		Discount:      order.Totals.Discount,
		TaxableAmount: order.Totals.TaxableAmount,
		Tax:           order.Totals.Tax,
		Shipping:      order.Totals.Shipping,
		Total:         order.Totals.Total,
	}
	if order.Customer != nil {
		record.CustomerName = order.Customer.FullName
		record.CustomerEmail = order.Customer.Email
	}
	for _, item := range order.Items {
		record.Items = append(record.Items, model.OrderItemRecord{
			OrderID:   order.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return record
}

func toDomain(record model.OrderRecord) domain.Order {
	order := domain.Order{
		ID:        record.OrderID,
		Timestamp: record.PlacedAt,
		Coupon:    record.Coupon,
		Totals: domain.Totals{
			Subtotal:      record.Subtotal,
			Discount:      record.Discount,
			TaxableAmount: record.TaxableAmount,
			Tax:           record.Tax,
			Shipping:      record.Shipping,
			Total:         record.Total,
		},
	}
	if record.CustomerName != "" || record.CustomerEmail != "" {
		order.Customer = &domain.CustomerInfo{
			FullName: record.CustomerName,
			Email:    record.CustomerEmail,
		}
	}
	for _, item := range record.Items {
		order.Items = append(order.Items, domain.LineItem{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return order
}
