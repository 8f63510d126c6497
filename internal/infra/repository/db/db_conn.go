package db

import (
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ConnConfig struct {
	Name     string
	Host     string
	Port     string
	User     string
	Password string
	// 封存寫入量小，連線池不需要太大
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func (c ConnConfig) dsn() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

func GetDbConn(cf ConnConfig) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(cf.dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := cf.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 5
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	if cf.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cf.ConnMaxLifetime)
	}
	return conn, nil
}

// Migrate 建立封存訂單所需的資料表
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(&model.OrderRecord{}, &model.OrderItemRecord{})
}
