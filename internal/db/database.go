package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/solarpro/storefront/internal/hash"
	"github.com/solarpro/storefront/internal/models"
)

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// Open connects to postgres when databaseURL is set, otherwise to the
// single-file sqlite store at sqlitePath.
func Open(ctx context.Context, databaseURL, sqlitePath string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if databaseURL != "" {
		dialector = postgres.Open(databaseURL)
	} else {
		if sqlitePath == "" {
			return nil, fmt.Errorf("sqlite path is empty")
		}
		dialector = sqlite.Open(sqlitePath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.Order{},
		&models.Coupon{},
		&models.Setting{},
		&models.ContactMessage{},
		&models.WishlistItem{},
		&models.AdminLog{},
	)
}

var defaultSettings = []models.Setting{
	{Key: "mercadopago_access_token", Value: "", Description: "Mercado Pago access token", Kind: models.SettingKindSecret},
	{Key: "mercadopago_public_key", Value: "", Description: "Mercado Pago public key", Kind: models.SettingKindText},
	{Key: "mercadopago_sandbox", Value: "1", Description: "Sandbox mode (1=on, 0=production)", Kind: models.SettingKindBoolean},
	{Key: "store_name", Value: "SolarPro", Description: "Store name", Kind: models.SettingKindText},
	{Key: "store_email", Value: "contact@solarpro.example", Description: "Store email", Kind: models.SettingKindText},
	{Key: "store_phone", Value: "(11) 99999-9999", Description: "Store phone", Kind: models.SettingKindText},
	{Key: "store_whatsapp", Value: "5511999999999", Description: "WhatsApp number with country code", Kind: models.SettingKindText},
	{Key: "store_address", Value: "", Description: "Full store address", Kind: models.SettingKindText},
	{Key: "free_shipping_above", Value: "5000", Description: "Free shipping above this total", Kind: models.SettingKindNumber},
	{Key: "low_stock_alert", Value: "5", Description: "Alert when stock falls below", Kind: models.SettingKindNumber},
	{Key: "cart_abandon_hours", Value: "24", Description: "Mark cart abandoned after (hours)", Kind: models.SettingKindNumber},
}

// Seed inserts default settings and a bootstrap admin account, skipping
// anything already present.
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	for _, s := range defaultSettings {
		var existing models.Setting
		err := db.Where("key = ?", s.Key).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&s).Error; err != nil {
			return err
		}
	}

	var admins int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
		return err
	}
	if admins == 0 && adminEmail != "" && adminPassword != "" {
		pwHash, err := hash.HashPassword(adminPassword)
		if err != nil {
			return err
		}
		admin := models.User{
			Name:         "Administrator",
			Email:        adminEmail,
			PasswordHash: pwHash,
			Role:         models.RoleAdmin,
			Active:       true,
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
	}

	return nil
}
