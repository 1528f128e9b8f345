// Package model defines the three fixture tables the suite seeds and
// exercises. The records exist only to give scenarios something concrete to
// create, read, update and delete; they carry no business logic.
package model

import (
	"time"

	"gorm.io/gorm"
)

// User is a row in the users table. IsActive is an integer on purpose: the
// suite treats booleans as 0/1 so the same fixtures work across backends.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"size:50;uniqueIndex;not null"`
	Email     string    `gorm:"size:100;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	IsActive  int       `gorm:"column:is_active;default:1"`
}

func (User) TableName() string { return "users" }

// Product is a row in the products table. Seeded once per run, read by
// inventory checks, never mutated in place by the current step set.
type Product struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:100;not null"`
	Price     float64 `gorm:"not null"`
	Category  string  `gorm:"size:50"`
	InStock   int     `gorm:"column:in_stock;default:0"`
	CreatedAt time.Time
}

func (Product) TableName() string { return "products" }

// Order is a row in the orders table. UserID and ProductID reference users
// and products but are not enforced as foreign keys at the row level; the
// total amount is computed by the caller, not the database.
type Order struct {
	ID          uint    `gorm:"primaryKey"`
	UserID      uint    `gorm:"column:user_id;not null"`
	ProductID   uint    `gorm:"column:product_id;not null"`
	Quantity    int     `gorm:"not null"`
	TotalAmount float64 `gorm:"column:total_amount;not null"`
	OrderDate   time.Time
	Status      string `gorm:"size:20;default:pending"`
}

func (Order) TableName() string { return "orders" }

// Migrate creates the fixture tables, indexes and constraints.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Product{}, &Order{})
}

// Drop removes the fixture tables.
func Drop(db *gorm.DB) error {
	return db.Migrator().DropTable(&Order{}, &Product{}, &User{})
}
