package model

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/satabdisikdar/bdd-database-test-suite/internal/db"
	"gorm.io/gorm"
)

// Initialize connects the manager and creates the fixture tables.
func Initialize(m *db.Manager) error {
	if !m.Connect() {
		return fmt.Errorf("failed to connect to database")
	}
	if err := m.Session(Migrate); err != nil {
		return fmt.Errorf("failed to create fixture tables: %w", err)
	}
	log.Info("Test database initialized")
	return nil
}

// Seed inserts the baseline fixture rows inside a single session, so a
// failure leaves none of them behind.
func Seed(m *db.Manager) error {
	return m.Session(func(tx *gorm.DB) error {
		users := []User{
			{Username: "john_doe", Email: "john@example.com", IsActive: 1},
			{Username: "jane_smith", Email: "jane@example.com", IsActive: 1},
			{Username: "bob_wilson", Email: "bob@example.com", IsActive: 1},
		}
		if err := tx.Create(&users).Error; err != nil {
			return err
		}

		products := []Product{
			{Name: "Laptop", Price: 999.99, Category: "Electronics", InStock: 10},
			{Name: "Mouse", Price: 25.99, Category: "Electronics", InStock: 50},
			{Name: "Book", Price: 12.99, Category: "Books", InStock: 30},
		}
		if err := tx.Create(&products).Error; err != nil {
			return err
		}

		orders := []Order{
			{UserID: users[0].ID, ProductID: products[0].ID, Quantity: 1, TotalAmount: 999.99, Status: "pending"},
			{UserID: users[1].ID, ProductID: products[1].ID, Quantity: 2, TotalAmount: 51.98, Status: "pending"},
			{UserID: users[2].ID, ProductID: products[2].ID, Quantity: 3, TotalAmount: 38.97, Status: "pending"},
		}
		return tx.Create(&orders).Error
	})
}

// Reset wipes the fixture tables and re-seeds the baseline rows. Called
// between scenarios so each one starts from the same state.
func Reset(m *db.Manager) error {
	for _, table := range []string{"orders", "users", "products"} {
		if !m.TruncateTable(table) {
			return fmt.Errorf("failed to truncate %s", table)
		}
	}
	return Seed(m)
}

// Cleanup drops the fixture tables and releases the engine handle.
func Cleanup(m *db.Manager) error {
	if err := m.Session(Drop); err != nil {
		log.Error("Failed to drop fixture tables", "err", err)
	}
	return m.Close()
}
