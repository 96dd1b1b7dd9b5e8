package database

import (
	"errors"
	"fmt"
	"os"
	"time"

	"menuopt/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SnapshotFileName is the default name of the SQLite export
const SnapshotFileName = "menu_snapshot.db"

// MenuRecord is one dish of an exported snapshot
type MenuRecord struct {
	gorm.Model
	Position      int
	Dish          string
	Ingredients   string `gorm:"type:text"`
	WeeklyOrders  *float64
	WasteCost     *float64
	ProfitMargin  *float64
	KeepRemove    string
	SuggestedDish string
}

// TableName sets the table name for MenuRecord
func (MenuRecord) TableName() string {
	return "menu_rows"
}

// ChatRecord is one chat turn of an exported snapshot
type ChatRecord struct {
	gorm.Model
	Turn    int
	Speaker string
	Text    string `gorm:"type:text"`
	SentAt  time.Time
}

// TableName sets the table name for ChatRecord
func (ChatRecord) TableName() string {
	return "chat_messages"
}

// Open opens a snapshot file and makes sure its tables exist
func Open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	db.LogMode(false)

	if err := db.AutoMigrate(&MenuRecord{}, &ChatRecord{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate snapshot database: %w", err)
	}
	return db, nil
}

// SaveSnapshot replaces the stored table and transcript in one transaction
func SaveSnapshot(db *gorm.DB, rows []models.MenuRow, messages []models.ChatMessage) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin snapshot: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = tx.Unscoped().Delete(&MenuRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear menu rows: %w", err)
	}
	if err = tx.Unscoped().Delete(&ChatRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear chat messages: %w", err)
	}

	for i, row := range rows {
		rec := MenuRecord{
			Position:      i,
			Dish:          row.Dish,
			Ingredients:   row.Ingredients,
			WeeklyOrders:  row.WeeklyOrders.Ptr(),
			WasteCost:     row.WasteCost.Ptr(),
			ProfitMargin:  row.ProfitMargin.Ptr(),
			KeepRemove:    row.KeepRemove,
			SuggestedDish: row.SuggestedDish,
		}
		if err = tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to store dish %q: %w", row.Dish, err)
		}
	}

	for i, msg := range messages {
		rec := ChatRecord{
			Turn:    i + 1,
			Speaker: msg.Speaker(),
			Text:    msg.Text,
			SentAt:  msg.SentAt,
		}
		if err = tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to store chat turn %d: %w", i+1, err)
		}
	}

	if err = tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// WriteSnapshotFile writes a fresh snapshot file at path
func WriteSnapshotFile(path string, rows []models.MenuRow, messages []models.ChatMessage) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	db, err := Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return SaveSnapshot(db, rows, messages)
}

// SnapshotRows reads the stored table back in sheet order
func SnapshotRows(db *gorm.DB) ([]models.MenuRow, error) {
	var recs []MenuRecord
	if err := db.Order("position").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to read menu rows: %w", err)
	}
	rows := make([]models.MenuRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, models.MenuRow{
			Dish:          rec.Dish,
			Ingredients:   rec.Ingredients,
			WeeklyOrders:  amountOf(rec.WeeklyOrders),
			WasteCost:     amountOf(rec.WasteCost),
			ProfitMargin:  amountOf(rec.ProfitMargin),
			KeepRemove:    rec.KeepRemove,
			SuggestedDish: rec.SuggestedDish,
		})
	}
	return rows, nil
}

func amountOf(v *float64) models.Amount {
	if v == nil {
		return models.None()
	}
	return models.Some(*v)
}
