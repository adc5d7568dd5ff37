package models

import "time"

// KVEntry is one storefront record (cart, usage map, catalog cache, order log)
// serialised as JSON under its logical key.
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName pins the table created by the kv_entries migration.
func (KVEntry) TableName() string {
	return "kv_entries"
}
