package crawler

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gorm "meta" table
type Meta struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// gorm "torrents" table. Every torrent indexed by a crawl.
type Torrent struct {
	Site     string `gorm:"primaryKey"`
	Id       string `gorm:"primaryKey"` // site torrent id
	InfoHash string `gorm:"index"`
	Size     int64  // representative size
	Time     int64  // timestamp indexed
}

func (Meta) TableName() string {
	return "meta"
}

// Store persists crawl state across runs in a sqlite database.
type Store struct {
	db *gorm.DB
}

func OpenStore(dbfile string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbfile), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error create sqldb %s: %w", dbfile, err)
	}
	if err = db.AutoMigrate(&Meta{}, &Torrent{}); err != nil {
		return nil, fmt.Errorf("sql schema init error: %w", err)
	}
	return &Store{db: db}, nil
}

// GetMeta returns "" if key does not exist.
func (s *Store) GetMeta(key string) (string, error) {
	var metas []Meta
	if err := s.db.Where("key = ?", key).Limit(1).Find(&metas).Error; err != nil {
		return "", err
	}
	if len(metas) == 0 {
		return "", nil
	}
	return metas[0].Value, nil
}

func (s *Store) SetMeta(key string, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Meta{Key: key, Value: value}).Error
}

// SaveTorrents upserts torrents in one transaction.
func (s *Store) SaveTorrents(torrents []*Torrent) error {
	if len(torrents) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(torrents, 100).Error
	})
}

func (s *Store) CountTorrents(siteName string) (int64, error) {
	var cnt int64
	err := s.db.Model(&Torrent{}).Where("site = ?", siteName).Count(&cnt).Error
	return cnt, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
