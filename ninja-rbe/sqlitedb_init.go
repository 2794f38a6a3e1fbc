package main

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"github.com/gearsmith/nininja/model"
)

var DB *gorm.DB = nil

func migrate() error {
	err := DB.AutoMigrate(&model.RbeLogEntry{})
	if err != nil {
		return err
	}
	err = DB.AutoMigrate(&model.DepsEntry{})
	if err != nil {
		return err
	}
	return nil
}

func OpenDb(dbPath string) (err error) {
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return err
	}
	err = migrate()
	return
}

func CloseDb() (err error) {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
