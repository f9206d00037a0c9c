package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"recipeapp/internal/model"
)

// Open returns a connected GORM DB instance for the given driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if driver == "sqlite" {
		// sqlite serializes writers; one connection also keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: mysql, postgres, sqlite, sqlserver)", driver)
	}
}

// Migrate creates or updates the schema. When reset is set, existing tables are dropped first.
func Migrate(db *gorm.DB, reset bool) error {
	tables := []interface{}{
		&model.RecipeCategory{},
		&model.Recipe{},
		&model.User{},
	}
	if reset {
		for _, table := range tables {
			if err := db.Migrator().DropTable(table); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
	}
	if err := db.AutoMigrate(&model.User{}, &model.Recipe{}, &model.RecipeCategory{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := binaryCategoryNames(db); err != nil {
		return fmt.Errorf("category name collation: %w", err)
	}
	return nil
}

const (
	categoryTable          = "recipe_category"
	mysqlBinaryCollation   = "utf8mb4_bin"
	mssqlBinaryCollation   = "Latin1_General_BIN2"
	mssqlCategoryPKName    = "pk_recipe_category"
	categoryNameColumnName = "name"
)

// binaryCategoryNames makes recipe_category.name compare case-sensitively.
// mysql and sqlserver default to case-insensitive collations, which would merge
// "Soup" and "soup" in the (recipe_id, name) key and in name lookups.
// postgres and sqlite already compare bytes.
func binaryCategoryNames(db *gorm.DB) error {
	dialect := db.Dialector.Name()

	var current string
	var pk string
	switch dialect {
	case "mysql":
		err := db.Raw(
			"SELECT COLLATION_NAME FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?",
			categoryTable, categoryNameColumnName,
		).Scan(&current).Error
		if err != nil {
			return err
		}
	case "sqlserver":
		err := db.Raw(
			"SELECT collation_name FROM sys.columns WHERE object_id = OBJECT_ID(?) AND name = ?",
			categoryTable, categoryNameColumnName,
		).Scan(&current).Error
		if err != nil {
			return err
		}
		err = db.Raw(
			"SELECT name FROM sys.key_constraints WHERE parent_object_id = OBJECT_ID(?) AND type = 'PK'",
			categoryTable,
		).Scan(&pk).Error
		if err != nil {
			return err
		}
	default:
		return nil
	}

	stmts := collationStatements(dialect, current, pk)
	if len(stmts) == 0 {
		return nil
	}

	// The name index depends on the column on sqlserver; rebuild it around the change.
	migrator := db.Migrator()
	hasIndex := dialect == "sqlserver" && migrator.HasIndex(&model.RecipeCategory{}, "Name")
	if hasIndex {
		if err := migrator.DropIndex(&model.RecipeCategory{}, "Name"); err != nil {
			return err
		}
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	if hasIndex {
		return migrator.CreateIndex(&model.RecipeCategory{}, "Name")
	}
	return nil
}

// collationStatements returns the DDL that moves the category name column to a
// binary collation, or nothing when it already has one.
func collationStatements(dialect, current, pk string) []string {
	switch dialect {
	case "mysql":
		if strings.EqualFold(current, mysqlBinaryCollation) {
			return nil
		}
		return []string{fmt.Sprintf(
			"ALTER TABLE %s MODIFY %s VARCHAR(%d) CHARACTER SET utf8mb4 COLLATE %s NOT NULL",
			categoryTable, categoryNameColumnName, model.MaxCategoryLen, mysqlBinaryCollation,
		)}
	case "sqlserver":
		if strings.EqualFold(current, mssqlBinaryCollation) {
			return nil
		}
		var stmts []string
		if pk != "" {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT [%s]", categoryTable, pk))
		}
		return append(stmts,
			fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s NVARCHAR(%d) COLLATE %s NOT NULL",
				categoryTable, categoryNameColumnName, model.MaxCategoryLen, mssqlBinaryCollation),
			fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (recipe_id, %s)",
				categoryTable, mssqlCategoryPKName, categoryNameColumnName),
		)
	default:
		return nil
	}
}
