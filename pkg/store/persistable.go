package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/richard-senior/matchpredict/internal/logger"
	_ "modernc.org/sqlite"
)

// Persistable interface defines methods that persistent objects must implement.
// Columns are described by struct tags:
//
//	column:"name" dbtype:"TEXT NOT NULL" primary:"true" index:"true"
//
// Fields without a dbtype tag are not stored.
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]any
	BeforeSave() error
	AfterSave() error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sqlite connection with struct-tag driven persistence.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the sqlite database at path.
// ":memory:" gives a private in-memory database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Debug("Database initialized successfully", path)
	return &DB{db: db, path: path}, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) Path() string { return d.path }

// CreateTable creates a table for the given persistable object using struct tags
func (d *DB) CreateTable(ctx context.Context, obj Persistable) error {
	tableName := obj.GetTableName()
	createSQL := generateCreateTableSQL(obj, tableName)
	logger.Debug("Creating table with SQL", createSQL)

	if _, err := d.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	for _, query := range generateIndexSQL(obj, tableName) {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}
	return nil
}

type column struct {
	name    string
	dbType  string
	primary bool
	index   bool
	field   int
}

// columns lists the stored fields of obj in declaration order.
func columns(obj any) []column {
	objType := reflect.TypeOf(obj)
	if objType.Kind() == reflect.Ptr {
		objType = objType.Elem()
	}
	var cols []column
	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		if !field.IsExported() {
			continue
		}
		dbType := field.Tag.Get("dbtype")
		if dbType == "" {
			continue
		}
		name := field.Tag.Get("column")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		cols = append(cols, column{
			name:    name,
			dbType:  dbType,
			primary: field.Tag.Get("primary") == "true",
			index:   field.Tag.Get("index") == "true",
			field:   i,
		})
	}
	return cols
}

// generateCreateTableSQL generates CREATE TABLE SQL from struct tags
func generateCreateTableSQL(obj any, tableName string) string {
	var defs, primaryKeys []string
	for _, c := range columns(obj) {
		dbType := c.dbType
		if c.primary {
			primaryKeys = append(primaryKeys, c.name)
			dbType = strings.TrimSpace(strings.ReplaceAll(dbType, "PRIMARY KEY", ""))
		}
		defs = append(defs, fmt.Sprintf("%s %s", c.name, dbType))
	}
	if len(primaryKeys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(defs, ", "))
}

// generateIndexSQL generates index creation SQL from struct tags
func generateIndexSQL(obj any, tableName string) []string {
	var out []string
	for _, c := range columns(obj) {
		if !c.index {
			continue
		}
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", tableName, c.name, tableName, c.name))
	}
	return out
}

func values(obj any, cols []column) []any {
	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = v.Field(c.field).Interface()
	}
	return out
}

func destinations(obj any, cols []column) []any {
	v := reflect.ValueOf(obj).Elem()
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = v.Field(c.field).Addr().Interface()
	}
	return out
}

func names(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// Save persists the object to the database (INSERT or UPDATE)
func (d *DB) Save(ctx context.Context, obj Persistable) error {
	return save(ctx, d.db, obj)
}

func save(ctx context.Context, ex execer, obj Persistable) error {
	if err := obj.BeforeSave(); err != nil {
		return fmt.Errorf("before save hook failed: %w", err)
	}

	tableName := obj.GetTableName()
	cols := columns(obj)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var updates []string
	for _, c := range cols {
		if !c.primary {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c.name, c.name))
		}
	}
	var pk []string
	for _, c := range cols {
		if c.primary {
			pk = append(pk, c.name)
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tableName, strings.Join(names(cols), ", "), placeholders)
	if len(pk) > 0 && len(updates) > 0 {
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(pk, ", "), strings.Join(updates, ", "))
	}

	if _, err := ex.ExecContext(ctx, query, values(obj, cols)...); err != nil {
		return fmt.Errorf("failed to save into %s: %w", tableName, err)
	}
	if err := obj.AfterSave(); err != nil {
		return fmt.Errorf("after save hook failed: %w", err)
	}
	return nil
}

// BulkSave saves multiple objects in a single transaction
func (d *DB) BulkSave(ctx context.Context, objects []Persistable) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range objects {
		if err := save(ctx, tx, obj); err != nil {
			return fmt.Errorf("failed to save object: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceWhere saves objects and then deletes the rows of obj's table that
// match whereClause, all in one transaction. Nothing is deleted unless every
// save succeeds. It reports how many rows were deleted.
func (d *DB) ReplaceWhere(ctx context.Context, objects []Persistable, obj Persistable, whereClause string, args ...any) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, o := range objects {
		if err := save(ctx, tx, o); err != nil {
			return 0, fmt.Errorf("failed to save object: %w", err)
		}
	}
	tableName := obj.GetTableName()
	res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", tableName, whereClause), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", tableName, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return removed, nil
}

// Exists checks if the object exists in the database
func (d *DB) Exists(ctx context.Context, obj Persistable) (bool, error) {
	tableName := obj.GetTableName()
	whereClause, args := buildWhereClause(obj.GetPrimaryKey())

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", tableName, whereClause)
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", tableName, err)
	}
	return count > 0, nil
}

// ErrNotFound is returned by FindByPrimaryKey when no row matches.
var ErrNotFound = errors.New("record not found")

// FindByPrimaryKey fills obj from the row matching its primary key.
func (d *DB) FindByPrimaryKey(ctx context.Context, obj Persistable) error {
	tableName := obj.GetTableName()
	cols := columns(obj)
	whereClause, args := buildWhereClause(obj.GetPrimaryKey())

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(names(cols), ", "), tableName, whereClause)
	err := d.db.QueryRowContext(ctx, query, args...).Scan(destinations(obj, cols)...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w in %s", ErrNotFound, tableName)
	}
	if err != nil {
		return fmt.Errorf("failed to scan row from %s: %w", tableName, err)
	}
	return nil
}

// FindWhere executes a custom WHERE query. Results are new values of obj's type.
func (d *DB) FindWhere(ctx context.Context, obj Persistable, whereClause string, args ...any) ([]any, error) {
	tableName := obj.GetTableName()
	cols := columns(obj)

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names(cols), ", "), tableName)
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	logger.Debug("FindWhere SQL", query)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	objType := reflect.TypeOf(obj)
	if objType.Kind() == reflect.Ptr {
		objType = objType.Elem()
	}

	var results []any
	for rows.Next() {
		newObj := reflect.New(objType).Interface()
		if err := rows.Scan(destinations(newObj, cols)...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tableName, err)
		}
		results = append(results, newObj)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", tableName, err)
	}
	return results, nil
}

// DeleteWhere removes matching rows and reports how many went.
func (d *DB) DeleteWhere(ctx context.Context, obj Persistable, whereClause string, args ...any) (int64, error) {
	tableName := obj.GetTableName()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", tableName, whereClause)
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", tableName, err)
	}
	return res.RowsAffected()
}

// buildWhereClause builds a WHERE clause from a primary key map
func buildWhereClause(primaryKey map[string]any) (string, []any) {
	keys := make([]string, 0, len(primaryKey))
	for k := range primaryKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		conditions[i] = fmt.Sprintf("%s = ?", k)
		args[i] = primaryKey[k]
	}
	return strings.Join(conditions, " AND "), args
}
