package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/yaarfetch/fetch-gateway/internal/logger"
)

// migrationsTable отделён от таблиц других сервисов в той же базе.
const migrationsTable = "gateway_schema_migrations"

// migrationLockKey - ключ advisory lock: несколько экземпляров шлюза
// не применяют одну миграцию одновременно.
const migrationLockKey = 7_301_884_120

// RequiredTables должны существовать после миграций.
var RequiredTables = []string{"gateway_sessions"}

var migrationName = regexp.MustCompile(`^(\d{3})_[a-z0-9_]+\.sql$`)

// Migration - один SQL файл. Version - числовой префикс имени.
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// LoadMigrations читает миграции из каталога по возрастанию версии.
// Файлы не .sql пропускаются, .sql с неправильным именем или повтором
// версии - ошибка.
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось прочитать каталог миграций: %w", err)
	}

	seen := make(map[string]string)
	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		m := migrationName.FindStringSubmatch(entry.Name())
		if m == nil {
			return nil, fmt.Errorf("postgres: имя миграции %q не в формате NNN_name.sql", entry.Name())
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("postgres: версия %s у %s и %s", m[1], prev, entry.Name())
		}
		seen[m[1]] = entry.Name()

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("postgres: не удалось прочитать миграцию %s: %w", entry.Name(), err)
		}
		out = append(out, Migration{Version: m[1], Name: entry.Name(), SQL: string(raw)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Pending возвращает миграции, которых нет среди применённых.
func Pending(all []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Name] {
			out = append(out, m)
		}
	}
	return out
}

// RunMigrations применяет новые миграции и проверяет, что таблицы шлюза на месте.
func RunMigrations(ctx context.Context, conn *sqlx.DB, dir string) error {
	all, err := LoadMigrations(dir)
	if err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("postgres: не удалось создать %s: %w", migrationsTable, err)
	}

	var names []string
	if err := conn.SelectContext(ctx, &names, `SELECT name FROM `+migrationsTable); err != nil {
		return fmt.Errorf("postgres: не удалось прочитать применённые миграции: %w", err)
	}
	applied := make(map[string]bool, len(names))
	for _, n := range names {
		applied[n] = true
	}

	for _, m := range Pending(all, applied) {
		done, err := apply(ctx, conn, m)
		if err != nil {
			return err
		}
		if done {
			logger.L().WithField("migration", m.Name).Info("postgres: миграция применена")
		}
	}

	return requireTables(ctx, conn, RequiredTables)
}

// apply выполняет миграцию в транзакции под advisory lock. Если другой
// экземпляр успел применить её раньше, возвращает false.
func apply(ctx context.Context, conn *sqlx.DB, m Migration) (bool, error) {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("postgres: не удалось начать транзакцию для %s: %w", m.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
		return false, fmt.Errorf("postgres: не удалось взять блокировку миграций: %w", err)
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+migrationsTable+` WHERE name = $1)`, m.Name); err != nil {
		return false, fmt.Errorf("postgres: не удалось проверить миграцию %s: %w", m.Name, err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return false, fmt.Errorf("postgres: миграция %s не выполнена: %w", m.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+migrationsTable+` (name) VALUES ($1)`, m.Name); err != nil {
		return false, fmt.Errorf("postgres: не удалось отметить миграцию %s: %w", m.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("postgres: не удалось зафиксировать миграцию %s: %w", m.Name, err)
	}
	return true, nil
}

func requireTables(ctx context.Context, conn *sqlx.DB, tables []string) error {
	for _, table := range tables {
		var ok bool
		if err := conn.GetContext(ctx, &ok, `SELECT to_regclass($1) IS NOT NULL`, table); err != nil {
			return fmt.Errorf("postgres: не удалось проверить таблицу %s: %w", table, err)
		}
		if !ok {
			return fmt.Errorf("postgres: после миграций нет таблицы %s", table)
		}
	}
	return nil
}
