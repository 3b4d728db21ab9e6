package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS digest_runs (
	id            TEXT PRIMARY KEY,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	model         TEXT NOT NULL DEFAULT '',
	newsletter    INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL,
	summary       TEXT NOT NULL DEFAULT '',
	output_path   TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	UNIQUE (start_date, end_date, model)
);
CREATE INDEX IF NOT EXISTS idx_digest_runs_status ON digest_runs (status);
`

// Open 打开 sqlite 数据库并创建表结构，必要时创建所在目录
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("创建数据库Schema失败: %w", err)
	}
	return db, nil
}
