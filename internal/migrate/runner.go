// Package migrate 按版本顺序执行 db/migrations 下的 SQL 脚本
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// advisoryLockKey 多实例同时启动时串行化迁移
const advisoryLockKey int64 = 0x49515246 // "IQRF"

// Runner 迁移执行器：Dir 非空时读取磁盘目录，否则使用 FS（通常为内嵌脚本）
type Runner struct {
	Dir string
	FS  fs.FS
}

func (r Runner) source() (fs.FS, error) {
	if r.Dir != "" {
		return os.DirFS(r.Dir), nil
	}
	if r.FS != nil {
		return r.FS, nil
	}
	return nil, errors.New("migrate: no migrations source")
}

// EnsureTable 保证 schema_migrations 表存在
func EnsureTable(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version BIGINT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`)
	return err
}

// AppliedVersions 已应用版本，升序
func AppliedVersions(ctx context.Context, db *pgxpool.Pool) ([]int64, error) {
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

type migrationFile struct {
	Version int64
	Path    string
}

// discover 扫描 *_<direction>.sql，文件名前缀数字为版本
func discover(fsys fs.FS, direction string) ([]migrationFile, error) {
	suffix := "_" + direction + ".sql"
	var files []migrationFile
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := path.Base(p)
		if !strings.HasSuffix(name, suffix) {
			return nil
		}
		prefix, _, _ := strings.Cut(name, "_")
		ver, perr := strconv.ParseInt(prefix, 10, 64)
		if perr != nil {
			return nil
		}
		files = append(files, migrationFile{Version: ver, Path: p})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func (r Runner) discoverUpMigrations(fsys fs.FS) ([]migrationFile, error) {
	return discover(fsys, "up")
}

// withLock 在持有 advisory lock 的单个连接上执行 fn
func withLock(ctx context.Context, db *pgxpool.Pool, fn func(conn *pgxpool.Conn) error) error {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		return fmt.Errorf("migrate: lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, advisoryLockKey)
	}()
	return fn(conn)
}

func apply(ctx context.Context, conn *pgxpool.Conn, fsys fs.FS, m migrationFile, record string) error {
	content, err := fs.ReadFile(fsys, m.Path)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("migrate %s: %w", m.Path, err)
		}
		_, err := tx.Exec(ctx, record, m.Version)
		return err
	})
}

// Up 执行未应用的向上迁移，返回本次应用的版本
func (r Runner) Up(ctx context.Context, db *pgxpool.Pool) ([]int64, error) {
	fsys, err := r.source()
	if err != nil {
		return nil, err
	}
	ups, err := discover(fsys, "up")
	if err != nil {
		return nil, err
	}
	if err := EnsureTable(ctx, db); err != nil {
		return nil, err
	}

	var done []int64
	err = withLock(ctx, db, func(conn *pgxpool.Conn) error {
		// 持锁后再读，避免重复执行其他实例刚完成的版本
		versions, err := AppliedVersions(ctx, db)
		if err != nil {
			return err
		}
		applied := make(map[int64]bool, len(versions))
		for _, v := range versions {
			applied[v] = true
		}
		for _, m := range ups {
			if applied[m.Version] {
				continue
			}
			if err := apply(ctx, conn, fsys, m, `INSERT INTO schema_migrations(version) VALUES($1)`); err != nil {
				return err
			}
			done = append(done, m.Version)
		}
		return nil
	})
	return done, err
}

// Down 回滚最近 steps 个已应用版本，缺少对应 _down.sql 时报错
func (r Runner) Down(ctx context.Context, db *pgxpool.Pool, steps int) ([]int64, error) {
	fsys, err := r.source()
	if err != nil {
		return nil, err
	}
	downs, err := discover(fsys, "down")
	if err != nil {
		return nil, err
	}
	byVersion := make(map[int64]migrationFile, len(downs))
	for _, m := range downs {
		byVersion[m.Version] = m
	}
	if err := EnsureTable(ctx, db); err != nil {
		return nil, err
	}

	var done []int64
	err = withLock(ctx, db, func(conn *pgxpool.Conn) error {
		versions, err := AppliedVersions(ctx, db)
		if err != nil {
			return err
		}
		for i := len(versions) - 1; i >= 0 && len(done) < steps; i-- {
			m, ok := byVersion[versions[i]]
			if !ok {
				return fmt.Errorf("migrate: no down script for version %d", versions[i])
			}
			if err := apply(ctx, conn, fsys, m, `DELETE FROM schema_migrations WHERE version = $1`); err != nil {
				return err
			}
			done = append(done, m.Version)
		}
		return nil
	})
	return done, err
}
