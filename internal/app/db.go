package app

import (
	"context"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/iqrf-gateway/internal/config"
	"github.com/taoyao-code/iqrf-gateway/internal/migrate"
	pgstorage "github.com/taoyao-code/iqrf-gateway/internal/storage/pg"

	"github.com/taoyao-code/iqrf-gateway/db"
)

// ConnectDBAndMigrate 建立数据库连接并按需执行迁移。
// 配置的迁移目录存在时读磁盘，否则使用内嵌脚本。
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	dbpool, err := pgstorage.NewPool(ctx, cfg, log)
	if err != nil {
		if log != nil {
			log.Error("db connect error", zap.Error(err))
		}
		return nil, err
	}
	if !cfg.AutoMigrate {
		return dbpool, nil
	}

	runner, err := migrationRunner(cfg.MigrationsDir)
	if err != nil {
		return dbpool, err
	}
	applied, err := runner.Up(ctx, dbpool)
	if err != nil {
		if log != nil {
			log.Error("db migrate error", zap.Error(err))
		}
		return dbpool, err
	}
	if log != nil {
		log.Info("db migrations applied", zap.Int64s("versions", applied), zap.Bool("embedded", runner.Dir == ""))
	}
	return dbpool, nil
}

func migrationRunner(dir string) (migrate.Runner, error) {
	if dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return migrate.Runner{Dir: dir}, nil
		}
	}
	sub, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return migrate.Runner{}, err
	}
	return migrate.Runner{FS: sub}, nil
}
