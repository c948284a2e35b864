// Package db 内嵌数据库迁移脚本
package db

import "embed"

// Migrations 版本化迁移脚本，文件名形如 0001_init_up.sql
//
//go:embed migrations/*.sql
var Migrations embed.FS
