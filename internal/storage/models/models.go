package models

import (
	"time"
)

// 注意：
// - 保持与 db/migrations 下的建表语句对齐
// - 不使用 gorm.Model，显式声明每个字段，避免隐式 DeletedAt

// Node 映射 nodes 表：IQMESH 网络中的一个地址（0 为协调器）
type Node struct {
	// 网络地址，主键
	Addr int32 `gorm:"column:addr;primaryKey"`
	// 模块 ID，来自 OS Read
	MID *int64 `gorm:"column:mid"`
	// 最近一次响应携带的 HWPID
	HWPID *int32 `gorm:"column:hwpid"`
	// OS 信息，可空
	OSVersion *int32 `gorm:"column:os_version"`
	OSBuild   *int32 `gorm:"column:os_build"`
	TrMcuType *int32 `gorm:"column:tr_mcu_type"`
	RSSI      *int32 `gorm:"column:rssi"`
	// 协调器绑定/发现位图中的状态
	Bonded     bool `gorm:"column:bonded;not null;default:false"`
	Discovered bool `gorm:"column:discovered;not null;default:false"`
	// 最近一次响应码
	LastRCode  *int32     `gorm:"column:last_rcode"`
	LastSeenAt *time.Time `gorm:"column:last_seen_at"`
	// 审计字段
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Node) TableName() string { return "nodes" }

// OSInfo OS Read 结果中入库的部分
type OSInfo struct {
	MID       uint32
	OSVersion int
	OSBuild   int
	TrMcuType int
	RSSI      int
}

// Exchange 映射 dpa_exchanges 表：一次收发的帧日志
type Exchange struct {
	ID        int64
	MsgID     string
	Direction string // tx | rx | async | confirm
	MType     string
	NADR      int
	PNUM      int
	PCMD      int
	HWPID     int
	RCode     *int
	Frame     []byte
	CreatedAt time.Time
}

// 交换方向
const (
	DirectionTx      = "tx"
	DirectionRx      = "rx"
	DirectionAsync   = "async"
	DirectionConfirm = "confirm"
)
