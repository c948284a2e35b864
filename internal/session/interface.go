package session

import "time"

// Link 一条协调器桥接链路，写入的是已完成 HDLC 封帧的字节
type Link interface {
	ID() uint64
	Write(b []byte) error
}

// LinkManager 桥接链路管理接口
type LinkManager interface {
	// Bind 绑定新链路并设为活动链路，重复绑定同一 ID 将覆盖
	Bind(l Link, t time.Time)

	// Unbind 解除绑定；若为活动链路则回退到最近一次收到数据的链路
	Unbind(id uint64)

	// Touch 记录链路最近收到数据的时间
	Touch(id uint64, t time.Time)

	// Active 返回当前用于下行的链路
	Active() (Link, bool)

	// IsOnline 活动链路在超时窗口内收到过数据或刚完成绑定
	IsOnline(now time.Time) bool

	// Count 当前绑定的链路数
	Count() int
}
