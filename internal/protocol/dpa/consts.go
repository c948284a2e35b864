package dpa

// 数值范围
const (
	ByteMin  = 0
	ByteMax  = 0xFF
	WordMin  = 0
	WordMax  = 0xFFFF
	DWordMin = 0
	DWordMax = 0xFFFFFFFF
)

// 帧长度限制
const (
	RequestHeaderLen    = 6  // nadr(2) + pnum(1) + pcmd(1) + hwpid(2)
	ResponseHeaderLen   = 8  // nadr(2) + pnum(1) + pcmd(1) + hwpid(2) + rcode(1) + dpaval(1)
	RequestPDataMaxLen  = 58 // 协议规定的请求载荷上限
	ResponsePDataMaxLen = 56
	ConfirmationLen     = 11 // 响应头 + hops(1) + timeslot(1) + hopsResponse(1)
)

// 响应帧固定偏移
const (
	OffsetNADRLo   = 0
	OffsetNADRHi   = 1
	OffsetPNUM     = 2
	OffsetPCMD     = 3
	OffsetHWPIDLo  = 4
	OffsetHWPIDHi  = 5
	OffsetRCode    = 6
	OffsetDPAValue = 7
	OffsetPData    = 8
)

// 保留地址
const (
	CoordinatorNADR = 0x00
	NodeAddrMin     = 0x01
	NodeAddrMax     = 0xEF // 239 个节点
	LocalNADR       = 0xFC // 本地 SPI/UART 接口
	TemporaryNADR   = 0xFE
	BroadcastNADR   = 0xFF
)

// HWPIDDoNotCheck 不校验 HWPID
const HWPIDDoNotCheck = 0xFFFF

// 请求/响应命令位
const (
	RequestPCMDMin  = 0x00
	RequestPCMDMax  = 0x7F
	ResponsePCMDMin = 0x80
	ResponsePCMDMax = 0xFF
	ResponseFlag    = 0x80
)

// 各外设载荷约束
const (
	NetworkDataLen       = 49 // Backup/Restore 单块数据
	BitmapLen            = 32 // 节点位图
	FrcSelectedNodesLen  = 30
	FrcUserDataMaxLen    = 30
	FrcSelUserDataMaxLen = 25
	FrcDataLen           = 55
	FrcExtraResultLen    = 9
	IBKLen               = 16
	TrConfigurationLen   = 31
	AuthorizeBondMaxNode = 11
	WriteCfgByteMaxItems = 18
	IOTripletMaxItems    = 19
	MemoryReadMaxLen     = 55
	EEPROMAddrMax        = 0xBF
	EEEPROMAddrMax       = 0x3FFF
	EEEPROMReadMaxLen    = 54
	UartBaudRateMax      = 8
	DiscoveryTxPowerMax  = 7
	SmartConnectReserved = 10
)
