package dpa

// ===== Coordinator 外设（NADR 固定为 0）=====

// NewCoordinatorAddrInfoRequest 读取网络地址信息
func NewCoordinatorAddrInfoRequest(opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(CoordinatorAddrInfo, CoordinatorNADR, NoParams{}, opts)
}

// AddrInfoResult 已绑定节点数与 DID
type AddrInfoResult struct {
	DevNr int `json:"devNr"`
	DID   int `json:"did"`
}

func (r AddrInfoResult) appendPData(b []byte) []byte {
	return append(b, byte(r.DevNr), byte(r.DID))
}

func (r AddrInfoResult) validate() error {
	var v validator
	v.u8("devNr", r.DevNr)
	v.u8("did", r.DID)
	return v.err
}

var CoordinatorAddrInfoResponse = responseCodec(CoordinatorAddrInfo, 2, func(p []byte) (AddrInfoResult, error) {
	return AddrInfoResult{DevNr: int(p[0]), DID: int(p[1])}, nil
})

func NewCoordinatorDiscoveredDevicesRequest(opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(CoordinatorDiscoveredDevices, CoordinatorNADR, NoParams{}, opts)
}

// DiscoveredDevicesResult 已发现节点地址列表
type DiscoveredDevicesResult struct {
	DiscoveredDevices []int `json:"discoveredDevices"`
}

func (r DiscoveredDevicesResult) appendPData(b []byte) []byte {
	return append(b, NodesToBitmap(r.DiscoveredDevices, BitmapLen)...)
}

func (r DiscoveredDevicesResult) validate() error {
	var v validator
	v.members("discoveredDevices", r.DiscoveredDevices, 0, BitmapLen*8-1)
	return v.err
}

var CoordinatorDiscoveredDevicesResponse = responseCodec(CoordinatorDiscoveredDevices, BitmapLen, func(p []byte) (DiscoveredDevicesResult, error) {
	return DiscoveredDevicesResult{DiscoveredDevices: BitmapToNodes(p[:BitmapLen], false)}, nil
})

func NewCoordinatorBondedDevicesRequest(opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(CoordinatorBondedDevices, CoordinatorNADR, NoParams{}, opts)
}

// BondedDevicesResult 已绑定节点地址列表
type BondedDevicesResult struct {
	BondedDevices []int `json:"bondedDevices"`
}

func (r BondedDevicesResult) appendPData(b []byte) []byte {
	return append(b, NodesToBitmap(r.BondedDevices, BitmapLen)...)
}

func (r BondedDevicesResult) validate() error {
	var v validator
	v.members("bondedDevices", r.BondedDevices, 0, BitmapLen*8-1)
	return v.err
}

var CoordinatorBondedDevicesResponse = responseCodec(CoordinatorBondedDevices, BitmapLen, func(p []byte) (BondedDevicesResult, error) {
	return BondedDevicesResult{BondedDevices: BitmapToNodes(p[:BitmapLen], false)}, nil
})

func NewCoordinatorClearAllBondsRequest(opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(CoordinatorClearAllBonds, CoordinatorNADR, NoParams{}, opts)
}

var CoordinatorClearAllBondsResponse = responseCodec[NoResult](CoordinatorClearAllBonds, 0, nil)

// BondNodeParams 绑定节点，ReqAddr 为 0 时由协调器分配
type BondNodeParams struct {
	ReqAddr     int `json:"reqAddr"`
	BondingMask int `json:"bondingMask"`
}

func (p BondNodeParams) encode() ([]byte, error) {
	var v validator
	v.rng("reqAddr", p.ReqAddr, CoordinatorNADR, NodeAddrMax)
	v.u8("bondingMask", p.BondingMask)
	if v.err != nil {
		return nil, v.err
	}
	return []byte{byte(p.ReqAddr), byte(p.BondingMask)}, nil
}

func (p BondNodeParams) Build(opts ...RequestOption) (*TypedRequest[BondNodeParams], error) {
	return newTypedRequest(CoordinatorBondNode, CoordinatorNADR, p, opts)
}

// BondResult 绑定后分配的地址与节点总数
type BondResult struct {
	BondAddr int `json:"bondAddr"`
	DevNr    int `json:"devNr"`
}

func (r BondResult) appendPData(b []byte) []byte {
	return append(b, byte(r.BondAddr), byte(r.DevNr))
}

func (r BondResult) validate() error {
	var v validator
	v.u8("bondAddr", r.BondAddr)
	v.u8("devNr", r.DevNr)
	return v.err
}

func decodeBondResult(p []byte) (BondResult, error) {
	return BondResult{BondAddr: int(p[0]), DevNr: int(p[1])}, nil
}

var CoordinatorBondNodeResponse = responseCodec(CoordinatorBondNode, 2, decodeBondResult)

// RemoveBondParams 解除绑定
type RemoveBondParams struct {
	BondAddr int `json:"bondAddr"`
}

func (p RemoveBondParams) encode() ([]byte, error) {
	if err := ValidateFieldRange("bondAddr", int64(p.BondAddr), CoordinatorNADR, NodeAddrMax); err != nil {
		return nil, err
	}
	return []byte{byte(p.BondAddr)}, nil
}

func (p RemoveBondParams) Build(opts ...RequestOption) (*TypedRequest[RemoveBondParams], error) {
	return newTypedRequest(CoordinatorRemoveBond, CoordinatorNADR, p, opts)
}

// DevNrResult 操作后的节点总数
type DevNrResult struct {
	DevNr int `json:"devNr"`
}

func (r DevNrResult) appendPData(b []byte) []byte { return append(b, byte(r.DevNr)) }

func (r DevNrResult) validate() error {
	var v validator
	v.u8("devNr", r.DevNr)
	return v.err
}

var CoordinatorRemoveBondResponse = responseCodec(CoordinatorRemoveBond, 1, func(p []byte) (DevNrResult, error) {
	return DevNrResult{DevNr: int(p[0])}, nil
})

// DiscoveryParams 发起网络发现
type DiscoveryParams struct {
	TxPower int `json:"txPower"`
	MaxAddr int `json:"maxAddr"`
}

func (p DiscoveryParams) encode() ([]byte, error) {
	var v validator
	v.rng("txPower", p.TxPower, 0, DiscoveryTxPowerMax)
	v.rng("maxAddr", p.MaxAddr, CoordinatorNADR, NodeAddrMax)
	if v.err != nil {
		return nil, v.err
	}
	return []byte{byte(p.TxPower), byte(p.MaxAddr)}, nil
}

func (p DiscoveryParams) Build(opts ...RequestOption) (*TypedRequest[DiscoveryParams], error) {
	return newTypedRequest(CoordinatorDiscovery, CoordinatorNADR, p, opts)
}

// DiscoveryResult 发现的节点数
type DiscoveryResult struct {
	DiscNr int `json:"discNr"`
}

func (r DiscoveryResult) appendPData(b []byte) []byte { return append(b, byte(r.DiscNr)) }

func (r DiscoveryResult) validate() error {
	var v validator
	v.u8("discNr", r.DiscNr)
	return v.err
}

var CoordinatorDiscoveryResponse = responseCodec(CoordinatorDiscovery, 1, func(p []byte) (DiscoveryResult, error) {
	return DiscoveryResult{DiscNr: int(p[0])}, nil
})

// SetDpaParamsParams 设置 DPA 参数字节
type SetDpaParamsParams struct {
	DpaParam int `json:"dpaParam"`
}

func (p SetDpaParamsParams) encode() ([]byte, error) {
	if err := ValidateFieldRange("dpaParam", int64(p.DpaParam), ByteMin, ByteMax); err != nil {
		return nil, err
	}
	return []byte{byte(p.DpaParam)}, nil
}

func (p SetDpaParamsParams) Build(opts ...RequestOption) (*TypedRequest[SetDpaParamsParams], error) {
	return newTypedRequest(CoordinatorSetDpaParams, CoordinatorNADR, p, opts)
}

// SetDpaParamsResult 被替换前的参数值
type SetDpaParamsResult struct {
	DpaParam int `json:"prevDpaParam"`
}

func (r SetDpaParamsResult) appendPData(b []byte) []byte { return append(b, byte(r.DpaParam)) }

func (r SetDpaParamsResult) validate() error {
	var v validator
	v.u8("prevDpaParam", r.DpaParam)
	return v.err
}

var CoordinatorSetDpaParamsResponse = responseCodec(CoordinatorSetDpaParams, 1, func(p []byte) (SetDpaParamsResult, error) {
	return SetDpaParamsResult{DpaParam: int(p[0])}, nil
})

// SetHopsParams 设置请求/响应跳数
type SetHopsParams struct {
	RequestHops  int `json:"requestHops"`
	ResponseHops int `json:"responseHops"`
}

func (p SetHopsParams) encode() ([]byte, error) {
	var v validator
	v.u8("requestHops", p.RequestHops)
	v.u8("responseHops", p.ResponseHops)
	if v.err != nil {
		return nil, v.err
	}
	return []byte{byte(p.RequestHops), byte(p.ResponseHops)}, nil
}

func (p SetHopsParams) Build(opts ...RequestOption) (*TypedRequest[SetHopsParams], error) {
	return newTypedRequest(CoordinatorSetHops, CoordinatorNADR, p, opts)
}

// SetHopsResult 被替换前的跳数
type SetHopsResult struct {
	RequestHops  int `json:"prevRequestHops"`
	ResponseHops int `json:"prevResponseHops"`
}

func (r SetHopsResult) appendPData(b []byte) []byte {
	return append(b, byte(r.RequestHops), byte(r.ResponseHops))
}

func (r SetHopsResult) validate() error {
	var v validator
	v.u8("prevRequestHops", r.RequestHops)
	v.u8("prevResponseHops", r.ResponseHops)
	return v.err
}

var CoordinatorSetHopsResponse = responseCodec(CoordinatorSetHops, 2, func(p []byte) (SetHopsResult, error) {
	return SetHopsResult{RequestHops: int(p[0]), ResponseHops: int(p[1])}, nil
})

// BackupParams 读取第 Index 块网络备份数据
type BackupParams struct {
	Index int `json:"index"`
}

func (p BackupParams) encode() ([]byte, error) {
	if err := ValidateFieldRange("index", int64(p.Index), ByteMin, ByteMax); err != nil {
		return nil, err
	}
	return []byte{byte(p.Index)}, nil
}

func (p BackupParams) Build(opts ...RequestOption) (*TypedRequest[BackupParams], error) {
	return newTypedRequest(CoordinatorBackup, CoordinatorNADR, p, opts)
}

// BackupResult 一块 49 字节网络数据
type BackupResult struct {
	NetworkData Bytes `json:"networkData"`
}

func (r BackupResult) appendPData(b []byte) []byte { return append(b, r.NetworkData...) }

func (r BackupResult) validate() error {
	var v validator
	v.length("networkData", len(r.NetworkData), NetworkDataLen, NetworkDataLen)
	return v.err
}

func decodeBackupResult(p []byte) (BackupResult, error) {
	return BackupResult{NetworkData: Bytes(p[:NetworkDataLen]).Clone()}, nil
}

var CoordinatorBackupResponse = responseCodec(CoordinatorBackup, NetworkDataLen, decodeBackupResult)

// RestoreParams 写回一块网络备份数据
type RestoreParams struct {
	NetworkData Bytes `json:"networkData"`
}

func (p RestoreParams) encode() ([]byte, error) {
	var v validator
	v.length("networkData", len(p.NetworkData), NetworkDataLen, NetworkDataLen)
	if v.err != nil {
		return nil, v.err
	}
	return p.NetworkData.Clone(), nil
}

func (p RestoreParams) clone() RestoreParams {
	return RestoreParams{NetworkData: p.NetworkData.Clone()}
}

func (p RestoreParams) Build(opts ...RequestOption) (*TypedRequest[RestoreParams], error) {
	return newTypedRequest(CoordinatorRestore, CoordinatorNADR, p, opts)
}

var CoordinatorRestoreResponse = responseCodec[NoResult](CoordinatorRestore, 0, nil)

// AuthorizeBondNode 待授权节点
type AuthorizeBondNode struct {
	ReqAddr int   `json:"reqAddr"`
	MID     int64 `json:"mid"`
}

// AuthorizeBondParams 按 MID 授权绑定，最多 11 个节点
type AuthorizeBondParams struct {
	Nodes []AuthorizeBondNode `json:"nodes"`
}

func (p AuthorizeBondParams) encode() ([]byte, error) {
	var v validator
	v.length("nodes", len(p.Nodes), 1, AuthorizeBondMaxNode)
	for _, n := range p.Nodes {
		v.rng("reqAddr", n.ReqAddr, CoordinatorNADR, NodeAddrMax)
		v.u32("mid", n.MID)
	}
	if v.err != nil {
		return nil, v.err
	}
	pdata := make([]byte, 0, len(p.Nodes)*5)
	for _, n := range p.Nodes {
		pdata = appendLE32(append(pdata, byte(n.ReqAddr)), n.MID)
	}
	return pdata, nil
}

func (p AuthorizeBondParams) clone() AuthorizeBondParams {
	return AuthorizeBondParams{Nodes: append([]AuthorizeBondNode(nil), p.Nodes...)}
}

func (p AuthorizeBondParams) Build(opts ...RequestOption) (*TypedRequest[AuthorizeBondParams], error) {
	return newTypedRequest(CoordinatorAuthorizeBond, CoordinatorNADR, p, opts)
}

var CoordinatorAuthorizeBondResponse = responseCodec(CoordinatorAuthorizeBond, 2, decodeBondResult)

// SmartConnectParams 通过 IQRF Code 绑定
type SmartConnectParams struct {
	ReqAddr            int   `json:"reqAddr"`
	BondingTestRetries int   `json:"bondingTestRetries"`
	IBK                Bytes `json:"ibk"`
	MID                int64 `json:"mid"`
	// VirtualDeviceAddress 非虚拟设备为 0xFF
	VirtualDeviceAddress int   `json:"virtualDeviceAddress"`
	UserData             Bytes `json:"userData"`
}

const smartConnectUserDataLen = 4

func (p SmartConnectParams) encode() ([]byte, error) {
	var v validator
	v.rng("reqAddr", p.ReqAddr, CoordinatorNADR, NodeAddrMax)
	v.u8("bondingTestRetries", p.BondingTestRetries)
	v.length("ibk", len(p.IBK), IBKLen, IBKLen)
	v.u32("mid", p.MID)
	v.u8("virtualDeviceAddress", p.VirtualDeviceAddress)
	v.length("userData", len(p.UserData), smartConnectUserDataLen, smartConnectUserDataLen)
	if v.err != nil {
		return nil, v.err
	}
	pdata := make([]byte, 0, 38)
	pdata = append(pdata, byte(p.ReqAddr), byte(p.BondingTestRetries))
	pdata = append(pdata, p.IBK...)
	pdata = appendLE32(pdata, p.MID)
	pdata = append(pdata, 0, byte(p.VirtualDeviceAddress))
	pdata = append(pdata, p.UserData...)
	return append(pdata, make([]byte, SmartConnectReserved)...), nil
}

func (p SmartConnectParams) clone() SmartConnectParams {
	p.IBK = p.IBK.Clone()
	p.UserData = p.UserData.Clone()
	return p
}

func (p SmartConnectParams) Build(opts ...RequestOption) (*TypedRequest[SmartConnectParams], error) {
	return newTypedRequest(CoordinatorSmartConnect, CoordinatorNADR, p, opts)
}

var CoordinatorSmartConnectResponse = responseCodec(CoordinatorSmartConnect, 2, decodeBondResult)

// SetMIDParams 将 MID 写入协调器的绑定表
type SetMIDParams struct {
	BondAddr int   `json:"bondAddr"`
	MID      int64 `json:"mid"`
}

func (p SetMIDParams) encode() ([]byte, error) {
	var v validator
	v.u32("mid", p.MID)
	v.rng("bondAddr", p.BondAddr, CoordinatorNADR, NodeAddrMax)
	if v.err != nil {
		return nil, v.err
	}
	return append(appendLE32(make([]byte, 0, 5), p.MID), byte(p.BondAddr)), nil
}

func (p SetMIDParams) Build(opts ...RequestOption) (*TypedRequest[SetMIDParams], error) {
	return newTypedRequest(CoordinatorSetMID, CoordinatorNADR, p, opts)
}

var CoordinatorSetMIDResponse = responseCodec[NoResult](CoordinatorSetMID, 0, nil)
