package dpa

// ===== OS 外设 =====

func NewOSReadRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(OSRead, nadr, NoParams{}, opts)
}

// OSReadResult 模块与操作系统信息
type OSReadResult struct {
	MID           uint32 `json:"mid"`
	OSVersion     int    `json:"osVersion"`
	TrMcuType     int    `json:"trMcuType"`
	OSBuild       int    `json:"osBuild"`
	RSSI          int    `json:"rssi"`
	SupplyVoltage int    `json:"supplyVoltage"`
	Flags         int    `json:"flags"`
	SlotLimits    int    `json:"slotLimits"`
	// IBK 较新的 DPA 版本才返回
	IBK Bytes `json:"ibk,omitempty"`
}

const osReadMinLen = 12

func (r OSReadResult) appendPData(b []byte) []byte {
	b = appendLE32(b, int64(r.MID))
	b = append(b, byte(r.OSVersion), byte(r.TrMcuType))
	b = appendLE16(b, r.OSBuild)
	b = append(b, byte(r.RSSI), byte(r.SupplyVoltage), byte(r.Flags), byte(r.SlotLimits))
	return append(b, r.IBK...)
}

func (r OSReadResult) validate() error {
	var v validator
	v.u8("osVersion", r.OSVersion)
	v.u8("trMcuType", r.TrMcuType)
	v.u16("osBuild", r.OSBuild)
	v.u8("rssi", r.RSSI)
	v.u8("supplyVoltage", r.SupplyVoltage)
	v.u8("flags", r.Flags)
	v.u8("slotLimits", r.SlotLimits)
	if len(r.IBK) > 0 {
		v.length("ibk", len(r.IBK), IBKLen, IBKLen)
	}
	return v.err
}

var OSReadResponse = responseCodec(OSRead, osReadMinLen, func(p []byte) (OSReadResult, error) {
	r := OSReadResult{
		MID:           le32(p[0:4]),
		OSVersion:     int(p[4]),
		TrMcuType:     int(p[5]),
		OSBuild:       int(le16(p[6:8])),
		RSSI:          int(p[8]),
		SupplyVoltage: int(p[9]),
		Flags:         int(p[10]),
		SlotLimits:    int(p[11]),
	}
	if len(p) >= osReadMinLen+IBKLen {
		r.IBK = Bytes(p[osReadMinLen : osReadMinLen+IBKLen]).Clone()
	}
	return r, nil
})

func NewOSResetRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(OSReset, nadr, NoParams{}, opts)
}

var OSResetResponse = responseCodec[NoResult](OSReset, 0, nil)

func NewOSRestartRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(OSRestart, nadr, NoParams{}, opts)
}

var OSRestartResponse = responseCodec[NoResult](OSRestart, 0, nil)

func NewOSRfpgmRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(OSRfpgm, nadr, NoParams{}, opts)
}

var OSRfpgmResponse = responseCodec[NoResult](OSRfpgm, 0, nil)

func NewOSFactorySettingsRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(OSFactorySettings, nadr, NoParams{}, opts)
}

var OSFactorySettingsResponse = responseCodec[NoResult](OSFactorySettings, 0, nil)

func NewOSReadCfgRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(OSReadCfg, nadr, NoParams{}, opts)
}

// ReadCfgResult HWP 配置块
type ReadCfgResult struct {
	Checksum      int   `json:"checksum"`
	Configuration Bytes `json:"configuration"`
	RFPGM         int   `json:"rfpgm"`
	// Undocumented 部分 OS 版本在末尾多返回一个字节
	Undocumented Bytes `json:"undocumented,omitempty"`
}

func (r ReadCfgResult) appendPData(b []byte) []byte {
	b = append(b, byte(r.Checksum))
	b = append(b, r.Configuration...)
	b = append(b, byte(r.RFPGM))
	return append(b, r.Undocumented...)
}

func (r ReadCfgResult) validate() error {
	var v validator
	v.u8("checksum", r.Checksum)
	v.length("configuration", len(r.Configuration), TrConfigurationLen, TrConfigurationLen)
	v.u8("rfpgm", r.RFPGM)
	return v.err
}

// TrConfiguration 解析配置块
func (r ReadCfgResult) TrConfiguration() (TrConfiguration, error) {
	return ParseTrConfiguration(r.Configuration)
}

// ChecksumValid 校验和与配置块一致
func (r ReadCfgResult) ChecksumValid() bool {
	return len(r.Configuration) == TrConfigurationLen && int(ConfigChecksum(r.Configuration)) == r.Checksum
}

var OSReadCfgResponse = responseCodec(OSReadCfg, TrConfigurationLen+2, func(p []byte) (ReadCfgResult, error) {
	r := ReadCfgResult{
		Checksum:      int(p[0]),
		Configuration: Bytes(p[1 : 1+TrConfigurationLen]).Clone(),
		RFPGM:         int(p[1+TrConfigurationLen]),
	}
	if len(p) > TrConfigurationLen+2 {
		r.Undocumented = Bytes(p[TrConfigurationLen+2:]).Clone()
	}
	return r, nil
})

// WriteCfgParams 写入整块配置，校验和自动计算
type WriteCfgParams struct {
	Configuration TrConfiguration `json:"configuration"`
	RFPGM         int             `json:"rfpgm"`
}

func (p WriteCfgParams) encode() ([]byte, error) {
	cfg, err := p.Configuration.Bytes()
	if err != nil {
		return nil, err
	}
	if err := ValidateFieldRange("rfpgm", int64(p.RFPGM), ByteMin, ByteMax); err != nil {
		return nil, err
	}
	pdata := make([]byte, 0, TrConfigurationLen+2)
	pdata = append(pdata, ConfigChecksum(cfg))
	pdata = append(pdata, cfg...)
	return append(pdata, byte(p.RFPGM)), nil
}

func (p WriteCfgParams) clone() WriteCfgParams {
	p.Configuration = p.Configuration.clone()
	return p
}

func (p WriteCfgParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[WriteCfgParams], error) {
	return newTypedRequest(OSWriteCfg, nadr, p, opts)
}

var OSWriteCfgResponse = responseCodec[NoResult](OSWriteCfg, 0, nil)

// CfgByte 单字节配置写入项，只修改 Mask 中为 1 的位
type CfgByte struct {
	Address int `json:"address"`
	Value   int `json:"value"`
	Mask    int `json:"mask"`
}

type WriteCfgByteParams struct {
	Items []CfgByte `json:"bytes"`
}

func (p WriteCfgByteParams) encode() ([]byte, error) {
	var v validator
	v.length("bytes", len(p.Items), 1, WriteCfgByteMaxItems)
	for _, c := range p.Items {
		v.u8("address", c.Address)
		v.u8("value", c.Value)
		v.u8("mask", c.Mask)
	}
	if v.err != nil {
		return nil, v.err
	}
	pdata := make([]byte, 0, len(p.Items)*3)
	for _, c := range p.Items {
		pdata = append(pdata, byte(c.Address), byte(c.Value), byte(c.Mask))
	}
	return pdata, nil
}

func (p WriteCfgByteParams) clone() WriteCfgByteParams {
	return WriteCfgByteParams{Items: append([]CfgByte(nil), p.Items...)}
}

func (p WriteCfgByteParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[WriteCfgByteParams], error) {
	return newTypedRequest(OSWriteCfgByte, nadr, p, opts)
}

var OSWriteCfgByteResponse = responseCodec[NoResult](OSWriteCfgByte, 0, nil)

// SleepParams Time 单位 2.097s，Control 为 sleep 控制位
type SleepParams struct {
	Time    int `json:"time"`
	Control int `json:"control"`
}

func (p SleepParams) encode() ([]byte, error) {
	var v validator
	v.u16("time", p.Time)
	v.u8("control", p.Control)
	if v.err != nil {
		return nil, v.err
	}
	return append(appendLE16(nil, p.Time), byte(p.Control)), nil
}

func (p SleepParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[SleepParams], error) {
	return newTypedRequest(OSSleep, nadr, p, opts)
}

var OSSleepResponse = responseCodec[NoResult](OSSleep, 0, nil)

// IndicateParams 0 关闭，1 打开，2 闪烁 2 秒，3 闪烁 10 秒
type IndicateParams struct {
	Control int `json:"control"`
}

func (p IndicateParams) encode() ([]byte, error) {
	if err := ValidateFieldRange("control", int64(p.Control), 0, 3); err != nil {
		return nil, err
	}
	return []byte{byte(p.Control)}, nil
}

func (p IndicateParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[IndicateParams], error) {
	return newTypedRequest(OSIndicate, nadr, p, opts)
}

var OSIndicateResponse = responseCodec[NoResult](OSIndicate, 0, nil)

// SetSecurityParams Type 0 为访问密码，1 为用户密钥
type SetSecurityParams struct {
	Type int   `json:"type"`
	Data Bytes `json:"data"`
}

func (p SetSecurityParams) encode() ([]byte, error) {
	var v validator
	v.rng("type", p.Type, 0, 1)
	v.length("data", len(p.Data), IBKLen, IBKLen)
	if v.err != nil {
		return nil, v.err
	}
	return append([]byte{byte(p.Type)}, p.Data...), nil
}

func (p SetSecurityParams) clone() SetSecurityParams {
	p.Data = p.Data.Clone()
	return p
}

func (p SetSecurityParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[SetSecurityParams], error) {
	return newTypedRequest(OSSetSecurity, nadr, p, opts)
}

var OSSetSecurityResponse = responseCodec[NoResult](OSSetSecurity, 0, nil)

// TestRfSignalParams 信道测试，Time 单位 10ms
type TestRfSignalParams struct {
	Channel  int `json:"channel"`
	RxParams int `json:"rxParams"`
	Time     int `json:"time"`
}

func (p TestRfSignalParams) encode() ([]byte, error) {
	var v validator
	v.u16("channel", p.Channel)
	v.u8("rxParams", p.RxParams)
	v.u16("time", p.Time)
	if v.err != nil {
		return nil, v.err
	}
	pdata := appendLE16(make([]byte, 0, 5), p.Channel)
	pdata = append(pdata, byte(p.RxParams))
	return appendLE16(pdata, p.Time), nil
}

func (p TestRfSignalParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[TestRfSignalParams], error) {
	return newTypedRequest(OSTestRfSignal, nadr, p, opts)
}

// TestRfSignalResult 收到的包数
type TestRfSignalResult struct {
	Counter int `json:"counter"`
}

func (r TestRfSignalResult) appendPData(b []byte) []byte { return append(b, byte(r.Counter)) }

func (r TestRfSignalResult) validate() error {
	var v validator
	v.u8("counter", r.Counter)
	return v.err
}

var OSTestRfSignalResponse = responseCodec(OSTestRfSignal, 1, func(p []byte) (TestRfSignalResult, error) {
	return TestRfSignalResult{Counter: int(p[0])}, nil
})
