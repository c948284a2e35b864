package dpa

// ===== LEDR / LEDG =====

// NewLEDRequest 构建 LED 命令，t 必须是 LEDR/LEDG 消息类型
func NewLEDRequest(t MessageType, nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	if t.PNUM != PeripheralLEDR && t.PNUM != PeripheralLEDG {
		return nil, &ValidationError{Field: "pnum", Value: int64(t.PNUM), Reason: "not a LED peripheral"}
	}
	return newTypedRequest(t, nadr, NoParams{}, opts)
}

var (
	LEDRSetOffResponse   = responseCodec[NoResult](LEDRSetOff, 0, nil)
	LEDRSetOnResponse    = responseCodec[NoResult](LEDRSetOn, 0, nil)
	LEDRPulseResponse    = responseCodec[NoResult](LEDRPulse, 0, nil)
	LEDRFlashingResponse = responseCodec[NoResult](LEDRFlashing, 0, nil)
	LEDGSetOffResponse   = responseCodec[NoResult](LEDGSetOff, 0, nil)
	LEDGSetOnResponse    = responseCodec[NoResult](LEDGSetOn, 0, nil)
	LEDGPulseResponse    = responseCodec[NoResult](LEDGPulse, 0, nil)
	LEDGFlashingResponse = responseCodec[NoResult](LEDGFlashing, 0, nil)
)

// ===== IO =====

// IODelayPort 三元组中表示延时的端口号，Mask/Value 组成小端毫秒数
const IODelayPort = 0xFF

// IOTriplet 端口操作
type IOTriplet struct {
	Port  int `json:"port"`
	Mask  int `json:"mask"`
	Value int `json:"value"`
}

// IOTripletsParams Direction/Set 共用
type IOTripletsParams struct {
	Ports []IOTriplet `json:"ports"`
}

func (p IOTripletsParams) encode() ([]byte, error) {
	var v validator
	v.length("ports", len(p.Ports), 1, IOTripletMaxItems)
	for _, t := range p.Ports {
		v.u8("port", t.Port)
		v.u8("mask", t.Mask)
		v.u8("value", t.Value)
	}
	if v.err != nil {
		return nil, v.err
	}
	pdata := make([]byte, 0, len(p.Ports)*3)
	for _, t := range p.Ports {
		pdata = append(pdata, byte(t.Port), byte(t.Mask), byte(t.Value))
	}
	return pdata, nil
}

func (p IOTripletsParams) clone() IOTripletsParams {
	return IOTripletsParams{Ports: append([]IOTriplet(nil), p.Ports...)}
}

// BuildDirection 设置端口方向
func (p IOTripletsParams) BuildDirection(nadr int, opts ...RequestOption) (*TypedRequest[IOTripletsParams], error) {
	return newTypedRequest(IODirection, nadr, p, opts)
}

// BuildSet 设置端口输出
func (p IOTripletsParams) BuildSet(nadr int, opts ...RequestOption) (*TypedRequest[IOTripletsParams], error) {
	return newTypedRequest(IOSet, nadr, p, opts)
}

var (
	IODirectionResponse = responseCodec[NoResult](IODirection, 0, nil)
	IOSetResponse       = responseCodec[NoResult](IOSet, 0, nil)
)

func NewIOGetRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(IOGet, nadr, NoParams{}, opts)
}

// IOGetResult 各端口当前值
type IOGetResult struct {
	Port Bytes `json:"port"`
}

func (r IOGetResult) appendPData(b []byte) []byte { return append(b, r.Port...) }

func (r IOGetResult) validate() error {
	var v validator
	v.length("port", len(r.Port), 0, ResponsePDataMaxLen)
	return v.err
}

var IOGetResponse = responseCodec(IOGet, 0, func(p []byte) (IOGetResult, error) {
	return IOGetResult{Port: Bytes(p).Clone()}, nil
})

// ===== Thermometer =====

func NewThermometerReadRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(ThermometerRead, nadr, NoParams{}, opts)
}

// ThermometerResult Temperature 为整数摄氏度，Value12b 精度 1/16 ℃；-128 表示读取失败
type ThermometerResult struct {
	Temperature int `json:"temperature"`
	Value12b    int `json:"value12b"`
}

const thermometerReadLen = 3

func (r ThermometerResult) appendPData(b []byte) []byte {
	return appendLE16(append(b, byte(int8(r.Temperature))), r.Value12b)
}

func (r ThermometerResult) validate() error {
	var v validator
	v.rng("temperature", r.Temperature, -128, 127)
	v.u16("value12b", r.Value12b)
	return v.err
}

// Celsius 12 位精度温度
func (r ThermometerResult) Celsius() float64 {
	return float64(int16(uint16(r.Value12b))) / 16
}

var ThermometerReadResponse = responseCodec(ThermometerRead, thermometerReadLen, func(p []byte) (ThermometerResult, error) {
	return ThermometerResult{
		Temperature: ByteComplement(p[0]),
		Value12b:    int(le16(p[1:3])),
	}, nil
})

// ===== UART =====

// UARTOpenParams BaudRate 为波特率枚举 0(1200)..8(230400)
type UARTOpenParams struct {
	BaudRate int `json:"baudRate"`
}

func (p UARTOpenParams) encode() ([]byte, error) {
	if err := ValidateFieldRange("baudRate", int64(p.BaudRate), 0, UartBaudRateMax); err != nil {
		return nil, err
	}
	return []byte{byte(p.BaudRate)}, nil
}

func (p UARTOpenParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[UARTOpenParams], error) {
	return newTypedRequest(UARTOpen, nadr, p, opts)
}

var UARTOpenResponse = responseCodec[NoResult](UARTOpen, 0, nil)

func NewUARTCloseRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(UARTClose, nadr, NoParams{}, opts)
}

var UARTCloseResponse = responseCodec[NoResult](UARTClose, 0, nil)

// UARTWriteReadParams ReadTimeout 单位 10ms，0xFF 表示不读取
type UARTWriteReadParams struct {
	ReadTimeout int   `json:"readTimeout"`
	WrittenData Bytes `json:"writtenData"`
}

func (p UARTWriteReadParams) encode() ([]byte, error) {
	var v validator
	v.u8("readTimeout", p.ReadTimeout)
	v.length("writtenData", len(p.WrittenData), 0, RequestPDataMaxLen-1)
	if v.err != nil {
		return nil, v.err
	}
	return append([]byte{byte(p.ReadTimeout)}, p.WrittenData...), nil
}

func (p UARTWriteReadParams) clone() UARTWriteReadParams {
	p.WrittenData = p.WrittenData.Clone()
	return p
}

// BuildWriteRead 写后读
func (p UARTWriteReadParams) BuildWriteRead(nadr int, opts ...RequestOption) (*TypedRequest[UARTWriteReadParams], error) {
	return newTypedRequest(UARTWriteRead, nadr, p, opts)
}

// BuildClearWriteRead 清空接收缓冲后写后读
func (p UARTWriteReadParams) BuildClearWriteRead(nadr int, opts ...RequestOption) (*TypedRequest[UARTWriteReadParams], error) {
	return newTypedRequest(UARTClearWriteRead, nadr, p, opts)
}

// UARTReadResult 读到的数据
type UARTReadResult struct {
	ReadData Bytes `json:"readData"`
}

func (r UARTReadResult) appendPData(b []byte) []byte { return append(b, r.ReadData...) }

func (r UARTReadResult) validate() error {
	var v validator
	v.length("readData", len(r.ReadData), 0, ResponsePDataMaxLen)
	return v.err
}

func decodeUARTRead(p []byte) (UARTReadResult, error) {
	return UARTReadResult{ReadData: Bytes(p).Clone()}, nil
}

var (
	UARTWriteReadResponse      = responseCodec(UARTWriteRead, 0, decodeUARTRead)
	UARTClearWriteReadResponse = responseCodec(UARTClearWriteRead, 0, decodeUARTRead)
)

// ===== Exploration =====

func NewExplorationEnumerateRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(ExplorationEnumerate, nadr, NoParams{}, opts)
}

// 用户外设编号起始值
const (
	userPeripheralBase = 0x20
	// maxUserPeripheral 枚举应答位图能表示的最大用户外设编号
	maxUserPeripheral = userPeripheralBase + (ResponsePDataMaxLen-enumerateMinLen)*8 - 1
)

// EnumerateResult 外设枚举信息
type EnumerateResult struct {
	DPAVersion int   `json:"dpaVer"`
	PerNr      int   `json:"perNr"`
	EmbPers    []int `json:"embPers"`
	HWPID      int   `json:"hwpId"`
	HWPIDVer   int   `json:"hwpIdVer"`
	Flags      int   `json:"flags"`
	UserPers   []int `json:"userPer"`
}

const enumerateMinLen = 12

func (r EnumerateResult) appendPData(b []byte) []byte {
	b = appendLE16(b, r.DPAVersion)
	b = append(b, byte(r.PerNr))
	b = append(b, PeripheralsToBitmap(r.EmbPers)...)
	b = appendLE16(b, r.HWPID)
	b = appendLE16(b, r.HWPIDVer)
	b = append(b, byte(r.Flags))
	if len(r.UserPers) == 0 {
		return b
	}
	highest := 0
	idx := make([]int, 0, len(r.UserPers))
	for _, p := range r.UserPers {
		idx = append(idx, p-userPeripheralBase)
		highest = max(highest, p-userPeripheralBase)
	}
	return append(b, NodesToBitmap(idx, highest/8+1)...)
}

func (r EnumerateResult) validate() error {
	var v validator
	v.u16("dpaVer", r.DPAVersion)
	v.u8("perNr", r.PerNr)
	v.members("embPers", r.EmbPers, 0, 31)
	v.u16("hwpId", r.HWPID)
	v.u16("hwpIdVer", r.HWPIDVer)
	v.u8("flags", r.Flags)
	v.members("userPer", r.UserPers, userPeripheralBase, maxUserPeripheral)
	return v.err
}

var ExplorationEnumerateResponse = responseCodec(ExplorationEnumerate, enumerateMinLen, func(p []byte) (EnumerateResult, error) {
	r := EnumerateResult{
		DPAVersion: int(le16(p[0:2])),
		PerNr:      int(p[2]),
		EmbPers:    BitmapToPeripherals(p[3:7]),
		HWPID:      int(le16(p[7:9])),
		HWPIDVer:   int(le16(p[9:11])),
		Flags:      int(p[11]),
		UserPers:   []int{},
	}
	for _, i := range BitmapToNodes(p[enumerateMinLen:], false) {
		r.UserPers = append(r.UserPers, i+userPeripheralBase)
	}
	return r, nil
})
