package dpa

// 配置块内偏移（配置地址减 1）
const (
	cfgEmbPeripherals = 0x00 // 0x01-0x04 位图
	cfgDPAConfigBits0 = 0x04
	cfgRFOutputPower  = 0x07
	cfgRFSignalFilter = 0x08
	cfgLPRxTimeout    = 0x09
	cfgUARTBaudRate   = 0x0A
	cfgAltDSMChannel  = 0x0B
	cfgDPAConfigBits1 = 0x0C
	cfgRFChannelA     = 0x10
	cfgRFChannelB     = 0x11

	rfOutputPowerMax = 7
	peripheralBitmap = 4
	configChecksumIV = 0x5F
)

// TrConfiguration 31 字节 HWP 配置块；Raw 保存未命名字节，命名字段覆盖其上
type TrConfiguration struct {
	EmbPeripherals []int `json:"embPers"`
	DPAConfigBits0 int   `json:"dpaConfigBits0"`
	RFOutputPower  int   `json:"rfOutputPower"`
	RFSignalFilter int   `json:"rfSignalFilter"`
	LPRxTimeout    int   `json:"lpRxTimeout"`
	UARTBaudRate   int   `json:"uartBaudRate"`
	AltDSMChannel  int   `json:"altDsmChannel"`
	DPAConfigBits1 int   `json:"dpaConfigBits1"`
	RFChannelA     int   `json:"rfChannelA"`
	RFChannelB     int   `json:"rfChannelB"`
	Raw            Bytes `json:"raw,omitempty"`
}

// ParseTrConfiguration 解析配置块
func ParseTrConfiguration(b []byte) (TrConfiguration, error) {
	if len(b) != TrConfigurationLen {
		return TrConfiguration{}, &ValidationError{
			Field:  "configuration",
			Value:  int64(len(b)),
			Min:    TrConfigurationLen,
			Max:    TrConfigurationLen,
			Reason: "configuration block must be 31 bytes",
		}
	}
	return TrConfiguration{
		EmbPeripherals: BitmapToPeripherals(b[cfgEmbPeripherals : cfgEmbPeripherals+peripheralBitmap]),
		DPAConfigBits0: int(b[cfgDPAConfigBits0]),
		RFOutputPower:  int(b[cfgRFOutputPower]),
		RFSignalFilter: int(b[cfgRFSignalFilter]),
		LPRxTimeout:    int(b[cfgLPRxTimeout]),
		UARTBaudRate:   int(b[cfgUARTBaudRate]),
		AltDSMChannel:  int(b[cfgAltDSMChannel]),
		DPAConfigBits1: int(b[cfgDPAConfigBits1]),
		RFChannelA:     int(b[cfgRFChannelA]),
		RFChannelB:     int(b[cfgRFChannelB]),
		Raw:            Bytes(b).Clone(),
	}, nil
}

// Bytes 校验并序列化为 31 字节
func (c TrConfiguration) Bytes() ([]byte, error) {
	var v validator
	if len(c.Raw) != 0 {
		v.length("raw", len(c.Raw), TrConfigurationLen, TrConfigurationLen)
	}
	for _, p := range c.EmbPeripherals {
		v.rng("embPers", p, 0, peripheralBitmap*8-1)
	}
	v.u8("dpaConfigBits0", c.DPAConfigBits0)
	v.rng("rfOutputPower", c.RFOutputPower, 0, rfOutputPowerMax)
	v.u8("rfSignalFilter", c.RFSignalFilter)
	v.u8("lpRxTimeout", c.LPRxTimeout)
	v.rng("uartBaudRate", c.UARTBaudRate, 0, UartBaudRateMax)
	v.u8("altDsmChannel", c.AltDSMChannel)
	v.u8("dpaConfigBits1", c.DPAConfigBits1)
	v.u8("rfChannelA", c.RFChannelA)
	v.u8("rfChannelB", c.RFChannelB)
	if v.err != nil {
		return nil, v.err
	}
	out := make([]byte, TrConfigurationLen)
	copy(out, c.Raw)
	copy(out[cfgEmbPeripherals:], PeripheralsToBitmap(c.EmbPeripherals))
	out[cfgDPAConfigBits0] = byte(c.DPAConfigBits0)
	out[cfgRFOutputPower] = byte(c.RFOutputPower)
	out[cfgRFSignalFilter] = byte(c.RFSignalFilter)
	out[cfgLPRxTimeout] = byte(c.LPRxTimeout)
	out[cfgUARTBaudRate] = byte(c.UARTBaudRate)
	out[cfgAltDSMChannel] = byte(c.AltDSMChannel)
	out[cfgDPAConfigBits1] = byte(c.DPAConfigBits1)
	out[cfgRFChannelA] = byte(c.RFChannelA)
	out[cfgRFChannelB] = byte(c.RFChannelB)
	return out, nil
}

func (c TrConfiguration) clone() TrConfiguration {
	c.EmbPeripherals = append([]int(nil), c.EmbPeripherals...)
	c.Raw = c.Raw.Clone()
	return c
}

// ConfigChecksum 配置块校验和：0x5F 依次异或每个字节
func ConfigChecksum(cfg []byte) byte {
	sum := byte(configChecksumIV)
	for _, b := range cfg {
		sum ^= b
	}
	return sum
}
