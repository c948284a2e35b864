package dpa

// ===== EEPROM / EEEPROM / RAM 外设，均以地址为前缀 =====

const (
	memoryWriteMaxLen  = RequestPDataMaxLen - 1 // 扣除单字节地址
	eeepromWriteMaxLen = RequestPDataMaxLen - 2 // 扣除双字节地址
)

// MemoryReadResult 读出的数据
type MemoryReadResult struct {
	PData Bytes `json:"pData"`
}

func (r MemoryReadResult) appendPData(b []byte) []byte { return append(b, r.PData...) }

func (r MemoryReadResult) validate() error {
	var v validator
	v.length("pData", len(r.PData), 0, ResponsePDataMaxLen)
	return v.err
}

func decodeMemoryRead(p []byte) (MemoryReadResult, error) {
	return MemoryReadResult{PData: Bytes(p).Clone()}, nil
}

// EEPROMReadParams 读 EEPROM
type EEPROMReadParams struct {
	Address int `json:"address"`
	Len     int `json:"len"`
}

func (p EEPROMReadParams) encode() ([]byte, error) {
	var v validator
	v.rng("address", p.Address, 0, EEPROMAddrMax)
	v.rng("len", p.Len, 1, MemoryReadMaxLen)
	if v.err != nil {
		return nil, v.err
	}
	return []byte{byte(p.Address), byte(p.Len)}, nil
}

func (p EEPROMReadParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[EEPROMReadParams], error) {
	return newTypedRequest(EEPROMRead, nadr, p, opts)
}

var EEPROMReadResponse = responseCodec(EEPROMRead, 0, decodeMemoryRead)

// EEPROMWriteParams 写 EEPROM
type EEPROMWriteParams struct {
	Address int   `json:"address"`
	PData   Bytes `json:"pData"`
}

func (p EEPROMWriteParams) encode() ([]byte, error) {
	var v validator
	v.rng("address", p.Address, 0, EEPROMAddrMax)
	v.length("pData", len(p.PData), 1, memoryWriteMaxLen)
	if v.err != nil {
		return nil, v.err
	}
	return append([]byte{byte(p.Address)}, p.PData...), nil
}

func (p EEPROMWriteParams) clone() EEPROMWriteParams {
	p.PData = p.PData.Clone()
	return p
}

func (p EEPROMWriteParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[EEPROMWriteParams], error) {
	return newTypedRequest(EEPROMWrite, nadr, p, opts)
}

var EEPROMWriteResponse = responseCodec[NoResult](EEPROMWrite, 0, nil)

// EEEPROMReadParams 读外部 EEPROM，地址为 16 位
type EEEPROMReadParams struct {
	Address int `json:"address"`
	Len     int `json:"len"`
}

func (p EEEPROMReadParams) encode() ([]byte, error) {
	var v validator
	v.rng("address", p.Address, 0, EEEPROMAddrMax)
	v.rng("len", p.Len, 1, EEEPROMReadMaxLen)
	if v.err != nil {
		return nil, v.err
	}
	return append(appendLE16(make([]byte, 0, 3), p.Address), byte(p.Len)), nil
}

func (p EEEPROMReadParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[EEEPROMReadParams], error) {
	return newTypedRequest(EEEPROMRead, nadr, p, opts)
}

var EEEPROMReadResponse = responseCodec(EEEPROMRead, 0, decodeMemoryRead)

// EEEPROMWriteParams 写外部 EEPROM
type EEEPROMWriteParams struct {
	Address int   `json:"address"`
	PData   Bytes `json:"pData"`
}

func (p EEEPROMWriteParams) encode() ([]byte, error) {
	var v validator
	v.rng("address", p.Address, 0, EEEPROMAddrMax)
	v.length("pData", len(p.PData), 1, eeepromWriteMaxLen)
	if v.err != nil {
		return nil, v.err
	}
	return append(appendLE16(make([]byte, 0, 2+len(p.PData)), p.Address), p.PData...), nil
}

func (p EEEPROMWriteParams) clone() EEEPROMWriteParams {
	p.PData = p.PData.Clone()
	return p
}

func (p EEEPROMWriteParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[EEEPROMWriteParams], error) {
	return newTypedRequest(EEEPROMWrite, nadr, p, opts)
}

var EEEPROMWriteResponse = responseCodec[NoResult](EEEPROMWrite, 0, nil)

// RAMReadParams 读 RAM
type RAMReadParams struct {
	Address int `json:"address"`
	Len     int `json:"len"`
}

func (p RAMReadParams) encode() ([]byte, error) {
	var v validator
	v.u8("address", p.Address)
	v.rng("len", p.Len, 1, MemoryReadMaxLen)
	if v.err != nil {
		return nil, v.err
	}
	return []byte{byte(p.Address), byte(p.Len)}, nil
}

func (p RAMReadParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[RAMReadParams], error) {
	return newTypedRequest(RAMRead, nadr, p, opts)
}

var RAMReadResponse = responseCodec(RAMRead, 0, decodeMemoryRead)

// RAMWriteParams 写 RAM，数据最多 57 字节
type RAMWriteParams struct {
	Address int   `json:"address"`
	PData   Bytes `json:"pData"`
}

func (p RAMWriteParams) encode() ([]byte, error) {
	var v validator
	v.u8("address", p.Address)
	v.length("pData", len(p.PData), 1, memoryWriteMaxLen)
	if v.err != nil {
		return nil, v.err
	}
	return append([]byte{byte(p.Address)}, p.PData...), nil
}

func (p RAMWriteParams) clone() RAMWriteParams {
	p.PData = p.PData.Clone()
	return p
}

func (p RAMWriteParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[RAMWriteParams], error) {
	return newTypedRequest(RAMWrite, nadr, p, opts)
}

var RAMWriteResponse = responseCodec[NoResult](RAMWrite, 0, nil)
