package dpa

// ===== FRC 外设（协调器发起）=====

const frcUserDataMinLen = 2

// FRCSendParams 向全网发送 FRC 命令
type FRCSendParams struct {
	FrcCommand int   `json:"frcCommand"`
	UserData   Bytes `json:"userData"`
}

func (p FRCSendParams) encode() ([]byte, error) {
	var v validator
	v.u8("frcCommand", p.FrcCommand)
	v.length("userData", len(p.UserData), frcUserDataMinLen, FrcUserDataMaxLen)
	if v.err != nil {
		return nil, v.err
	}
	return append([]byte{byte(p.FrcCommand)}, p.UserData...), nil
}

func (p FRCSendParams) clone() FRCSendParams {
	p.UserData = p.UserData.Clone()
	return p
}

func (p FRCSendParams) Build(opts ...RequestOption) (*TypedRequest[FRCSendParams], error) {
	return newTypedRequest(FRCSend, CoordinatorNADR, p, opts)
}

// FRCSendResult Status 小于 0xEF 时为收集到数据的节点数
type FRCSendResult struct {
	Status  int   `json:"status"`
	FrcData Bytes `json:"frcData"`
}

func (r FRCSendResult) appendPData(b []byte) []byte {
	return append(append(b, byte(r.Status)), r.FrcData...)
}

func (r FRCSendResult) validate() error {
	var v validator
	v.u8("status", r.Status)
	v.length("frcData", len(r.FrcData), FrcDataLen, FrcDataLen)
	return v.err
}

func decodeFRCSend(p []byte) (FRCSendResult, error) {
	return FRCSendResult{Status: int(p[0]), FrcData: Bytes(p[1 : 1+FrcDataLen]).Clone()}, nil
}

var FRCSendResponse = responseCodec(FRCSend, 1+FrcDataLen, decodeFRCSend)

func NewFRCExtraResultRequest(opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(FRCExtraResult, CoordinatorNADR, NoParams{}, opts)
}

// FRCExtraResultResult 上一次 FRC 的剩余数据
type FRCExtraResultResult struct {
	FrcData Bytes `json:"frcData"`
}

func (r FRCExtraResultResult) appendPData(b []byte) []byte { return append(b, r.FrcData...) }

func (r FRCExtraResultResult) validate() error {
	var v validator
	v.length("frcData", len(r.FrcData), FrcExtraResultLen, FrcExtraResultLen)
	return v.err
}

var FRCExtraResultResponse = responseCodec(FRCExtraResult, FrcExtraResultLen, func(p []byte) (FRCExtraResultResult, error) {
	return FRCExtraResultResult{FrcData: Bytes(p[:FrcExtraResultLen]).Clone()}, nil
})

// FRCSendSelectiveParams 只向选中节点发送
type FRCSendSelectiveParams struct {
	FrcCommand    int   `json:"frcCommand"`
	SelectedNodes []int `json:"selectedNodes"`
	UserData      Bytes `json:"userData"`
}

func (p FRCSendSelectiveParams) encode() ([]byte, error) {
	var v validator
	v.u8("frcCommand", p.FrcCommand)
	for _, n := range p.SelectedNodes {
		v.rng("selectedNodes", n, 0, NodeAddrMax)
	}
	v.length("userData", len(p.UserData), frcUserDataMinLen, FrcSelUserDataMaxLen)
	if v.err != nil {
		return nil, v.err
	}
	pdata := make([]byte, 0, 1+FrcSelectedNodesLen+len(p.UserData))
	pdata = append(pdata, byte(p.FrcCommand))
	pdata = append(pdata, NodesToBitmap(p.SelectedNodes, FrcSelectedNodesLen)...)
	return append(pdata, p.UserData...), nil
}

func (p FRCSendSelectiveParams) clone() FRCSendSelectiveParams {
	p.SelectedNodes = append([]int(nil), p.SelectedNodes...)
	p.UserData = p.UserData.Clone()
	return p
}

func (p FRCSendSelectiveParams) Build(opts ...RequestOption) (*TypedRequest[FRCSendSelectiveParams], error) {
	return newTypedRequest(FRCSendSelective, CoordinatorNADR, p, opts)
}

var FRCSendSelectiveResponse = responseCodec(FRCSendSelective, 1+FrcDataLen, decodeFRCSend)

// FRCSetParamsParams FRC 参数字节（响应时间等）
type FRCSetParamsParams struct {
	FrcParams int `json:"frcResponseTime"`
}

func (p FRCSetParamsParams) encode() ([]byte, error) {
	if err := ValidateFieldRange("frcResponseTime", int64(p.FrcParams), ByteMin, ByteMax); err != nil {
		return nil, err
	}
	return []byte{byte(p.FrcParams)}, nil
}

func (p FRCSetParamsParams) Build(opts ...RequestOption) (*TypedRequest[FRCSetParamsParams], error) {
	return newTypedRequest(FRCSetParams, CoordinatorNADR, p, opts)
}

// FRCSetParamsResult 被替换前的参数
type FRCSetParamsResult struct {
	FrcParams int `json:"prevFrcResponseTime"`
}

func (r FRCSetParamsResult) appendPData(b []byte) []byte { return append(b, byte(r.FrcParams)) }

func (r FRCSetParamsResult) validate() error {
	var v validator
	v.u8("prevFrcResponseTime", r.FrcParams)
	return v.err
}

var FRCSetParamsResponse = responseCodec(FRCSetParams, 1, func(p []byte) (FRCSetParamsResult, error) {
	return FRCSetParamsResult{FrcParams: int(p[0])}, nil
})
