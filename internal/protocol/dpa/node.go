package dpa

// ===== Node 外设 =====

func NewNodeReadRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(NodeRead, nadr, NoParams{}, opts)
}

// NodeReadResult 节点网络参数
type NodeReadResult struct {
	NtwADDR        int `json:"ntwADDR"`
	NtwVRN         int `json:"ntwVRN"`
	NtwZIN         int `json:"ntwZIN"`
	NtwDID         int `json:"ntwDID"`
	NtwPVRN        int `json:"ntwPVRN"`
	NtwUserAddress int `json:"ntwUSERADDRESS"`
	NtwID          int `json:"ntwID"`
	NtwVRNFZ       int `json:"ntwVRNFZ"`
	NtwCFG         int `json:"ntwCFG"`
	Flags          int `json:"flags"`
}

const nodeReadLen = 12

func (r NodeReadResult) appendPData(b []byte) []byte {
	b = append(b, byte(r.NtwADDR), byte(r.NtwVRN), byte(r.NtwZIN), byte(r.NtwDID), byte(r.NtwPVRN))
	b = appendLE16(b, r.NtwUserAddress)
	b = appendLE16(b, r.NtwID)
	return append(b, byte(r.NtwVRNFZ), byte(r.NtwCFG), byte(r.Flags))
}

func (r NodeReadResult) validate() error {
	var v validator
	v.u8("ntwADDR", r.NtwADDR)
	v.u8("ntwVRN", r.NtwVRN)
	v.u8("ntwZIN", r.NtwZIN)
	v.u8("ntwDID", r.NtwDID)
	v.u8("ntwPVRN", r.NtwPVRN)
	v.u16("ntwUSERADDRESS", r.NtwUserAddress)
	v.u16("ntwID", r.NtwID)
	v.u8("ntwVRNFZ", r.NtwVRNFZ)
	v.u8("ntwCFG", r.NtwCFG)
	v.u8("flags", r.Flags)
	return v.err
}

var NodeReadResponse = responseCodec(NodeRead, nodeReadLen, func(p []byte) (NodeReadResult, error) {
	return NodeReadResult{
		NtwADDR:        int(p[0]),
		NtwVRN:         int(p[1]),
		NtwZIN:         int(p[2]),
		NtwDID:         int(p[3]),
		NtwPVRN:        int(p[4]),
		NtwUserAddress: int(le16(p[5:7])),
		NtwID:          int(le16(p[7:9])),
		NtwVRNFZ:       int(p[9]),
		NtwCFG:         int(p[10]),
		Flags:          int(p[11]),
	}, nil
})

func NewNodeRemoveBondRequest(nadr int, opts ...RequestOption) (*TypedRequest[NoParams], error) {
	return newTypedRequest(NodeRemoveBond, nadr, NoParams{}, opts)
}

var NodeRemoveBondResponse = responseCodec[NoResult](NodeRemoveBond, 0, nil)

// NodeBackupParams 与协调器备份相同的块索引
type NodeBackupParams BackupParams

func (p NodeBackupParams) encode() ([]byte, error) { return BackupParams(p).encode() }

func (p NodeBackupParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[NodeBackupParams], error) {
	return newTypedRequest(NodeBackup, nadr, p, opts)
}

var NodeBackupResponse = responseCodec(NodeBackup, NetworkDataLen, decodeBackupResult)

// NodeRestoreParams 写回节点备份数据
type NodeRestoreParams RestoreParams

func (p NodeRestoreParams) encode() ([]byte, error) { return RestoreParams(p).encode() }

func (p NodeRestoreParams) clone() NodeRestoreParams {
	return NodeRestoreParams(RestoreParams(p).clone())
}

func (p NodeRestoreParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[NodeRestoreParams], error) {
	return newTypedRequest(NodeRestore, nadr, p, opts)
}

var NodeRestoreResponse = responseCodec[NoResult](NodeRestore, 0, nil)

// ValidateBondsNode 待校验的绑定
type ValidateBondsNode struct {
	BondAddr int   `json:"bondAddr"`
	MID      int64 `json:"mid"`
}

// ValidateBondsParams 不匹配的节点自行解绑，通常以广播发送
type ValidateBondsParams struct {
	Nodes []ValidateBondsNode `json:"nodes"`
}

func (p ValidateBondsParams) encode() ([]byte, error) {
	var v validator
	v.length("nodes", len(p.Nodes), 1, AuthorizeBondMaxNode)
	for _, n := range p.Nodes {
		v.rng("bondAddr", n.BondAddr, CoordinatorNADR, NodeAddrMax)
		v.u32("mid", n.MID)
	}
	if v.err != nil {
		return nil, v.err
	}
	pdata := make([]byte, 0, len(p.Nodes)*5)
	for _, n := range p.Nodes {
		pdata = appendLE32(append(pdata, byte(n.BondAddr)), n.MID)
	}
	return pdata, nil
}

func (p ValidateBondsParams) clone() ValidateBondsParams {
	return ValidateBondsParams{Nodes: append([]ValidateBondsNode(nil), p.Nodes...)}
}

func (p ValidateBondsParams) Build(nadr int, opts ...RequestOption) (*TypedRequest[ValidateBondsParams], error) {
	return newTypedRequest(NodeValidateBonds, nadr, p, opts)
}

var NodeValidateBondsResponse = responseCodec[NoResult](NodeValidateBonds, 0, nil)
