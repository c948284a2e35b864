package dpa

import (
	"fmt"
	"sort"
	"sync"
)

// Entry 注册表条目：一个消息类型的三种解码入口
type Entry struct {
	Type             MessageType
	RequestFromJSON  func(data []byte) (Request, error)
	ResponseFromDPA  func(frame []byte) (Response, error)
	ResponseFromJSON func(data []byte) (Response, error)
}

type dpaKey struct {
	pnum Peripheral
	pcmd Command
}

// Registry (pnum, pcmd) 与 mType 到解码器的映射
type Registry struct {
	mu     sync.RWMutex
	byDPA  map[dpaKey]Entry
	byName map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{
		byDPA:  make(map[dpaKey]Entry),
		byName: make(map[string]Entry),
	}
}

// Register 注册条目，mType 或 (pnum, pcmd) 重复时返回错误
func (r *Registry) Register(e Entry) error {
	if e.Type.Name == "" {
		return fmt.Errorf("dpa: register %s: empty mType", e.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[e.Type.Name]; dup {
		return fmt.Errorf("dpa: register %s: duplicate mType", e.Type)
	}
	routed := e.Type != GenericRaw
	key := dpaKey{e.Type.PNUM, e.Type.PCMD}
	if routed {
		if old, dup := r.byDPA[key]; dup {
			return fmt.Errorf("dpa: register %s: pnum/pcmd already used by %s", e.Type, old.Type)
		}
		r.byDPA[key] = e
	}
	r.byName[e.Type.Name] = e
	return nil
}

// Lookup 按帧头查找，pcmd 可为请求或响应命令码
func (r *Registry) Lookup(pnum Peripheral, pcmd Command) (Entry, error) {
	r.mu.RLock()
	e, ok := r.byDPA[dpaKey{pnum, pcmd.Request()}]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, &UnknownMessageError{PNUM: pnum, PCMD: pcmd}
	}
	return e, nil
}

// LookupName 按 mType 查找
func (r *Registry) LookupName(mtype string) (Entry, error) {
	r.mu.RLock()
	e, ok := r.byName[mtype]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, &UnknownMessageError{MType: mtype}
	}
	return e, nil
}

// ResponseFromDPA 按帧头分发到具体响应类型
func (r *Registry) ResponseFromDPA(frame []byte) (Response, error) {
	if err := ValidateMinimumFrameLength(frame, ResponseHeaderLen); err != nil {
		return nil, err
	}
	e, err := r.Lookup(Peripheral(frame[OffsetPNUM]), Command(frame[OffsetPCMD]))
	if err != nil {
		return nil, err
	}
	return e.ResponseFromDPA(frame)
}

// ResponseFromJSON 按 mType 分发
func (r *Registry) ResponseFromJSON(data []byte) (Response, error) {
	e, err := r.entryFromJSON(data)
	if err != nil {
		return nil, err
	}
	return e.ResponseFromJSON(data)
}

// RequestFromJSON 按 mType 分发
func (r *Registry) RequestFromJSON(data []byte) (Request, error) {
	e, err := r.entryFromJSON(data)
	if err != nil {
		return nil, err
	}
	return e.RequestFromJSON(data)
}

func (r *Registry) entryFromJSON(data []byte) (Entry, error) {
	mtype, err := MTypeFromJSON(data)
	if err != nil {
		return Entry{}, err
	}
	return r.LookupName(mtype)
}

// Entries 按 (pnum, pcmd) 排序的全部条目，iqrfRaw 在最后
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, e)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Type, out[j].Type
		if (a == GenericRaw) != (b == GenericRaw) {
			return b == GenericRaw
		}
		if a.PNUM != b.PNUM {
			return a.PNUM < b.PNUM
		}
		return a.PCMD < b.PCMD
	})
	return out
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	for _, e := range catalog() {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
})

// DefaultRegistry 内置命令目录，初始化后只读
func DefaultRegistry() *Registry { return defaultRegistry() }

// MTypeFromDPA 由响应帧头得到消息类型
func MTypeFromDPA(pnum Peripheral, pcmd Command) (MessageType, error) {
	e, err := DefaultRegistry().Lookup(pnum, pcmd)
	if err != nil {
		return MessageType{}, err
	}
	return e.Type, nil
}

// MTypeFromString 由 daemon mType 字符串得到消息类型
func MTypeFromString(s string) (MessageType, error) {
	e, err := DefaultRegistry().LookupName(s)
	if err != nil {
		return MessageType{}, err
	}
	return e.Type, nil
}

func catalog() []Entry {
	return []Entry{
		CoordinatorAddrInfoResponse.entry(requestDecoder[NoParams](CoordinatorAddrInfo)),
		CoordinatorDiscoveredDevicesResponse.entry(requestDecoder[NoParams](CoordinatorDiscoveredDevices)),
		CoordinatorBondedDevicesResponse.entry(requestDecoder[NoParams](CoordinatorBondedDevices)),
		CoordinatorClearAllBondsResponse.entry(requestDecoder[NoParams](CoordinatorClearAllBonds)),
		CoordinatorBondNodeResponse.entry(requestDecoder[BondNodeParams](CoordinatorBondNode)),
		CoordinatorRemoveBondResponse.entry(requestDecoder[RemoveBondParams](CoordinatorRemoveBond)),
		CoordinatorDiscoveryResponse.entry(requestDecoder[DiscoveryParams](CoordinatorDiscovery)),
		CoordinatorSetDpaParamsResponse.entry(requestDecoder[SetDpaParamsParams](CoordinatorSetDpaParams)),
		CoordinatorSetHopsResponse.entry(requestDecoder[SetHopsParams](CoordinatorSetHops)),
		CoordinatorBackupResponse.entry(requestDecoder[BackupParams](CoordinatorBackup)),
		CoordinatorRestoreResponse.entry(requestDecoder[RestoreParams](CoordinatorRestore)),
		CoordinatorAuthorizeBondResponse.entry(requestDecoder[AuthorizeBondParams](CoordinatorAuthorizeBond)),
		CoordinatorSmartConnectResponse.entry(requestDecoder[SmartConnectParams](CoordinatorSmartConnect)),
		CoordinatorSetMIDResponse.entry(requestDecoder[SetMIDParams](CoordinatorSetMID)),

		NodeReadResponse.entry(requestDecoder[NoParams](NodeRead)),
		NodeRemoveBondResponse.entry(requestDecoder[NoParams](NodeRemoveBond)),
		NodeBackupResponse.entry(requestDecoder[NodeBackupParams](NodeBackup)),
		NodeRestoreResponse.entry(requestDecoder[NodeRestoreParams](NodeRestore)),
		NodeValidateBondsResponse.entry(requestDecoder[ValidateBondsParams](NodeValidateBonds)),

		OSReadResponse.entry(requestDecoder[NoParams](OSRead)),
		OSResetResponse.entry(requestDecoder[NoParams](OSReset)),
		OSReadCfgResponse.entry(requestDecoder[NoParams](OSReadCfg)),
		OSRfpgmResponse.entry(requestDecoder[NoParams](OSRfpgm)),
		OSSleepResponse.entry(requestDecoder[SleepParams](OSSleep)),
		OSSetSecurityResponse.entry(requestDecoder[SetSecurityParams](OSSetSecurity)),
		OSIndicateResponse.entry(requestDecoder[IndicateParams](OSIndicate)),
		OSRestartResponse.entry(requestDecoder[NoParams](OSRestart)),
		OSWriteCfgByteResponse.entry(requestDecoder[WriteCfgByteParams](OSWriteCfgByte)),
		OSTestRfSignalResponse.entry(requestDecoder[TestRfSignalParams](OSTestRfSignal)),
		OSFactorySettingsResponse.entry(requestDecoder[NoParams](OSFactorySettings)),
		OSWriteCfgResponse.entry(requestDecoder[WriteCfgParams](OSWriteCfg)),

		EEPROMReadResponse.entry(requestDecoder[EEPROMReadParams](EEPROMRead)),
		EEPROMWriteResponse.entry(requestDecoder[EEPROMWriteParams](EEPROMWrite)),
		EEEPROMReadResponse.entry(requestDecoder[EEEPROMReadParams](EEEPROMRead)),
		EEEPROMWriteResponse.entry(requestDecoder[EEEPROMWriteParams](EEEPROMWrite)),
		RAMReadResponse.entry(requestDecoder[RAMReadParams](RAMRead)),
		RAMWriteResponse.entry(requestDecoder[RAMWriteParams](RAMWrite)),

		LEDRSetOffResponse.entry(requestDecoder[NoParams](LEDRSetOff)),
		LEDRSetOnResponse.entry(requestDecoder[NoParams](LEDRSetOn)),
		LEDRPulseResponse.entry(requestDecoder[NoParams](LEDRPulse)),
		LEDRFlashingResponse.entry(requestDecoder[NoParams](LEDRFlashing)),
		LEDGSetOffResponse.entry(requestDecoder[NoParams](LEDGSetOff)),
		LEDGSetOnResponse.entry(requestDecoder[NoParams](LEDGSetOn)),
		LEDGPulseResponse.entry(requestDecoder[NoParams](LEDGPulse)),
		LEDGFlashingResponse.entry(requestDecoder[NoParams](LEDGFlashing)),

		IODirectionResponse.entry(requestDecoder[IOTripletsParams](IODirection)),
		IOSetResponse.entry(requestDecoder[IOTripletsParams](IOSet)),
		IOGetResponse.entry(requestDecoder[NoParams](IOGet)),

		ThermometerReadResponse.entry(requestDecoder[NoParams](ThermometerRead)),

		UARTOpenResponse.entry(requestDecoder[UARTOpenParams](UARTOpen)),
		UARTCloseResponse.entry(requestDecoder[NoParams](UARTClose)),
		UARTWriteReadResponse.entry(requestDecoder[UARTWriteReadParams](UARTWriteRead)),
		UARTClearWriteReadResponse.entry(requestDecoder[UARTWriteReadParams](UARTClearWriteRead)),

		FRCSendResponse.entry(requestDecoder[FRCSendParams](FRCSend)),
		FRCExtraResultResponse.entry(requestDecoder[NoParams](FRCExtraResult)),
		FRCSendSelectiveResponse.entry(requestDecoder[FRCSendSelectiveParams](FRCSendSelective)),
		FRCSetParamsResponse.entry(requestDecoder[FRCSetParamsParams](FRCSetParams)),

		ExplorationEnumerateResponse.entry(requestDecoder[NoParams](ExplorationEnumerate)),

		{
			Type: GenericRaw,
			RequestFromJSON: func(data []byte) (Request, error) {
				r, err := RawRequestFromJSON(data)
				if err != nil {
					return nil, err
				}
				return r, nil
			},
			ResponseFromDPA: func(frame []byte) (Response, error) {
				r, err := RawResponseFromDPA(frame)
				if err != nil {
					return nil, err
				}
				return r, nil
			},
			ResponseFromJSON: func(data []byte) (Response, error) {
				r, err := RawResponseFromJSON(data)
				if err != nil {
					return nil, err
				}
				return r, nil
			},
		},
	}
}
