package dpa

import "fmt"

// MessageType 消息类型：外设 + 请求命令 + daemon mType 名称
type MessageType struct {
	PNUM Peripheral
	PCMD Command // 请求命令码，响应为 PCMD.Response()
	Name string  // JSON 路由使用的 mType
}

func (t MessageType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%s/0x%02X", t.PNUM, uint8(t.PCMD))
}

// Matches 判断帧头 (pnum, pcmd) 是否属于该类型（请求或响应均可）
func (t MessageType) Matches(pnum Peripheral, pcmd Command) bool {
	return t.PNUM == pnum && t.PCMD == pcmd.Request()
}

func mt(pnum Peripheral, pcmd Command, name string) MessageType {
	return MessageType{PNUM: pnum, PCMD: pcmd, Name: name}
}

// Coordinator 消息
var (
	CoordinatorAddrInfo          = mt(PeripheralCoordinator, CmdCoordinatorAddrInfo, "iqrfEmbedCoordinator_AddrInfo")
	CoordinatorDiscoveredDevices = mt(PeripheralCoordinator, CmdCoordinatorDiscoveredDevices, "iqrfEmbedCoordinator_DiscoveredDevices")
	CoordinatorBondedDevices     = mt(PeripheralCoordinator, CmdCoordinatorBondedDevices, "iqrfEmbedCoordinator_BondedDevices")
	CoordinatorClearAllBonds     = mt(PeripheralCoordinator, CmdCoordinatorClearAllBonds, "iqrfEmbedCoordinator_ClearAllBonds")
	CoordinatorBondNode          = mt(PeripheralCoordinator, CmdCoordinatorBondNode, "iqrfEmbedCoordinator_BondNode")
	CoordinatorRemoveBond        = mt(PeripheralCoordinator, CmdCoordinatorRemoveBond, "iqrfEmbedCoordinator_RemoveBond")
	CoordinatorDiscovery         = mt(PeripheralCoordinator, CmdCoordinatorDiscovery, "iqrfEmbedCoordinator_Discovery")
	CoordinatorSetDpaParams      = mt(PeripheralCoordinator, CmdCoordinatorSetDpaParams, "iqrfEmbedCoordinator_SetDpaParams")
	CoordinatorSetHops           = mt(PeripheralCoordinator, CmdCoordinatorSetHops, "iqrfEmbedCoordinator_SetHops")
	CoordinatorBackup            = mt(PeripheralCoordinator, CmdCoordinatorBackup, "iqrfEmbedCoordinator_Backup")
	CoordinatorRestore           = mt(PeripheralCoordinator, CmdCoordinatorRestore, "iqrfEmbedCoordinator_Restore")
	CoordinatorAuthorizeBond     = mt(PeripheralCoordinator, CmdCoordinatorAuthorizeBond, "iqrfEmbedCoordinator_AuthorizeBond")
	CoordinatorSmartConnect      = mt(PeripheralCoordinator, CmdCoordinatorSmartConnect, "iqrfEmbedCoordinator_SmartConnect")
	CoordinatorSetMID            = mt(PeripheralCoordinator, CmdCoordinatorSetMID, "iqrfEmbedCoordinator_SetMID")
)

// Node 消息
var (
	NodeRead          = mt(PeripheralNode, CmdNodeRead, "iqrfEmbedNode_Read")
	NodeRemoveBond    = mt(PeripheralNode, CmdNodeRemoveBond, "iqrfEmbedNode_RemoveBond")
	NodeBackup        = mt(PeripheralNode, CmdNodeBackup, "iqrfEmbedNode_Backup")
	NodeRestore       = mt(PeripheralNode, CmdNodeRestore, "iqrfEmbedNode_Restore")
	NodeValidateBonds = mt(PeripheralNode, CmdNodeValidateBonds, "iqrfEmbedNode_ValidateBonds")
)

// OS 消息
var (
	OSRead            = mt(PeripheralOS, CmdOSRead, "iqrfEmbedOs_Read")
	OSReset           = mt(PeripheralOS, CmdOSReset, "iqrfEmbedOs_Reset")
	OSReadCfg         = mt(PeripheralOS, CmdOSReadCfg, "iqrfEmbedOs_ReadCfg")
	OSRfpgm           = mt(PeripheralOS, CmdOSRfpgm, "iqrfEmbedOs_Rfpgm")
	OSSleep           = mt(PeripheralOS, CmdOSSleep, "iqrfEmbedOs_Sleep")
	OSSetSecurity     = mt(PeripheralOS, CmdOSSetSecurity, "iqrfEmbedOs_SetSecurity")
	OSIndicate        = mt(PeripheralOS, CmdOSIndicate, "iqrfEmbedOs_Indicate")
	OSRestart         = mt(PeripheralOS, CmdOSRestart, "iqrfEmbedOs_Restart")
	OSWriteCfgByte    = mt(PeripheralOS, CmdOSWriteCfgByte, "iqrfEmbedOs_WriteCfgByte")
	OSTestRfSignal    = mt(PeripheralOS, CmdOSTestRfSignal, "iqrfEmbedOs_TestRfSignal")
	OSFactorySettings = mt(PeripheralOS, CmdOSFactorySettings, "iqrfEmbedOs_FactorySettings")
	OSWriteCfg        = mt(PeripheralOS, CmdOSWriteCfg, "iqrfEmbedOs_WriteCfg")
)

// 存储类消息
var (
	EEPROMRead   = mt(PeripheralEEPROM, CmdMemoryRead, "iqrfEmbedEeprom_Read")
	EEPROMWrite  = mt(PeripheralEEPROM, CmdMemoryWrite, "iqrfEmbedEeprom_Write")
	EEEPROMRead  = mt(PeripheralEEEPROM, CmdEEEPROMXRead, "iqrfEmbedEeeprom_XRead")
	EEEPROMWrite = mt(PeripheralEEEPROM, CmdEEEPROMXWrite, "iqrfEmbedEeeprom_XWrite")
	RAMRead      = mt(PeripheralRAM, CmdMemoryRead, "iqrfEmbedRam_Read")
	RAMWrite     = mt(PeripheralRAM, CmdMemoryWrite, "iqrfEmbedRam_Write")
)

// LED 消息
var (
	LEDRSetOff   = mt(PeripheralLEDR, CmdLEDSetOff, "iqrfEmbedLedr_SetOff")
	LEDRSetOn    = mt(PeripheralLEDR, CmdLEDSetOn, "iqrfEmbedLedr_SetOn")
	LEDRPulse    = mt(PeripheralLEDR, CmdLEDPulse, "iqrfEmbedLedr_Pulse")
	LEDRFlashing = mt(PeripheralLEDR, CmdLEDFlashing, "iqrfEmbedLedr_Flashing")
	LEDGSetOff   = mt(PeripheralLEDG, CmdLEDSetOff, "iqrfEmbedLedg_SetOff")
	LEDGSetOn    = mt(PeripheralLEDG, CmdLEDSetOn, "iqrfEmbedLedg_SetOn")
	LEDGPulse    = mt(PeripheralLEDG, CmdLEDPulse, "iqrfEmbedLedg_Pulse")
	LEDGFlashing = mt(PeripheralLEDG, CmdLEDFlashing, "iqrfEmbedLedg_Flashing")
)

// IO / Thermometer / UART / FRC / Exploration 消息
var (
	IODirection = mt(PeripheralIO, CmdIODirection, "iqrfEmbedIo_Direction")
	IOSet       = mt(PeripheralIO, CmdIOSet, "iqrfEmbedIo_Set")
	IOGet       = mt(PeripheralIO, CmdIOGet, "iqrfEmbedIo_Get")

	ThermometerRead = mt(PeripheralThermometer, CmdThermometerRead, "iqrfEmbedThermometer_Read")

	UARTOpen           = mt(PeripheralUART, CmdUARTOpen, "iqrfEmbedUart_Open")
	UARTClose          = mt(PeripheralUART, CmdUARTClose, "iqrfEmbedUart_Close")
	UARTWriteRead      = mt(PeripheralUART, CmdUARTWriteRead, "iqrfEmbedUart_WriteRead")
	UARTClearWriteRead = mt(PeripheralUART, CmdUARTClearWriteRead, "iqrfEmbedUart_ClearWriteRead")

	FRCSend          = mt(PeripheralFRC, CmdFRCSend, "iqrfEmbedFrc_Send")
	FRCExtraResult   = mt(PeripheralFRC, CmdFRCExtraResult, "iqrfEmbedFrc_ExtraResult")
	FRCSendSelective = mt(PeripheralFRC, CmdFRCSendSelective, "iqrfEmbedFrc_SendSelective")
	FRCSetParams     = mt(PeripheralFRC, CmdFRCSetParams, "iqrfEmbedFrc_SetParams")

	ExplorationEnumerate = mt(PeripheralExploration, CmdExplorationEnumerate, "iqrfEmbedExplore_Enumerate")
)

// GenericRaw 原始 DPA 透传，不参与 (pnum, pcmd) 分发
var GenericRaw = MessageType{Name: "iqrfRaw"}
