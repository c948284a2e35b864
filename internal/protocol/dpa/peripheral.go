package dpa

import "fmt"

// Peripheral 外设编号 (PNUM)
type Peripheral uint8

const (
	PeripheralCoordinator Peripheral = 0x00
	PeripheralNode        Peripheral = 0x01
	PeripheralOS          Peripheral = 0x02
	PeripheralEEPROM      Peripheral = 0x03
	PeripheralEEEPROM     Peripheral = 0x04
	PeripheralRAM         Peripheral = 0x05
	PeripheralLEDR        Peripheral = 0x06
	PeripheralLEDG        Peripheral = 0x07
	PeripheralIO          Peripheral = 0x09
	PeripheralThermometer Peripheral = 0x0A
	PeripheralUART        Peripheral = 0x0C
	PeripheralFRC         Peripheral = 0x0D
	PeripheralExploration Peripheral = 0xFF
)

var peripheralNames = map[Peripheral]string{
	PeripheralCoordinator: "coordinator",
	PeripheralNode:        "node",
	PeripheralOS:          "os",
	PeripheralEEPROM:      "eeprom",
	PeripheralEEEPROM:     "eeeprom",
	PeripheralRAM:         "ram",
	PeripheralLEDR:        "ledr",
	PeripheralLEDG:        "ledg",
	PeripheralIO:          "io",
	PeripheralThermometer: "thermometer",
	PeripheralUART:        "uart",
	PeripheralFRC:         "frc",
	PeripheralExploration: "exploration",
}

func (p Peripheral) String() string {
	if n, ok := peripheralNames[p]; ok {
		return n
	}
	return fmt.Sprintf("peripheral(0x%02X)", uint8(p))
}

// Known 是否为内嵌外设
func (p Peripheral) Known() bool {
	_, ok := peripheralNames[p]
	return ok
}

// Command 外设命令 (PCMD)，请求取值 0x00-0x7F，响应置最高位
type Command uint8

// Response 返回对应的响应命令码
func (c Command) Response() Command { return c | ResponseFlag }

// Request 返回对应的请求命令码
func (c Command) Request() Command { return c &^ ResponseFlag }

// IsResponse 判断是否为响应命令
func (c Command) IsResponse() bool { return c&ResponseFlag != 0 }

// Coordinator 命令
const (
	CmdCoordinatorAddrInfo          Command = 0x00
	CmdCoordinatorDiscoveredDevices Command = 0x01
	CmdCoordinatorBondedDevices     Command = 0x02
	CmdCoordinatorClearAllBonds     Command = 0x03
	CmdCoordinatorBondNode          Command = 0x04
	CmdCoordinatorRemoveBond        Command = 0x05
	CmdCoordinatorDiscovery         Command = 0x07
	CmdCoordinatorSetDpaParams      Command = 0x08
	CmdCoordinatorSetHops           Command = 0x09
	CmdCoordinatorBackup            Command = 0x0B
	CmdCoordinatorRestore           Command = 0x0C
	CmdCoordinatorAuthorizeBond     Command = 0x0D
	CmdCoordinatorSmartConnect      Command = 0x12
	CmdCoordinatorSetMID            Command = 0x13
)

// Node 命令
const (
	CmdNodeRead          Command = 0x00
	CmdNodeRemoveBond    Command = 0x01
	CmdNodeBackup        Command = 0x06
	CmdNodeRestore       Command = 0x07
	CmdNodeValidateBonds Command = 0x08
)

// OS 命令
const (
	CmdOSRead            Command = 0x00
	CmdOSReset           Command = 0x01
	CmdOSReadCfg         Command = 0x02
	CmdOSRfpgm           Command = 0x03
	CmdOSSleep           Command = 0x04
	CmdOSSetSecurity     Command = 0x06
	CmdOSIndicate        Command = 0x07
	CmdOSRestart         Command = 0x08
	CmdOSWriteCfgByte    Command = 0x09
	CmdOSTestRfSignal    Command = 0x0C
	CmdOSFactorySettings Command = 0x0D
	CmdOSWriteCfg        Command = 0x0F
)

// EEPROM / RAM 命令
const (
	CmdMemoryRead  Command = 0x00
	CmdMemoryWrite Command = 0x01
)

// EEEPROM 命令
const (
	CmdEEEPROMXRead  Command = 0x02
	CmdEEEPROMXWrite Command = 0x03
)

// LED 命令
const (
	CmdLEDSetOff   Command = 0x00
	CmdLEDSetOn    Command = 0x01
	CmdLEDPulse    Command = 0x03
	CmdLEDFlashing Command = 0x04
)

// IO 命令
const (
	CmdIODirection Command = 0x00
	CmdIOSet       Command = 0x01
	CmdIOGet       Command = 0x02
)

// Thermometer 命令
const CmdThermometerRead Command = 0x00

// UART 命令
const (
	CmdUARTOpen           Command = 0x00
	CmdUARTClose          Command = 0x01
	CmdUARTWriteRead      Command = 0x02
	CmdUARTClearWriteRead Command = 0x03
)

// FRC 命令
const (
	CmdFRCSend          Command = 0x00
	CmdFRCExtraResult   Command = 0x01
	CmdFRCSendSelective Command = 0x02
	CmdFRCSetParams     Command = 0x03
)

// Exploration 命令
const CmdExplorationEnumerate Command = 0x3F
