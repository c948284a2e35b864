package dpa

import "fmt"

// ResponseCode DPA 响应状态码 (RCODE)
type ResponseCode uint8

const (
	RCodeOK                           ResponseCode = 0x00
	RCodeErrorFail                    ResponseCode = 0x01
	RCodeErrorPCMD                    ResponseCode = 0x02
	RCodeErrorPNUM                    ResponseCode = 0x03
	RCodeErrorAddr                    ResponseCode = 0x04
	RCodeErrorDataLen                 ResponseCode = 0x05
	RCodeErrorData                    ResponseCode = 0x06
	RCodeErrorHWPID                   ResponseCode = 0x07
	RCodeErrorNADR                    ResponseCode = 0x08
	RCodeErrorIfaceCustomHandler      ResponseCode = 0x09
	RCodeErrorMissingCustomDpaHandler ResponseCode = 0x0A
	RCodeErrorUserFrom                ResponseCode = 0x20
	RCodeErrorUserTo                  ResponseCode = 0x3F
	RCodeReservedFlag                 ResponseCode = 0x40
	RCodeAsyncResponse                ResponseCode = 0x80
	RCodeConfirmation                 ResponseCode = 0xFF
)

var rcodeNames = map[ResponseCode]string{
	RCodeOK:                           "STATUS_NO_ERROR",
	RCodeErrorFail:                    "ERROR_FAIL",
	RCodeErrorPCMD:                    "ERROR_PCMD",
	RCodeErrorPNUM:                    "ERROR_PNUM",
	RCodeErrorAddr:                    "ERROR_ADDR",
	RCodeErrorDataLen:                 "ERROR_DATA_LEN",
	RCodeErrorData:                    "ERROR_DATA",
	RCodeErrorHWPID:                   "ERROR_HWPID",
	RCodeErrorNADR:                    "ERROR_NADR",
	RCodeErrorIfaceCustomHandler:      "ERROR_IFACE_CUSTOM_HANDLER",
	RCodeErrorMissingCustomDpaHandler: "ERROR_MISSING_CUSTOM_DPA_HANDLER",
	RCodeConfirmation:                 "CONFIRMATION",
}

// Status 去掉异步标志后的状态码
func (c ResponseCode) Status() ResponseCode {
	if c == RCodeConfirmation {
		return c
	}
	return c &^ RCodeAsyncResponse
}

// IsOK 状态为成功（异步标志不影响）
func (c ResponseCode) IsOK() bool { return c.Status() == RCodeOK }

// IsAsync 是否为节点主动上报的异步响应
func (c ResponseCode) IsAsync() bool {
	return c != RCodeConfirmation && c&RCodeAsyncResponse != 0
}

// IsConfirmation 是否为协调器确认帧
func (c ResponseCode) IsConfirmation() bool { return c == RCodeConfirmation }

// IsUserError 是否为用户自定义错误
func (c ResponseCode) IsUserError() bool {
	s := c.Status() &^ RCodeReservedFlag
	return s >= RCodeErrorUserFrom && s <= RCodeErrorUserTo
}

func (c ResponseCode) String() string {
	if n, ok := rcodeNames[c]; ok {
		return n
	}
	s := c.Status()
	var name string
	switch n, ok := rcodeNames[s]; {
	case ok:
		name = n
	case c.IsUserError():
		name = fmt.Sprintf("ERROR_USER_0x%02X", uint8(s&^RCodeReservedFlag))
	default:
		name = fmt.Sprintf("UNKNOWN_0x%02X", uint8(s))
	}
	if c.IsAsync() {
		return name + "_ASYNC"
	}
	return name
}
