package gateway

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
)

// 网关层状态码，取负值以区别于 DPA rcode
const (
	StatusTimeout     = -1
	StatusNoLink      = -2
	StatusLinkBroken  = -3
	StatusBadRequest  = -4
	StatusDuplicateID = -5
	StatusInternal    = -10
)

// StatusOf 将调度错误映射为 JSON API 的 status/statusStr
func StatusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout, "ERROR_TIMEOUT"
	case errors.Is(err, ErrNoLink):
		return StatusNoLink, "ERROR_NO_COORDINATOR"
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrTooManyRequests):
		return StatusLinkBroken, "ERROR_LINK_BROKEN"
	case errors.Is(err, ErrDuplicateID):
		return StatusDuplicateID, "ERROR_DUPLICATE_MSGID"
	case errors.Is(err, dpa.ErrMalformedJSON), errors.Is(err, dpa.ErrValidation),
		errors.Is(err, dpa.ErrUnknownMessage), errors.Is(err, dpa.ErrMessageMismatch):
		return StatusBadRequest, "BAD_REQUEST"
	}
	return StatusInternal, "ERROR_INTERNAL"
}

// ErrorJSON 构造失败应答：mType 与 msgId 原样带回，statusStr 之外附带错误文本
func ErrorJSON(mtype, msgID string, err error) []byte {
	status, str := StatusOf(err)
	env := struct {
		MType string `json:"mType"`
		Data  struct {
			MsgID     string `json:"msgId"`
			Status    int    `json:"status"`
			StatusStr string `json:"statusStr"`
			ErrorStr  string `json:"errorStr,omitempty"`
		} `json:"data"`
	}{MType: mtype}
	env.Data.MsgID = msgID
	env.Data.Status = status
	env.Data.StatusStr = str
	if err != nil {
		env.Data.ErrorStr = err.Error()
	}
	b, _ := json.Marshal(env)
	return b
}
