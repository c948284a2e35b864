package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/iqrf-gateway/internal/gateway"
	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
	"github.com/taoyao-code/iqrf-gateway/internal/storage"
)

// maxBodyBytes 单个 JSON 请求上限
const maxBodyBytes = 64 << 10

// Dispatcher 请求调度能力
type Dispatcher interface {
	Submit(ctx context.Context, req dpa.Request) (string, error)
	Await(ctx context.Context, msgID string) (dpa.Response, error)
	Result(msgID string) (dpa.Response, bool, error)
}

// DPAHandler DPA 请求下发与结果查询
type DPAHandler struct {
	registry *dpa.Registry
	disp     Dispatcher
	store    storage.ResponseStore
	journal  storage.Journal
	logger   *zap.Logger
}

// NewDPAHandler store 与 journal 可为空
func NewDPAHandler(registry *dpa.Registry, disp Dispatcher, store storage.ResponseStore, journal storage.Journal, logger *zap.Logger) *DPAHandler {
	if registry == nil {
		registry = dpa.DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DPAHandler{registry: registry, disp: disp, store: store, journal: journal, logger: logger}
}

// Send 下发 daemon JSON 请求
// POST /api/v1/dpa?wait=false 时立即返回 202 与 msgId
func (h *DPAHandler) Send(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mtype, _ := dpa.MTypeFromJSON(body)
	req, err := h.registry.RequestFromJSON(body)
	if err != nil {
		msgID, _ := dpa.MsgIDFromJSON(body)
		h.writeError(c, mtype, msgID, err)
		return
	}

	ctx := c.Request.Context()
	id, err := h.disp.Submit(ctx, req)
	if err != nil {
		h.logger.Info("dpa request rejected", zap.String("mtype", mtype), zap.String("msg_id", req.MsgID()), zap.Error(err))
		h.writeError(c, mtype, req.MsgID(), err)
		return
	}

	if wait, _ := strconv.ParseBool(c.DefaultQuery("wait", "true")); !wait {
		c.JSON(http.StatusAccepted, gin.H{"msgId": id, "mType": mtype})
		return
	}
	rsp, err := h.disp.Await(ctx, id)
	if err != nil {
		h.writeError(c, mtype, id, err)
		return
	}
	h.writeResponse(c, rsp)
}

// Get 查询 msgId 对应的结果
// GET /api/v1/dpa/:msgId；等待中返回 202，进程内已淘汰时回落到响应缓存
func (h *DPAHandler) Get(c *gin.Context) {
	msgID := c.Param("msgId")
	rsp, done, err := h.disp.Result(msgID)
	switch {
	case errors.Is(err, gateway.ErrUnknownMsgID):
		h.fromStore(c, msgID)
		return
	case err != nil:
		h.writeError(c, "", msgID, err)
		return
	case !done:
		c.JSON(http.StatusAccepted, gin.H{"msgId": msgID, "status": "pending"})
		return
	}
	h.writeResponse(c, rsp)
}

func (h *DPAHandler) fromStore(c *gin.Context, msgID string) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown msgId", "msgId": msgID})
		return
	}
	payload, err := h.store.Get(c.Request.Context(), msgID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown msgId", "msgId": msgID})
		return
	}
	if err != nil {
		h.logger.Error("response store get failed", zap.String("msg_id", msgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}

// Journal 查询 msgId 的收发帧记录
// GET /api/v1/dpa/:msgId/journal
func (h *DPAHandler) Journal(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "journal disabled"})
		return
	}
	msgID := c.Param("msgId")
	list, err := h.journal.ByMsgID(c.Request.Context(), msgID)
	if err != nil {
		h.logger.Error("journal query failed", zap.String("msg_id", msgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msgId": msgID, "count": len(list), "exchanges": list})
}

// Recent 最近的收发帧
// GET /api/v1/exchanges?limit=
func (h *DPAHandler) Recent(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "journal disabled"})
		return
	}
	limit := queryInt(c, "limit", 100)
	list, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "exchanges": list})
}

func (h *DPAHandler) writeResponse(c *gin.Context, rsp dpa.Response) {
	payload, err := rsp.ToJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}

func (h *DPAHandler) writeError(c *gin.Context, mtype, msgID string, err error) {
	c.Data(httpStatus(err), "application/json", gateway.ErrorJSON(mtype, msgID, err))
}

// httpStatus 网关状态码到 HTTP 状态码
func httpStatus(err error) int {
	switch code, _ := gateway.StatusOf(err); code {
	case gateway.StatusBadRequest:
		return http.StatusBadRequest
	case gateway.StatusTimeout:
		return http.StatusGatewayTimeout
	case gateway.StatusNoLink, gateway.StatusLinkBroken:
		return http.StatusServiceUnavailable
	case gateway.StatusDuplicateID:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
