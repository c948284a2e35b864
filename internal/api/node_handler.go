package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
	"github.com/taoyao-code/iqrf-gateway/internal/session"
	"github.com/taoyao-code/iqrf-gateway/internal/storage"
)

// NodeHandler 节点清单、消息目录与链路状态
type NodeHandler struct {
	nodes    storage.NodeRepo
	registry *dpa.Registry
	links    session.LinkManager
	breaker  func() any
	logger   *zap.Logger
}

// NewNodeHandler nodes 为空时清单接口返回 501；breaker 返回熔断统计，可为 nil
func NewNodeHandler(nodes storage.NodeRepo, registry *dpa.Registry, links session.LinkManager, breaker func() any, logger *zap.Logger) *NodeHandler {
	if registry == nil {
		registry = dpa.DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeHandler{nodes: nodes, registry: registry, links: links, breaker: breaker, logger: logger}
}

// ListNodes GET /api/v1/nodes?limit=&offset=
func (h *NodeHandler) ListNodes(c *gin.Context) {
	if h.nodes == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "inventory disabled"})
		return
	}
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)
	list, err := h.nodes.ListNodes(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list nodes failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "nodes": list})
}

// GetNode GET /api/v1/nodes/:addr
func (h *NodeHandler) GetNode(c *gin.Context) {
	if h.nodes == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "inventory disabled"})
		return
	}
	addr, err := strconv.Atoi(c.Param("addr"))
	if err != nil || addr < 0 || addr > dpa.NodeAddrMax {
		c.JSON(http.StatusBadRequest, gin.H{"error": "addr must be 0-239"})
		return
	}
	n, err := h.nodes.GetNode(c.Request.Context(), addr)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "node not found", "addr": addr})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, n)
}

// CatalogEntry 消息目录条目
type CatalogEntry struct {
	MType string `json:"mType"`
	PNUM  *int   `json:"pnum,omitempty"`
	PCMD  *int   `json:"pcmd,omitempty"`
	// Peripheral 外设名称
	Peripheral string `json:"peripheral,omitempty"`
}

// Catalog GET /api/v1/catalog
func (h *NodeHandler) Catalog(c *gin.Context) {
	entries := h.registry.Entries()
	out := make([]CatalogEntry, 0, len(entries))
	for _, e := range entries {
		ce := CatalogEntry{MType: e.Type.Name}
		if e.Type != dpa.GenericRaw {
			pnum, pcmd := int(e.Type.PNUM), int(e.Type.PCMD)
			ce.PNUM, ce.PCMD = &pnum, &pcmd
			ce.Peripheral = e.Type.PNUM.String()
		}
		out = append(out, ce)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "messages": out})
}

// Link GET /api/v1/link
func (h *NodeHandler) Link(c *gin.Context) {
	resp := gin.H{"online": false, "links": 0}
	if h.links != nil {
		resp["online"] = h.links.IsOnline(time.Now())
		resp["links"] = h.links.Count()
		if l, ok := h.links.Active(); ok {
			resp["activeLink"] = l.ID()
		}
	}
	if h.breaker != nil {
		resp["breaker"] = h.breaker()
	}
	c.JSON(http.StatusOK, resp)
}
