package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
	"github.com/taoyao-code/iqrf-gateway/internal/storage"
	"github.com/taoyao-code/iqrf-gateway/internal/storage/models"
)

// updateInventory 根据响应刷新节点清单；req 为空表示未关联的响应
func (d *Dispatcher) updateInventory(ctx context.Context, req dpa.Request, rsp dpa.Response) {
	if !d.cfg.Inventory || d.deps.Nodes == nil {
		return
	}
	if err := applyInventory(ctx, d.deps.Nodes, req, rsp, d.now()); err != nil {
		d.logger.Warn("inventory update failed",
			zap.String("mtype", rsp.MessageType().String()),
			zap.Uint16("nadr", rsp.Header().NADR),
			zap.Error(err),
		)
	}
}

func applyInventory(ctx context.Context, repo storage.NodeRepo, req dpa.Request, rsp dpa.Response, now time.Time) error {
	h := rsp.Header()
	rc := rsp.RCode()
	return repo.WithTx(ctx, func(tx storage.NodeRepo) error {
		// 协调器自身（地址 0）与广播帧不记为节点
		if h.NADR >= dpa.NodeAddrMin && h.NADR <= dpa.NodeAddrMax {
			if err := tx.TouchNode(ctx, int(h.NADR), int(h.HWPID), int(rc.Status()), now); err != nil {
				return err
			}
		}
		if !rc.IsOK() {
			return nil
		}

		t := rsp.MessageType()
		switch t {
		case dpa.CoordinatorClearAllBonds:
			return tx.ClearBonds(ctx)
		case dpa.CoordinatorRemoveBond:
			if req == nil {
				return nil
			}
			if p, ok := req.Params().(dpa.RemoveBondParams); ok {
				return tx.MarkBonded(ctx, p.BondAddr, false)
			}
			return nil
		case dpa.NodeRemoveBond:
			return tx.MarkBonded(ctx, int(h.NADR), false)
		}

		res, ok := rsp.Result()
		if !ok {
			return nil
		}
		switch v := res.(type) {
		case dpa.OSReadResult:
			if h.NADR > dpa.NodeAddrMax {
				return nil
			}
			return tx.UpsertOSInfo(ctx, int(h.NADR), models.OSInfo{
				MID:       v.MID,
				OSVersion: v.OSVersion,
				OSBuild:   v.OSBuild,
				TrMcuType: v.TrMcuType,
				RSSI:      v.RSSI,
			}, now)
		case dpa.BondedDevicesResult:
			return tx.SyncBonded(ctx, v.BondedDevices)
		case dpa.DiscoveredDevicesResult:
			return tx.SyncDiscovered(ctx, v.DiscoveredDevices)
		case dpa.BondResult:
			return tx.MarkBonded(ctx, v.BondAddr, true)
		}
		return nil
	})
}
