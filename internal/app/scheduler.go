package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetlabs/sweetshop/internal/domain"
	"github.com/sweetlabs/sweetshop/internal/ledger"
	"go.uber.org/zap"
)

// StartSchedulerService runs enabled schedulers periodically. It blocks
// until ctx is cancelled.
func (a *Application) StartSchedulerService(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runSchedulers(ctx)
		}
	}
}

// runSchedulers executes enabled schedulers whose next run time elapsed
func (a *Application) runSchedulers(ctx context.Context) {
	var schedulers []domain.ShopScheduler
	a.gormDB.Where("status = ?", "enabled").Find(&schedulers)
	now := time.Now()
	for _, sched := range schedulers {
		if sched.NextRunAt.IsZero() || now.After(sched.NextRunAt) || now.Equal(sched.NextRunAt) {
			a.runSchedulerTask(ctx, &sched)
			a.gormDB.Model(&domain.ShopScheduler{}).Where("id = ?", sched.ID).
				Update("next_run_at", now.Add(time.Duration(sched.Interval)*time.Second))
		}
	}
}

func (a *Application) runSchedulerTask(ctx context.Context, sched *domain.ShopScheduler) {
	switch sched.TaskType {
	case "low_stock_scan":
		a.runLowStockScanScheduler(ctx, sched)
	case "oplog_prune":
		a.runOplogPruneScheduler(sched)
	default:
		// unsupported task type
	}
}

// runLowStockScanScheduler scans the catalog and publishes an alert event
// when any active sweet sits at or below the configured threshold.
func (a *Application) runLowStockScanScheduler(ctx context.Context, sched *domain.ShopScheduler) {
	threshold := a.configManager.InventorySettings().LowStockThreshold

	sweets, err := a.ledgerService.LowStock(ctx, int(threshold))
	if err != nil {
		a.finishScheduler(sched, "failed", err.Error())
		return
	}

	if len(sweets) > 0 {
		a.bus.Publish(ledger.TopicLowStock, sweets)
		zap.L().Info("low stock scan found sweets below threshold",
			zap.Int("count", len(sweets)),
			zap.Int64("threshold", threshold))
	}

	a.finishScheduler(sched, "success", fmt.Sprintf("%d sweets at or below threshold %d", len(sweets), threshold))
}

func (a *Application) runOplogPruneScheduler(sched *domain.ShopScheduler) {
	res := a.gormDB.
		Where("op_time < ?", time.Now().Add(-time.Hour*24*365)).
		Delete(&domain.SysOpLog{})
	if res.Error != nil {
		a.finishScheduler(sched, "failed", res.Error.Error())
		return
	}
	a.finishScheduler(sched, "success", fmt.Sprintf("pruned %d rows", res.RowsAffected))
}

func (a *Application) finishScheduler(sched *domain.ShopScheduler, result, message string) {
	a.gormDB.Model(&domain.ShopScheduler{}).Where("id = ?", sched.ID).Updates(map[string]interface{}{
		"last_run_at":  time.Now(),
		"last_result":  result,
		"last_message": message,
	})
}

// RunSchedulerNow triggers a scheduler execution immediately by ID
func (a *Application) RunSchedulerNow(id int64) error {
	var sched domain.ShopScheduler
	if err := a.gormDB.First(&sched, id).Error; err != nil {
		return err
	}

	a.runSchedulerTask(context.Background(), &sched)

	now := time.Now()
	a.gormDB.Model(&domain.ShopScheduler{}).Where("id = ?", sched.ID).Updates(map[string]interface{}{
		"last_run_at": now,
		"next_run_at": now.Add(time.Duration(sched.Interval) * time.Second),
	})
	return nil
}
