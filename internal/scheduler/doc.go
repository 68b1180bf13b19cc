// Package scheduler открывает новые окна квоты оплаты по cron-расписанию.
//
// При ScopeProcess квота успешных оплат общая для всех запросов процесса
// и без сброса исчерпывается навсегда. QuotaResetter вызывает
// ResetCounters по расписанию QUOTA_RESET_CRON.
//
// Использование:
//
//	resetter, err := scheduler.New(scheduler.Config{
//	    Target:   orch,
//	    CronExpr: "@every 1h",
//	    Logger:   logger,
//	})
//	if err != nil {
//	    return err
//	}
//	go resetter.Run(ctx)
package scheduler
