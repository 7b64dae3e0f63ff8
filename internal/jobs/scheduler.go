// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ночной бэкап хранилища
// и ежечасная сводка по экономике в лог.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"clickerton.ru/clicker-bot/internal/common"
	"clickerton.ru/clicker-bot/internal/ledger"
)

// Backuper умеет снимать копию хранилища. Реализует файловый бэкенд;
// для PostgreSQL бэкапы делает pg_dump снаружи, и бэкапер не подключается.
type Backuper interface {
	Backup(ctx context.Context, dir, name string) error
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron      *cron.Cron
	ledger    *ledger.Service
	backuper  Backuper
	backupDir string
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
// backuper может быть nil — тогда задача бэкапа не регистрируется.
func NewScheduler(ledgerService *ledger.Service, backuper Backuper, backupDir string) *Scheduler {
	c := cron.New(cron.WithLocation(common.MoscowLocation()))

	return &Scheduler{
		cron:      c,
		ledger:    ledgerService,
		backuper:  backuper,
		backupDir: backupDir,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Ночной бэкап в 03:00 по Москве
	if s.backuper != nil {
		s.cron.AddFunc("0 3 * * *", func() {
			name := fmt.Sprintf("users-%s.json", common.GetMoscowTime().Format("20060102"))
			log.Info("[CRON] Ночной бэкап хранилища")
			if err := s.backuper.Backup(ctx, s.backupDir, name); err != nil {
				log.WithError(err).Error("[CRON] Ошибка бэкапа")
			}
		})
	}

	// Сводка по экономике каждый час
	s.cron.AddFunc("0 * * * *", func() {
		totals, err := s.ledger.Totals(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка подсчёта сводки")
			return
		}
		log.WithFields(log.Fields{
			"accounts":     totals.Accounts,
			"coins":        totals.Coins,
			"total_earned": totals.TotalEarned,
			"gems":         totals.Gems.String(),
			"clicks":       totals.Clicks,
			"ads_watched":  totals.AdsWatched,
		}).Info("[CRON] Сводка по экономике")
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
