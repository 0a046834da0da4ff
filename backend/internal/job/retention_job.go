// Package job 后台定时任务
package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"assessment-matrix/backend/internal/service"
)

// sweepTimeout 单次清理的最长执行时间
const sweepTimeout = 4 * time.Minute

// RetentionJob 定期物理删除超过保留期的已删除课程与学生
type RetentionJob struct {
	cron   *cron.Cron
	svc    service.RetentionService
	logger *zap.Logger
	now    func() time.Time
}

// NewRetentionJob 按 spec（标准 5 段 cron 表达式）注册清理任务
func NewRetentionJob(spec string, svc service.RetentionService, logger *zap.Logger) (*RetentionJob, error) {
	j := &RetentionJob{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		svc:    svc,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if _, err := j.cron.AddFunc(spec, j.Run); err != nil {
		return nil, err
	}
	return j, nil
}

// Start 启动调度（非阻塞）
func (j *RetentionJob) Start() {
	j.cron.Start()
	j.logger.Info("保留期清理任务已启动")
}

// Stop 停止调度并等待正在执行的任务结束
func (j *RetentionJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		j.logger.Warn("等待清理任务结束超时")
	}
}

// Run 执行一次清理
func (j *RetentionJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	result, err := j.svc.PurgeExpired(ctx, j.now())
	if err != nil {
		j.logger.Error("保留期清理失败", zap.Error(err))
		return
	}
	if result.Courses > 0 || result.Students > 0 {
		j.logger.Info("保留期清理完成",
			zap.Int("courses", result.Courses),
			zap.Int("students", result.Students),
		)
	}
}
