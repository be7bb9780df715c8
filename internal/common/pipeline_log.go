// Package common holds small cross-cutting helpers shared by several
// packages, mirroring the reference repository's internal/common role.
package common

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/wk-archive/meetingmind/internal/logger"
)

// PipelineInfo logs a structured stage/action info event, the shape every
// ingestion and query-orchestration stage uses to report progress.
func PipelineInfo(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logFields(ctx, stage, action, fields).Info(action)
}

// PipelineWarn logs a structured stage/action warning event.
func PipelineWarn(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logFields(ctx, stage, action, fields).Warn(action)
}

// PipelineError logs a structured stage/action error event.
func PipelineError(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logFields(ctx, stage, action, fields).Error(action)
}

func logFields(ctx context.Context, stage, action string, fields map[string]interface{}) *logrus.Entry {
	entry := logger.GetLogger(ctx).WithField("stage", stage).WithField("action", action)
	if len(fields) > 0 {
		entry = entry.WithFields(logrus.Fields(fields))
	}
	return entry
}
