package ports

import (
	"context"

	"github.com/kirillkom/report-etl/internal/core/domain"
)

// PipelineRunner is the single externally observable operation: run the
// pipeline, optionally overriding the selection query. The returned report
// always carries a status; the error is non-nil only for uncategorized
// failures (report.Status is StatusUnexpected in that case).
type PipelineRunner interface {
	Run(ctx context.Context, query string) (domain.RunReport, error)
}
