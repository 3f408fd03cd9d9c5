package slack

import (
	"context"
	"errors"
	"net"

	"github.com/kirillkom/report-etl/internal/infrastructure/resilience"
)

func classifyWebhookError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var status *statusError
	if errors.As(err, &status) {
		// Slack throttling and server-side errors are worth retrying;
		// 4xx means the payload or webhook is wrong.
		retryable := status.code == 429 || status.code >= 500
		return resilience.ErrorClassification{
			Retryable:     retryable,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
