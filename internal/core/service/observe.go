package service

import (
	"errors"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/pkg/metrics"
)

func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}

func observe(operation string, err error) {
	metrics.LifecycleOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}
