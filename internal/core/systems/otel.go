package systems

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/zeusync/kartsim/internal/core/systems"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
