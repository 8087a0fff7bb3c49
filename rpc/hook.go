package rpc

import "github.com/hengadev/hprose/internal/monitoring"

type (
	Hook                     = monitoring.Hook
	Frame                    = monitoring.Frame
	NoOpHook                 = monitoring.NoOpHook
	MetricsCollector         = monitoring.MetricsCollector
	InMemoryMetricsCollector = monitoring.InMemoryMetricsCollector
)

var (
	NewLoggingHook              = monitoring.NewLoggingHook
	NewMetricsHook              = monitoring.NewMetricsHook
	NewCompositeHook            = monitoring.NewCompositeHook
	NewInMemoryMetricsCollector = monitoring.NewInMemoryMetricsCollector
)
