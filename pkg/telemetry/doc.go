// Package telemetry provides observability for variant resolution.
//
// It combines structured logging (zerolog), tracing (OpenTelemetry),
// metrics (Prometheus) and an in-process event publisher behind a single
// Telemetry value that travels through the context.
//
// # Usage
//
//	tel, err := telemetry.NewTelemetry(telemetry.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Logging
//
//	logger := tel.Logger.NewComponentLogger("resolver").WithPlanID(planID)
//	logger.WithComponent("native-library").Info("Component resolved")
//
// # Tracing
//
// The resolver opens a workspace.resolve span per plan and a
// component.resolve span per component. Exporters are otlp (gRPC), stdout
// and none.
//
// # Metrics
//
//   - variants_resolved_total{component}
//   - variants_filtered_total{component}
//   - components_resolved_total{status}
//   - resolution_duration_seconds{status}
//   - space_size{component}
//   - policy_violations_total{severity}
//   - errors_by_code_total{code}
//   - declaration_reloads_total{status}
//
// Metrics.Serve exposes them over HTTP for long-running commands.
//
// # Events
//
// EventPublisher delivers workspace.resolved, component.resolved,
// component.failed, variant.excluded, policy.violation and
// declaration.reloaded events to subscribers.
package telemetry
