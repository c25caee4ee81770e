package telemetry_test

import (
	"context"
	"fmt"
	"time"

	"github.com/openfroyo/variantspace/pkg/telemetry"
)

// Example_events demonstrates subscribing to resolution events.
func Example_events() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.EnableAsync = false

	events, _ := telemetry.NewEventPublisher(cfg.Events)
	events.Subscribe(func(e telemetry.Event) {
		fmt.Println(e.Type, e.Component)
	}, telemetry.FilterByType(telemetry.EventTypeComponentResolved))

	_ = events.PublishComponentResolved("plan-1", "native-library", 5, 1)
	_ = events.PublishVariantExcluded("plan-1", "native-library", "os=windows")
	_ = events.Shutdown(context.Background())

	// Output:
	// component.resolved native-library
}

// Example_operation demonstrates an instrumented operation.
func Example_operation() {
	tel := telemetry.Nop()
	ctx := tel.WithContext(context.Background())

	op := telemetry.StartOperation(ctx, "component.resolve", telemetry.AttrComponent.String("native-library"))
	op.Logger.WithComponent("native-library").Debug("Resolving")
	op.End(nil)

	fmt.Println(op.Timer.Duration() < time.Minute)

	// Output:
	// true
}
