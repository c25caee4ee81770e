package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a resolution event.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// PlanID is the associated plan ID, if applicable.
	PlanID string `json:"plan_id,omitempty"`

	// Component is the associated component, if applicable.
	Component string `json:"component,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// Event types.
const (
	EventTypeWorkspaceResolved   = "workspace.resolved"
	EventTypeComponentResolved   = "component.resolved"
	EventTypeComponentFailed     = "component.failed"
	EventTypeVariantExcluded     = "variant.excluded"
	EventTypePolicyViolation     = "policy.violation"
	EventTypeDeclarationReloaded = "declaration.reloaded"
)

// Event levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher delivers events to subscribers, synchronously or through
// a buffered goroutine.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	filters     []EventFilter
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ep := &EventPublisher{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if cfg.EnableAsync {
		ep.buffer = make(chan Event, cfg.BufferSize)
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	ep.mu.RLock()
	for _, filter := range ep.filters {
		if !filter(event) {
			ep.mu.RUnlock()
			return nil
		}
	}
	ep.mu.RUnlock()

	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	ep.deliverEvent(event)
	return nil
}

// PublishWorkspaceResolved publishes a workspace resolved event.
func (ep *EventPublisher) PublishWorkspaceResolved(planID string, components, variants int, allowed bool, duration time.Duration) error {
	level := EventLevelInfo
	if !allowed {
		level = EventLevelWarning
	}
	return ep.Publish(Event{
		Type:    EventTypeWorkspaceResolved,
		Source:  "resolver",
		PlanID:  planID,
		Message: fmt.Sprintf("Plan %s resolved %d variants across %d components", planID, variants, components),
		Level:   level,
		Data: map[string]interface{}{
			"components": components,
			"variants":   variants,
			"allowed":    allowed,
			"duration":   duration.Seconds(),
		},
	})
}

// PublishComponentResolved publishes a component resolved event.
func (ep *EventPublisher) PublishComponentResolved(planID, component string, kept, excluded int) error {
	return ep.Publish(Event{
		Type:      EventTypeComponentResolved,
		Source:    "resolver",
		PlanID:    planID,
		Component: component,
		Message:   fmt.Sprintf("Component %s resolved to %d variants (%d excluded)", component, kept, excluded),
		Level:     EventLevelInfo,
		Data: map[string]interface{}{
			"variants": kept,
			"excluded": excluded,
		},
	})
}

// PublishComponentFailed publishes a component failed event.
func (ep *EventPublisher) PublishComponentFailed(planID, component, code, reason string) error {
	return ep.Publish(Event{
		Type:      EventTypeComponentFailed,
		Source:    "resolver",
		PlanID:    planID,
		Component: component,
		Message:   fmt.Sprintf("Component %s failed: %s", component, reason),
		Level:     EventLevelError,
		Data: map[string]interface{}{
			"code":   code,
			"reason": reason,
		},
	})
}

// PublishVariantExcluded publishes a variant excluded event.
func (ep *EventPublisher) PublishVariantExcluded(planID, component, key string) error {
	return ep.Publish(Event{
		Type:      EventTypeVariantExcluded,
		Source:    "resolver",
		PlanID:    planID,
		Component: component,
		Message:   fmt.Sprintf("Variant %s of %s excluded by filters", key, component),
		Level:     EventLevelInfo,
		Data: map[string]interface{}{
			"key": key,
		},
	})
}

// PublishPolicyViolation publishes a policy violation event.
func (ep *EventPublisher) PublishPolicyViolation(planID, component, policyName, severity, reason string) error {
	level := EventLevelWarning
	if severity == "error" || severity == "critical" {
		level = EventLevelError
	}
	return ep.Publish(Event{
		Type:      EventTypePolicyViolation,
		Source:    "policy_engine",
		PlanID:    planID,
		Component: component,
		Message:   fmt.Sprintf("Policy violation on component %s: %s - %s", component, policyName, reason),
		Level:     level,
		Data: map[string]interface{}{
			"policy":   policyName,
			"severity": severity,
			"reason":   reason,
		},
	})
}

// PublishDeclarationReloaded publishes a declaration reload event.
func (ep *EventPublisher) PublishDeclarationReloaded(paths []string, err error) error {
	event := Event{
		Type:    EventTypeDeclarationReloaded,
		Source:  "watcher",
		Message: fmt.Sprintf("Reloaded %d declaration paths", len(paths)),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"paths": paths,
		},
	}
	if err != nil {
		event.Level = EventLevelError
		event.Message = fmt.Sprintf("Reload failed: %v", err)
	}
	return ep.Publish(event)
}

// Subscribe adds a new event subscriber. A nil filter accepts every event.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	if ep == nil {
		return
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// AddFilter adds a global event filter.
func (ep *EventPublisher) AddFilter(filter EventFilter) {
	if ep == nil {
		return
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.filters = append(ep.filters, filter)
}

func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	for {
		select {
		case event := <-ep.buffer:
			ep.deliverEvent(event)
		case <-ep.ctx.Done():
			for {
				select {
				case event := <-ep.buffer:
					ep.deliverEvent(event)
				default:
					return
				}
			}
		}
	}
}

// deliverEvent calls every matching subscriber in subscription order.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown drains buffered events and stops the publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// FilterByLevel allows events of minLevel or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}
	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType allows events of the given types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByComponent allows events for one component.
func FilterByComponent(component string) EventFilter {
	return func(event Event) bool {
		return event.Component == component
	}
}
