package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aria-runtime/aria-go/core/events"
)

// runFallback plays a deterministic simulated turn when the runtime is
// unreachable, so the sink still receives a plausible, terminating
// sequence. Every event goes through deliver, same as real stream
// output.
func (o *Orchestrator) runFallback(ctx context.Context, turn *turnRef, deliver func(events.Event)) {
	logger.Info("playing simulated turn", "turn_id", turn.id)

	toolCallID := uuid.NewString()
	steps := []events.Event{
		events.NewMessage(uuid.NewString(), events.RoleAssistant,
			"I received your message and I'm working on it.", nil),
		events.NewMessage(uuid.NewString(), events.RoleThought,
			"The runtime is unreachable, so I'm answering from a simulated turn.", nil),
		events.NewToolCall(toolCallID, "echo", map[string]string{"text": "hello"}),
		events.NewToolResult(toolCallID, "echo", `"hello"`, true, ""),
		events.NewFinalResponse(fmt.Sprintf(
			"This is a simulated response. The Aria runtime at %s could not be reached.",
			o.baseURL,
		)),
	}

	for _, step := range steps {
		if !o.waitFallbackStep(ctx, turn) {
			return
		}
		deliver(step)
	}
}

// waitFallbackStep paces the simulation. It reports false once the turn
// is cancelled or the context ends.
func (o *Orchestrator) waitFallbackStep(ctx context.Context, turn *turnRef) bool {
	timer := time.NewTimer(o.fallbackDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return false
	}

	return !turn.cancelled.Load()
}
