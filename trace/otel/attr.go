package otel

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

func trackAttr(track string) attribute.KeyValue {
	return attribute.String("game.track", track)
}

func gameKindAttr(kind string) attribute.KeyValue {
	return attribute.String("game.kind", kind)
}

func gameStepsAttr(steps int) attribute.KeyValue {
	return attribute.Int("game.steps", steps)
}

func actionAttr(action string) attribute.KeyValue {
	return attribute.String("agent.action", action)
}

func actionParsingFailedAttr(failed bool) attribute.KeyValue {
	return attribute.Bool("agent.action_parsing_failed", failed)
}

func llmModelAttr(model string) attribute.KeyValue {
	return attribute.String("llm.model", model)
}

func llmAttemptAttr(attempt int) attribute.KeyValue {
	return attribute.Int("llm.attempt", attempt)
}

func llmReasoningAttr(has bool) attribute.KeyValue {
	return attribute.Bool("llm.has_reasoning", has)
}

func rewardAttr(playerID int, reward float64) attribute.KeyValue {
	return attribute.Float64(fmt.Sprintf("game.reward.%d", playerID), reward)
}
