package pooling

import (
	"fmt"
	"strings"
)

type Strategy uint8

const (
	StrategyAvg Strategy = iota
	StrategyMax
	StrategyCLS
)

func (s Strategy) String() string {
	switch s {
	case StrategyAvg:
		return "avg"
	case StrategyMax:
		return "max"
	case StrategyCLS:
		return "cls"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a strategy name to a Strategy. The empty string is avg.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "avg", "mean", "average":
		return StrategyAvg, nil
	case "max":
		return StrategyMax, nil
	case "cls":
		return StrategyCLS, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Pool runs the pooler selected by strategy. mask is only read by avg.
func Pool[T Token, F Float, M MaskValue](strategy Strategy, tokens []T, embeddings []F, mask []M, s Shape, paddingIndex T) ([]F, error) {
	switch strategy {
	case StrategyAvg:
		return AveragePooling(tokens, embeddings, mask, s, paddingIndex)
	case StrategyMax:
		return MaxPooling(tokens, embeddings, s, paddingIndex)
	case StrategyCLS:
		return CLSPooling(embeddings, s)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, strategy)
	}
}
