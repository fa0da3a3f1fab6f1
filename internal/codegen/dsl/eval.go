package dsl

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

// Series is a named price/indicator series a strategy's DSL expression
// may reference by identifier (e.g. "close", "volume").
type Series map[string][]float64

// Eval evaluates node against series, returning one value per bar. Binary
// and compare nodes broadcast element-wise; indicator calls consume a
// series argument and a period argument.
func Eval(node *Node, series Series) ([]float64, error) {
	switch node.Kind {
	case KindNumber:
		return nil, nil // resolved lazily by callers needing a scalar; see evalScalarOrSeries
	case KindIdent:
		s, ok := series[node.Value]
		if !ok {
			return nil, fmt.Errorf("unknown series %q", node.Value)
		}
		return s, nil
	case KindCall:
		return evalCall(node, series)
	case KindBinary:
		return evalBinary(node, series)
	case KindCompare:
		return evalCompare(node, series)
	case KindLogical:
		return evalLogical(node, series)
	default:
		return nil, fmt.Errorf("unhandled node kind %q", node.Kind)
	}
}

func evalScalarOrSeries(node *Node, series Series, length int) ([]float64, error) {
	if node.Kind == KindNumber {
		out := make([]float64, length)
		for i := range out {
			out[i] = node.Number
		}
		return out, nil
	}
	return Eval(node, series)
}

func evalCall(node *Node, series Series) ([]float64, error) {
	seriesArg, err := evalSeriesArg(node.Children[0], series)
	if err != nil {
		return nil, err
	}
	switch node.Value {
	case "sma":
		period, err := scalarArg(node.Children[1])
		if err != nil {
			return nil, err
		}
		return talib.Sma(seriesArg, period), nil
	case "ema":
		period, err := scalarArg(node.Children[1])
		if err != nil {
			return nil, err
		}
		return talib.Ema(seriesArg, period), nil
	case "rsi":
		period, err := scalarArg(node.Children[1])
		if err != nil {
			return nil, err
		}
		return talib.Rsi(seriesArg, period), nil
	case "roc":
		period, err := scalarArg(node.Children[1])
		if err != nil {
			return nil, err
		}
		return talib.Roc(seriesArg, period), nil
	case "std":
		period, err := scalarArg(node.Children[1])
		if err != nil {
			return nil, err
		}
		return talib.StdDev(seriesArg, period, 1), nil
	case "max":
		period, err := scalarArg(node.Children[1])
		if err != nil {
			return nil, err
		}
		return talib.Max(seriesArg, period), nil
	case "min":
		period, err := scalarArg(node.Children[1])
		if err != nil {
			return nil, err
		}
		return talib.Min(seriesArg, period), nil
	case "cross_above":
		other, err := evalSeriesArg(node.Children[1], series)
		if err != nil {
			return nil, err
		}
		return crossSeries(seriesArg, other, true), nil
	case "cross_below":
		other, err := evalSeriesArg(node.Children[1], series)
		if err != nil {
			return nil, err
		}
		return crossSeries(seriesArg, other, false), nil
	default:
		return nil, fmt.Errorf("unhandled call %q", node.Value)
	}
}

func evalSeriesArg(node *Node, series Series) ([]float64, error) {
	if node.Kind == KindIdent {
		s, ok := series[node.Value]
		if !ok {
			return nil, fmt.Errorf("unknown series %q", node.Value)
		}
		return s, nil
	}
	return Eval(node, series)
}

func scalarArg(node *Node) (int, error) {
	if node.Kind != KindNumber {
		return 0, fmt.Errorf("expected numeric literal, got %q", node.Kind)
	}
	return int(node.Number), nil
}

func crossSeries(a, b []float64, above bool) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if i == 0 || i >= len(b) {
			out[i] = 0
			continue
		}
		crossed := false
		if above {
			crossed = a[i-1] <= b[i-1] && a[i] > b[i]
		} else {
			crossed = a[i-1] >= b[i-1] && a[i] < b[i]
		}
		if crossed {
			out[i] = 1
		}
	}
	return out
}

func evalBinary(node *Node, series Series) ([]float64, error) {
	length := seriesLength(series)
	left, err := evalScalarOrSeries(node.Children[0], series, length)
	if err != nil {
		return nil, err
	}
	right, err := evalScalarOrSeries(node.Children[1], series, length)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(left))
	for i := range left {
		switch node.Value {
		case "+":
			out[i] = left[i] + right[i]
		case "-":
			out[i] = left[i] - right[i]
		case "*":
			out[i] = left[i] * right[i]
		case "/":
			if right[i] == 0 {
				out[i] = math.NaN()
			} else {
				out[i] = left[i] / right[i]
			}
		}
	}
	return out, nil
}

func evalCompare(node *Node, series Series) ([]float64, error) {
	if node.Value == "cross_above" || node.Value == "cross_below" {
		left, err := evalSeriesArg(node.Children[0], series)
		if err != nil {
			return nil, err
		}
		right, err := evalSeriesArg(node.Children[1], series)
		if err != nil {
			return nil, err
		}
		return crossSeries(left, right, node.Value == "cross_above"), nil
	}

	length := seriesLength(series)
	left, err := evalScalarOrSeries(node.Children[0], series, length)
	if err != nil {
		return nil, err
	}
	right, err := evalScalarOrSeries(node.Children[1], series, length)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(left))
	for i := range left {
		var result bool
		switch node.Value {
		case ">":
			result = left[i] > right[i]
		case "<":
			result = left[i] < right[i]
		case ">=":
			result = left[i] >= right[i]
		case "<=":
			result = left[i] <= right[i]
		case "==":
			result = left[i] == right[i]
		}
		if result {
			out[i] = 1
		}
	}
	return out, nil
}

func evalLogical(node *Node, series Series) ([]float64, error) {
	left, err := Eval(node.Children[0], series)
	if err != nil {
		return nil, err
	}
	right, err := Eval(node.Children[1], series)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(left))
	for i := range left {
		switch node.Value {
		case "and":
			if left[i] != 0 && right[i] != 0 {
				out[i] = 1
			}
		case "or":
			if left[i] != 0 || right[i] != 0 {
				out[i] = 1
			}
		}
	}
	return out, nil
}

func seriesLength(series Series) int {
	for _, s := range series {
		return len(s)
	}
	return 0
}
