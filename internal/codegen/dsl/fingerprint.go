package dsl

import "sort"

// Fingerprint is the set of indicator functions, referenced series and
// comparison operators used by an expression tree, extracted by walking
// the AST directly rather than re-parsing the rendered source text. The
// Verification Engine cross-checks this against what the source document
// claims the strategy does.
type Fingerprint struct {
	Indicators []string
	Series     []string
	Operators  []string
}

// ExtractFingerprint walks every node in exprs, collecting the distinct indicator calls, series identifiers and comparison/logical
// operators used.
func ExtractFingerprint(exprs ...*Node) Fingerprint {
	indicators := map[string]bool{}
	seriesRefs := map[string]bool{}
	operators := map[string]bool{}

	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		switch n.Kind {
		case KindCall:
			indicators[n.Value] = true
		case KindIdent:
			seriesRefs[n.Value] = true
		case KindBinary, KindCompare, KindLogical:
			operators[n.Value] = true
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, e := range exprs {
		walk(e)
	}

	return Fingerprint{
		Indicators: sortedKeys(indicators),
		Series:     sortedKeys(seriesRefs),
		Operators:  sortedKeys(operators),
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
