package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// DefinitionHash computes a stable content hash over a Definition's
// economically meaningful fields. Entry/exit rule ordering, comments and
// whitespace in the source document never affect it: only the normalized
// rule set, universe, sizing and parameters do.
//
// Mirrors the source-content hashing idiom in the ingestion pipeline, but
// hashes structured fields instead of raw file bytes so that reordering or
// rewording a strategy's source document does not mint a new definition.
func DefinitionHash(d Definition) string {
	var b strings.Builder

	b.WriteString("tier:")
	b.WriteString(strconv.Itoa(int(d.Tier)))
	b.WriteByte('\n')

	b.WriteString("universe:")
	b.WriteString(d.Universe.Description)
	b.WriteByte('\n')
	writeSortedLines(&b, "instrument", d.Universe.Instruments)
	writeSortedLines(&b, "filter", d.Universe.Filters)

	writeSortedLines(&b, "entry", d.Entry)
	writeSortedLines(&b, "exit", d.Exit)

	b.WriteString("position_method:")
	b.WriteString(d.Position.Method)
	b.WriteByte('\n')
	b.WriteString("position_leverage:")
	b.WriteString(strconv.FormatFloat(d.Position.MaxLeverage, 'f', -1, 64))
	b.WriteByte('\n')

	writeSortedLines(&b, "position_mgmt", d.PositionManagement)
	writeSortedLines(&b, "data_req", d.DataRequirements)

	keys := make([]string, 0, len(d.Parameters))
	for k := range d.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("param:")
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(d.Parameters[k], 'f', -1, 64))
		b.WriteByte('\n')
	}

	regimeKeys := make([]string, 0, len(d.RegimeAdaptive))
	for k := range d.RegimeAdaptive {
		regimeKeys = append(regimeKeys, k)
	}
	sort.Strings(regimeKeys)
	for _, k := range regimeKeys {
		b.WriteString("regime:")
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(d.RegimeAdaptive[k])
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeSortedLines(b *strings.Builder, label string, lines []string) {
	sorted := append([]string(nil), lines...)
	sort.Strings(sorted)
	for _, line := range sorted {
		b.WriteString(label)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(line))
		b.WriteByte('\n')
	}
}

// ContentHash hashes arbitrary source bytes, used to key the ingestion
// idempotency index by source document rather than by parsed definition.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// CodeHash hashes generated code bytes, used to detect whether regenerating
// a strategy's code from an unchanged definition produces byte-identical
// output (property: deterministic code generation).
func CodeHash(code []byte) string {
	sum := sha256.Sum256(code)
	return hex.EncodeToString(sum[:])
}
