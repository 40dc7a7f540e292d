// Package netlist parses the `.cir` textual format of spec §6: one element
// per significant line, case-insensitive prefix, whitespace-delimited
// tokens, `*` comments, engineering-suffix numeric literals. Analysis
// selection lives in the TOML configuration (pkg/config), not in the
// netlist, so analysis directive lines (.op, .dc, .ac, .tran) are not part
// of this grammar; `.model` lines are (see Parse).
package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kretslab/krets/pkg/kerrors"
)

// Element is the parser's typed output record (spec §3): a kind-tagged
// instance with ordered terminal node labels, a primary value, and any
// inline key=value parameters (diode/MOSFET model overrides, AC tags,
// waveform descriptors).
type Element struct {
	Kind   string // first character: R, C, L, V, I, D, M, Q
	ID     string
	Nodes  []string
	Value  float64
	Params map[string]string
}

// Circuit is the parsed netlist: an ordered element list plus an optional
// title line.
type Circuit struct {
	Title    string
	Elements []Element
}

var suffixMultiplier = map[string]float64{
	"t":   1e12,
	"g":   1e9,
	"meg": 1e6,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
	"f":   1e-15,
}

var valuePattern = regexp.MustCompile(`(?i)^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[tgkmunpf])?$`)

// ParseValue parses a SPICE numeric literal with an optional
// Berkeley-convention engineering suffix: case-insensitive, `meg`=1e6,
// `m`=1e-3 (spec §9's classic footgun, resolved by matching the longer
// "meg" alternative before the single-letter "m").
func ParseValue(s string) (float64, error) {
	m := valuePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, kerrors.New(kerrors.ParseError, nil, "invalid numeric literal %q", s)
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, kerrors.New(kerrors.ParseError, err, "invalid numeric literal %q", s)
	}
	if m[2] != "" {
		num *= suffixMultiplier[strings.ToLower(m[2])]
	}
	return num, nil
}

// Parse reads a complete `.cir` document. Beyond spec §6's element grammar,
// it also recognizes `.model <name> <type> (key=value ...)` lines: a D or
// M element may name a model instead of (or alongside) inline key=value
// parameters, and the named model's parameters are merged in once parsing
// completes, with any inline parameter on the element line itself taking
// precedence.
func Parse(input string) (*Circuit, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	ckt := &Circuit{}
	seen := make(map[string]bool)
	models := make(map[string]map[string]string)

	lineNo := 0
	first := true
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if first {
			first = false
			if strings.HasPrefix(line, "*") {
				ckt.Title = strings.TrimSpace(strings.TrimPrefix(line, "*"))
				continue
			}
		}

		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}

		if strings.HasPrefix(strings.ToLower(line), ".model") {
			name, params, err := parseModelLine(line)
			if err != nil {
				return nil, kerrors.New(kerrors.ParseError, err, "line %d: %v", lineNo, err)
			}
			models[name] = params
			continue
		}

		elem, err := parseElement(line)
		if err != nil {
			return nil, kerrors.New(kerrors.ParseError, err, "line %d: %v", lineNo, err)
		}

		if seen[elem.ID] {
			return nil, kerrors.New(kerrors.ParseError, nil, "line %d: duplicate element id %q", lineNo, elem.ID)
		}
		seen[elem.ID] = true

		ckt.Elements = append(ckt.Elements, *elem)
	}

	if err := resolveModels(ckt, models); err != nil {
		return nil, err
	}

	return ckt, nil
}

// parseModelLine parses `.model <name> <type> (key=value ...)`, accepting
// either parenthesized or bare trailing key=value tokens.
func parseModelLine(line string) (name string, params map[string]string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", nil, fmt.Errorf(".model requires a name and a type: %q", line)
	}
	name = fields[1]
	rest := fields[3:] // fields[2] is the device type (D, NMOS, ...), unused
	cleaned := make([]string, 0, len(rest))
	for _, f := range rest {
		f = strings.TrimPrefix(f, "(")
		f = strings.TrimSuffix(f, ")")
		if f != "" {
			cleaned = append(cleaned, f)
		}
	}
	return name, parseKV(cleaned), nil
}

// resolveModels merges each D/M element's named model (if any) into its
// Params, with the element's own inline parameters taking precedence.
func resolveModels(ckt *Circuit, models map[string]map[string]string) error {
	for i := range ckt.Elements {
		e := &ckt.Elements[i]
		modelName, ok := e.Params["model"]
		if !ok {
			continue
		}
		modelParams, ok := models[modelName]
		if !ok {
			return kerrors.New(kerrors.ParseError, nil, "%s: undefined model %q", e.ID, modelName)
		}
		merged := make(map[string]string, len(modelParams)+len(e.Params))
		for k, v := range modelParams {
			merged[k] = v
		}
		for k, v := range e.Params {
			if k != "model" {
				merged[k] = v
			}
		}
		e.Params = merged
	}
	return nil
}

func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("malformed element line %q", line)
	}

	id := fields[0]
	kind := strings.ToUpper(id[:1])

	switch kind {
	case "R", "C", "L":
		return parsePassive(kind, fields)
	case "V", "I":
		return parseSource(kind, fields)
	case "D":
		return parseDiode(fields)
	case "M":
		return parseMosfet(fields)
	case "Q":
		return parseBJT(fields)
	default:
		return nil, kerrors.New(kerrors.ParseError, nil, "unknown element prefix %q", kind)
	}
}

func parsePassive(kind string, fields []string) (*Element, error) {
	if len(fields) != 4 {
		return nil, fmt.Errorf("%s requires exactly 2 nodes and a value", fields[0])
	}
	value, err := ParseValue(fields[3])
	if err != nil {
		return nil, err
	}
	return &Element{Kind: kind, ID: fields[0], Nodes: fields[1:3], Value: value, Params: map[string]string{}}, nil
}

func parseDiode(fields []string) (*Element, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("%s requires exactly 2 nodes", fields[0])
	}
	elem := &Element{Kind: "D", ID: fields[0], Nodes: fields[1:3], Params: parseKVAndModel(fields[3:])}
	return elem, nil
}

func parseMosfet(fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("%s requires exactly 3 nodes (drain, gate, source)", fields[0])
	}
	elem := &Element{Kind: "M", ID: fields[0], Nodes: fields[1:4], Params: parseKVAndModel(fields[4:])}
	return elem, nil
}

// parseBJT recognizes the Q prefix (collector, base, emitter) so the parser
// yields an element build.go can reject with a proper AssemblyError instead
// of failing earlier as an unknown prefix: BJTs parse, they just aren't
// stampable yet (spec §4.3, §7).
func parseBJT(fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("%s requires exactly 3 nodes (collector, base, emitter)", fields[0])
	}
	elem := &Element{Kind: "Q", ID: fields[0], Nodes: fields[1:4], Params: parseKVAndModel(fields[4:])}
	return elem, nil
}

// parseKV parses trailing `key=value` tokens (diode/MOSFET inline model
// overrides), case-insensitively keying on the lowercased name.
func parseKV(fields []string) map[string]string {
	params := make(map[string]string, len(fields))
	for _, f := range fields {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			continue
		}
		params[strings.ToLower(parts[0])] = parts[1]
	}
	return params
}

// parseKVAndModel is parseKV plus recognition of a single bare token (no
// "=") as a model-name reference, stored under the "model" key.
func parseKVAndModel(fields []string) map[string]string {
	params := make(map[string]string, len(fields))
	for _, f := range fields {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			params["model"] = f
			continue
		}
		params[strings.ToLower(parts[0])] = parts[1]
	}
	return params
}

func parseSource(kind string, fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("%s requires exactly 2 nodes and a value", fields[0])
	}

	elem := &Element{Kind: kind, ID: fields[0], Nodes: fields[1:3], Params: map[string]string{}}

	remaining := strings.Join(fields[3:], " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ")
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	rest := strings.Fields(remaining)
	if len(rest) == 0 {
		return nil, fmt.Errorf("%s missing value", fields[0])
	}

	i := 0
	switch strings.ToUpper(rest[0]) {
	case "SIN":
		params, consumed, err := parseParenArgs(fields[0], rest[1:])
		if err != nil {
			return nil, err
		}
		elem.Params["type"] = "sin"
		elem.Params["sin"] = strings.Join(params, " ")
		i = 1 + consumed
	case "PULSE":
		params, consumed, err := parseParenArgs(fields[0], rest[1:])
		if err != nil {
			return nil, err
		}
		elem.Params["type"] = "pulse"
		elem.Params["pulse"] = strings.Join(params, " ")
		i = 1 + consumed
	case "PWL":
		params, consumed, err := parseParenArgs(fields[0], rest[1:])
		if err != nil {
			return nil, err
		}
		elem.Params["type"] = "pwl"
		elem.Params["pwl"] = strings.Join(params, " ")
		i = 1 + consumed
	case "DC":
		if len(rest) < 2 {
			return nil, fmt.Errorf("%s: DC missing value", fields[0])
		}
		value, err := ParseValue(rest[1])
		if err != nil {
			return nil, err
		}
		elem.Value = value
		elem.Params["type"] = "dc"
		i = 2
	default:
		// Spec §6's base grammar: a bare value with no keyword.
		value, err := ParseValue(rest[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", fields[0], err)
		}
		elem.Value = value
		elem.Params["type"] = "dc"
		i = 1
	}

	if i < len(rest) && strings.EqualFold(rest[i], "AC") {
		i++
		if i >= len(rest) {
			return nil, fmt.Errorf("%s: AC tag missing magnitude", fields[0])
		}
		mag, err := ParseValue(rest[i])
		if err != nil {
			return nil, err
		}
		elem.Params["ac_mag"] = fmt.Sprintf("%g", mag)
		i++
		phase := 0.0
		if i < len(rest) {
			phase, err = ParseValue(rest[i])
			if err != nil {
				return nil, err
			}
			i++
		}
		elem.Params["ac_phase"] = fmt.Sprintf("%g", phase)
	}

	return elem, nil
}

// parseParenArgs consumes a "( a b c ... )" token run (parens already
// space-padded by the caller) and returns the enclosed tokens plus how
// many tokens (including both parens) were consumed.
func parseParenArgs(id string, tokens []string) (args []string, consumed int, err error) {
	if len(tokens) == 0 || tokens[0] != "(" {
		return nil, 0, fmt.Errorf("%s: expected '(' after waveform keyword", id)
	}
	for i := 1; i < len(tokens); i++ {
		if tokens[i] == ")" {
			return tokens[1:i], i + 1, nil
		}
		args = append(args, tokens[i])
	}
	return nil, 0, fmt.Errorf("%s: unterminated waveform parameter list", id)
}
