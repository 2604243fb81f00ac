// Package script parses the recorded-browser action scripts submitted with
// scrape jobs. A script is the "await page.*" statement subset emitted by
// recorder tooling; it is parsed locally into an ordered op list and never
// evaluated as code.
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Op kinds.
const (
	OpGoto         = "goto"
	OpClick        = "click"
	OpClickFirst   = "click_first"
	OpFill         = "fill"
	OpFillNth      = "fill_nth"
	OpRoleClick    = "role_click"
	OpRoleFill     = "role_fill"
	OpTextClick    = "text_click"
	OpSelectOption = "select_option"
	OpKeyPress     = "key_press"
	OpKeyType      = "key_type"
	OpWait         = "wait"
)

// Op is one parsed page interaction.
type Op struct {
	Kind     string
	Selector string
	Value    string
	Role     string
	Name     string
	Text     string
	Index    int
	WaitMS   int
}

// A statement runs to a semicolon, newline or end of input.
var stmtRe = regexp.MustCompile(`await\s+page\.[^;\n]+`)

type pattern struct {
	re    *regexp.Regexp
	build func(m []string) Op
}

// Order matters: the more specific locator chains must be tried before the
// plain locator forms they embed.
var patterns = []pattern{
	{regexp.MustCompile(`^await\s+page\.goto\(['"](.+?)['"]`),
		func(m []string) Op { return Op{Kind: OpGoto, Value: m[1]} }},
	{regexp.MustCompile(`^await\s+page\.getByRole\(['"](\w+)['"],\s*\{\s*name:\s*['"](.+?)['"]\s*\}\)\.click\(\)`),
		func(m []string) Op { return Op{Kind: OpRoleClick, Role: m[1], Name: m[2]} }},
	{regexp.MustCompile(`^await\s+page\.getByRole\(['"](\w+)['"],\s*\{\s*name:\s*['"](.+?)['"]\s*\}\)\.fill\(['"](.*?)['"]\)`),
		func(m []string) Op { return Op{Kind: OpRoleFill, Role: m[1], Name: m[2], Value: m[3]} }},
	{regexp.MustCompile(`^await\s+page\.getByText\(['"](.+?)['"]\)(?:\.first\(\))?\.click\(\)`),
		func(m []string) Op { return Op{Kind: OpTextClick, Text: m[1]} }},
	{regexp.MustCompile(`^await\s+page\.fill\(['"](.+?)['"]\s*,\s*['"](.*?)['"]\s*\)`),
		func(m []string) Op { return Op{Kind: OpFill, Selector: m[1], Value: m[2]} }},
	{regexp.MustCompile(`^await\s+page\.click\(['"](.+?)['"]\s*\)`),
		func(m []string) Op { return Op{Kind: OpClick, Selector: m[1]} }},
	{regexp.MustCompile(`^await\s+page\.selectOption\(['"](.+?)['"]\s*,\s*['"](.+?)['"]\s*\)`),
		func(m []string) Op { return Op{Kind: OpSelectOption, Selector: m[1], Value: m[2]} }},
	{regexp.MustCompile(`^await\s+page\.locator\(['"](.+?)['"]\)\.nth\((\d+)\)\.fill\(['"](.*?)['"]\)`),
		func(m []string) Op {
			n, _ := strconv.Atoi(m[2])
			return Op{Kind: OpFillNth, Selector: m[1], Index: n, Value: m[3]}
		}},
	{regexp.MustCompile(`^await\s+page\.locator\(['"](.+?)['"]\)\.first\(\)\.click\(\)`),
		func(m []string) Op { return Op{Kind: OpClickFirst, Selector: m[1]} }},
	{regexp.MustCompile(`^await\s+page\.locator\(['"](.+?)['"]\)\.first\(\)\.fill\(['"](.*?)['"]\)`),
		func(m []string) Op { return Op{Kind: OpFillNth, Selector: m[1], Index: 0, Value: m[2]} }},
	{regexp.MustCompile(`^await\s+page\.locator\(['"](.+?)['"]\)\.first\(\)\.selectOption\(['"](.+?)['"]\)`),
		func(m []string) Op { return Op{Kind: OpSelectOption, Selector: m[1], Value: m[2]} }},
	{regexp.MustCompile(`^await\s+page\.locator\(['"](.+?)['"]\)\.fill\(['"](.*?)['"]\)`),
		func(m []string) Op { return Op{Kind: OpFill, Selector: m[1], Value: m[2]} }},
	{regexp.MustCompile(`^await\s+page\.locator\(['"](.+?)['"]\)\.selectOption\(['"](.+?)['"]\)`),
		func(m []string) Op { return Op{Kind: OpSelectOption, Selector: m[1], Value: m[2]} }},
	{regexp.MustCompile(`^await\s+page\.locator\(['"](.+?)['"]\)\.click\(\)`),
		func(m []string) Op { return Op{Kind: OpClick, Selector: m[1]} }},
	{regexp.MustCompile(`^await\s+page\.keyboard\.press\(['"]([^'"]+)['"]\)`),
		func(m []string) Op { return Op{Kind: OpKeyPress, Value: m[1]} }},
	{regexp.MustCompile(`^await\s+page\.keyboard\.type\(['"]([^'"]+)['"]\)`),
		func(m []string) Op { return Op{Kind: OpKeyType, Value: m[1]} }},
	{regexp.MustCompile(`^await\s+page\.waitForTimeout\((\d+)\)`),
		func(m []string) Op {
			ms, _ := strconv.Atoi(m[1])
			return Op{Kind: OpWait, WaitMS: ms}
		}},
}

// Parse extracts the ordered op list from a script. A statement the parser
// does not recognize yields an error naming it.
func Parse(src string) ([]Op, error) {
	var ops []Op
	for _, stmt := range stmtRe.FindAllString(src, -1) {
		op, ok := parseStmt(stmt)
		if !ok {
			return nil, fmt.Errorf("unsupported script statement %q", strings.TrimSpace(stmt))
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseStmt(stmt string) (Op, bool) {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(stmt); m != nil {
			return p.build(m), true
		}
	}
	return Op{}, false
}

// Validate reports whether every statement in src parses. An empty script is
// valid: the engine then just loads the page and extracts.
func Validate(src string) error {
	_, err := Parse(src)
	return err
}

// Expand substitutes {{name}} and ${name} template variables into src.
func Expand(src string, vars map[string]string) string {
	if src == "" || len(vars) == 0 {
		return src
	}
	args := make([]string, 0, len(vars)*8)
	for k, v := range vars {
		if k == "" {
			continue
		}
		args = append(args,
			"{{"+k+"}}", v,
			"{{ "+k+" }}", v,
			"${"+k+"}", v,
			"${ "+k+" }", v,
		)
	}
	if len(args) == 0 {
		return src
	}
	return strings.NewReplacer(args...).Replace(src)
}
