package hymo

import (
	"context"
	"strconv"
	"strings"

	internalUtils "github.com/kairos-io/hymoctl/internal/utils"
	"github.com/kairos-io/hymoctl/pkg/schema"
)

// ListActiveRules returns the rules currently installed in the kernel. Any failure yields an
// empty list.
func (c *Client) ListActiveRules(ctx context.Context) []schema.ActiveRule {
	res, ok := c.run(ctx, "Listing active rules", c.hymo("list"))
	if !ok {
		return []schema.ActiveRule{}
	}
	return ParseRules(res.Stdout)
}

// rulePrefixes lists the kinds of the rule dump, each written as "<kind> ".
var rulePrefixes = []schema.RuleKind{
	schema.RuleAdd,
	schema.RuleHideXattrSb,
	schema.RuleHide,
	schema.RuleInject,
	schema.RuleMerge,
}

// ParseRules scans a rule dump one line at a time. Lines with an unknown kind or too few
// fields are skipped, they never fail the batch.
func ParseRules(lines []string) []schema.ActiveRule {
	rules := []schema.ActiveRule{}
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if rule, ok := parseRule(line); ok {
			rules = append(rules, rule)
			continue
		}
		if strings.TrimSpace(line) != "" {
			internalUtils.Log.Debug().Str("line", line).Msg("Skipping rule line")
		}
	}
	return rules
}

func parseRule(line string) (schema.ActiveRule, bool) {
	for _, kind := range rulePrefixes {
		tail, found := strings.CutPrefix(line, string(kind)+" ")
		if !found {
			continue
		}
		switch kind {
		case schema.RuleAdd:
			f := strings.Split(tail, " ")
			if len(f) < 2 {
				return schema.ActiveRule{}, false
			}
			rule := schema.ActiveRule{Kind: kind, Src: f[0], Target: f[1]}
			if len(f) > 2 {
				if n, err := strconv.Atoi(f[2]); err == nil {
					rule.Extra = &n
				}
			}
			return rule, true
		case schema.RuleMerge:
			f := strings.Split(tail, " ")
			if len(f) < 2 {
				return schema.ActiveRule{}, false
			}
			return schema.ActiveRule{Kind: kind, Src: f[0], Target: f[1]}, true
		default:
			if tail == "" {
				return schema.ActiveRule{}, false
			}
			return schema.ActiveRule{Kind: kind, Src: tail}, true
		}
	}
	return schema.ActiveRule{}, false
}
