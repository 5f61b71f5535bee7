package demo

import (
	"fmt"
	"strings"
)

// DemoContext holds shared state passed between steps.
type DemoContext struct {
	CrashCount int
}

// StepFunc is a function that runs a single demo step.
type StepFunc func(r *Runner, ctx *DemoContext) error

// Step represents a single named step within an act.
type Step struct {
	Name    string
	Fn      StepFunc
	Insight string
}

// Act represents a named act with narration and steps.
type Act struct {
	Number    int
	Name      string
	Narration []string
	Steps     []Step
}

// BuildActs returns all acts with their steps.
func BuildActs() []Act {
	return []Act{
		{
			Number: 1,
			Name:   "Reading The Map",
			Narration: []string{
				"The classifier is a pure lookup: category plus message text in, advice out.",
				"No hook needs to be installed to use it.",
			},
			Steps: []Step{
				{Name: "list_categories", Fn: stepListCategories, Insight: "A closed set — unrecognized failures land in 'unknown', they never crash the classifier."},
				{Name: "explain_divide_by_zero", Fn: stepExplainDivideByZero, Insight: "Same text the hook prints at crash time, fetched directly."},
				{Name: "explain_classifies_message", Fn: stepExplainClassifiesMessage, Insight: "Without --category the message text itself is classified, most-specific pattern first."},
			},
		},
		{
			Number: 2,
			Name:   "Crashing On Purpose",
			Narration: []string{
				"Each scenario installs the hook and triggers a real failure.",
				"The process still exits 2 — errfriendly only adds output, it never softens the crash.",
			},
			Steps: []Step{
				{Name: "crash_divide_by_zero", Fn: crashStep("divide-by-zero", "zero"), Insight: "Raw trace first, then the friendly block. Both are on stderr."},
				{Name: "crash_nil_map_write", Fn: crashStep("nil-map-write", "nil map"), Insight: "The single most common Go beginner crash, explained."},
				{Name: "crash_missing_key", Fn: crashStep("missing-key", "key"), Insight: "Error-valued panics are classified just like runtime errors."},
				{Name: "crash_without_trace", Fn: stepCrashWithoutTrace, Insight: "show-trace off: the stack disappears, the explanation stays."},
			},
		},
		{
			Number: 3,
			Name:   "The Paper Trail",
			Narration: []string{
				"With --audit every handled failure lands in SQLite before the process dies.",
				"The audit commands read that log back.",
			},
			Steps: []Step{
				{Name: "crash_with_audit", Fn: stepCrashWithAudit, Insight: "The audit row commits before exit — survives the crash by definition."},
				{Name: "audit_list", Fn: stepAuditList, Insight: "Newest first, filterable by category."},
				{Name: "audit_stats", Fn: stepAuditStats, Insight: "Counts by category: a crash profile of your program over time."},
			},
		},
	}
}

// Act I: Reading The Map

func stepListCategories(r *Runner, ctx *DemoContext) error {
	m, raw, _, code := r.run("categories")
	if code != 0 {
		return fmt.Errorf("categories exited %d", code)
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	r.printDetail("Closed category set listed")
	return nil
}

func stepExplainDivideByZero(r *Runner, ctx *DemoContext) error {
	_, raw, _, code := r.run("explain", "--category", "divide_by_zero")
	if code != 0 {
		return fmt.Errorf("explain exited %d", code)
	}
	if !strings.Contains(raw, "FRIENDLY ERROR EXPLANATION") || !strings.Contains(raw, "How to fix it") {
		return fmt.Errorf("explanation block missing markers: %s", raw)
	}
	r.printDetail("Bannered block with 'How to fix it' section")
	return nil
}

func stepExplainClassifiesMessage(r *Runner, ctx *DemoContext) error {
	m, raw, _, code := r.run("explain", "--message", "assignment to entry in nil map", "--json")
	if code != 0 {
		return fmt.Errorf("explain exited %d", code)
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if !strings.Contains(raw, "nil_map_write") {
		return fmt.Errorf("expected nil_map_write classification: %s", raw)
	}
	return nil
}

// Act II: Crashing On Purpose

// crashStep builds a step that runs a crash scenario and checks the stderr
// contract: exit 2, raw trace, explanation block, and a scenario keyword.
func crashStep(scenario, keyword string) StepFunc {
	return func(r *Runner, ctx *DemoContext) error {
		_, _, stderr, code := r.run("crash", scenario)
		if code != 2 {
			return fmt.Errorf("expected exit 2, got %d", code)
		}
		if !strings.Contains(stderr, "panic:") || !strings.Contains(stderr, "goroutine") {
			return fmt.Errorf("raw trace missing from stderr")
		}
		if !strings.Contains(stderr, "FRIENDLY ERROR EXPLANATION") || !strings.Contains(stderr, "How to fix it") {
			return fmt.Errorf("explanation block missing from stderr")
		}
		if !strings.Contains(strings.ToLower(stderr), keyword) {
			return fmt.Errorf("expected %q in output", keyword)
		}
		ctx.CrashCount++
		r.printDetail("exit 2, trace + explanation on stderr")
		return nil
	}
}

func stepCrashWithoutTrace(r *Runner, ctx *DemoContext) error {
	_, _, stderr, code := r.run("crash", "divide-by-zero", "--no-trace")
	if code != 2 {
		return fmt.Errorf("expected exit 2, got %d", code)
	}
	if strings.Contains(stderr, "goroutine") {
		return fmt.Errorf("raw trace should be suppressed")
	}
	if !strings.Contains(stderr, "FRIENDLY ERROR EXPLANATION") {
		return fmt.Errorf("explanation block missing")
	}
	ctx.CrashCount++
	return nil
}

// Act III: The Paper Trail

func stepCrashWithAudit(r *Runner, ctx *DemoContext) error {
	_, _, stderr, code := r.run("crash", "interface-conversion", "--audit")
	if code != 2 {
		return fmt.Errorf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr, "FRIENDLY ERROR EXPLANATION") {
		return fmt.Errorf("explanation block missing")
	}
	ctx.CrashCount++
	return nil
}

func stepAuditList(r *Runner, ctx *DemoContext) error {
	m, raw, _, code := r.run("audit", "list")
	if code != 0 {
		return fmt.Errorf("audit list exited %d", code)
	}
	if err := r.mustSuccess(m, raw); err != nil {
		return err
	}
	if !strings.Contains(raw, "interface_conversion") {
		return fmt.Errorf("expected audited interface_conversion failure: %s", raw)
	}
	return nil
}

func stepAuditStats(r *Runner, ctx *DemoContext) error {
	m, raw, _, code := r.run("audit", "stats")
	if code != 0 {
		return fmt.Errorf("audit stats exited %d", code)
	}
	return r.mustSuccess(m, raw)
}
