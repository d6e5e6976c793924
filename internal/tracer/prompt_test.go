package tracer_test

import (
	"strings"
	"testing"

	"github.com/tracelens/tracelens/internal/tracer"
)

func TestRenderPromptDeterministic(t *testing.T) {
	segment := []string{"market_income <1000>", "    employment_income <1000>"}

	first := tracer.RenderPrompt("market_income", segment)
	second := tracer.RenderPrompt("market_income", segment)
	if first != second {
		t.Error("RenderPrompt() is not deterministic for identical inputs")
	}
}

func TestRenderPromptContents(t *testing.T) {
	segment := []string{"market_income <1000>", "    employment_income <1000>"}
	prompt := tracer.RenderPrompt("market_income", segment)

	if !strings.Contains(prompt, "'market_income'") {
		t.Errorf("prompt does not name the target variable:\n%s", prompt)
	}
	if !strings.Contains(prompt, strings.Join(segment, "\n")) {
		t.Errorf("prompt does not contain the newline-joined segment:\n%s", prompt)
	}
}

func TestRenderPromptDistinguishesInputs(t *testing.T) {
	segment := []string{"market_income <1000>"}

	a := tracer.RenderPrompt("market_income", segment)
	b := tracer.RenderPrompt("market_income", []string{"market_income <2000>"})
	if a == b {
		t.Error("prompts for different segments must differ")
	}

	c := tracer.RenderPrompt("non_market_income", segment)
	if a == c {
		t.Error("prompts for different variables must differ")
	}
}
