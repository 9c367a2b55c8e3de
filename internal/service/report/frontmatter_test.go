package report

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestFrontmatter_SetGet(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("case_id", "case-1")
	fm.Set("tokens_used", 10)

	if v, ok := fm.Get("case_id"); !ok || v != "case-1" {
		t.Errorf("Get(case_id) = %v, %v", v, ok)
	}
	if _, ok := fm.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}

	fm.Set("case_id", "case-2")
	if fm.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after overwrite", fm.Len())
	}
	if v, _ := fm.Get("case_id"); v != "case-2" {
		t.Errorf("Get(case_id) after overwrite = %v", v)
	}
}

func TestFrontmatter_RenderEmpty(t *testing.T) {
	out, err := NewFrontmatter().Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "" {
		t.Errorf("Render() = %q, want empty", out)
	}
}

func TestFrontmatter_Render(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("status", "COMPLETED")
	fm.Set("case_id", "case: 42")
	fm.Set("job_id", "123")
	fm.Set("generated_at", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	fm.Set("estimated_cost_usd", 0.25)
	fm.Set("degraded_phases", []string{})
	fm.Set("tags", []string{"a", "b"})

	out, err := fm.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.HasPrefix(out, "---\nstatus: COMPLETED\n") {
		t.Errorf("fields should render in insertion order:\n%s", out)
	}
	if !strings.HasSuffix(out, "---\n\n") {
		t.Errorf("missing closing delimiter:\n%s", out)
	}
	for _, want := range []string{
		"generated_at: 2024-05-01T12:00:00Z\n",
		"estimated_cost_usd: 0.25\n",
		"degraded_phases: []\n",
		"tags:\n  - a\n  - b\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Values that would change type or break the mapping must survive a
	// round trip.
	body := strings.TrimSuffix(strings.TrimPrefix(out, "---\n"), "---\n\n")
	var decoded map[string]interface{}
	if err := yaml.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("frontmatter is not valid YAML: %v", err)
	}
	if decoded["case_id"] != "case: 42" {
		t.Errorf("case_id = %v", decoded["case_id"])
	}
	if decoded["job_id"] != "123" {
		t.Errorf("job_id = %#v, want string", decoded["job_id"])
	}
}
