package quotepipe

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHTML_Blocks(t *testing.T) {
	page := `<html><body>
<p>Hello world - Alice</p>
<blockquote><p>"Be kind" - Ann</p></blockquote>
<p><strong>Sit</strong> - Rex</p>
</body></html>`
	path := writeFile(t, t.TempDir(), "q.html", page)

	got, err := NewHTMLParser(ParseOptions{}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []Quote{
		{"Hello world", "Alice"},
		{"Be kind", "Ann"},
		{"Sit", "Rex"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("quotes mismatch (-want +got):\n%s", diff)
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"> Be kind - Ann", "Be kind - Ann"},
		{"> > nested - x", "nested - x"},
		{"- Carpe diem - Horace", "Carpe diem - Horace"},
		{"* star - item", "star - item"},
		{"## Heading - H", "Heading - H"},
		{`\- escaped - E`, "- escaped - E"},
		{"**bold** - B", "bold - B"},
		{"plain - P", "plain - P"},
	}
	for _, tt := range tests {
		if got := stripMarkdown(tt.in); got != tt.want {
			t.Errorf("stripMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVisibleHTML_PrunesHidden(t *testing.T) {
	page := `<html><head><title>Quotes - Site</title><style>p{}</style></head><body>
<p>Shown - Ann</p>
<script>var x = "Script - Bot";</script>
<p style="display: none">Styled - Ghost</p>
<p hidden>Attr - Ghost</p>
<div aria-hidden="true"><p>Aria - Ghost</p></div>
<noscript><p>Nojs - Ghost</p></noscript>
</body></html>`

	got, err := visibleHTML([]byte(page))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Shown - Ann") {
		t.Errorf("visible text dropped: %s", got)
	}
	for _, hidden := range []string{"Site", "Script", "Ghost", "p{}"} {
		if strings.Contains(got, hidden) {
			t.Errorf("%q survived pruning: %s", hidden, got)
		}
	}
}
