package tt

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// RequireDocText fails the test when the document text differs from
// want, printing a unified diff of the divergence.
func RequireDocText(t *testing.T, doc *ScriptedDocument, want string) {
	t.Helper()

	got := doc.Text()
	if got == want {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		t.Fatalf("document text mismatch (diff unavailable: %v)\nwant: %q\ngot:  %q", err, want, got)
	}
	t.Fatalf("document text mismatch:\n%s", diff)
}
