package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestMerge_NoBaseline(t *testing.T) {
	assert.Equal(t, "fresh\n", Merge(nil, nil, "fresh\n"))
	// A pre-existing file the tool did not create is overridden.
	assert.Equal(t, "fresh\n", Merge(nil, ptr("user content\n"), "fresh"))
}

func TestMerge_BaselineWithoutDisk(t *testing.T) {
	out, rep := MergeWithReport(ptr("a\nb\n"), nil, "a\nb\nc\n")
	assert.Equal(t, "a\nb\nc\n", out)
	assert.True(t, rep.Passthrough)
}

func TestMerge_PreservesPureInsertions(t *testing.T) {
	out, rep := MergeWithReport(ptr("a\nb\nc\n"), ptr("a\nb\nb1\nc\n"), "a\nb\nc\nd\n")
	assert.Equal(t, "a\nb\nb1\nc\nd\n", out)
	assert.Equal(t, 1, rep.Inserted)
}

func TestMerge_LeadingBlankLine(t *testing.T) {
	out := Merge(ptr("\na\nb\nc\n"), ptr("\na\nb\nb1\nc\n"), "\na\nb\nc\nd\n")
	assert.Equal(t, "\na\nb\nb1\nc\nd\n", out)
}

func TestMerge_DoesNotResurrectDeletedLines(t *testing.T) {
	out := Merge(ptr("a\nb\nc\n"), ptr("a\nc\n"), "a\nc\n")
	assert.Equal(t, "a\nc\n", out)
}

func TestMerge_TemplateStillEmitsDeletedLine(t *testing.T) {
	out, rep := MergeWithReport(ptr("a\nb\nc\n"), ptr("a\nc\n"), "a\nb\nc\n")
	assert.Equal(t, "a\nb\nc\n", out)
	assert.Equal(t, 1, rep.Restored)
}

func TestMerge_UserEditKeptWhenMachineUnchanged(t *testing.T) {
	out, rep := MergeWithReport(
		ptr("apples\nbananas\ncats\n"),
		ptr("apples\nbats\ncats\n"),
		"apples\nbananas\ncats\n",
	)
	assert.Equal(t, "apples\nbats\ncats\n", out)
	assert.Equal(t, 1, rep.KeptEdits)
}

func TestMerge_MachineWinsOnSimultaneousEdit(t *testing.T) {
	out, rep := MergeWithReport(
		ptr("apples\nbananas\ncats\n"),
		ptr("apples\nbats\ncats\n"),
		"apples\nberries\ncats\n",
	)
	assert.Equal(t, "apples\nberries\ncats\n", out)
	assert.Equal(t, 1, rep.DroppedEdits)
	assert.NotContains(t, out, "<<<<")
}

func TestMerge_InsertionAfterMachineChangedAnchor(t *testing.T) {
	out := Merge(ptr("a\nb\nc\n"), ptr("a\nb\nx\nc\n"), "a\nB2\nc\n")
	assert.Equal(t, "a\nB2\nx\nc\n", out)
}

func TestMerge_InsertionAfterMachineRemovedAnchor(t *testing.T) {
	out := Merge(ptr("a\nb\nc\n"), ptr("a\nb\nx\nc\n"), "a\nc\n")
	assert.Equal(t, "a\nx\nc\n", out)
}

func TestMerge_InsertionAtStartAndEnd(t *testing.T) {
	out := Merge(ptr("a\nb\n"), ptr("top\na\nb\nbottom\n"), "a\nb\nc\n")
	assert.Equal(t, "top\na\nb\nbottom\nc\n", out)
}

func TestMerge_DuplicateLines(t *testing.T) {
	base := "}\n}\n}\n"
	disk := "}\n}\nnote\n}\n"
	out := Merge(ptr(base), ptr(disk), "}\n}\n}\n}\n")
	assert.Equal(t, 1, countLine(out, "note"))
	assert.Equal(t, 4, countLine(out, "}"))
}

func TestMerge_UserUnchangedFollowsMachine(t *testing.T) {
	base := "name: x\nport: 1\n"
	out := Merge(ptr(base), ptr(base), "name: y\nport: 2\nhost: z\n")
	assert.Equal(t, "name: y\nport: 2\nhost: z\n", out)
}

func TestMerge_Idempotent(t *testing.T) {
	base := ptr("a\nb\nc\n")
	disk := ptr("a\nb\nb1\nc\n")
	next := "a\nb\nc\nd\n"
	first := Merge(base, disk, next)
	// Second run: baseline is the previous machine output, disk is the merge.
	second := Merge(&next, &first, next)
	assert.Equal(t, first, second)
}

func TestMerge_EmptyInputs(t *testing.T) {
	assert.Equal(t, "\n", Merge(ptr(""), ptr(""), ""))
	assert.Equal(t, "x\n", Merge(ptr(""), ptr(""), "x"))
	assert.Equal(t, "a\n", Merge(ptr("a\n"), ptr(""), "a\n"))
}

func TestMerge_NewlineDiscipline(t *testing.T) {
	out := Merge(ptr("a\r\nb\r\n"), ptr("a\r\nb\r\nuser\r\n"), "a\nb\n\n\n")
	assert.Equal(t, "a\nb\nuser\n", out)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\n", Normalize("a"))
	assert.Equal(t, "a\n", Normalize("a\n\n\n"))
	assert.Equal(t, "a\n", Normalize("a\r\n"))
	assert.Equal(t, "\n", Normalize(""))
}

func countLine(text, line string) int {
	n := 0
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			if text[start:i] == line {
				n++
			}
			start = i + 1
		}
	}
	return n
}
