package assignment_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scandex/internal/assignment"
	"scandex/internal/domain"
	"scandex/internal/schema"
)

func testSchema(t *testing.T) *schema.IndexSchema {
	t.Helper()
	s, err := schema.NewBuilder("test", "").
		Text("Category", domain.RoleFolder, true).
		Date("Date", domain.RoleFilename, true).
		FilenameTemplate("{date}").
		Build()
	require.NoError(t, err)
	return s
}

func page(fileID string, n int) domain.PageReference {
	return domain.PageReference{FileID: fileID, PageNumber: n}
}

func validAssignment(t *testing.T) *assignment.PageAssignment {
	t.Helper()
	a := assignment.NewAssignment(testSchema(t))
	a.AddPages([]domain.PageReference{page("f1", 1), page("f1", 2)})
	a.UpdateIndexValues(map[string]string{"Category": "Invoices", "Date": "2024-01-15"})
	return a
}

func TestAddPageDeduplicates(t *testing.T) {
	a := assignment.NewAssignment(nil)
	a.AddPage(page("f1", 1))
	a.AddPage(page("f1", 1))
	assert.Equal(t, 1, a.PageCount())

	a.AddPages([]domain.PageReference{page("f1", 1), page("f1", 2)})
	assert.Equal(t, 2, a.PageCount())
}

func TestRemovePage(t *testing.T) {
	a := assignment.NewAssignment(nil)
	a.AddPage(page("f1", 1))

	assert.True(t, a.RemovePage(page("f1", 1)))
	assert.False(t, a.RemovePage(page("f1", 1)))
	assert.Equal(t, 0, a.PageCount())
}

func TestValidateValidAssignment(t *testing.T) {
	a := validAssignment(t)
	ok, errs, warnings := a.Validate()

	assert.True(t, ok)
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
	assert.True(t, a.IsValid)
}

func TestValidateMatchesIsValid(t *testing.T) {
	a := validAssignment(t)
	ok, errs, _ := a.Validate()
	assert.Equal(t, ok, len(errs) == 0)
	assert.Equal(t, ok, a.IsValid)

	a.SetIndexValue("Date", "not a date")
	ok, errs, _ = a.Validate()
	assert.False(t, ok)
	assert.NotEmpty(t, errs)
	assert.False(t, a.IsValid)
}

func TestValidateNoPages(t *testing.T) {
	a := assignment.NewAssignment(testSchema(t))
	a.UpdateIndexValues(map[string]string{"Category": "Invoices", "Date": "2024-01-15"})

	ok, errs, _ := a.Validate()
	assert.False(t, ok)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "no pages")
}

func TestValidateNoSchemaShortCircuits(t *testing.T) {
	a := assignment.NewAssignment(nil)
	ok, errs, _ := a.Validate()

	assert.False(t, ok)
	assert.Contains(t, strings.Join(errs, "; "), "no schema")
}

func TestValidateMissingRequiredField(t *testing.T) {
	a := assignment.NewAssignment(testSchema(t))
	a.AddPage(page("f1", 1))
	a.SetIndexValue("Date", "2024-01-15")
	a.SetIndexValue("Category", "   ")

	ok, errs, _ := a.Validate()
	assert.False(t, ok)
	assert.Contains(t, strings.Join(errs, "; "), "Category")
}

func TestValidateWarnsOnLargeAssignments(t *testing.T) {
	a := validAssignment(t)
	for i := 1; i <= 101; i++ {
		a.AddPage(page("f1", i))
	}
	ok, _, warnings := a.Validate()
	assert.True(t, ok)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "Large document")

	b := validAssignment(t)
	for i := 0; i < 11; i++ {
		b.AddPage(page(string(rune('a'+i)), 1))
	}
	_, _, warnings = b.Validate()
	assert.Contains(t, strings.Join(warnings, "; "), "many files")
}

func TestPreviewCachedUntilMutation(t *testing.T) {
	a := validAssignment(t)

	first, err := a.Preview()
	require.NoError(t, err)
	again, err := a.Preview()
	require.NoError(t, err)
	assert.Same(t, first, again)

	a.SetIndexValue("Category", "Receipts")
	assert.Nil(t, a.CachedPreview())

	refreshed, err := a.Preview()
	require.NoError(t, err)
	assert.NotSame(t, first, refreshed)
	assert.Equal(t, "Receipts", refreshed.FolderPath)
}

func TestPreviewContent(t *testing.T) {
	a := validAssignment(t)
	p, err := a.Preview()
	require.NoError(t, err)

	assert.Equal(t, "Invoices", p.FolderPath)
	assert.Equal(t, "2024-01-15", p.Filename)
	assert.Equal(t, "Invoices/2024-01-15.pdf", p.FullPath())
	assert.Equal(t, 2, p.PageCount)
	assert.Equal(t, int64(2*50_000), p.EstimatedSize)
}

func TestPreviewWithoutSchema(t *testing.T) {
	a := assignment.NewAssignment(nil)
	_, err := a.Preview()
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)
}

func TestPreviewValidatePaths(t *testing.T) {
	p := assignment.NewDocumentPreview("bad|name", "ok/CON", "/", nil)
	errs := p.ValidatePaths()
	joined := strings.Join(errs, "; ")
	assert.Contains(t, joined, "invalid characters")
	assert.Contains(t, joined, "reserved system name")

	long := assignment.NewDocumentPreview(strings.Repeat("a", 250), strings.Repeat("b", 50), "/", nil)
	assert.Contains(t, strings.Join(long.ValidatePaths(), "; "), "too long")
}

func TestPreviewValidatePathsCustomSeparator(t *testing.T) {
	p := assignment.NewDocumentPreview("doc", "2024__CON", "__", nil)
	joined := strings.Join(p.ValidatePaths(), "; ")
	assert.Contains(t, joined, "reserved system name")

	clean := assignment.NewDocumentPreview("doc", "2024-01__Invoices", "__", nil)
	assert.Empty(t, clean.ValidatePaths())
}

func TestSnapshotRoundTrip(t *testing.T) {
	a := validAssignment(t)
	a.Validate()

	snap := a.ToSnapshot()
	restored := assignment.FromSnapshot(snap, a.Schema)

	assert.Equal(t, a.ID, restored.ID)
	assert.Equal(t, a.Pages, restored.Pages)
	assert.Equal(t, a.IndexValues, restored.IndexValues)
	assert.Equal(t, a.IsValid, restored.IsValid)
}

func TestClone(t *testing.T) {
	a := validAssignment(t)
	clone := a.Clone()

	assert.NotEqual(t, a.ID, clone.ID)
	assert.Equal(t, a.Pages, clone.Pages)
	assert.Equal(t, a.IndexValues, clone.IndexValues)

	clone.SetIndexValue("Category", "Other")
	assert.Equal(t, "Invoices", a.IndexValue("Category"))
}
