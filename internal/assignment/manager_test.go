package assignment_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scandex/internal/assignment"
	"scandex/internal/domain"
)

func TestManagerAddIndexesPages(t *testing.T) {
	m := assignment.NewManager()
	a := validAssignment(t)
	m.Add(a)

	got := m.AssignmentForPage(page("f1", 1))
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Nil(t, m.AssignmentForPage(page("f1", 99)))
}

func TestManagerRemoveClearsIndex(t *testing.T) {
	m := assignment.NewManager()
	a := validAssignment(t)
	m.Add(a)

	require.True(t, m.Remove(a.ID))
	assert.Nil(t, m.AssignmentForPage(page("f1", 1)))
	assert.Empty(t, m.CheckPageConflicts(a.Pages))
	assert.False(t, m.Remove(a.ID))
}

func TestCheckPageConflicts(t *testing.T) {
	m := assignment.NewManager()
	a := validAssignment(t)
	m.Add(a)

	conflicts := m.CheckPageConflicts([]domain.PageReference{
		page("f1", 1), page("f1", 3), page("f2", 1),
	})
	require.Len(t, conflicts, 1)
	assert.Equal(t, page("f1", 1), conflicts[0])
}

func TestPageIndexStaysInSync(t *testing.T) {
	m := assignment.NewManager()

	a := assignment.NewAssignment(testSchema(t))
	a.AddPages([]domain.PageReference{page("f1", 1), page("f1", 2)})
	m.Add(a)

	b := assignment.NewAssignment(testSchema(t))
	b.AddPage(page("f1", 3))
	m.Add(b)

	all := []domain.PageReference{page("f1", 1), page("f1", 2), page("f1", 3), page("f1", 4)}
	assert.Equal(t, []domain.PageReference{page("f1", 4)}, m.UnassignedPages(all))

	m.Remove(a.ID)
	unassigned := m.UnassignedPages(all)
	assert.Len(t, unassigned, 3)
	assert.NotContains(t, unassigned, page("f1", 3))
}

func TestFilenameConflictsRequirePreviews(t *testing.T) {
	m := assignment.NewManager()

	a := validAssignment(t)
	b := validAssignment(t) // identical values, different pages
	b.ClearPages()
	b.AddPage(page("f2", 1))

	m.Add(a)
	m.Add(b)

	// No previews generated yet, nothing to compare.
	assert.Empty(t, m.FilenameConflicts())

	m.ValidateAll()
	conflicts := m.FilenameConflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, a.ID, conflicts[0].AssignmentA)
	assert.Equal(t, b.ID, conflicts[0].AssignmentB)
	assert.Equal(t, "Invoices/2024-01-15.pdf", conflicts[0].Path)
}

func TestManagerStatistics(t *testing.T) {
	m := assignment.NewManager()
	a := validAssignment(t)
	b := assignment.NewAssignment(testSchema(t)) // invalid: no pages, no values
	m.Add(a)
	m.Add(b)
	m.ValidateAll()

	stats := m.Statistics()
	assert.Equal(t, 2, stats["total_assignments"])
	assert.Equal(t, 1, stats["valid_assignments"])
	assert.Equal(t, 1, stats["invalid_assignments"])
	assert.Equal(t, 2, stats["total_pages"])
	assert.Equal(t, 1, stats["unique_files"])
}

func TestManagerAllPreservesInsertionOrder(t *testing.T) {
	m := assignment.NewManager()
	first := assignment.NewAssignment(nil)
	second := assignment.NewAssignment(nil)
	third := assignment.NewAssignment(nil)
	m.Add(first)
	m.Add(second)
	m.Add(third)

	all := m.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID},
		[]string{all[0].ID, all[1].ID, all[2].ID})
}

func TestManagerClear(t *testing.T) {
	m := assignment.NewManager()
	m.Add(validAssignment(t))
	m.Clear()

	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.All())
	assert.Nil(t, m.AssignmentForPage(page("f1", 1)))
}

func TestWithAssignmentsSeesInsertionOrder(t *testing.T) {
	m := assignment.NewManager()
	first := validAssignment(t)
	second := validAssignment(t)
	m.Add(first)
	m.Add(second)

	var seen []string
	m.WithAssignments(func(assignments []*assignment.PageAssignment) {
		for _, a := range assignments {
			seen = append(seen, a.ID)
		}
	})
	assert.Equal(t, []string{first.ID, second.ID}, seen)
}

func TestValidationPassesExcludeConcurrentMutation(t *testing.T) {
	m := assignment.NewManager()
	for i := 0; i < 8; i++ {
		a := assignment.NewAssignment(testSchema(t))
		a.AddPages([]domain.PageReference{page(fmt.Sprintf("f%d", i), 1)})
		a.UpdateIndexValues(map[string]string{"Category": "Invoices", "Date": fmt.Sprintf("2024-01-%02d", i+1)})
		m.Add(a)
	}

	churn := make([]*assignment.PageAssignment, 50)
	for i := range churn {
		a := assignment.NewAssignment(testSchema(t))
		a.AddPages([]domain.PageReference{page(fmt.Sprintf("g%d", i), 1)})
		a.UpdateIndexValues(map[string]string{"Category": "Receipts", "Date": "2024-02-01"})
		churn[i] = a
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.ValidateAll()
				m.FilenameConflicts()
				m.Statistics()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, a := range churn {
			m.Add(a)
			m.Remove(a.ID)
		}
	}()
	wg.Wait()

	results := m.ValidateAll()
	assert.Len(t, results, 8)
	for _, outcome := range results {
		assert.True(t, outcome.IsValid)
	}
}
