package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckTaskInput(t *testing.T) {
	ok := TaskInput{Title: "Ship", Deadline: deadline(), Progress: 75, GroupIDs: []string{"g1"}}
	assert.Nil(t, check(ok).orNil())

	ok.Status, ok.Priority = "À faire", "Basse"
	assert.Nil(t, check(ok).orNil())
}

func TestTaskUpdateCheck(t *testing.T) {
	verr := TaskUpdate{Title: ptr(" "), Status: ptr("nope"), Progress: ptr(10)}.check()
	assert.Equal(t, map[string]string{
		"title":    "must not be blank",
		"status":   "is not a recognized status",
		"progress": "must be one of 0, 25, 50, 75, 100",
	}, verr.Fields)

	assert.Nil(t, TaskUpdate{Priority: ptr("low")}.check().orNil())
	assert.True(t, TaskUpdate{}.IsZero())
}

func TestProjectUpdateCheckUsesCurrentDates(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	current := ProjectInput{StartDate: &start, EndDate: &end}

	before := start.AddDate(0, 0, -1)
	verr := ProjectUpdate{EndDate: &before}.check(current)
	assert.Contains(t, verr.Fields, "end_date")

	later := end.AddDate(0, 0, 1)
	verr = ProjectUpdate{StartDate: &later}.check(current)
	assert.Contains(t, verr.Fields, "end_date")

	assert.Nil(t, ProjectUpdate{StartDate: &before}.check(current).orNil())
}

func TestTrimAll(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, trimAll([]string{" a", "", "b", "a "}))
	assert.Nil(t, trimAll(nil))
}

func TestUpdateTitleMustNotBeBlank(t *testing.T) {
	assert.Nil(t, TaskUpdate{Title: ptr("Renamed")}.check().orNil())
	assert.Nil(t, ProjectUpdate{Title: ptr("Renamed")}.check(ProjectInput{}).orNil())

	verr := ProjectUpdate{Title: ptr("\t ")}.check(ProjectInput{})
	assert.Equal(t, "must not be blank", verr.Fields["title"])
}
