package models_test

import (
	"github.com/APTrust/ingest/models"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestNewWorkSummary(t *testing.T) {
	s := models.NewWorkSummary()
	assert.False(t, s.Attempted)
	assert.NotNil(t, s.Errors)
	assert.Equal(t, 0, len(s.Errors))
	assert.True(t, s.StartedAt.IsZero())
	assert.True(t, s.FinishedAt.IsZero())
}

func TestWorkSummaryStart(t *testing.T) {
	s := models.NewWorkSummary()
	s.Start()
	assert.True(t, s.Attempted)
	assert.False(t, s.StartedAt.IsZero())
}

func TestWorkSummaryFinish(t *testing.T) {
	s := models.NewWorkSummary()
	assert.False(t, s.Finished())
	s.Finish()
	assert.True(t, s.Finished())
}

func TestWorkSummaryRunTime(t *testing.T) {
	s := models.NewWorkSummary()
	assert.Equal(t, time.Duration(0), s.RunTime())
	s.StartedAt = time.Now().Add(-5 * time.Second)
	s.FinishedAt = s.StartedAt.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, s.RunTime())
}

func TestWorkSummarySucceeded(t *testing.T) {
	s := models.NewWorkSummary()
	s.Start()
	assert.False(t, s.Succeeded())
	s.Finish()
	assert.True(t, s.Succeeded())
	s.AddError("%s went wrong", "something")
	assert.False(t, s.Succeeded())
}

func TestWorkSummaryErrors(t *testing.T) {
	s := models.NewWorkSummary()
	assert.False(t, s.HasErrors())
	assert.Equal(t, "", s.FirstError())
	s.AddError("Error %d", 1)
	s.AddError("Error %d", 2)
	assert.True(t, s.HasErrors())
	assert.Equal(t, "Error 1", s.FirstError())
	assert.Equal(t, []string{"Error 1", "Error 2"}, s.Errors)
}
