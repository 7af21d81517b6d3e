package wizard

import (
	"testing"

	"social-support-wizard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepFor(t *testing.T) {
	for i := 1; i <= models.TotalSteps; i++ {
		s, ok := StepFor(i)
		require.True(t, ok)
		assert.Equal(t, i, s.Index)
		assert.NotEmpty(t, s.Schema)
	}
	_, ok := StepFor(0)
	assert.False(t, ok)
	_, ok = StepFor(models.TotalSteps + 1)
	assert.False(t, ok)
}

func TestSteps_Linked(t *testing.T) {
	all := Steps()
	require.Len(t, all, models.TotalSteps)
	assert.Zero(t, all[0].Prev)
	assert.Zero(t, all[len(all)-1].Next)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].Index, all[i].Prev)
		assert.Equal(t, all[i].Index, all[i-1].Next)
	}
}

func TestSteps_SchemaCoversSectionFields(t *testing.T) {
	data := models.DefaultApplicationData()
	for _, s := range Steps() {
		values, ignored, err := s.merge(data, nil)
		require.NoError(t, err)
		assert.Empty(t, ignored)
		for key := range values {
			_, ok := s.Schema.Lookup(key)
			assert.True(t, ok, "%s.%s has no rule", s.Section, key)
		}
	}
}

func TestStep_Validate(t *testing.T) {
	s, _ := StepFor(3)
	data := models.DefaultApplicationData()
	assert.Len(t, s.Validate(data), 3)

	data.SituationDescriptions = models.SituationDescriptions{
		CurrentFinancialSituation: narrative(50),
		EmploymentCircumstances:   narrative(50),
		ReasonForApplying:         narrative(50),
	}
	assert.Empty(t, s.Validate(data))
}
