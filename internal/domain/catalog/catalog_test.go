package catalog

import (
	"testing"

	"lifecycle_notification_service/internal/domain/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(defs []EventDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Code
	}
	return out
}

func TestDefault_AllRowsValid(t *testing.T) {
	c := Default()

	assert.Empty(t, c.Rejected())
	assert.Equal(t, len(builtinDefinitions()), c.Len())
	assert.Equal(t, DefaultVersion, c.Version())
	assert.Same(t, c, Default())
}

func TestDefault_EveryStageHasEvents(t *testing.T) {
	c := Default()
	for _, s := range lifecycle.Stages() {
		assert.NotEmpty(t, c.EventsForStage(s, lifecycle.GenderUnknown), "stage %s", s)
	}
}

func TestDefault_Pneumococcal65(t *testing.T) {
	def, ok := Default().Lookup("pneumococcal_65years")
	require.True(t, ok)

	require.NotNil(t, def.TargetAgeYears)
	assert.Nil(t, def.TargetAgeMonths)
	assert.Equal(t, 65, *def.TargetAgeYears)
	assert.Equal(t, TargetBoth, def.TargetGender)
	assert.Equal(t, []lifecycle.Stage{lifecycle.StageElderly}, def.ApplicableStages)
	assert.False(t, def.OneTime())
}

func TestEventsForStage_GenderFiltering(t *testing.T) {
	c := Default()

	female := codes(c.EventsForStage(lifecycle.StageAdolescent, lifecycle.GenderFemale))
	male := codes(c.EventsForStage(lifecycle.StageAdolescent, lifecycle.GenderMale))
	unknown := codes(c.EventsForStage(lifecycle.StageAdolescent, lifecycle.GenderUnknown))

	assert.Contains(t, female, "hpv_12years")
	assert.NotContains(t, male, "hpv_12years")
	// Unknown gender does not suppress gender-specific events.
	assert.Contains(t, unknown, "hpv_12years")
	assert.Contains(t, male, "tdap_11years")

	adultMale := codes(c.EventsForStage(lifecycle.StageAdult, lifecycle.GenderMale))
	assert.Contains(t, adultMale, "prostate_check_50years")
	assert.NotContains(t, adultMale, "breast_cancer_40years")
	assert.NotContains(t, adultMale, "cervical_cancer_20years")
}

func TestEventsForStage_StageFiltering(t *testing.T) {
	c := Default()

	for _, e := range c.EventsForStage(lifecycle.StageInfant, lifecycle.GenderUnknown) {
		assert.True(t, e.AppliesToStage(lifecycle.StageInfant), e.Code)
	}
	elderly := codes(c.EventsForStage(lifecycle.StageElderly, lifecycle.GenderUnknown))
	assert.Contains(t, elderly, "pneumococcal_65years")
	assert.Contains(t, elderly, "colorectal_cancer_50years")
	assert.NotContains(t, elderly, "hepb_1st")
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := Default()

	events := c.EventsForStage(lifecycle.StageElderly, lifecycle.GenderUnknown)
	require.NotEmpty(t, events)
	*events[0].TargetAgeYears = 1
	events[0].ApplicableStages[0] = lifecycle.StageInfant

	again := c.EventsForStage(lifecycle.StageElderly, lifecycle.GenderUnknown)
	assert.NotEqual(t, 1, *again[0].TargetAgeYears)
	assert.Equal(t, lifecycle.StageElderly, again[0].ApplicableStages[len(again[0].ApplicableStages)-1])
}

func TestNew_DropsMismatchedRows(t *testing.T) {
	valid := atYears(checkup("ok", "정상", CategoryGeneralHealth, "p", adultOnly, "설명"), 30)

	bothTargets := atMonths(atYears(checkup("both_targets", "n", CategoryGeneralHealth, "p", adultOnly, "d"), 30), 12)
	noTarget := checkup("no_target", "n", CategoryGeneralHealth, "p", adultOnly, "d")
	badStage := atYears(checkup("bad_stage", "n", CategoryGeneralHealth, "p", []lifecycle.Stage{"toddler"}, "d"), 30)
	badGender := forGender(atYears(checkup("bad_gender", "n", CategoryGeneralHealth, "p", adultOnly, "d"), 30), "other")
	unreachable := atYears(checkup("unreachable", "n", CategoryGeneralHealth, "p", infantOnly, "d"), 65)
	missingSeries := atMonths(vaccine("missing_series", "n", CategoryInfectiousDisease, "", 1, infantOnly, "d"), 2)
	duplicate := atYears(checkup("ok", "중복", CategoryGeneralHealth, "p", adultOnly, "d"), 40)

	c := New("test", []EventDefinition{valid, bothTargets, noTarget, badStage, badGender, unreachable, missingSeries, duplicate})

	assert.Equal(t, 1, c.Len())
	def, ok := c.Lookup("ok")
	require.True(t, ok)
	assert.Equal(t, "정상", def.Name)

	rejected := c.Rejected()
	assert.Len(t, rejected, 7)
	for _, err := range rejected {
		assert.ErrorIs(t, err, ErrCatalogMismatch)
	}
}

func TestAppliesToGender(t *testing.T) {
	t.Parallel()

	female := EventDefinition{TargetGender: TargetFemale}
	both := EventDefinition{TargetGender: TargetBoth}

	assert.True(t, female.AppliesToGender(lifecycle.GenderFemale))
	assert.False(t, female.AppliesToGender(lifecycle.GenderMale))
	assert.True(t, female.AppliesToGender(lifecycle.GenderUnknown))
	assert.True(t, both.AppliesToGender(lifecycle.GenderMale))
}

func TestOffsetMonths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 780, EventDefinition{TargetAgeYears: years(65)}.OffsetMonths())
	assert.Equal(t, 2, EventDefinition{TargetAgeMonths: months(2)}.OffsetMonths())
}
