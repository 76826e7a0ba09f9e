package leadmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabResolve_ExactMatch(t *testing.T) {
	assert.Equal(t, "immediate", timelineVocab.resolve("מיידית"))
	assert.Equal(t, "1_3_months", timelineVocab.resolve("1–3 חודשים"))
	assert.Equal(t, "has_full_plans", plansStatusVocab.resolve("כן – יש תכניות מלאות"))
	assert.Equal(t, "valid", permitStatusVocab.resolve("כן – היתר בתוקף"))
	assert.Equal(t, "full", siteAccessVocab.resolve("גישה מלאה"))
}

func TestVocabResolve_TrimsWhitespace(t *testing.T) {
	assert.Equal(t, "immediate", timelineVocab.resolve("  מיידית  "))
}

func TestVocabResolve_SubstringMatch(t *testing.T) {
	// Answer contains a vocabulary key.
	assert.Equal(t, "in_planning", plansStatusVocab.resolve("אנחנו בתהליך תכנון כרגע"))
	// Answer is contained in a vocabulary key.
	assert.Equal(t, "partial", siteAccessVocab.resolve("גישה חלקית"))
}

func TestVocabResolve_SubstringFirstMatchWins(t *testing.T) {
	// "מיידית" appears in two entries; the first declared entry wins.
	assert.Equal(t, "immediate", timelineVocab.resolve("מיידית בערך"))
}

func TestVocabResolve_UnknownSentinel(t *testing.T) {
	assert.Equal(t, OtherOrUnknown, timelineVocab.resolve("מתישהו בעתיד הרחוק מאוד"))
	assert.Equal(t, OtherOrUnknown, mamadVariantVocab.resolve("xyz"))
}

// Every vocabulary must resolve each of its own keys to the documented code.
func TestVocabResolve_TotalCoverage(t *testing.T) {
	vocabs := map[string]vocab{
		"timeline":               timelineVocab,
		"plans_status":           plansStatusVocab,
		"permit_status":          permitStatusVocab,
		"building_type":          buildingTypeVocab,
		"site_access":            siteAccessVocab,
		"mamad_variant":          mamadVariantVocab,
		"private_stage":          privateStageVocab,
		"private_size_bucket":    privateSizeBucketVocab,
		"private_special_struct": privateSpecialStructVocab,
		"arch_service":           archServiceVocab,
		"arch_property_type":     archPropertyTypeVocab,
		"arch_planning_stage":    archPlanningStageVocab,
		"arch_existing_docs":     archExistingDocsVocab,
		"reno_type":              renoTypeVocab,
		"reno_size_bucket":       renoSizeBucketVocab,
		"reno_has_plan":          renoHasPlanVocab,
		"is_occupied":            isOccupiedVocab,
	}
	for name, v := range vocabs {
		for _, e := range v {
			assert.Equal(t, e.code, v.resolve(e.text), "%s: key %q", name, e.text)
		}
	}
}

func TestResolveTrack(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"mamad", "mamad"},
		{"private_home", "private_home"},
		{"renovation", "renovation"},
		{"architecture", "architecture"},
		{`ממ"ד`, "mamad"},
		{"ממד", "mamad"},
		{"בנייה פרטית", "private_home"},
		{"שיפוץ", "renovation"},
		{"עבודות גמר", "renovation"},
		{"אדריכלות", "architecture"},
		{"רישוי", "architecture"},
		{"עיצוב פנים", "architecture"},
		{"  mamad  ", "mamad"},
		{"", ""},
		{"something else", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveTrack(tt.input), "input %q", tt.input)
	}
}

func TestMapPayload_CommonFields(t *testing.T) {
	fields := MapPayload("mamad", map[string]any{
		"timeline":      "מיידית",
		"plans_status":  "אין תכנון",
		"permit_status": "אין היתר",
		"building_type": "בית פרטי / דירת קרקע",
		"site_access":   "גישה מלאה",
		"full_name":     "  דוד כהן ",
		"location":      "תל אביב, הרצל 5",
	})

	assert.Equal(t, "mamad", fields.BotTrack)
	require.NotNil(t, fields.StartTimeline)
	assert.Equal(t, "immediate", *fields.StartTimeline)
	require.NotNil(t, fields.PlansStatus)
	assert.Equal(t, "none_need_planning", *fields.PlansStatus)
	require.NotNil(t, fields.PermitStatus)
	assert.Equal(t, "none_need_support", *fields.PermitStatus)
	require.NotNil(t, fields.BuildingType)
	assert.Equal(t, "private_or_ground", *fields.BuildingType)
	require.NotNil(t, fields.SiteAccess)
	assert.Equal(t, "full", *fields.SiteAccess)
	require.NotNil(t, fields.FullName)
	assert.Equal(t, "דוד כהן", *fields.FullName)
	require.NotNil(t, fields.City)
	assert.Equal(t, "תל אביב", *fields.City)
	require.NotNil(t, fields.Street)
	assert.Equal(t, "הרצל 5", *fields.Street)
}

func TestMapPayload_StartTimelineKeyPreference(t *testing.T) {
	fields := MapPayload("renovation", map[string]any{
		"timeline":       "מיידית",
		"start_timeline": "לא מוגדר",
	})
	require.NotNil(t, fields.StartTimeline)
	assert.Equal(t, "immediate", *fields.StartTimeline, "the timeline key takes precedence")
}

func TestMapPayload_LocationSingleSegment(t *testing.T) {
	fields := MapPayload("renovation", map[string]any{"location": "חיפה"})
	require.NotNil(t, fields.City)
	assert.Equal(t, "חיפה", *fields.City)
	assert.Nil(t, fields.Street)
}

func TestMapPayload_CityStreetFallbackKeys(t *testing.T) {
	fields := MapPayload("renovation", map[string]any{
		"city":   " רעננה ",
		"street": " אחוזה ",
	})
	require.NotNil(t, fields.City)
	assert.Equal(t, "רעננה", *fields.City)
	require.NotNil(t, fields.Street)
	assert.Equal(t, "אחוזה", *fields.Street)
}

func TestMapPayload_Mamad(t *testing.T) {
	fields := MapPayload("mamad", map[string]any{
		"mamad_variant": `ממ"ד 12 מ"ר כולל חדר רחצה`,
	})
	require.NotNil(t, fields.MamadVariant)
	assert.Equal(t, "m12_with_bath", *fields.MamadVariant)
}

func TestMapPayload_PrivateHome(t *testing.T) {
	fields := MapPayload("private_home", map[string]any{
		"private_stage":  "בניית שלד בלבד",
		"estimated_size": "עד 120",
		"private_special_struct": []any{"מרתף", "בריכה"},
	})
	require.NotNil(t, fields.PrivateStage)
	assert.Equal(t, "shell_only", *fields.PrivateStage)
	require.NotNil(t, fields.EstimatedSizeBucket)
	assert.Equal(t, "up_to_120", *fields.EstimatedSizeBucket)
	assert.ElementsMatch(t, []string{"basement", "pool"}, fields.PrivateSpecialStruct)
}

func TestMapPayload_PrivateHome_PoolRoofCompoundRule(t *testing.T) {
	fields := MapPayload("private_home", map[string]any{
		"private_special_struct": []any{"בריכה על גג הבית"},
	})
	// One phrase mentioning both pool and roof must yield both codes.
	assert.Contains(t, fields.PrivateSpecialStruct, "pool")
	assert.Contains(t, fields.PrivateSpecialStruct, "roof_tiles")
}

func TestMapPayload_PrivateHome_DuplicatesCollapsed(t *testing.T) {
	fields := MapPayload("private_home", map[string]any{
		"private_special_struct": []any{"בריכה", "בריכה", "מרתף"},
	})
	assert.ElementsMatch(t, []string{"pool", "basement"}, fields.PrivateSpecialStruct)
}

func TestMapPayload_PrivateHome_SingleStringStruct(t *testing.T) {
	fields := MapPayload("private_home", map[string]any{
		"private_special_struct": "מרתף",
	})
	assert.Equal(t, []string{"basement"}, fields.PrivateSpecialStruct)
}

func TestMapPayload_Renovation(t *testing.T) {
	fields := MapPayload("renovation", map[string]any{
		"reno_type":      "שיפוץ כללי מקיף",
		"estimated_size": "מעל 120",
		"reno_has_plan":  "אין תכנית",
		"is_occupied":    "כן",
	})
	require.NotNil(t, fields.RenoType)
	assert.Equal(t, "full", *fields.RenoType)
	require.NotNil(t, fields.EstimatedSizeBucket)
	assert.Equal(t, "120_plus", *fields.EstimatedSizeBucket)
	require.NotNil(t, fields.RenoHasPlan)
	assert.Equal(t, "none", *fields.RenoHasPlan)
	require.NotNil(t, fields.IsOccupied)
	assert.Equal(t, "true", *fields.IsOccupied)
}

func TestMapPayload_Renovation_OccupiedFreeTextUnset(t *testing.T) {
	fields := MapPayload("renovation", map[string]any{"is_occupied": "אולי"})
	assert.Nil(t, fields.IsOccupied)
}

func TestMapPayload_Architecture(t *testing.T) {
	fields := MapPayload("architecture", map[string]any{
		"arch_service":        "עיצוב פנים בלבד",
		"arch_property_type":  "דירה קיימת",
		"arch_planning_stage": "רעיון / סקיצה",
		"arch_existing_docs":  []any{"מדידה", "סקיצה"},
	})
	require.NotNil(t, fields.ArchService)
	assert.Equal(t, "interior_only", *fields.ArchService)
	require.NotNil(t, fields.ArchPropertyType)
	assert.Equal(t, "existing_apartment", *fields.ArchPropertyType)
	require.NotNil(t, fields.ArchPlanningStage)
	assert.Equal(t, "idea_or_sketch", *fields.ArchPlanningStage)
	assert.ElementsMatch(t, []string{"survey", "sketch"}, fields.ArchExistingDocs)
}

func TestMapPayload_UnknownTrack_CommonFieldsOnly(t *testing.T) {
	fields := MapPayload("garden_landscaping", map[string]any{
		"timeline":      "מיידית",
		"mamad_variant": `ממ"ד 12 מ"ר כולל חדר רחצה`,
	})
	assert.Equal(t, "garden_landscaping", fields.BotTrack)
	require.NotNil(t, fields.StartTimeline)
	assert.Equal(t, "immediate", *fields.StartTimeline)
	assert.Nil(t, fields.MamadVariant, "track-specific fields must not map for unknown tracks")
}

func TestMapPayload_UnrecognizedAnswersNeverDropped(t *testing.T) {
	fields := MapPayload("mamad", map[string]any{
		"timeline":      "טקסט חופשי לגמרי",
		"mamad_variant": "טקסט חופשי לגמרי",
	})
	require.NotNil(t, fields.StartTimeline)
	assert.Equal(t, OtherOrUnknown, *fields.StartTimeline)
	require.NotNil(t, fields.MamadVariant)
	assert.Equal(t, OtherOrUnknown, *fields.MamadVariant)
}

func TestSplitLocation(t *testing.T) {
	city, street := splitLocation("תל אביב, הרצל 5")
	assert.Equal(t, "תל אביב", city)
	assert.Equal(t, "הרצל 5", street)

	city, street = splitLocation("חיפה")
	assert.Equal(t, "חיפה", city)
	assert.Empty(t, street)

	city, street = splitLocation("ירושלים, יפו, 23")
	assert.Equal(t, "ירושלים", city, "split happens on the first comma only")
	assert.Equal(t, "יפו, 23", street)
}
