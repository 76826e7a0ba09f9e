// Package leadmap translates free-text bot answers into structured lead
// field codes using fixed per-track Hebrew vocabularies.
package leadmap

import "strings"

// OtherOrUnknown is the sentinel code returned when an answer matches no
// vocabulary entry. Mapping never fails; every answer maps to some code.
const OtherOrUnknown = "other_or_unknown"

// vocabEntry pairs a Hebrew answer text with its structured code.
type vocabEntry struct {
	text string
	code string
}

// vocab is an ordered vocabulary. Entries are scanned in declaration order
// so substring matches resolve deterministically (Go maps iterate in random
// order and would make the first-match rule flaky).
type vocab []vocabEntry

// resolve maps a single free-text answer to a code: exact trimmed match
// first, then a bidirectional substring scan in entry order, then the
// OtherOrUnknown sentinel.
func (v vocab) resolve(value string) string {
	value = strings.TrimSpace(value)
	for _, e := range v {
		if e.text == value {
			return e.code
		}
	}
	for _, e := range v {
		if strings.Contains(value, e.text) || strings.Contains(e.text, value) {
			return e.code
		}
	}
	return OtherOrUnknown
}

// lookup maps an answer to a code by exact trimmed match only.
func (v vocab) lookup(value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, e := range v {
		if e.text == value {
			return e.code, true
		}
	}
	return "", false
}

var timelineVocab = vocab{
	{"מיידית", "immediate"},
	{"מיידית / בחודש הקרוב", "immediate"},
	{"1–3 חודשים", "1_3_months"},
	{"לאחר קבלת היתר", "after_permit"},
	{"עדיין לא יודעים / לטווח ארוך", "long_term"},
	{"3–6 חודשים", "long_term"},
	{"עדיין לא בטוחים", "unknown"},
	{"לא מוגדר", "unknown"},
}

var plansStatusVocab = vocab{
	{"אין תכנון", "none_need_planning"},
	{"בתהליך תכנון", "in_planning"},
	{"כן – יש תכניות מלאות", "has_full_plans"},
}

var permitStatusVocab = vocab{
	{"כן – היתר בתוקף", "valid"},
	{"היתר בתהליך הגשה", "in_process"},
	{"אין היתר", "none_need_support"},
}

var buildingTypeVocab = vocab{
	{"בית פרטי / דירת קרקע", "private_or_ground"},
	{"דירה בקומה / בניין רב קומות", "apartment_or_building"},
}

var siteAccessVocab = vocab{
	{"גישה מלאה", "full"},
	{"גישה חלקית", "partial"},
	{"גישה רגלית בלבד", "pedestrian_only"},
}

var mamadVariantVocab = vocab{
	{`ממ"ד ברישוי מקוצר (9 מ"ר נטו)`, "fast_license_9"},
	{`ממ"ד בהיתר מלא (גדול מ-9)`, "full_permit_gt9"},
	{`ממ"ד 12 מ"ר כולל חדר רחצה`, "m12_with_bath"},
	{`ממ"ד 15 מ"ר כולל חדר רחצה`, "m15_with_bath"},
}

var privateStageVocab = vocab{
	{"בניית וילה / בית פרטי מלא", "full_house"},
	{"בניית שלד בלבד", "shell_only"},
	{"תוספת קומה / הרחבת בית קיים", "add_floor_or_expand"},
	{"עבודות גמר מלאות", "finishes_full"},
}

var privateSizeBucketVocab = vocab{
	{"עד 120", "up_to_120"},
	{"120–250", "120_250"},
	{"מעל 250", "250_plus"},
}

var privateSpecialStructVocab = vocab{
	{"מרתף", "basement"},
	{`ממ"ד`, "mamad"},
	{"בריכה", "pool"},
	{"גג רעפים", "roof_tiles"},
	{"מספר פריטים", "multiple"},
}

var archServiceVocab = vocab{
	{"תכנון עד ביצוע", "planning_to_execution"},
	{"תכנון אדריכלי מלא לפרויקט חדש", "full_arch_new"},
	{"הוצאת היתר בנייה / תכנון תוספת", "permit_or_addition"},
	{"עיצוב פנים בלבד", "interior_only"},
}

var archPropertyTypeVocab = vocab{
	{"בית פרטי — עד 150", "house_upto150"},
	{"בית פרטי — מעל 150", "house_over150"},
	{"דירה קיימת", "existing_apartment"},
	{"מגרש ריק / תוספת", "empty_plot_or_addition"},
	{"לא בטוחים", "unknown"},
}

var archPlanningStageVocab = vocab{
	{"אין תכנון", "none"},
	{"רעיון / סקיצה", "idea_or_sketch"},
	{"תכנון קיים — נדרש ליווי להיתר", "existing_need_permit"},
	{"תכנון כמעט מוכן", "almost_ready_adjust"},
}

var archExistingDocsVocab = vocab{
	{"מדידה", "survey"},
	{"תשריט", "map"},
	{"אדריכלות", "architecture"},
	{"קונסטרוקציה", "structural"},
	{"סקיצה", "sketch"},
	{"אין", "none"},
}

var renoTypeVocab = vocab{
	{"שיפוץ כללי מקיף", "full"},
	{"שיפוץ חדרי רחצה / מטבח", "bath_kitchen"},
	{"עבודות גמר אחרי שלד", "finishes_after_shell"},
	{"תוספת בנייה + שיפוץ", "add_building_plus_reno"},
}

var renoSizeBucketVocab = vocab{
	{"עד 60", "up_to_60"},
	{"60–120", "60_120"},
	{"מעל 120", "120_plus"},
}

var renoHasPlanVocab = vocab{
	{"כן — תכנית מלאה", "full"},
	{"תכנית חלקית / סקיצה", "partial"},
	{"אין תכנית", "none"},
}

var isOccupiedVocab = vocab{
	{"כן", "true"},
	{"לא", "false"},
}

var trackNameVocab = vocab{
	{`ממ"ד`, "mamad"},
	{"ממד", "mamad"},
	{"בנייה פרטית", "private_home"},
	{"עבודות גמר", "renovation"},
	{"שיפוץ", "renovation"},
	{"אדריכלות", "architecture"},
	{"רישוי", "architecture"},
	{"עיצוב פנים", "architecture"},
	{"אדריכלות / רישוי / עיצוב פנים", "architecture"},
}
