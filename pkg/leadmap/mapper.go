package leadmap

import "strings"

// MappedFields holds the structured codes mapped from one bot answer set.
// Nil pointers and nil slices mean the answer was absent; they are never
// merged onto a lead.
type MappedFields struct {
	BotTrack string

	// Common fields, mapped identically across all tracks.
	FullName            *string
	City                *string
	Street              *string
	StartTimeline       *string
	PlansStatus         *string
	PermitStatus        *string
	BuildingType        *string
	SiteAccess          *string
	EstimatedSizeBucket *string

	// Mamad track.
	MamadVariant *string

	// Private home track.
	PrivateStage         *string
	PrivateSpecialStruct []string

	// Architecture track.
	ArchService       *string
	ArchPropertyType  *string
	ArchPlanningStage *string
	ArchExistingDocs  []string

	// Renovation track.
	RenoType    *string
	RenoHasPlan *string
	IsOccupied  *string
}

// ResolveTrack maps a raw bot track name to a catalog track key. Accepts
// both canonical keys and the Hebrew labels the bot sends. Returns ""
// when the name resolves to no known track.
func ResolveTrack(track string) string {
	track = strings.TrimSpace(track)
	if track == "" {
		return ""
	}
	switch track {
	case "mamad", "private_home", "renovation", "architecture":
		return track
	}
	if code, ok := trackNameVocab.lookup(track); ok {
		return code
	}
	return ""
}

// MapPayload maps a track plus a set of free-text answers to structured
// field codes. Unknown tracks map the common fields only and tag the
// result with the literal track name.
func MapPayload(track string, answers map[string]any) MappedFields {
	result := mapCommonFields(answers)
	result.BotTrack = track

	switch track {
	case "mamad":
		mapMamadFields(answers, &result)
	case "private_home":
		mapPrivateHomeFields(answers, &result)
	case "renovation":
		mapRenovationFields(answers, &result)
	case "architecture":
		mapArchitectureFields(answers, &result)
	}
	return result
}

func mapCommonFields(answers map[string]any) MappedFields {
	var result MappedFields

	for _, key := range []string{"timeline", "start_timeline"} {
		if v, ok := answerString(answers, key); ok {
			result.StartTimeline = ptr(timelineVocab.resolve(v))
			break
		}
	}
	if v, ok := answerString(answers, "plans_status"); ok {
		result.PlansStatus = ptr(plansStatusVocab.resolve(v))
	}
	if v, ok := answerString(answers, "permit_status"); ok {
		result.PermitStatus = ptr(permitStatusVocab.resolve(v))
	}
	if v, ok := answerString(answers, "building_type"); ok {
		result.BuildingType = ptr(buildingTypeVocab.resolve(v))
	}
	if v, ok := answerString(answers, "site_access"); ok {
		result.SiteAccess = ptr(siteAccessVocab.resolve(v))
	}

	if loc, ok := answerString(answers, "location"); ok {
		city, street := splitLocation(loc)
		if city != "" {
			result.City = ptr(city)
		}
		if street != "" {
			result.Street = ptr(street)
		}
	} else {
		if v, ok := answerString(answers, "city"); ok {
			result.City = ptr(strings.TrimSpace(v))
		}
		if v, ok := answerString(answers, "street"); ok {
			result.Street = ptr(strings.TrimSpace(v))
		}
	}

	if v, ok := answerString(answers, "full_name"); ok {
		result.FullName = ptr(strings.TrimSpace(v))
	}
	return result
}

func mapMamadFields(answers map[string]any, result *MappedFields) {
	if v, ok := answerString(answers, "mamad_variant"); ok {
		result.MamadVariant = ptr(mamadVariantVocab.resolve(v))
	}
}

func mapPrivateHomeFields(answers map[string]any, result *MappedFields) {
	if v, ok := answerString(answers, "private_stage"); ok {
		result.PrivateStage = ptr(privateStageVocab.resolve(v))
	}
	if v, ok := firstAnswerString(answers, "estimated_size", "estimated_size_bucket"); ok {
		result.EstimatedSizeBucket = ptr(privateSizeBucketVocab.resolve(v))
	}
	if items, ok := answerList(answers, "private_special_struct"); ok {
		var mapped []string
		for _, item := range items {
			mapped = append(mapped, privateSpecialStructVocab.resolve(item))
			// An answer phrased as one item covering both a pool and a
			// tiled roof must still yield both codes.
			if strings.Contains(item, "בריכה") && strings.Contains(item, "גג") {
				mapped = append(mapped, "pool", "roof_tiles")
			}
		}
		result.PrivateSpecialStruct = dedupe(mapped)
	}
}

func mapRenovationFields(answers map[string]any, result *MappedFields) {
	if v, ok := answerString(answers, "reno_type"); ok {
		result.RenoType = ptr(renoTypeVocab.resolve(v))
	}
	if v, ok := firstAnswerString(answers, "estimated_size", "estimated_size_bucket"); ok {
		result.EstimatedSizeBucket = ptr(renoSizeBucketVocab.resolve(v))
	}
	if v, ok := answerString(answers, "reno_has_plan"); ok {
		result.RenoHasPlan = ptr(renoHasPlanVocab.resolve(v))
	}
	if v, ok := answerString(answers, "is_occupied"); ok {
		// Exact yes/no only; free text stays unset rather than guessed.
		if code, found := isOccupiedVocab.lookup(v); found {
			result.IsOccupied = ptr(code)
		}
	}
}

func mapArchitectureFields(answers map[string]any, result *MappedFields) {
	if v, ok := answerString(answers, "arch_service"); ok {
		result.ArchService = ptr(archServiceVocab.resolve(v))
	}
	if v, ok := answerString(answers, "arch_property_type"); ok {
		result.ArchPropertyType = ptr(archPropertyTypeVocab.resolve(v))
	}
	if v, ok := answerString(answers, "arch_planning_stage"); ok {
		result.ArchPlanningStage = ptr(archPlanningStageVocab.resolve(v))
	}
	if items, ok := answerList(answers, "arch_existing_docs"); ok {
		var mapped []string
		for _, item := range items {
			mapped = append(mapped, archExistingDocsVocab.resolve(item))
		}
		result.ArchExistingDocs = dedupe(mapped)
	}
}

// splitLocation splits a free-text "city, street" answer on the first
// comma. A single segment is the city; the street stays unset.
func splitLocation(location string) (city, street string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ""
	}
	if idx := strings.Index(location, ","); idx >= 0 {
		return strings.TrimSpace(location[:idx]), strings.TrimSpace(location[idx+1:])
	}
	return location, ""
}

// answerString extracts a non-empty string answer for key.
func answerString(answers map[string]any, key string) (string, bool) {
	v, ok := answers[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// firstAnswerString returns the first non-empty string answer among keys.
func firstAnswerString(answers map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := answerString(answers, key); ok {
			return v, true
		}
	}
	return "", false
}

// answerList extracts a list answer for key. A bare string answer is
// treated as a single-element list.
func answerList(answers map[string]any, key string) ([]string, bool) {
	v, ok := answers[key]
	if !ok {
		return nil, false
	}
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, false
		}
		return []string{val}, true
	case []string:
		if len(val) == 0 {
			return nil, false
		}
		return val, true
	case []any:
		var items []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return items, len(items) > 0
	default:
		return nil, false
	}
}

// dedupe collapses duplicate codes, keeping first-occurrence order.
func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	var out []string
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func ptr(s string) *string {
	return &s
}
