package workflow

// builtinDefinitions returns the interview catalogs shipped with the panel.
// Question order is the interview order; indexes are explicit so branching
// stays stable if questions are reordered in source.
func builtinDefinitions() []Definition {
	return []Definition{characterWorkflow(), locationWorkflow(), sceneWorkflow()}
}

func characterWorkflow() Definition {
	return Definition{
		ID:         "character-interview-v1",
		EntityKind: KindCharacter,
		Questions: []Question{
			{Index: 0, Prompt: "Let's build your character. What is their name?", TargetField: "name", Required: true},
			{Index: 1, Prompt: "What is their age range?", TargetField: "age_range", Required: true},
			{Index: 2, Prompt: "What role do they play in the story? (protagonist, antagonist, supporting, background)", TargetField: "role", Required: true},
			{Index: 3, Prompt: "Describe their physical appearance.", TargetField: "appearance", Required: true},
			{Index: 4, Prompt: "What are their defining personality traits?", TargetField: "personality", Required: true},
			{Index: 5, Prompt: "Give me a short backstory for them.", TargetField: "backstory", Required: true,
				SkipIf: func(a map[string]string) bool { return a["role"] == "background" }},
			{Index: 6, Prompt: "What motivates them? What do they want?", TargetField: "motivation", Required: true,
				SkipIf: func(a map[string]string) bool { return a["role"] == "background" }},
			{Index: 7, Prompt: "How do they speak? Describe their voice and manner.", TargetField: "voice", Required: false},
		},
		OutputSchema: []FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "age_range", Label: "Age Range", Required: true},
			{Name: "role", Label: "Role", Required: true},
			{Name: "appearance", Label: "Appearance", Required: true},
			{Name: "personality", Label: "Personality", Required: true},
			{Name: "backstory", Label: "Backstory", Required: true},
			{Name: "motivation", Label: "Motivation", Required: true},
			{Name: "voice", Label: "Voice", Required: false},
		},
	}
}

func locationWorkflow() Definition {
	return Definition{
		ID:         "location-interview-v1",
		EntityKind: KindLocation,
		Questions: []Question{
			{Index: 0, Prompt: "What is this location called?", TargetField: "name", Required: true},
			{Index: 1, Prompt: "Is it an interior or exterior location?", TargetField: "setting", Required: true},
			{Index: 2, Prompt: "What time period does it belong to?", TargetField: "era", Required: true},
			{Index: 3, Prompt: "Describe the atmosphere and mood of the place.", TargetField: "atmosphere", Required: true},
			{Index: 4, Prompt: "What are the key visual details a camera would pick up?", TargetField: "visual_details", Required: true},
			{Index: 5, Prompt: "Any notable sounds or ambient noise here?", TargetField: "soundscape", Required: false,
				SkipIf: func(a map[string]string) bool { return a["setting"] == "interior" && a["atmosphere"] == "silent" }},
		},
		OutputSchema: []FieldSpec{
			{Name: "name", Label: "Name", Required: true},
			{Name: "setting", Label: "Setting", Required: true},
			{Name: "era", Label: "Era", Required: true},
			{Name: "atmosphere", Label: "Atmosphere", Required: true},
			{Name: "visual_details", Label: "Visual Details", Required: true},
			{Name: "soundscape", Label: "Soundscape", Required: false},
		},
	}
}

func sceneWorkflow() Definition {
	return Definition{
		ID:         "scene-interview-v1",
		EntityKind: KindScene,
		Questions: []Question{
			{Index: 0, Prompt: "What is the working title of this scene?", TargetField: "title", Required: true},
			{Index: 1, Prompt: "Where does the scene take place?", TargetField: "location", Required: true},
			{Index: 2, Prompt: "INT or EXT, and what time of day?", TargetField: "slugline", Required: true},
			{Index: 3, Prompt: "Which characters appear in the scene?", TargetField: "characters", Required: true},
			{Index: 4, Prompt: "What happens? Give me the beats of the action.", TargetField: "action", Required: true},
			{Index: 5, Prompt: "What is the dramatic purpose of this scene?", TargetField: "purpose", Required: true},
			{Index: 6, Prompt: "Any key lines of dialogue you already hear?", TargetField: "key_dialogue", Required: false,
				SkipIf: func(a map[string]string) bool { return a["characters"] == "none" }},
		},
		OutputSchema: []FieldSpec{
			{Name: "title", Label: "Title", Required: true},
			{Name: "location", Label: "Location", Required: true},
			{Name: "slugline", Label: "Slugline", Required: true},
			{Name: "characters", Label: "Characters", Required: true},
			{Name: "action", Label: "Action", Required: true},
			{Name: "purpose", Label: "Purpose", Required: true},
			{Name: "key_dialogue", Label: "Key Dialogue", Required: false},
		},
	}
}
