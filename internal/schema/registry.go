package schema

import "regexp"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// nameField is the shared leading field of every content type.
func nameField() ContentField {
	return ContentField{
		ID:       "name",
		Label:    "Name",
		Type:     FieldText,
		Required: true,
		Rules: []ValidationRule{
			{Kind: RuleRequired, Message: "name is required"},
			{Kind: RuleMax, Limit: 200, Message: "name must be at most 200 characters"},
		},
	}
}

func tagsField() ContentField {
	return ContentField{
		ID:    "tags",
		Label: "Tags",
		Type:  FieldMultiselect,
		Rules: []ValidationRule{
			{Kind: RuleMax, Limit: 20, Message: "at most 20 tags"},
		},
	}
}

func descriptionField() ContentField {
	return ContentField{
		ID:    "description",
		Label: "Description",
		Type:  FieldTextarea,
		Rules: []ValidationRule{
			{Kind: RuleMax, Limit: 2000, Message: "description must be at most 2000 characters"},
		},
	}
}

func imageField() ContentField {
	return ContentField{ID: "image", Label: "Image", Type: FieldImage}
}

// registry is the static content-type table, keyed by type id.
var registry = map[string]*ContentType{
	"npc": {
		ID:       "npc",
		Name:     "NPC",
		Plural:   "NPCs",
		Category: "characters",
		Dir:      "characters/npc",
		APIPath:  "/api/content/npc",
		Icon:     "user",
		Schema: ContentSchema{Fields: []ContentField{
			nameField(),
			{ID: "race", Label: "Race", Type: FieldText},
			{ID: "occupation", Label: "Occupation", Type: FieldText},
			{ID: "location", Label: "Location", Type: FieldText},
			{ID: "disposition", Label: "Disposition", Type: FieldSelect,
				Options: []string{"friendly", "neutral", "hostile", "unknown"},
				Default: "unknown"},
			descriptionField(),
			tagsField(),
			imageField(),
		}},
	},
	"monster": {
		ID:       "monster",
		Name:     "Monster",
		Plural:   "Monsters",
		Category: "characters",
		Dir:      "characters/monster",
		APIPath:  "/api/content/monster",
		Icon:     "skull",
		Schema: ContentSchema{Fields: []ContentField{
			nameField(),
			{ID: "creature_type", Label: "Creature type", Type: FieldText},
			{ID: "challenge_rating", Label: "Challenge rating", Type: FieldNumber,
				Rules: []ValidationRule{
					{Kind: RuleMin, Limit: 0, Message: "challenge rating cannot be negative"},
					{Kind: RuleMax, Limit: 40, Message: "challenge rating must be at most 40"},
				}},
			{ID: "habitat", Label: "Habitat", Type: FieldText},
			{ID: "legendary", Label: "Legendary", Type: FieldBoolean, Default: false},
			descriptionField(),
			tagsField(),
			imageField(),
		}},
	},
	"player": {
		ID:       "player",
		Name:     "Player",
		Plural:   "Players",
		Category: "characters",
		Dir:      "characters/player",
		APIPath:  "/api/content/player",
		Icon:     "shield",
		Schema: ContentSchema{Fields: []ContentField{
			nameField(),
			{ID: "player_name", Label: "Player name", Type: FieldText},
			{ID: "race", Label: "Race", Type: FieldText},
			{ID: "class", Label: "Class", Type: FieldText},
			{ID: "level", Label: "Level", Type: FieldNumber, Default: 1,
				Rules: []ValidationRule{
					{Kind: RuleMin, Limit: 1, Message: "level must be at least 1"},
					{Kind: RuleMax, Limit: 20, Message: "level must be at most 20"},
				}},
			descriptionField(),
			tagsField(),
			imageField(),
		}},
	},
	"item": {
		ID:       "item",
		Name:     "Item",
		Plural:   "Items",
		Category: "items",
		Dir:      "items",
		APIPath:  "/api/content/item",
		Icon:     "gem",
		Schema: ContentSchema{Fields: []ContentField{
			nameField(),
			{ID: "item_type", Label: "Item type", Type: FieldText},
			{ID: "rarity", Label: "Rarity", Type: FieldSelect,
				Options: []string{"common", "uncommon", "rare", "very-rare", "legendary", "artifact"},
				Default: "common"},
			{ID: "attunement", Label: "Requires attunement", Type: FieldBoolean, Default: false},
			{ID: "value", Label: "Value (gp)", Type: FieldNumber,
				Rules: []ValidationRule{
					{Kind: RuleMin, Limit: 0, Message: "value cannot be negative"},
				}},
			descriptionField(),
			tagsField(),
			imageField(),
		}},
	},
	"session": {
		ID:       "session",
		Name:     "Session",
		Plural:   "Sessions",
		Category: "sessions",
		Dir:      "sessions",
		APIPath:  "/api/content/session",
		Icon:     "scroll",
		Schema: ContentSchema{Fields: []ContentField{
			nameField(),
			{ID: "session_number", Label: "Session number", Type: FieldNumber,
				Rules: []ValidationRule{
					{Kind: RuleMin, Limit: 1, Message: "session number must be at least 1"},
				}},
			{ID: "date", Label: "Date", Type: FieldDate},
			{ID: "summary", Label: "Summary", Type: FieldTextarea,
				Rules: []ValidationRule{
					{Kind: RuleMax, Limit: 4000, Message: "summary must be at most 4000 characters"},
				}},
			tagsField(),
		}},
	},
	"note": {
		ID:       "note",
		Name:     "Note",
		Plural:   "Notes",
		Category: "notes",
		Dir:      "notes",
		APIPath:  "/api/content/note",
		Icon:     "book",
		Schema: ContentSchema{Fields: []ContentField{
			nameField(),
			descriptionField(),
			tagsField(),
		}},
	},
}

// typeOrder fixes the iteration order for ContentTypes.
var typeOrder = []string{"npc", "monster", "player", "item", "session", "note"}

// GetContentType returns the content type with the given id. The second
// return value is false when the id is unknown; no error is involved.
func GetContentType(id string) (*ContentType, bool) {
	ct, ok := registry[id]
	return ct, ok
}

// ValidContentType reports whether id names a registered content type.
func ValidContentType(id string) bool {
	_, ok := registry[id]
	return ok
}

// ContentTypes returns all registered content types in a fixed order.
func ContentTypes() []*ContentType {
	out := make([]*ContentType, 0, len(typeOrder))
	for _, id := range typeOrder {
		out = append(out, registry[id])
	}
	return out
}

// SlugPattern returns the regular expression valid slugs must match.
func SlugPattern() *regexp.Regexp {
	return slugPattern
}
