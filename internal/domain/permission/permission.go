package permission

// Key identifies a guarded action, e.g. "assistant_creation".
type Key string

const (
	LabAdminCreation        Key = "lab_admin_creation"
	LabAdminModification    Key = "lab_admin_modification"
	AssistantInactivation   Key = "assistant_inactivation"
	AssistantModification   Key = "assistant_modification"
	AssistantCreation       Key = "assistant_creation"
	OwnPasswordModification Key = "own_password_modification"
	OwnPhoneModification    Key = "own_phone_modification"
)

type Definition struct {
	Key         Key    `json:"key"`
	Description string `json:"description"`
}

var catalog = []Definition{
	{Key: LabAdminCreation, Description: "Creation of lab admin users"},
	{Key: LabAdminModification, Description: "Modification of lab admin users"},
	{Key: AssistantInactivation, Description: "Deletion of assistant users"},
	{Key: AssistantModification, Description: "Modification of assistant users"},
	{Key: AssistantCreation, Description: "Creation of assistant users"},
	{Key: OwnPasswordModification, Description: "Modification of self's account password"},
	{Key: OwnPhoneModification, Description: "Modification of self's account phone number"},
}

// Catalog returns every permission the system knows about.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(key Key) (Definition, bool) {
	for _, d := range catalog {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Set is a lookup-friendly view of a list of keys.
type Set map[Key]struct{}

func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s Set) Has(key Key) bool {
	_, ok := s[key]
	return ok
}
