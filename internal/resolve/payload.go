package resolve

import "strings"

// Kind tags the variant of a Payload.
type Kind int

// Variants in resolution priority order.
const (
	DirectIdentifier    Kind = iota // identifier carried verbatim
	CollectionPair                  // (pack, id) inside a compendium
	WorldCollectionPair             // (document type, id) in a world collection
	EmbeddedMarkerText              // free text containing @UUID[...]
	ManualString                    // identifier typed or pasted by the user
)

func (k Kind) String() string {
	switch k {
	case DirectIdentifier:
		return "direct"
	case CollectionPair:
		return "compendium"
	case WorldCollectionPair:
		return "world"
	case EmbeddedMarkerText:
		return "marker"
	case ManualString:
		return "manual"
	default:
		return "unknown"
	}
}

// Payload is one candidate shape of a drop. Which fields are meaningful
// depends on Kind.
type Payload struct {
	Kind       Kind
	Identifier string // DirectIdentifier, ManualString
	Collection string // pack name (CollectionPair) or document type (WorldCollectionPair)
	ItemID     string // CollectionPair, WorldCollectionPair
	Text       string // EmbeddedMarkerText
}

// DropData is the decoded, still untrusted content of one drop. Several
// fields may be populated at once.
type DropData struct {
	UUID string `json:"uuid"`
	Pack string `json:"pack"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Candidates returns the payload variants carried by d in priority order.
// A variant appears only when all of its fields are non-blank.
func (d DropData) Candidates() []Payload {
	uuid := strings.TrimSpace(d.UUID)
	pack := strings.TrimSpace(d.Pack)
	id := strings.TrimSpace(d.ID)
	docType := strings.TrimSpace(d.Type)

	var out []Payload
	if uuid != "" {
		out = append(out, Payload{Kind: DirectIdentifier, Identifier: uuid})
	}
	if pack != "" && id != "" {
		out = append(out, Payload{Kind: CollectionPair, Collection: pack, ItemID: id})
	}
	if docType != "" && id != "" {
		out = append(out, Payload{Kind: WorldCollectionPair, Collection: docType, ItemID: id})
	}
	if strings.TrimSpace(d.Text) != "" {
		out = append(out, Payload{Kind: EmbeddedMarkerText, Text: d.Text})
	}
	return out
}
