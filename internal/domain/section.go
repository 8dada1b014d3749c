package domain

type SectionType string

const (
	SectionTypeHero        SectionType = "hero"
	SectionTypeText        SectionType = "text"
	SectionTypeCardGrid    SectionType = "cardGrid"
	SectionTypeCallToAct   SectionType = "callToAction"
	SectionTypeContentList SectionType = "contentList"
	SectionTypeComponent   SectionType = "component"
)

// Section is one node in a page's composition tree. Exactly one payload
// pointer matching Type is expected to be non-nil; the rest stay nil and are
// omitted from JSON.
type Section struct {
	ID       string      `json:"id"`
	Type     SectionType `json:"type"`
	Order    int         `json:"order"`
	Children []Section   `json:"children,omitempty"`

	Hero        *HeroData         `json:"hero,omitempty"`
	Text        *TextData         `json:"text,omitempty"`
	CardGrid    *CardGridData     `json:"cardGrid,omitempty"`
	CallToAct   *CallToActionData `json:"callToAction,omitempty"`
	ContentList *ContentListData  `json:"contentList,omitempty"`
	Component   *ComponentRefData `json:"component,omitempty"`

	Style *StyleOverrides `json:"style,omitempty"`
}

type HeroData struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	ImageURL    string `json:"imageUrl"`
	ButtonLabel string `json:"buttonLabel"`
	ButtonHref  string `json:"buttonHref"`
}

type TextData struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type Card struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	ImageURL string `json:"imageUrl"`
	Href     string `json:"href"`
}

type CardGridData struct {
	Heading string `json:"heading"`
	Cards   []Card `json:"cards"`
}

type CallToActionData struct {
	Heading     string `json:"heading"`
	ButtonLabel string `json:"buttonLabel"`
	ButtonHref  string `json:"buttonHref"`
	ButtonStyle string `json:"buttonStyle"` // primary | secondary | link
}

// ContentListData renders entries from an external collection (see
// internal/collections). The collection is referenced by name only.
type ContentListData struct {
	Collection string `json:"collection"`
	Limit      int    `json:"limit"`
	Layout     string `json:"layout"` // list | grid
}

// ComponentRefData points a section at a catalog component definition.
// Data is keyed by the component's declared field names.
type ComponentRefData struct {
	ComponentID   string            `json:"componentId"`
	ComponentType ComponentType     `json:"componentType"`
	Columns       int               `json:"columns"` // requested span, 1 to 12
	Data          map[string]string `json:"data,omitempty"`
}

// StyleOverrides is a sparse record of presentation tweaks. It never affects
// tree structure.
type StyleOverrides struct {
	Background    string `json:"background,omitempty"`
	TextColor     string `json:"textColor,omitempty"`
	Padding       string `json:"padding,omitempty"`
	CustomClasses string `json:"customClasses,omitempty"`
}
