package content

import (
	"encoding/json"
)

// Topic categories shipped with the dataset. CategoryAll is a filter value,
// not a stored category.
const (
	CategoryAll           = "All"
	CategoryEveryday      = "Everyday Symptoms"
	CategoryPostDiagnosis = "Post-Diagnosis Companion"
)

// Topic is one educational content record. Raw keeps the topic's original
// JSON so the safety scanner can audit every field, including ones this
// struct does not model.
type Topic struct {
	Slug                  string      `json:"slug"`
	Title                 string      `json:"title"`
	Category              string      `json:"category"`
	OneMinuteSummary      string      `json:"oneMinuteSummary"`
	Eli5Summary           string      `json:"eli5Summary"`
	WhatsHappening        []string    `json:"whatsHappening"`
	Analogy               Analogy     `json:"analogy"`
	PeopleOftenNotice     []string    `json:"peopleOftenNotice"`
	GeneralSelfCare       []string    `json:"generalSelfCare"`
	QuestionsForClinician []string    `json:"questionsForClinician"`
	ExtraDetail           ExtraDetail `json:"extraDetail"`
	Visuals               []Visual    `json:"visuals"`
	Videos                []Video     `json:"videos"`
	Resources             []Resource  `json:"resources"`
	LastReviewed          string      `json:"lastReviewed"`

	Raw         json.RawMessage `json:"-"`
	ContentHash string          `json:"-"`
}

type Analogy struct {
	Title string `json:"title"`
	Story string `json:"story"`
}

// ExtraDetail carries optional deeper captions per section.
type ExtraDetail struct {
	OneMinuteSummary      string `json:"oneMinuteSummary,omitempty"`
	WhatsHappening        string `json:"whatsHappening,omitempty"`
	Analogy               string `json:"analogy,omitempty"`
	PeopleOftenNotice     string `json:"peopleOftenNotice,omitempty"`
	GeneralSelfCare       string `json:"generalSelfCare,omitempty"`
	QuestionsForClinician string `json:"questionsForClinician,omitempty"`
}

type Visual struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type Video struct {
	EmbedURL string `json:"embedUrl"`
}

type Resource struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}
