package model

import (
	"sort"
	"time"
)

// Category groups questions by the scoring rule they use
type Category string

const (
	CategoryEthical   Category = "ethical"   // Dilemma, graded on a rubric
	CategoryTechnical Category = "technical" // Exact match, all or nothing
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return c == CategoryEthical || c == CategoryTechnical
}

// Grade is the rubric bucket of an ethical choice
type Grade string

const (
	GradeBest       Grade = "best"
	GradeAcceptable Grade = "acceptable"
	GradePoor       Grade = "poor"
)

// QuestionStatus tracks the publish lifecycle
type QuestionStatus string

const (
	QuestionDraft     QuestionStatus = "draft"
	QuestionPublished QuestionStatus = "published"
)

// Choice is one selectable option of a question.
// Traits credits the skills the option demonstrates, e.g. {"ER": 10, "SL": 5}.
type Choice struct {
	Key    string             `json:"key" bson:"key"`
	Text   string             `json:"text" bson:"text"`
	Traits map[string]float64 `json:"traits,omitempty" bson:"traits,omitempty"`
}

// Question is a scenario or technical item in a job profile's bank
type Question struct {
	ID       string   `json:"id" bson:"_id"`
	Profile  string   `json:"profile" bson:"profile"` // e.g., "backend-engineer"
	Category Category `json:"category" bson:"category"`
	Prompt   string   `json:"prompt" bson:"prompt"`
	Choices  []Choice `json:"choices" bson:"choices"`

	// Technical only
	CorrectChoice string `json:"correctChoice,omitempty" bson:"correctChoice,omitempty"`
	// Ethical only: choice key -> grade
	Grades map[string]Grade `json:"grades,omitempty" bson:"grades,omitempty"`

	Weight   float64 `json:"weight" bson:"weight"`
	Required bool    `json:"required" bson:"required"`
	Order    int     `json:"order" bson:"order"`

	Status      QuestionStatus `json:"status" bson:"status"`
	CreatedAt   time.Time      `json:"createdAt" bson:"createdAt"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty" bson:"publishedAt,omitempty"`
}

// HasChoice reports whether key is one of the question's options
func (q *Question) HasChoice(key string) bool {
	for _, c := range q.Choices {
		if c.Key == key {
			return true
		}
	}
	return false
}

// IsPublished reports whether the question is frozen
func (q *Question) IsPublished() bool {
	return q.Status == QuestionPublished
}

// QuestionView is what a candidate sees; it never carries the answer key
type QuestionView struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Prompt   string   `json:"prompt"`
	Choices  []Choice `json:"choices"`
	Required bool     `json:"required"`
}

// View strips the answer key and trait credits from the question
func (q *Question) View() *QuestionView {
	choices := make([]Choice, len(q.Choices))
	for i, c := range q.Choices {
		choices[i] = Choice{Key: c.Key, Text: c.Text}
	}
	return &QuestionView{
		ID:       q.ID,
		Category: q.Category,
		Prompt:   q.Prompt,
		Choices:  choices,
		Required: q.Required,
	}
}

// Choice returns the option with the given key, or nil
func (q *Question) Choice(key string) *Choice {
	for i := range q.Choices {
		if q.Choices[i].Key == key {
			return &q.Choices[i]
		}
	}
	return nil
}

// MaxTrait is the most any one choice credits the trait
func (q *Question) MaxTrait(trait string) float64 {
	var best float64
	for _, c := range q.Choices {
		if v := c.Traits[trait]; v > best {
			best = v
		}
	}
	return best
}

// Bank is a snapshot of the published questions of one profile
type Bank struct {
	Profile   string     `json:"profile"`
	Questions []Question `json:"questions"`
}

// NewBank builds a bank ordered by (order, id)
func NewBank(profile string, questions []Question) *Bank {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].Order != qs[j].Order {
			return qs[i].Order < qs[j].Order
		}
		return qs[i].ID < qs[j].ID
	})
	return &Bank{Profile: profile, Questions: qs}
}

// Lookup returns the question with the given id, or nil
func (b *Bank) Lookup(id string) *Question {
	for i := range b.Questions {
		if b.Questions[i].ID == id {
			return &b.Questions[i]
		}
	}
	return nil
}

// IDs returns question ids in bank order
func (b *Bank) IDs() []string {
	ids := make([]string, len(b.Questions))
	for i, q := range b.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Len returns the number of questions
func (b *Bank) Len() int {
	return len(b.Questions)
}

// TotalWeight sums the weight of every question in the bank
func (b *Bank) TotalWeight() float64 {
	var sum float64
	for _, q := range b.Questions {
		sum += q.Weight
	}
	return sum
}

// SkillsRequired lists the traits the bank measures, sorted
func (b *Bank) SkillsRequired() []string {
	seen := map[string]bool{}
	var skills []string
	for _, q := range b.Questions {
		for _, c := range q.Choices {
			for trait := range c.Traits {
				if !seen[trait] {
					seen[trait] = true
					skills = append(skills, trait)
				}
			}
		}
	}
	sort.Strings(skills)
	return skills
}
