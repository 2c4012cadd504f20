package survey

// QuestionKey identifies a question across the whole compiled survey. Server
// question keys are positive; the three fixed questions use reserved negative
// keys so the one-answer-per-key invariant holds for the full set.
type QuestionKey int

const (
	KeyName       QuestionKey = -1
	KeyDepartment QuestionKey = -2
	KeyComment    QuestionKey = -3
)

// Question is one entry of the compiled survey. The answer shape is determined
// by the Kind payload; upload and rendering logic switch on its concrete type.
type Question struct {
	Key      QuestionKey
	Text     string
	Required bool
	// FromServer is true only for rating questions sourced from the question
	// endpoint. Only those answers are uploaded as detail records.
	FromServer bool
	Kind       Kind
}

// Kind is the tagged payload carrying the type-specific question fields.
type Kind interface {
	isKind()
}

// Rating marks a 1-5 integer rating question.
type Rating struct{}

// FreeText marks a free-form text question.
type FreeText struct {
	Placeholder string
}

// SingleChoice marks a pick-one question over a fixed option list.
type SingleChoice struct {
	Options []ChoiceOption
}

// MultiChoice marks a pick-any question over a fixed option list.
type MultiChoice struct {
	Options []ChoiceOption
}

// ChoiceOption is one selectable option; Key is the server-side identifier
// carried in answers, Title is the display text.
type ChoiceOption struct {
	Title string
	Key   int
}

func (Rating) isKind()       {}
func (FreeText) isKind()     {}
func (SingleChoice) isKind() {}
func (MultiChoice) isKind()  {}

// Value is the tagged answer payload. Answered reports whether the value
// counts as a real answer for completion purposes: a non-empty string, a
// non-zero number, a non-empty selection.
type Value interface {
	Answered() bool
	isValue()
}

// TextValue answers a FreeText question.
type TextValue string

// RatingValue answers a Rating question.
type RatingValue int

// ChoiceValue answers a SingleChoice question with the selected option key.
type ChoiceValue int

// MultiChoiceValue answers a MultiChoice question with the selected option keys.
type MultiChoiceValue []int

func (v TextValue) Answered() bool        { return v != "" }
func (v RatingValue) Answered() bool      { return v != 0 }
func (v ChoiceValue) Answered() bool      { return v != 0 }
func (v MultiChoiceValue) Answered() bool { return len(v) > 0 }

func (TextValue) isValue()        {}
func (RatingValue) isValue()      {}
func (ChoiceValue) isValue()      {}
func (MultiChoiceValue) isValue() {}

// Answer binds a question to its current value. At most one Answer per
// question key exists at any time.
type Answer struct {
	Question Question
	Value    Value
}
