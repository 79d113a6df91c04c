package assignment

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/napthedev/edura/core"
)

// Content kinds
const (
	KindQuiz      = "quiz"
	KindWritten   = "written"
	KindFlashcard = "flashcard"
)

// Question types
const (
	QuestionSimple    = "simple"
	QuestionMultiple  = "multiple"
	QuestionTrueFalse = "truefalse"
)

// MultipleOptionCount is the fixed number of options of a multiple-choice
// question; the correct answer letters a-d map onto them.
const MultipleOptionCount = 4

var (
	errInvalidContent = errors.New("invalid assignment content")

	multipleAnswers  = []string{"a", "b", "c", "d"}
	trueFalseAnswers = []string{"true", "false"}
)

type (
	// Content is the tagged variant carried by an Assignment: exactly one
	// of the branches is populated, discriminated by Kind. Validators and
	// the grader dispatch on the discriminant, never on the serialized
	// shape.
	Content struct {
		Kind      string            `json:"kind"`
		Quiz      *QuizContent      `json:"quiz,omitempty"`
		Written   *WrittenContent   `json:"written,omitempty"`
		Flashcard *FlashcardContent `json:"flashcard,omitempty"`
	}

	QuizContent struct {
		Questions []Question `json:"questions"`
	}

	// Question is itself tagged by Type. Index is 1-based and kept dense
	// by Normalize.
	Question struct {
		ID            string   `json:"id"`
		Index         int      `json:"index"`
		Type          string   `json:"type"`
		Statement     string   `json:"statement"`
		Options       []string `json:"options,omitempty"` // exactly 4 for multiple
		CorrectAnswer string   `json:"correct_answer"`
		Explanation   string   `json:"explanation,omitempty"`
	}

	WrittenContent struct {
		Instructions string       `json:"instructions"`
		Attachments  []Attachment `json:"attachments,omitempty"`
	}

	Attachment struct {
		Name        string `json:"name"`
		URL         string `json:"url"`
		Size        int64  `json:"size,omitempty"`
		ContentType string `json:"content_type,omitempty"`
	}

	FlashcardContent struct {
		Cards []Card `json:"cards"`
	}

	Card struct {
		Index int    `json:"index"`
		Front string `json:"front"`
		Back  string `json:"back"`
	}
)

// DecodeContent parses a stored content payload.
func DecodeContent(payload []byte) (Content, error) {
	var c Content
	if err := json.Unmarshal(payload, &c); err != nil {
		return Content{}, errors.Wrap(err, "decoding assignment content")
	}
	return c, nil
}

func (c Content) Encode() ([]byte, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encoding assignment content")
	}
	return payload, nil
}

// Normalize cleans whitespace, fills in missing question ids and
// re-numbers questions/cards so stored indices are always dense and
// contiguous (1..N).
func (c *Content) Normalize() {
	switch c.Kind {
	case KindQuiz:
		if c.Quiz != nil {
			c.Quiz.normalize()
		}
	case KindWritten:
		if c.Written != nil {
			c.Written.Instructions = core.CleanString(c.Written.Instructions)
		}
	case KindFlashcard:
		if c.Flashcard != nil {
			c.Flashcard.renumber()
		}
	}
}

// Validate checks the authored content and collects every field-level
// error rather than failing fast, so the caller can highlight all invalid
// fields in one pass. Errors are keyed `question-{id}-{field}` /
// `card-{index}-{field}`.
func (c Content) Validate() error {
	var flds []core.FieldError

	switch c.Kind {
	case KindQuiz:
		if c.Quiz == nil {
			flds = append(flds, core.FieldError{Field: "content", Error: "quiz content is required"})
			break
		}
		flds = c.Quiz.validate(flds)
	case KindWritten:
		if c.Written == nil {
			flds = append(flds, core.FieldError{Field: "content", Error: "written content is required"})
			break
		}
		flds = c.Written.validate(flds)
	case KindFlashcard:
		if c.Flashcard == nil {
			flds = append(flds, core.FieldError{Field: "content", Error: "flashcard content is required"})
			break
		}
		flds = c.Flashcard.validate(flds)
	default:
		flds = append(flds, core.FieldError{Field: "kind", Error: fmt.Sprintf("unknown content kind %q", c.Kind)})
	}
	flds = c.validateSingleBranch(flds)

	if len(flds) > 0 {
		return core.NewValidationError(errInvalidContent, flds...)
	}
	return nil
}

// validateSingleBranch rejects branches other than the one Kind selects;
// exactly one branch may be populated.
func (c Content) validateSingleBranch(flds []core.FieldError) []core.FieldError {
	if c.Quiz != nil && c.Kind != KindQuiz {
		flds = append(flds, core.FieldError{Field: "content", Error: fmt.Sprintf("quiz content not allowed for kind %q", c.Kind)})
	}
	if c.Written != nil && c.Kind != KindWritten {
		flds = append(flds, core.FieldError{Field: "content", Error: fmt.Sprintf("written content not allowed for kind %q", c.Kind)})
	}
	if c.Flashcard != nil && c.Kind != KindFlashcard {
		flds = append(flds, core.FieldError{Field: "content", Error: fmt.Sprintf("flashcard content not allowed for kind %q", c.Kind)})
	}
	return flds
}

func (q *QuizContent) normalize() {
	for i := range q.Questions {
		qn := &q.Questions[i]
		if qn.ID == "" {
			qn.ID = uuid.New().String()
		}
		qn.Statement = core.CleanString(qn.Statement)
		qn.CorrectAnswer = core.CleanString(qn.CorrectAnswer, true /* lower */)
		qn.Explanation = core.CleanString(qn.Explanation)
	}
	q.renumber()
}

func (q *QuizContent) renumber() {
	for i := range q.Questions {
		q.Questions[i].Index = i + 1
	}
}

// AddQuestion appends qn and keeps indices dense.
func (q *QuizContent) AddQuestion(qn Question) {
	q.Questions = append(q.Questions, qn)
	q.renumber()
}

// RemoveQuestion deletes the question with the given id and keeps indices
// dense. It reports whether a question was removed.
func (q *QuizContent) RemoveQuestion(id string) bool {
	for i, qn := range q.Questions {
		if qn.ID == id {
			q.Questions = append(q.Questions[:i], q.Questions[i+1:]...)
			q.renumber()
			return true
		}
	}
	return false
}

func (q *QuizContent) validate(flds []core.FieldError) []core.FieldError {
	if len(q.Questions) == 0 {
		return append(flds, core.FieldError{Field: "questions", Error: "at least one question is required"})
	}

	seen := make(map[string]bool, len(q.Questions))
	for i, qn := range q.Questions {
		key := func(field string) string { return fmt.Sprintf("question-%s-%s", qn.ID, field) }

		if seen[qn.ID] {
			flds = append(flds, core.FieldError{Field: key("id"), Error: "duplicate question id"})
		}
		seen[qn.ID] = true

		if qn.Index != i+1 {
			flds = append(flds, core.FieldError{Field: key("index"), Error: "question indices must be dense and 1-based"})
		}
		if qn.Statement == "" {
			flds = append(flds, core.FieldError{Field: key("statement"), Error: "statement is required"})
		}

		switch qn.Type {
		case QuestionSimple:
			if qn.CorrectAnswer == "" {
				flds = append(flds, core.FieldError{Field: key("correct_answer"), Error: "correct answer is required"})
			}
		case QuestionMultiple:
			if len(qn.Options) != MultipleOptionCount {
				flds = append(flds, core.FieldError{Field: key("options"), Error: fmt.Sprintf("exactly %d options are required", MultipleOptionCount)})
			} else {
				for _, opt := range qn.Options {
					if core.CleanString(opt) == "" {
						flds = append(flds, core.FieldError{Field: key("options"), Error: "options must not be empty"})
						break
					}
				}
			}
			if !lo.Contains(multipleAnswers, qn.CorrectAnswer) {
				flds = append(flds, core.FieldError{Field: key("correct_answer"), Error: "correct answer must be one of a, b, c, d"})
			}
		case QuestionTrueFalse:
			if !lo.Contains(trueFalseAnswers, qn.CorrectAnswer) {
				flds = append(flds, core.FieldError{Field: key("correct_answer"), Error: `correct answer must be "true" or "false"`})
			}
		default:
			flds = append(flds, core.FieldError{Field: key("type"), Error: fmt.Sprintf("unknown question type %q", qn.Type)})
		}
	}
	return flds
}

func (w *WrittenContent) validate(flds []core.FieldError) []core.FieldError {
	// instructions may be empty only when at least one attachment carries
	// the actual prompt
	if w.Instructions == "" && len(w.Attachments) == 0 {
		flds = append(flds, core.FieldError{Field: "instructions", Error: "instructions or at least one attachment is required"})
	}
	for i, at := range w.Attachments {
		if core.CleanString(at.Name) == "" || core.CleanString(at.URL) == "" {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("attachment-%d", i+1), Error: "attachment name and url are required"})
		}
	}
	return flds
}

func (f *FlashcardContent) renumber() {
	for i := range f.Cards {
		f.Cards[i].Index = i + 1
		f.Cards[i].Front = core.CleanString(f.Cards[i].Front)
		f.Cards[i].Back = core.CleanString(f.Cards[i].Back)
	}
}

// AddCard appends card and keeps indices dense.
func (f *FlashcardContent) AddCard(card Card) {
	f.Cards = append(f.Cards, card)
	f.renumber()
}

// RemoveCard deletes the card at the given 1-based index and keeps
// indices dense. It reports whether a card was removed.
func (f *FlashcardContent) RemoveCard(index int) bool {
	if index < 1 || index > len(f.Cards) {
		return false
	}
	f.Cards = append(f.Cards[:index-1], f.Cards[index:]...)
	f.renumber()
	return true
}

func (f *FlashcardContent) validate(flds []core.FieldError) []core.FieldError {
	if len(f.Cards) == 0 {
		return append(flds, core.FieldError{Field: "cards", Error: "at least one card is required"})
	}
	for i, card := range f.Cards {
		key := func(field string) string { return fmt.Sprintf("card-%d-%s", i+1, field) }
		if card.Index != i+1 {
			flds = append(flds, core.FieldError{Field: key("index"), Error: "card indices must be dense and 1-based"})
		}
		if card.Front == "" {
			flds = append(flds, core.FieldError{Field: key("front"), Error: "front is required"})
		}
		if card.Back == "" {
			flds = append(flds, core.FieldError{Field: key("back"), Error: "back is required"})
		}
	}
	return flds
}
