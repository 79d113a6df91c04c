package assignment

import (
	"fmt"
	"math"

	"github.com/napthedev/edura/core"
)

type (
	// QuestionResult reports objective correctness for one question.
	QuestionResult struct {
		QuestionID string `json:"question_id"`
		Correct    bool   `json:"correct"`
	}

	// GradeResult is the outcome of auto-grading a quiz submission.
	GradeResult struct {
		Score       int              `json:"score"` // 0..100
		PerQuestion []QuestionResult `json:"per_question"`
	}
)

// Grade auto-grades a quiz answer map. It is a pure function: identical
// (content, answers) inputs always yield identical results.
//
// Only quiz content is ever auto-graded; calling Grade on another variant
// is a programming error and panics. Likewise a quiz with zero questions
// cannot reach here through validated data, so it is treated as a fatal
// integrity assertion rather than a recoverable error.
func (c Content) Grade(answers map[string]string) GradeResult {
	if c.Kind != KindQuiz || c.Quiz == nil {
		panic(fmt.Sprintf("assignment: Grade called on %q content", c.Kind))
	}
	return c.Quiz.Grade(answers)
}

func (q QuizContent) Grade(answers map[string]string) GradeResult {
	total := len(q.Questions)
	if total == 0 {
		panic("assignment: Grade called on a quiz with no questions")
	}

	res := GradeResult{PerQuestion: make([]QuestionResult, 0, total)}
	var correct int
	for _, qn := range q.Questions {
		ok := qn.IsCorrect(answers[qn.ID])
		if ok {
			correct++
		}
		res.PerQuestion = append(res.PerQuestion, QuestionResult{QuestionID: qn.ID, Correct: ok})
	}
	res.Score = int(math.Round(100 * float64(correct) / float64(total)))
	return res
}

// IsCorrect checks a raw answer against the question's correct answer.
//
//   - simple: exact string equality after normalization (trim+lowercase);
//     no partial credit, no fuzzy matching
//   - multiple: case-insensitive single-letter match
//   - truefalse: exact match against the literals "true"/"false"
func (qn Question) IsCorrect(answer string) bool {
	switch qn.Type {
	case QuestionSimple, QuestionMultiple:
		return normalizeAnswer(answer) == normalizeAnswer(qn.CorrectAnswer)
	case QuestionTrueFalse:
		return answer == qn.CorrectAnswer
	}
	return false
}

func normalizeAnswer(s string) string {
	return core.CleanString(s, true /* lower */)
}
