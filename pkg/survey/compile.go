package survey

import "fieldsurvey/pkg/ports/surveyport"

// Fixed question texts. The name and department questions open the survey,
// the comment question closes it; the server's rating questions sit between.
const (
	nameText    = "What is your first and last name?"
	namePrompt  = "Your complete name"
	deptText    = "What department / position do you belong to?"
	commentText = "Do you have any additional comments?"
	commentHint = "Comments"
)

// CompileQuestions turns raw question and department rows into the ordered
// survey: [name, department, one rating question per row in response order,
// comment]. Every rating question is required and marked FromServer.
func CompileQuestions(rows []surveyport.QuestionRow, departments []surveyport.Department) []Question {
	compiled := make([]Question, 0, len(rows)+3)

	compiled = append(compiled, Question{
		Key:      KeyName,
		Text:     nameText,
		Required: true,
		Kind:     FreeText{Placeholder: namePrompt},
	})

	options := make([]ChoiceOption, len(departments))
	for i, department := range departments {
		options[i] = ChoiceOption{Title: department.DeptDesc, Key: department.DeptKey}
	}
	compiled = append(compiled, Question{
		Key:      KeyDepartment,
		Text:     deptText,
		Required: true,
		Kind:     SingleChoice{Options: options},
	})

	for _, row := range rows {
		compiled = append(compiled, Question{
			Key:        QuestionKey(row.QuestionKey),
			Text:       row.QuestionDesc + "?",
			Required:   true,
			FromServer: true,
			Kind:       Rating{},
		})
	}

	compiled = append(compiled, Question{
		Key:      KeyComment,
		Text:     commentText,
		Required: true,
		Kind:     FreeText{Placeholder: commentHint},
	})

	return compiled
}
