package survey

import (
	"context"
	"fmt"
	"strconv"

	"fieldsurvey/pkg/ports/surveyport"
)

// SubmissionError reports an upload aborted mid-sequence. The whole sequence
// must be re-run from the first warehouse; already created server records are
// not rolled back, so a retry after partial success can duplicate records
// upstream. The protocol carries no idempotency key.
type SubmissionError struct {
	WhseID  string
	Reason  string
	Wrapped error
}

func (e *SubmissionError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("submission failed at warehouse %s: %s: %v", e.WhseID, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("submission failed at warehouse %s: %s", e.WhseID, e.Reason)
}

func (e *SubmissionError) Unwrap() error { return e.Wrapped }

// Submit uploads the completed survey: one header per selected warehouse, in
// selection order, then one detail row per server-sourced answer under that
// header. The sequence is strictly sequential because each detail depends on
// the header key returned by the server. Any failure, including a missing
// header key, aborts the whole upload immediately.
func (c *Controller) Submit(ctx context.Context, token string) error {
	c.mu.Lock()
	finished := c.finished
	warehouses := append([]string(nil), c.selectedWarehouses...)
	answers := append([]Answer(nil), c.answers...)
	c.mu.Unlock()

	if !finished {
		return fmt.Errorf("submit: survey is not complete")
	}
	if len(warehouses) == 0 {
		return fmt.Errorf("submit: no warehouses selected")
	}

	name, dept, comment, err := fixedAnswers(answers)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	for _, whseID := range warehouses {
		header := surveyport.HeaderRecord{
			WhseID:     whseID,
			ClientName: name,
			DeptKey:    dept,
			Comment:    comment,
		}

		headerKey, err := c.gateway.SaveHeader(ctx, token, header)
		if err != nil {
			return &SubmissionError{WhseID: whseID, Reason: "header creation failed", Wrapped: err}
		}
		if headerKey == "" {
			return &SubmissionError{WhseID: whseID, Reason: "server returned no header key"}
		}
		c.log.WithFields(map[string]interface{}{
			"warehouse": whseID,
			"headerKey": headerKey,
		}).Debug("header created")

		for _, answer := range answers {
			if !answer.Question.FromServer {
				continue
			}
			detail := surveyport.DetailRecord{
				HeaderKey:   headerKey,
				QuestionKey: int(answer.Question.Key),
				Answer:      detailValue(answer.Value),
			}
			if err := c.gateway.SaveDetail(ctx, token, detail); err != nil {
				return &SubmissionError{WhseID: whseID, Reason: "detail creation failed", Wrapped: err}
			}
		}
	}

	return nil
}

// fixedAnswers extracts the name, department and comment answers that are
// embedded into every header.
func fixedAnswers(answers []Answer) (name string, dept int, comment string, err error) {
	for _, answer := range answers {
		switch answer.Question.Key {
		case KeyName:
			if v, ok := answer.Value.(TextValue); ok {
				name = string(v)
			}
		case KeyDepartment:
			if v, ok := answer.Value.(ChoiceValue); ok {
				dept = int(v)
			}
		case KeyComment:
			if v, ok := answer.Value.(TextValue); ok {
				comment = string(v)
			}
		}
	}
	if name == "" || dept == 0 {
		return "", 0, "", fmt.Errorf("missing fixed answers (name or department)")
	}
	return name, dept, comment, nil
}

func detailValue(value Value) string {
	switch v := value.(type) {
	case TextValue:
		return string(v)
	case RatingValue:
		return strconv.Itoa(int(v))
	case ChoiceValue:
		return strconv.Itoa(int(v))
	case MultiChoiceValue:
		out := ""
		for i, key := range v {
			if i > 0 {
				out += ","
			}
			out += strconv.Itoa(key)
		}
		return out
	default:
		return ""
	}
}
