package transform

import (
	"context"
	"fmt"

	"github.com/awatson1978/personal-health-record-sub000/internal/classifier"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// PostResult is the health note built from a post plus the media it linked.
type PostResult struct {
	Note     *entities.ClinicalImpression
	Media    []*entities.Media
	Relevant bool
}

// Post builds a health note from a post. Findings are attached only when the
// text is health relevant; inline attachment media become Media records
// linked from the note's investigations.
func (t *Transformer) Post(ctx context.Context, scope Scope, raw any) (*PostResult, error) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: post is %T", ErrUnexpectedShape, raw)
	}

	text := postText(obj)
	attachments := asArray(obj["attachments"])
	if text == "" && len(attachments) == 0 {
		return nil, ErrSkipped
	}

	date, ok := unixField(obj, "timestamp", "created_time")
	if !ok {
		date = t.now().UTC()
	}

	description := text
	if description == "" {
		description = PlaceholderPostText
	}

	note := &entities.ClinicalImpression{
		Status:      StatusCompleted,
		Subject:     scope.Patient,
		Assessor:    scope.Patient,
		Date:        date,
		Description: description,
		Meta:        t.meta(scope),
	}

	result := &PostResult{Note: note}
	if text != "" && t.classifier.IsRelevant(text) {
		result.Relevant = true
		for _, f := range t.classifier.ExtractFindings(text) {
			note.Findings = append(note.Findings, toImpressionFinding(f))
		}
	}

	for _, media := range inlineMedia(attachments) {
		result.Media = append(result.Media, t.mediaRecord(scope, media, date))
	}

	if len(result.Media) == 0 {
		if err := t.store.InsertClinicalImpression(ctx, scope.UserID, note); err != nil {
			return nil, fmt.Errorf("insert health note: %w", err)
		}
		return result, nil
	}
	if err := t.store.InsertClinicalImpressionWithMedia(ctx, scope.UserID, note, result.Media); err != nil {
		return nil, fmt.Errorf("insert health note with attachment media: %w", err)
	}

	return result, nil
}

// postText checks the known text locations in order: data[].post, post,
// message, text.
func postText(obj map[string]any) string {
	for _, item := range asArray(obj["data"]) {
		if d, ok := asObject(item); ok {
			if s := stringField(d, "post"); s != "" {
				return s
			}
		}
	}
	return stringField(obj, "post", "message", "text")
}

// inlineMedia collects attachment entries that embed media metadata, either
// as attachments[].data[].media or attachments[].media.
func inlineMedia(attachments []any) []map[string]any {
	var out []map[string]any
	for _, a := range attachments {
		att, ok := asObject(a)
		if !ok {
			continue
		}
		if m, ok := asObject(att["media"]); ok {
			out = append(out, m)
		}
		for _, d := range asArray(att["data"]) {
			data, ok := asObject(d)
			if !ok {
				continue
			}
			if m, ok := asObject(data["media"]); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func toImpressionFinding(f classifier.Finding) entities.ImpressionFinding {
	out := entities.ImpressionFinding{
		Term:       f.Term,
		Display:    f.Display,
		Confidence: f.Confidence,
		Severity:   string(f.Severity),
		Temporal:   string(f.Temporal),
		Basis:      fmt.Sprintf("%s match (confidence %.2f): %s", f.Kind, f.Confidence, f.Snippet),
	}
	if f.Code != "" {
		out.Code = &entities.Coding{System: f.System, Code: f.Code, Display: f.Display}
	}
	return out
}
