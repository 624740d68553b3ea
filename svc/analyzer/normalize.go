package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
)

// pipelineEnvelope mirrors the pipeline's object response shape. Older
// pipeline versions return a bare array of rows instead.
type pipelineEnvelope struct {
	Rows             []map[string]any `json:"rows"`
	DetectedLanguage string           `json:"detectedLanguage"`
	WasTranslated    bool             `json:"wasTranslated"`
	TranslatedText   string           `json:"translatedText"`
}

// Normalize converts a raw pipeline payload into a Result. The pipeline has
// shipped two shapes over time: a bare JSON array of rows, and an object with
// a rows field plus language metadata. Both are folded into the same Result
// here, once, so nothing downstream handles the raw shapes.
func Normalize(payload []byte, framework string) (*Result, error) {
	res := &Result{
		Framework:        framework,
		Rows:             []Row{},
		DetectedLanguage: "en",
	}

	var envelope pipelineEnvelope
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Rows != nil {
		rows, err := coerceRows(envelope.Rows)
		if err != nil {
			return nil, err
		}
		res.Rows = rows
		if envelope.DetectedLanguage != "" {
			res.DetectedLanguage = envelope.DetectedLanguage
		}
		res.WasTranslated = envelope.WasTranslated
		res.TranslatedText = envelope.TranslatedText
	} else {
		var bare []map[string]any
		if err := json.Unmarshal(payload, &bare); err != nil {
			return nil, errors.Join(ErrMalformedResult, err)
		}
		rows, err := coerceRows(bare)
		if err != nil {
			return nil, err
		}
		res.Rows = rows
	}

	if len(res.Rows) > 0 {
		res.ConfidenceScore = 95
	} else {
		res.ConfidenceScore = 40
	}
	return res, nil
}

func coerceRows(raw []map[string]any) ([]Row, error) {
	rows := make([]Row, 0, len(raw))
	for _, m := range raw {
		row := make(Row, len(m))
		for k, v := range m {
			switch s := v.(type) {
			case string:
				row[k] = s
			case nil:
				row[k] = ""
			default:
				return nil, errors.Join(ErrMalformedResult,
					fmt.Errorf("row field %q has non-string value %v", k, v))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
