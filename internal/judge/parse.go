package judge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"splitboard/internal/models"
)

var (
	ErrNoJSON        = errors.New("no JSON object in judge reply")
	ErrInvalidRating = errors.New("rating must be a number between 1 and 10")
	ErrEmptyFeedback = errors.New("feedback must be a non-empty string")
)

// ExtractJSONObject returns the first well-formed JSON object embedded in text.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil && len(raw) > 0 && raw[0] == '{' {
			return raw, nil
		}
	}
	return nil, ErrNoJSON
}

// ParseVerdict extracts and validates {rating, feedback} from a judge reply.
func ParseVerdict(reply string) (models.Judgment, error) {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return models.Judgment{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Judgment{}, fmt.Errorf("decode verdict: %w", err)
	}

	rating, err := parseRating(fields["rating"])
	if err != nil {
		return models.Judgment{}, err
	}
	feedback, err := parseFeedback(fields["feedback"])
	if err != nil {
		return models.Judgment{}, err
	}
	return models.Judgment{Score: rating, Commentary: feedback}, nil
}

func parseRating(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, ErrInvalidRating
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, ErrInvalidRating
	}
	// Quoted numbers decode to string and are rejected here.
	n, ok := v.(json.Number)
	if !ok {
		return 0, ErrInvalidRating
	}
	f, err := n.Float64()
	if err != nil || f < MinScore || f > MaxScore {
		return 0, ErrInvalidRating
	}
	return f, nil
}

func parseFeedback(raw json.RawMessage) (string, error) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", ErrEmptyFeedback
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyFeedback
	}
	return s, nil
}
