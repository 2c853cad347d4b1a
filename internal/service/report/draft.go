package report

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	SummaryPlaceholder         = "The writing assistant was unavailable. Please write the summary manually."
	ProgressPlaceholder        = "Progress assessment was not drafted automatically. Please complete it manually."
	RecommendationsPlaceholder = "Recommendations were not drafted automatically. Please complete them manually."
)

// DraftSource tells the editor where the draft text came from.
type DraftSource string

const (
	SourceStructured  DraftSource = "structured"
	SourceRawFallback DraftSource = "raw_fallback"
	SourceUnavailable DraftSource = "unavailable"
)

// Draft is the suggested narrative a therapist edits before finalizing.
type Draft struct {
	Summary         string      `json:"summary"`
	Progress        string      `json:"progress"`
	Recommendations string      `json:"recommendations"`
	Source          DraftSource `json:"source"`
}

// Parsed is the outcome of reading an assistant reply: Structured or RawFallback.
type Parsed interface {
	Draft() Draft
}

// Structured is a reply that decoded into the three narrative fields.
type Structured struct {
	Summary         string
	Progress        string
	Recommendations string
}

// RawFallback is a reply that could not be decoded. Text is the whole reply.
type RawFallback struct {
	Text string
}

func (s Structured) Draft() Draft {
	return Draft{
		Summary:         orPlaceholder(s.Summary, SummaryPlaceholder),
		Progress:        orPlaceholder(s.Progress, ProgressPlaceholder),
		Recommendations: orPlaceholder(s.Recommendations, RecommendationsPlaceholder),
		Source:          SourceStructured,
	}
}

func (r RawFallback) Draft() Draft {
	return Draft{
		Summary:         r.Text,
		Progress:        ProgressPlaceholder,
		Recommendations: RecommendationsPlaceholder,
		Source:          SourceRawFallback,
	}
}

func unavailableDraft() Draft {
	return Draft{
		Summary:         SummaryPlaceholder,
		Progress:        ProgressPlaceholder,
		Recommendations: RecommendationsPlaceholder,
		Source:          SourceUnavailable,
	}
}

// ParseDraft strips an optional code fence and decodes the JSON object
// inside. It never fails: anything that is not a usable object comes back as
// RawFallback.
func ParseDraft(raw string) Parsed {
	body := stripFence(raw)

	var obj map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&obj); err != nil || dec.More() {
		return RawFallback{Text: raw}
	}

	var s Structured
	var ok bool
	for key, dst := range map[string]*string{
		"summary":         &s.Summary,
		"progress":        &s.Progress,
		"recommendations": &s.Recommendations,
	} {
		v, present := obj[key]
		if !present {
			continue
		}
		text, valid := textOf(v)
		if !valid {
			return RawFallback{Text: raw}
		}
		*dst = text
		if text != "" {
			ok = true
		}
	}
	if !ok {
		return RawFallback{Text: raw}
	}
	return s
}

// stripFence returns the body of the first ``` fenced block, without its
// language tag, or the trimmed input when there is no fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	rest = strings.TrimLeft(rest, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-")
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// textOf accepts a JSON string or a list of strings, which assistants often
// use for recommendations.
func textOf(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			list[i] = "- " + strings.TrimSpace(list[i])
		}
		return strings.Join(list, "\n"), true
	}
	return "", false
}

func orPlaceholder(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}
