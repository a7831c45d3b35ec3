// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package followup suggests the follow-up questions shown under a research
// bundle. The chat layer normally supplies them; Templates is the
// deterministic fallback.
package followup

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Audience selects the register of the suggested questions.
type Audience string

const (
	AudiencePatient Audience = "patient"
	AudienceDoctor  Audience = "doctor"
)

// ParseAudience accepts "patient" or "doctor" in any case. Empty input means
// patient.
func ParseAudience(s string) (Audience, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "patient":
		return AudiencePatient, nil
	case "doctor", "clinician":
		return AudienceDoctor, nil
	}
	return "", fmt.Errorf("unknown audience %q (want patient or doctor)", s)
}

// Suggester proposes follow-up questions for a topic and the citations found
// for it.
type Suggester interface {
	Suggest(ctx context.Context, topic string, audience Audience, cites []types.Citation) ([]string, error)
}

// MaxQuestions bounds what Templates returns.
const MaxQuestions = 3

// Templates fills fixed question templates with the topic.
type Templates struct{}

// Suggest returns MaxQuestions questions. Trials that are recruiting steer the
// first question toward eligibility.
func (Templates) Suggest(_ context.Context, topic string, audience Audience, cites []types.Citation) ([]string, error) {
	topic = strings.Join(strings.Fields(topic), " ")
	if topic == "" {
		return []string{}, nil
	}

	recruiting := false
	for _, c := range cites {
		if c.Kind == types.KindTrial && c.IsRecruiting() {
			recruiting = true
			break
		}
	}

	var qs []string
	if audience == AudienceDoctor {
		if recruiting {
			qs = append(qs, fmt.Sprintf("What are the inclusion criteria of the recruiting %s trials?", topic))
		} else {
			qs = append(qs, fmt.Sprintf("Which phase III results exist for %s?", topic))
		}
		qs = append(qs,
			fmt.Sprintf("How do recent %s studies compare with current guidelines?", topic),
			fmt.Sprintf("What safety signals have been reported for %s?", topic),
		)
	} else {
		if recruiting {
			qs = append(qs, fmt.Sprintf("Could I be eligible for a %s trial near me?", topic))
		} else {
			qs = append(qs, fmt.Sprintf("What treatment options exist for %s?", topic))
		}
		qs = append(qs,
			fmt.Sprintf("What side effects should I ask my doctor about for %s?", topic),
			fmt.Sprintf("What questions should I bring to my next appointment about %s?", topic),
		)
	}
	return qs[:MaxQuestions], nil
}
