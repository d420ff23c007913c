// Package assistant – filter.go implements the content-topic filter.
//
// Classification is a case-insensitive literal substring test against a
// fixed phrase list. No tokenization, no stemming, no regexes — this is a
// deliberately simple keyword heuristic, and any single match restricts the
// whole message. Restricted questions still cost a quota unit (anti-probing)
// and are answered with one of several refusal phrasings chosen at random so
// the filter has no single fingerprintable denial string.
package assistant

import (
	"math/rand"
	"strings"
)

// defaultBlockedTopics are the restricted phrases. Literal substrings only.
var defaultBlockedTopics = []string{
	"how does the scanner", "how does scanner", "explain the scanner",
	"explain scanner", "how does server hop", "server hop logic",
	"rebirth logic", "how does rebirth", "explain rebirth",
	"how does the script work", "how does it work", "how was it made",
	"how to make", "teach me how", "show me how it works",
	"what does the scanner do", "scanner source", "scanner code",
	"brainrotdata", "mutations table", "sendreport function",
	"pollservers", "how does the backend", "webhook logic",
	"how are webhooks", "explain the webhook",
	"full source code", "give me the source", "send me the code",
}

// defaultRefusals are the rotated denial responses.
var defaultRefusals = []string{
	"Scanner internals are off limits. Ask me about the GUI.",
	"I don't discuss how the scanner works. GUI changes and errors only.",
	"That's not what I'm here for. What needs changing in the GUI?",
	"I know exactly what you're asking and I'm not answering it. Try a GUI question.",
}

// Classification is the outcome of a topic check.
type Classification int

const (
	Permitted Classification = iota
	Restricted
)

// TopicFilter classifies questions against the blocked-phrase list.
type TopicFilter struct {
	topics   []string
	refusals []string

	// pick selects a refusal index; injectable for deterministic tests.
	pick func(n int) int
}

// NewTopicFilter creates a filter from config, falling back to the built-in
// phrase list and refusal set when unset.
func NewTopicFilter(cfg FilterConfig) *TopicFilter {
	topics := cfg.BlockedTopics
	if len(topics) == 0 {
		topics = defaultBlockedTopics
	}
	refusals := cfg.Refusals
	if len(refusals) == 0 {
		refusals = defaultRefusals
	}

	// Phrases are matched lowercase.
	lowered := make([]string, len(topics))
	for i, t := range topics {
		lowered[i] = strings.ToLower(t)
	}

	return &TopicFilter{
		topics:   lowered,
		refusals: refusals,
		pick:     rand.Intn,
	}
}

// Classify returns Restricted if the text contains any blocked phrase,
// case-insensitively, else Permitted.
func (f *TopicFilter) Classify(text string) Classification {
	low := strings.ToLower(text)
	for _, t := range f.topics {
		if strings.Contains(low, t) {
			return Restricted
		}
	}
	return Permitted
}

// Refusal returns one of the refusal phrasings, uniformly at random.
func (f *TopicFilter) Refusal() string {
	return f.refusals[f.pick(len(f.refusals))]
}
