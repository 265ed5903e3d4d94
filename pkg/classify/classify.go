// Package classify tags free text with coarse banking topics, an urgency
// level and a handful of conversational cues. Matching is case-insensitive
// substring search over fixed keyword tables.
package classify

import (
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

type topicRule struct {
	topic    string
	keywords []string
}

// historyTopics tag each stored turn.
var historyTopics = []topicRule{
	{"loan", []string{"loan", "borrow", "mortgage", "credit"}},
	{"card", []string{"card", "debit", "credit", "block"}},
	{"account", []string{"account", "balance", "statement"}},
	{"transfer", []string{"transfer", "send", "payment"}},
}

// switchTopics drive topic-switch detection ahead of the model path.
var switchTopics = []topicRule{
	{"loan", []string{"loan", "borrow", "credit", "mortgage", "financing"}},
	{"card", []string{"card", "debit", "credit", "block", "lost", "stolen"}},
	{"account", []string{"balance", "statement", "transaction", "account", "deposit"}},
	{"transfer", []string{"transfer", "send", "payment", "wire"}},
	{"information", []string{"rate", "fee", "policy", "information", "help"}},
}

var (
	highUrgency = []string{"urgent", "emergency", "lost", "stolen", "immediately", "asap"}

	urgencyCues      = []string{"urgent", "emergency", "lost", "stolen", "immediately", "asap", "help"}
	uncertaintyCues  = []string{"maybe", "not sure", "think", "possibly", "perhaps", "confused"}
	continuationCues = []string{"also", "and", "additionally", "furthermore", "plus"}
	interruptionCues = []string{"wait", "actually", "instead", "change", "different"}
	completionCues   = []string{"done", "finished", "complete", "thanks", "thank you"}
)

// Topics returns the topics a turn is stored under, in table order.
func Topics(text string) []string {
	return match(historyTopics, text)
}

// SwitchTopics returns the topics used to detect a change of subject.
func SwitchTopics(text string) []string {
	return match(switchTopics, text)
}

func match(rules []topicRule, text string) []string {
	lower := strings.ToLower(text)
	var topics []string
	for _, r := range rules {
		if ContainsAny(lower, r.keywords...) {
			topics = append(topics, r.topic)
		}
	}
	return topics
}

// Urgency grades a message: crisis words are high; an exclamation mark
// or an all-caps message is medium.
func Urgency(text string) domain.Urgency {
	lower := strings.ToLower(text)
	switch {
	case ContainsAny(lower, highUrgency...):
		return domain.UrgencyHigh
	case strings.Contains(text, "!") || isShouting(text):
		return domain.UrgencyMedium
	}
	return domain.UrgencyNormal
}

// isShouting reports whether text has letters and none of them are lowercase.
func isShouting(text string) bool {
	return strings.ToUpper(text) == text && strings.ToLower(text) != text
}

// Cues are the conversational signals found in one message.
type Cues struct {
	Urgent       []string
	Uncertain    []string
	Continuation []string
	Interruption []string
	Completion   []string
	TopicShift   bool
	Complex      bool
}

// Analyze extracts cues from message. previous is the user's prior
// message, or "" at the start of a conversation.
func Analyze(message, previous string) Cues {
	lower := strings.ToLower(message)
	c := Cues{
		Urgent:       matching(lower, urgencyCues),
		Uncertain:    matching(lower, uncertaintyCues),
		Continuation: matching(lower, continuationCues),
		Interruption: matching(lower, interruptionCues),
		Completion:   matching(lower, completionCues),
		Complex:      len(strings.Fields(message)) > 20 || strings.Contains(message, "?"),
	}
	if previous != "" {
		c.TopicShift = Disjoint(Topics(previous), Topics(message))
	}
	return c
}

func matching(lower string, words []string) []string {
	var out []string
	for _, w := range words {
		if strings.Contains(lower, w) {
			out = append(out, w)
		}
	}
	return out
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Disjoint reports whether both sets are non-empty and share nothing.
func Disjoint(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return false
			}
		}
	}
	return true
}
