package domain

import (
	"strings"
	"time"
)

// Urgency is an ordered severity scale attached to each turn.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Rank orders urgencies from normal (0) to high (2).
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	}
	return 0
}

// Turn is one user message and its reply. Turns are never mutated.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Timestamp time.Time `json:"timestamp"`
	Topics    []string  `json:"topics"`
	Urgency   Urgency   `json:"urgency"`
}

// Statistics aggregates a transcript.
type Statistics struct {
	TotalMessages int      `json:"total_messages"`
	UrgencyRate   float64  `json:"urgency_rate"`
	Topics        []string `json:"topics"`
}

// Memory is a view derived from the transcript. It is recomputed on
// demand and never stored.
type Memory struct {
	TopicsDiscussed []string   `json:"topics_discussed"`
	TasksCompleted  []string   `json:"tasks_completed"`
	ContextSwitches int        `json:"context_switches"`
	Statistics      Statistics `json:"statistics"`
}

// completionMarkers map reply fragments to the task they confirm.
var completionMarkers = []struct {
	fragment string
	task     string
}{
	{"loan application has been submitted", string(ProcessLoan)},
	{"successfully blocked", "card_blocking"},
	{"credit limit successfully", string(ProcessLimit)},
	{"has been approved and activated", "new_card_application"},
}

// Summarize derives the memory view of turns, oldest first.
func Summarize(turns []Turn) Memory {
	m := Memory{
		TopicsDiscussed: []string{},
		TasksCompleted:  []string{},
	}
	seen := map[string]bool{}
	high := 0
	for i, t := range turns {
		for _, topic := range t.Topics {
			if !seen[topic] {
				seen[topic] = true
				m.TopicsDiscussed = append(m.TopicsDiscussed, topic)
			}
		}
		if t.Urgency == UrgencyHigh {
			high++
		}
		reply := strings.ToLower(t.Assistant)
		for _, cm := range completionMarkers {
			if strings.Contains(reply, cm.fragment) {
				m.TasksCompleted = append(m.TasksCompleted, cm.task)
				break
			}
		}
		if i > 0 && disjoint(turns[i-1].Topics, t.Topics) {
			m.ContextSwitches++
		}
	}
	m.Statistics = Statistics{
		TotalMessages: len(turns),
		Topics:        m.TopicsDiscussed,
	}
	if len(turns) > 0 {
		m.Statistics.UrgencyRate = float64(high) / float64(len(turns))
	}
	return m
}

// disjoint reports whether both sets are non-empty and share nothing.
func disjoint(a, b []string) bool {
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
