package bank

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/teller/pkg/domain"
)

// DefaultKnowledge is the product FAQ served when no documents are configured.
var DefaultKnowledge = []string{
	"Our personal loan interest rates start from 5.2% APR. The exact rate depends on your credit score and income.",
	"You can apply for a personal loan online through our banking app or website. The process takes 2-3 business days.",
	"Credit card applications are processed within 7-10 business days. You need a minimum income of $25,000 annually.",
	"Our savings account offers 2.1% annual interest rate with no minimum balance requirement.",
	"For checking accounts, we offer free checking with no monthly maintenance fees when you maintain a $500 minimum balance.",
}

// minRelevance is the cosine score a document must exceed to be returned.
const minRelevance = 0.1

var tokenRe = regexp.MustCompile(`\b\w\w+\b`)

var stopWords = func() map[string]struct{} {
	words := strings.Fields(`a about above after again against all also am an and any are as at be because
		been before being below between both but by can could did do does doing down during each few
		for from further had has have having he her here hers herself him himself his how i if in into
		is it its itself just me more most my myself no nor not now of off on once only or other our
		ours ourselves out over own same she should so some such than that the their theirs them
		themselves then there these they this those through to too under until up very was we were
		what when where which while who whom why will with within would you your yours yourself
		yourselves`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Knowledge is an in-memory TF-IDF index over short documents.
type Knowledge struct {
	docs    []string
	idf     map[string]float64
	vectors []map[string]float64
}

// NewKnowledge indexes docs, skipping blank entries.
func NewKnowledge(docs []string) *Knowledge {
	k := &Knowledge{idf: make(map[string]float64)}
	var tokenized [][]string
	for _, d := range docs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		k.docs = append(k.docs, d)
		tokenized = append(tokenized, tokenize(d))
	}

	df := make(map[string]int)
	for _, toks := range tokenized {
		seen := make(map[string]bool)
		for _, t := range toks {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	n := float64(len(k.docs))
	for term, count := range df {
		k.idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}
	for _, toks := range tokenized {
		k.vectors = append(k.vectors, k.vector(toks))
	}
	return k
}

func tokenize(s string) []string {
	var out []string
	for _, t := range tokenRe.FindAllString(strings.ToLower(s), -1) {
		if _, stop := stopWords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

// vector weights term counts by idf and normalizes to unit length.
// Terms outside the vocabulary are dropped.
func (k *Knowledge) vector(toks []string) map[string]float64 {
	v := make(map[string]float64)
	for _, t := range toks {
		if idf, ok := k.idf[t]; ok {
			v[t] += idf
		}
	}
	var norm float64
	for _, w := range v {
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for t := range v {
		v[t] /= norm
	}
	return v
}

// Search returns up to topK documents scoring above the relevance threshold,
// best first.
func (k *Knowledge) Search(query string, topK int) domain.KnowledgeHits {
	if topK <= 0 {
		topK = 3
	}
	q := k.vector(tokenize(query))
	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(k.docs))
	for i, dv := range k.vectors {
		var dot float64
		for t, w := range q {
			dot += w * dv[t]
		}
		ranked = append(ranked, scored{i, dot})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	var hits domain.KnowledgeHits
	var parts []string
	for i := 0; i < len(ranked) && i < topK; i++ {
		if ranked[i].score <= minRelevance {
			continue
		}
		doc := k.docs[ranked[i].idx]
		hits.Results = append(hits.Results, domain.KnowledgeHit{Content: doc, Score: ranked[i].score})
		parts = append(parts, doc)
	}
	hits.Summary = strings.Join(parts, "\n\n")
	return hits
}
