// Package bayes implements naive Bayes classifier over categorical features with additive (+1) smoothing.
// The classifier is filled with labeled documents, trained once and then queried for per-label scores.
package bayes

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Label is a class of a document, e.g. "positive" or "negative"
type Label string

// State represents the lifecycle stage of a classifier
type State int

// enum of classifier states
const (
	StateEmpty    State = iota // no documents added
	StateIngested              // documents added, not trained yet
	StateTrained               // trained, read-only
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateIngested:
		return "ingested"
	case StateTrained:
		return "trained"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// errors returned by classifier on lifecycle violations
var (
	ErrNotTrained     = errors.New("model is not trained")
	ErrAlreadyTrained = errors.New("model is already trained")
	ErrNoTrainingData = errors.New("no training data")
	ErrEmptyLabel     = errors.New("empty label")
)

// Classifier is a naive Bayes classifier for documents made of features of type F.
// Documents are added with AddDocument, Train is called once, and after that the classifier is read-only
// and safe for concurrent Classifications calls. AddDocument and Train are not thread-safe.
type Classifier[F comparable] struct {
	vocabulary map[F]map[Label]float64 // feature -> label -> conditional probability, filled by Train
	counts     map[Label]map[F]int     // label -> feature -> co-occurrence count
	docs       map[Label]int           // label -> number of documents
	priors     map[Label]float64       // label -> prior probability, filled by Train
	nDocs      int
	trained    bool
}

// Stats is a summary of the classifier
type Stats struct {
	State      State             `json:"state"`
	Documents  int               `json:"documents"`
	Vocabulary int               `json:"vocabulary"`
	Labels     []Label           `json:"labels"`
	Priors     map[Label]float64 `json:"priors,omitempty"`
}

// New makes an empty classifier
func New[F comparable]() *Classifier[F] {
	return &Classifier[F]{
		vocabulary: make(map[F]map[Label]float64),
		counts:     make(map[Label]map[F]int),
		docs:       make(map[Label]int),
		priors:     make(map[Label]float64),
	}
}

// AddDocument adds a labeled document to the classifier. Each occurrence of a feature is counted,
// so a feature repeated in the document increments its count more than once.
// A document without features is allowed and affects the label's prior only.
func (c *Classifier[F]) AddDocument(features []F, label Label) error {
	if c.trained {
		return ErrAlreadyTrained
	}
	if label == "" {
		return ErrEmptyLabel
	}

	if _, ok := c.counts[label]; !ok {
		c.counts[label] = make(map[F]int)
		c.docs[label] = 0
	}
	c.docs[label]++
	c.nDocs++

	for _, f := range features {
		if _, ok := c.vocabulary[f]; !ok {
			c.vocabulary[f] = make(map[Label]float64)
		}
		c.counts[label][f]++
	}
	return nil
}

// Train estimates conditional probabilities for every feature and label pair, and label priors.
// probability(f, c) = (count(f, c) + 1) / (distinct features of c + vocabulary size).
// Note: the denominator uses the number of distinct features seen with the label, not the total number of occurrences.
// Raw counts are kept intact, Train can be called only once.
func (c *Classifier[F]) Train() error {
	if c.trained {
		return ErrAlreadyTrained
	}
	if c.nDocs == 0 {
		return ErrNoTrainingData
	}

	nVocabulary := len(c.vocabulary)
	for f, probs := range c.vocabulary {
		for label, counts := range c.counts {
			probs[label] = float64(counts[f]+1) / float64(len(counts)+nVocabulary)
		}
	}

	for label, n := range c.docs {
		c.priors[label] = float64(n) / float64(c.nDocs)
	}
	c.trained = true
	return nil
}

// Classifications returns unnormalized score for each label, prior(label) * Π probability(f, label).
// Features never seen in training are skipped. Scores are accumulated in log space and exponentiated at the end.
func (c *Classifier[F]) Classifications(features []F) (map[Label]float64, error) {
	logScores, err := c.logScores(features)
	if err != nil {
		return nil, err
	}
	res := make(map[Label]float64, len(logScores))
	for label, ls := range logScores {
		// prior is multiplied directly, so a query without known features returns priors as-is
		res[label] = c.priors[label] * math.Exp(ls)
	}
	return res, nil
}

// LogClassifications returns natural logarithm of the score for each label.
// Use it instead of Classifications for long queries where the product of probabilities may underflow.
func (c *Classifier[F]) LogClassifications(features []F) (map[Label]float64, error) {
	logScores, err := c.logScores(features)
	if err != nil {
		return nil, err
	}
	for label := range logScores {
		logScores[label] += math.Log(c.priors[label])
	}
	return logScores, nil
}

// Percentages returns scores normalized to percents, score(label) / Σ scores * 100.
// Normalization is done in log space, so it stays accurate even when raw scores underflow.
func (c *Classifier[F]) Percentages(features []F) (map[Label]float64, error) {
	logScores, err := c.LogClassifications(features)
	if err != nil {
		return nil, err
	}
	res := softmax(logScores)
	for label := range res {
		res[label] *= 100
	}
	return res, nil
}

// logScores returns the sum of log probabilities of known features per label, without prior
func (c *Classifier[F]) logScores(features []F) (map[Label]float64, error) {
	if !c.trained {
		return nil, ErrNotTrained
	}
	res := make(map[Label]float64, len(c.priors))
	for label := range c.priors {
		var sum float64
		for _, f := range features {
			probs, ok := c.vocabulary[f]
			if !ok {
				continue
			}
			sum += math.Log(probs[label])
		}
		res[label] = sum
	}
	return res, nil
}

// State returns the current lifecycle state
func (c *Classifier[F]) State() State {
	switch {
	case c.trained:
		return StateTrained
	case c.nDocs > 0:
		return StateIngested
	default:
		return StateEmpty
	}
}

// Labels returns sorted list of known labels
func (c *Classifier[F]) Labels() []Label {
	res := make([]Label, 0, len(c.counts))
	for label := range c.counts {
		res = append(res, label)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// VocabularySize returns the number of distinct features seen
func (c *Classifier[F]) VocabularySize() int { return len(c.vocabulary) }

// Documents returns the number of added documents
func (c *Classifier[F]) Documents() int { return c.nDocs }

// Count returns the number of times feature f was seen with the label
func (c *Classifier[F]) Count(f F, label Label) int { return c.counts[label][f] }

// Prior returns prior probability of the label. Before training it returns false.
func (c *Classifier[F]) Prior(label Label) (float64, bool) {
	if !c.trained {
		return 0, false
	}
	p, ok := c.priors[label]
	return p, ok
}

// Probability returns conditional probability of feature f given the label.
// Returns false for unknown feature or label, or if the classifier is not trained.
func (c *Classifier[F]) Probability(f F, label Label) (float64, bool) {
	if !c.trained {
		return 0, false
	}
	p, ok := c.vocabulary[f][label]
	return p, ok
}

// Stats returns classifier summary
func (c *Classifier[F]) Stats() Stats {
	res := Stats{State: c.State(), Documents: c.nDocs, Vocabulary: len(c.vocabulary), Labels: c.Labels()}
	if c.trained {
		res.Priors = make(map[Label]float64, len(c.priors))
		for label, p := range c.priors {
			res.Priors[label] = p
		}
	}
	return res
}

// softmax converts log scores to probabilities summing to 1.
// The max is subtracted before exponentiation to avoid overflow and underflow.
func softmax(logProbs map[Label]float64) map[Label]float64 {
	if len(logProbs) == 0 {
		return nil
	}

	maxLog := math.Inf(-1)
	for _, lp := range logProbs {
		if lp > maxLog {
			maxLog = lp
		}
	}

	probs := make(map[Label]float64, len(logProbs))
	if math.IsInf(maxLog, -1) { // all scores are zero
		for label := range logProbs {
			probs[label] = 0
		}
		return probs
	}

	sum := 0.0
	for label, lp := range logProbs {
		probs[label] = math.Exp(lp - maxLog)
		sum += probs[label]
	}
	for label := range probs {
		probs[label] /= sum
	}
	return probs
}
