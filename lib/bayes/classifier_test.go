package bayes

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pos Label = "positive"
	neg Label = "negative"
)

func TestClassifier_AddDocument(t *testing.T) {
	c := New[string]()
	assert.Equal(t, StateEmpty, c.State())

	require.NoError(t, c.AddDocument([]string{"A", "B", "A"}, pos))
	require.NoError(t, c.AddDocument([]string{"B"}, neg))
	require.NoError(t, c.AddDocument(nil, neg))
	assert.Equal(t, StateIngested, c.State())

	assert.Equal(t, 3, c.Documents())
	assert.Equal(t, 2, c.VocabularySize())
	assert.Equal(t, []Label{neg, pos}, c.Labels())
	assert.Equal(t, 2, c.Count("A", pos), "duplicate feature counted twice")
	assert.Equal(t, 1, c.Count("B", pos))
	assert.Equal(t, 1, c.Count("B", neg))
	assert.Equal(t, 0, c.Count("A", neg))
	assert.Equal(t, 1, c.docs[pos])
	assert.Equal(t, 2, c.docs[neg])

	_, ok := c.Prior(pos)
	assert.False(t, ok, "no priors before training")
	_, ok = c.Probability("A", pos)
	assert.False(t, ok, "no probabilities before training")

	t.Run("empty label", func(t *testing.T) {
		err := c.AddDocument([]string{"A"}, "")
		assert.ErrorIs(t, err, ErrEmptyLabel)
		assert.Equal(t, 3, c.Documents())
	})
}

func TestClassifier_Train(t *testing.T) {
	c := New[string]()
	require.NoError(t, c.AddDocument([]string{"A", "B"}, pos))
	require.NoError(t, c.AddDocument([]string{"B"}, neg))
	require.NoError(t, c.Train())
	assert.Equal(t, StateTrained, c.State())

	tests := []struct {
		feature  string
		label    Label
		expected float64
	}{
		{"A", pos, 0.5},
		{"A", neg, 1. / 3},
		{"B", pos, 0.5},
		{"B", neg, 2. / 3},
	}
	for _, tt := range tests {
		p, ok := c.Probability(tt.feature, tt.label)
		require.True(t, ok, "%s|%s", tt.feature, tt.label)
		assert.InDelta(t, tt.expected, p, 1e-12, "%s|%s", tt.feature, tt.label)
	}

	for _, label := range []Label{pos, neg} {
		p, ok := c.Prior(label)
		require.True(t, ok)
		assert.InDelta(t, 0.5, p, 1e-12)
	}

	_, ok := c.Probability("C", pos)
	assert.False(t, ok, "unknown feature")
	_, ok = c.Prior("other")
	assert.False(t, ok, "unknown label")
}

func TestClassifier_TrainUsesDistinctFeatureCount(t *testing.T) {
	c := New[int]()
	require.NoError(t, c.AddDocument([]int{1, 1, 1, 2}, pos))
	require.NoError(t, c.AddDocument([]int{3}, neg))
	require.NoError(t, c.Train())

	// pos has 2 distinct features (not 4 occurrences), vocabulary is 3
	p, ok := c.Probability(1, pos)
	require.True(t, ok)
	assert.InDelta(t, 4./5, p, 1e-12)
	p, _ = c.Probability(3, pos)
	assert.InDelta(t, 1./5, p, 1e-12)
	p, _ = c.Probability(1, neg)
	assert.InDelta(t, 1./4, p, 1e-12)
	p, _ = c.Probability(3, neg)
	assert.InDelta(t, 2./4, p, 1e-12)
}

func TestClassifier_TrainErrors(t *testing.T) {
	t.Run("no training data", func(t *testing.T) {
		c := New[string]()
		assert.ErrorIs(t, c.Train(), ErrNoTrainingData)
		assert.Equal(t, StateEmpty, c.State())
	})

	t.Run("second train rejected and model unchanged", func(t *testing.T) {
		c := New[string]()
		require.NoError(t, c.AddDocument([]string{"A", "B"}, pos))
		require.NoError(t, c.AddDocument([]string{"B"}, neg))
		require.NoError(t, c.Train())
		before, err := c.Classifications([]string{"A", "B"})
		require.NoError(t, err)
		statsBefore := c.Stats()

		assert.ErrorIs(t, c.Train(), ErrAlreadyTrained)

		after, err := c.Classifications([]string{"A", "B"})
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, statsBefore, c.Stats())
	})

	t.Run("add after train rejected", func(t *testing.T) {
		c := New[string]()
		require.NoError(t, c.AddDocument([]string{"A"}, pos))
		require.NoError(t, c.Train())
		assert.ErrorIs(t, c.AddDocument([]string{"B"}, neg), ErrAlreadyTrained)
		assert.Equal(t, 1, c.Documents())
		assert.Equal(t, 1, c.VocabularySize())
	})
}

func TestClassifier_Classifications(t *testing.T) {
	c := New[string]()
	require.NoError(t, c.AddDocument([]string{"A", "B"}, pos))
	require.NoError(t, c.AddDocument([]string{"B"}, neg))

	_, err := c.Classifications([]string{"A"})
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = c.Percentages([]string{"A"})
	assert.ErrorIs(t, err, ErrNotTrained)

	require.NoError(t, c.Train())

	tests := []struct {
		name     string
		features []string
		expected map[Label]float64
	}{
		{name: "both known", features: []string{"A", "B"}, expected: map[Label]float64{pos: 0.125, neg: 1. / 9}},
		{name: "single known", features: []string{"B"}, expected: map[Label]float64{pos: 0.25, neg: 1. / 3}},
		{name: "known and unknown", features: []string{"A", "Z"}, expected: map[Label]float64{pos: 0.25, neg: 1. / 6}},
		{name: "empty query", features: nil, expected: map[Label]float64{pos: 0.5, neg: 0.5}},
		{name: "repeated feature", features: []string{"B", "B"}, expected: map[Label]float64{pos: 0.125, neg: 2. / 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Classifications(tt.features)
			require.NoError(t, err)
			require.Len(t, res, len(tt.expected))
			for label, exp := range tt.expected {
				assert.InDelta(t, exp, res[label], 1e-12, "label %s", label)
			}
		})
	}

	t.Run("percentages", func(t *testing.T) {
		res, err := c.Percentages([]string{"A", "B"})
		require.NoError(t, err)
		assert.InDelta(t, 52.94, res[pos], 0.01)
		assert.InDelta(t, 47.06, res[neg], 0.01)
		assert.InDelta(t, 100, res[pos]+res[neg], 1e-9)
	})

	t.Run("log classifications", func(t *testing.T) {
		res, err := c.LogClassifications([]string{"A", "B"})
		require.NoError(t, err)
		assert.InDelta(t, math.Log(0.125), res[pos], 1e-12)
		assert.InDelta(t, math.Log(1./9), res[neg], 1e-12)
	})
}

func TestClassifier_UnknownFeaturesReturnPriors(t *testing.T) {
	c := New[int]()
	require.NoError(t, c.AddDocument([]int{1, 2}, pos))
	require.NoError(t, c.AddDocument([]int{2, 3}, neg))
	require.NoError(t, c.AddDocument([]int{4}, neg))
	require.NoError(t, c.Train())

	res, err := c.Classifications([]int{100, 200, 300})
	require.NoError(t, err)
	for _, label := range c.Labels() {
		prior, ok := c.Prior(label)
		require.True(t, ok)
		assert.Equal(t, prior, res[label], "label %s", label) // exact, not approximate
	}
}

func TestClassifier_Properties(t *testing.T) {
	rnd := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data
	labels := []Label{"a", "b", "c"}

	type doc struct {
		features []int
		label    Label
	}
	docs := make([]doc, 0, 200)
	for i := 0; i < 200; i++ {
		features := make([]int, rnd.Intn(6))
		for j := range features {
			features[j] = rnd.Intn(50)
		}
		docs = append(docs, doc{features: features, label: labels[rnd.Intn(len(labels))]})
	}

	build := func(docs []doc) *Classifier[int] {
		c := New[int]()
		for _, d := range docs {
			require.NoError(t, c.AddDocument(d.features, d.label))
		}
		require.NoError(t, c.Train())
		return c
	}

	c := build(docs)

	t.Run("probabilities in range", func(t *testing.T) {
		for f, probs := range c.vocabulary {
			assert.Len(t, probs, len(c.counts), "feature %d has probability for every label", f)
			for label, p := range probs {
				assert.Greater(t, p, 0.0, "%d|%s", f, label)
				assert.LessOrEqual(t, p, 1.0, "%d|%s", f, label)
			}
		}
	})

	t.Run("priors sum to one", func(t *testing.T) {
		sum := 0.0
		for _, p := range c.Stats().Priors {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("insertion order independent", func(t *testing.T) {
		shuffled := make([]doc, len(docs))
		copy(shuffled, docs)
		rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		c2 := build(shuffled)
		assert.Equal(t, c.priors, c2.priors)
		assert.Equal(t, c.vocabulary, c2.vocabulary)
	})

	t.Run("long query does not underflow in percentages", func(t *testing.T) {
		query := make([]int, 0, 5000)
		for i := 0; i < 5000; i++ {
			query = append(query, i%50)
		}
		raw, err := c.Classifications(query)
		require.NoError(t, err)
		for _, v := range raw {
			assert.Zero(t, v, "raw product underflows")
		}
		pct, err := c.Percentages(query)
		require.NoError(t, err)
		sum := 0.0
		for _, v := range pct {
			assert.False(t, math.IsNaN(v))
			sum += v
		}
		assert.InDelta(t, 100, sum, 1e-6)
	})
}

func TestClassifier_ConcurrentClassifications(t *testing.T) {
	c := New[int]()
	require.NoError(t, c.AddDocument([]int{1, 2, 3}, pos))
	require.NoError(t, c.AddDocument([]int{3, 4, 5}, neg))
	require.NoError(t, c.Train())

	expected, err := c.Classifications([]int{1, 3, 5})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				res, err := c.Classifications([]int{1, 3, 5})
				assert.NoError(t, err)
				assert.Equal(t, expected, res)
			}
		}()
	}
	wg.Wait()
}

func TestClassifier_Stats(t *testing.T) {
	c := New[string]()
	st := c.Stats()
	assert.Equal(t, StateEmpty, st.State)
	assert.Empty(t, st.Labels)
	assert.Nil(t, st.Priors)

	require.NoError(t, c.AddDocument([]string{"x", "y"}, pos))
	require.NoError(t, c.AddDocument([]string{"x"}, pos))
	require.NoError(t, c.AddDocument([]string{"z"}, neg))
	require.NoError(t, c.Train())

	st = c.Stats()
	assert.Equal(t, Stats{
		State:      StateTrained,
		Documents:  3,
		Vocabulary: 3,
		Labels:     []Label{neg, pos},
		Priors:     map[Label]float64{pos: 2. / 3, neg: 1. / 3},
	}, st)

	st.Priors[pos] = 0 // returned map is a copy
	p, _ := c.Prior(pos)
	assert.InDelta(t, 2./3, p, 1e-12)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "ingested", StateIngested.String())
	assert.Equal(t, "trained", StateTrained.String())
	assert.Equal(t, "unknown(7)", State(7).String())
}

func TestSoftmax(t *testing.T) {
	tests := []struct {
		name     string
		logProbs map[Label]float64
		expected map[Label]float64
	}{
		{
			name:     "normal case",
			logProbs: map[Label]float64{pos: -1.0, neg: 2.0},
			expected: map[Label]float64{pos: 0.0474, neg: 0.9526},
		},
		{
			name:     "equal values",
			logProbs: map[Label]float64{pos: 1.0, neg: 1.0},
			expected: map[Label]float64{pos: 0.5, neg: 0.5},
		},
		{
			name:     "large negative values",
			logProbs: map[Label]float64{pos: -745, neg: -744},
			expected: map[Label]float64{pos: 0.269, neg: 0.731},
		},
		{
			name:     "extreme difference",
			logProbs: map[Label]float64{pos: -1e308, neg: 1e308},
			expected: map[Label]float64{pos: 0.0, neg: 1.0},
		},
		{
			name:     "all zero scores",
			logProbs: map[Label]float64{pos: math.Inf(-1), neg: math.Inf(-1)},
			expected: map[Label]float64{pos: 0, neg: 0},
		},
		{
			name:     "empty input",
			logProbs: map[Label]float64{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := softmax(tt.logProbs)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			require.Len(t, result, len(tt.expected))
			for label, expected := range tt.expected {
				actual, ok := result[label]
				assert.True(t, ok, "label %v should exist in result", label)
				assert.InDelta(t, expected, actual, 0.001, "label %v", label)
				assert.False(t, math.IsNaN(actual), "probability should not be NaN")
			}
		})
	}
}
