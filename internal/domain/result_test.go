package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplanationResult(t *testing.T) {
	t.Parallel()

	result := NewExplanationResult("Concurrency", 3)
	result.Blocks[3] = BlockExplanation{SlideIndex: 5, Text: "third"}
	result.Blocks[1] = BlockExplanation{SlideIndex: 1, Text: "first"}
	result.Blocks[2] = BlockExplanation{SlideIndex: 2, Text: "ERROR - boom", Failed: true}

	assert.Equal(t, []int{1, 2, 3}, result.Positions())
	assert.Equal(t, 1, result.FailedCount())
	assert.Equal(t, map[int]string{1: "first", 2: "ERROR - boom", 3: "third"}, result.Explanations())
}

func TestExplanationResultJSONKeys(t *testing.T) {
	t.Parallel()

	result := NewExplanationResult("Go", 1)
	result.Blocks[2] = BlockExplanation{SlideIndex: 3, Text: "text"}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"Go","blocks":{"2":{"slide_index":3,"text":"text"}}}`, string(data))

	var decoded ExplanationResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result, decoded)
}
