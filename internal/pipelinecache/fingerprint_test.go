package pipelinecache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/intentd/internal/models"
)

func TestCompute_StableForIdenticalInput(t *testing.T) {
	app := models.Application{AppKey: "demo", EnableKeyword: true, EnableRegex: true}
	assert.Equal(t, Compute(app, 0.7), Compute(app, 0.7))
}

func TestCompute_ChangesWithEachTupleField(t *testing.T) {
	base := models.Application{AppKey: "demo", EnableKeyword: true, EnableRegex: true, EnableSemantic: true, EnableLLMFallback: true}
	baseFP := Compute(base, 0.7)

	variants := []models.Application{
		{AppKey: "other", EnableKeyword: true, EnableRegex: true, EnableSemantic: true, EnableLLMFallback: true},
		{AppKey: "demo", EnableKeyword: false, EnableRegex: true, EnableSemantic: true, EnableLLMFallback: true},
		{AppKey: "demo", EnableKeyword: true, EnableRegex: false, EnableSemantic: true, EnableLLMFallback: true},
		{AppKey: "demo", EnableKeyword: true, EnableRegex: true, EnableSemantic: false, EnableLLMFallback: true},
		{AppKey: "demo", EnableKeyword: true, EnableRegex: true, EnableSemantic: true, EnableLLMFallback: false},
	}
	for _, v := range variants {
		assert.NotEqual(t, baseFP, Compute(v, 0.7), "%+v must differ from base", v)
	}

	assert.NotEqual(t, baseFP, Compute(base, 0.9), "semantic threshold must be part of the fingerprint")
}
