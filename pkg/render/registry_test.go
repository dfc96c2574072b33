package render

import (
	"testing"

	"screening-bot-be/internal/pkg/apperror"
	"screening-bot-be/internal/pkg/logger"
	"screening-bot-be/pkg/llm/factory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelSpecs(t *testing.T) {
	specs, err := ParseModelSpecs("Llama=ollama|llama3|stream, Zephyr=huggingface|HuggingFaceH4/zephyr-7b-beta, Gemini=gemini|gemini-1.5-flash|once")
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, ModelSpec{Name: "Llama", Provider: "ollama", Model: "llama3", Mode: ModeStream}, specs[0])
	assert.Equal(t, ModeStream, specs[1].Mode)
	assert.Equal(t, ModeOnce, specs[2].Mode)
}

func TestParseModelSpecsErrors(t *testing.T) {
	for _, raw := range []string{
		"",
		"Llama",
		"Llama=ollama",
		"Llama=ollama|llama3|sometimes",
		"Llama=ollama|llama3,Llama=ollama|llama2",
		"=ollama|llama3",
	} {
		_, err := ParseModelSpecs(raw)
		assert.Error(t, err, raw)
	}
}

func TestBuildRegistry(t *testing.T) {
	specs, err := ParseModelSpecs("Llama=ollama|llama3|stream,Gemini=gemini|gemini-1.5-flash|once")
	require.NoError(t, err)

	reg, err := BuildRegistry(specs, factory.Endpoints{}, settings, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"Llama", "Gemini"}, reg.Names())

	r, err := reg.Lookup("Gemini")
	require.NoError(t, err)
	assert.Equal(t, ModeOnce, r.Mode())

	_, err = reg.Lookup("Mistral")
	assert.ErrorIs(t, err, apperror.ErrModelUnavailable)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestBuildRegistryRejectsNonStreamingStream(t *testing.T) {
	specs, err := ParseModelSpecs("Gemini=gemini|gemini-1.5-flash|stream")
	require.NoError(t, err)

	_, err = BuildRegistry(specs, factory.Endpoints{}, settings, logger.NewNopLogger())
	assert.Error(t, err)
}
