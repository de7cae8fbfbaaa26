package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(IntakeFile, "parse-document")
	require.NoError(t, err)
	assert.Contains(t, prompt, "raw_text_preview")
	assert.Contains(t, prompt, "{{.Text}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(QAFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestResearchSystemPromptNamesQueries(t *testing.T) {
	prompt := MustGet(ResearchFile, "system")
	for _, q := range []string{
		"<company> about mission values",
		"<company> products services",
		"<company> business model revenue",
		"<company> recent news",
		"<company> interview process",
	} {
		assert.Contains(t, prompt, q)
	}
}

func TestFormat(t *testing.T) {
	result := Format("Hello {{.Name}}, welcome to {{.Company}}!", map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	})
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", result)
}

func TestFormat_EmptyData(t *testing.T) {
	assert.Equal(t, "Hello {{.Name}}", Format("Hello {{.Name}}", nil))
}

func TestRender(t *testing.T) {
	ClearCache()

	out, err := Render(IntakeFile, "parse-document", map[string]string{"FilePath": "cv.pdf", "Text": "Jane Lee"})
	require.NoError(t, err)
	assert.Contains(t, out, "File path: cv.pdf")
	assert.NotContains(t, out, "{{.")

	_, err = Render(IntakeFile, "parse-document", map[string]string{"FilePath": "cv.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Text")
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(ResearchFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"request", "system"}, keys)
}

func TestEveryFileParses(t *testing.T) {
	ClearCache()

	for _, f := range []string{IntakeFile, ResearchFile, QAFile} {
		keys, err := List(f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, keys, f)
	}
}
