package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCleanInputIsIdempotent(t *testing.T) {
	got, err := ParseDiagnoses("hypertension\ntype 2 diabetes mellitus")
	require.NoError(t, err)
	assert.Equal(t, []string{"hypertension", "type 2 diabetes mellitus"}, got)
}

func TestParseStripsNumbering(t *testing.T) {
	got, err := ParseDiagnoses("1. Hypertension\n2. Pneumonia\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hypertension", "Pneumonia"}, got)
}

func TestParseEmptyOutputFails(t *testing.T) {
	for _, raw := range []string{"", " ", "\n\n", "\t \n"} {
		_, err := ParseDiagnoses(raw)
		require.Error(t, err, "raw=%q", raw)
		assert.True(t, IsParse(err), "raw=%q", raw)
	}
}

func TestParseDiscardsLeadingProse(t *testing.T) {
	got, err := ParseDiagnoses("The patient has:\n- Diabetes\n- Pneumonia")
	require.NoError(t, err)
	assert.Equal(t, []string{"Diabetes", "Pneumonia"}, got)
}

func TestParseCommaSeparatedList(t *testing.T) {
	got, err := ParseDiagnoses("pneumonia, type 2 diabetes mellitus, hypertension")
	require.NoError(t, err)
	assert.Equal(t, []string{"pneumonia", "type 2 diabetes mellitus", "hypertension"}, got)
}

func TestParseMixedDelimiters(t *testing.T) {
	got, err := ParseDiagnoses("1. Hypertension, pneumonia; CHF\n* asthma")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hypertension", "pneumonia", "CHF", "asthma"}, got)
}

func TestParseDedupesCaseInsensitively(t *testing.T) {
	got, err := ParseDiagnoses("Pneumonia, pneumonia, PNEUMONIA, sepsis")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pneumonia", "sepsis"}, got)
}

func TestParseStripsWrappingPunctuation(t *testing.T) {
	got, err := ParseDiagnoses(`"pneumonia", [sepsis], (hypertension).`)
	require.NoError(t, err)
	assert.Equal(t, []string{"pneumonia", "sepsis", "hypertension"}, got)
}

func TestParseLabeledListAfterColon(t *testing.T) {
	got, err := ParseDiagnoses("Diagnoses: pneumonia, diabetes")
	require.NoError(t, err)
	assert.Equal(t, []string{"pneumonia", "diabetes"}, got)
}

func TestParseDropsStructuralSegments(t *testing.T) {
	got, err := ParseDiagnoses("1.\n2\n--\npneumonia")
	require.NoError(t, err)
	assert.Equal(t, []string{"pneumonia"}, got)
}

func TestParseKeepsLeadingDigitsInNames(t *testing.T) {
	got, err := ParseDiagnoses("22q11 deletion syndrome")
	require.NoError(t, err)
	assert.Equal(t, []string{"22q11 deletion syndrome"}, got)
}

func TestParseProseOnlyFails(t *testing.T) {
	_, err := ParseDiagnoses("The note does not contain enough information")
	require.Error(t, err)
	assert.True(t, IsParse(err))
}

func TestParseTrailingExplanationDropped(t *testing.T) {
	got, err := ParseDiagnoses("- Pneumonia\n- Sepsis\nThese diagnoses were extracted from the note")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pneumonia", "Sepsis"}, got)
}

func TestParsePreservesFirstAppearanceOrder(t *testing.T) {
	got, err := ParseDiagnoses("sepsis\npneumonia\nSepsis\nasthma")
	require.NoError(t, err)
	assert.Equal(t, []string{"sepsis", "pneumonia", "asthma"}, got)
}
