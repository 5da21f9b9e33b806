package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"truelive-router/internal/domain"
)

func TestMatch_FirstDeclaredWins(t *testing.T) {
	kb, err := NewKnowledgeBase([]domain.Fact{
		{Question: "Capital", Answer: "first", Source: "A"},
		{Question: "capital of israel", Answer: "second", Source: "B"},
	})
	require.NoError(t, err)

	f, ok := kb.Match("What is the CAPITAL OF ISRAEL?")
	require.True(t, ok)
	require.Equal(t, "first", f.Answer)
}

func TestMatch_NoHit(t *testing.T) {
	kb, err := NewKnowledgeBase([]domain.Fact{{Question: "western wall", Answer: "a", Source: "s"}})
	require.NoError(t, err)

	_, ok := kb.Match("What is Zionism?")
	require.False(t, ok)
}

func TestMatch_NilKnowledgeBase(t *testing.T) {
	var kb *KnowledgeBase
	_, ok := kb.Match("anything")
	require.False(t, ok)
	require.Zero(t, kb.Len())
}

func TestNewKnowledgeBase_RejectsEmptyFields(t *testing.T) {
	_, err := NewKnowledgeBase([]domain.Fact{{Question: " ", Answer: "a"}})
	require.ErrorContains(t, err, "empty question")

	_, err = NewKnowledgeBase([]domain.Fact{{Question: "q", Answer: ""}})
	require.ErrorContains(t, err, "empty answer")
}

func TestLoadKnowledgeBase_Embedded(t *testing.T) {
	kb, err := LoadKnowledgeBase("")
	require.NoError(t, err)
	require.Positive(t, kb.Len())

	f, ok := kb.Match("qual é a capital de Israel?")
	require.True(t, ok)
	require.Equal(t, "Knesset", f.Source)
}

func TestLoadKnowledgeBase_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"question":"torah","answer":"The five books of Moses.","source":"Tanakh"}]`), 0o600))

	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	require.Equal(t, 1, kb.Len())
}

func TestLoadKnowledgeBase_Errors(t *testing.T) {
	_, err := LoadKnowledgeBase(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "read")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = LoadKnowledgeBase(path)
	require.ErrorContains(t, err, "decode knowledge base")
}

func TestTrustedSources_NormalizesAndDedupes(t *testing.T) {
	s, err := NewTrustedSources([]string{" Reuters.com", "reuters.com", "", "apnews.com"})
	require.NoError(t, err)
	require.Equal(t, []string{"reuters.com", "apnews.com"}, s.Domains())

	got := s.Domains()
	got[0] = "mutated"
	require.Equal(t, "reuters.com", s.Domains()[0])
}

func TestTrustedSources_Empty(t *testing.T) {
	_, err := NewTrustedSources([]string{" "})
	require.ErrorContains(t, err, "empty")
}

func TestLoadTrustedSources_Embedded(t *testing.T) {
	s, err := LoadTrustedSources("")
	require.NoError(t, err)
	require.Contains(t, s.Domains(), "timesofisrael.com")
}

func TestFacts_ReturnsCopyInOrder(t *testing.T) {
	kb, err := NewKnowledgeBase([]domain.Fact{
		{Question: "a", Answer: "1", Source: "S"},
		{Question: "b", Answer: "2", Source: "S"},
	})
	require.NoError(t, err)

	facts := kb.Facts()
	require.Equal(t, "a", facts[0].Question)
	facts[0].Question = "mutated"
	require.Equal(t, "a", kb.Facts()[0].Question)

	var nilKB *KnowledgeBase
	require.Nil(t, nilKB.Facts())
}
