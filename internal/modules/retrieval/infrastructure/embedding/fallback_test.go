package embedding

import (
	"context"
	"math"
	"testing"
)

func TestDeterministicVectorStable(t *testing.T) {
	a := DeterministicVector("hello world", 32)
	b := DeterministicVector("hello world", 32)
	if len(a) != 32 {
		t.Fatalf("dim = %d, want 32", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d differs between identical calls", i)
		}
	}
}

func TestDeterministicVectorDistinctTexts(t *testing.T) {
	a := DeterministicVector("alpha", 16)
	b := DeterministicVector("beta", 16)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestDeterministicVectorUnitNorm(t *testing.T) {
	v := DeterministicVector("normalize me", 64)
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("magnitude^2 = %v, want 1", sum)
	}
}

func TestDeterministicVectorDefaultDim(t *testing.T) {
	if got := len(DeterministicVector("x", 0)); got != 16 {
		t.Errorf("dim = %d, want default 16", got)
	}
}

func TestMockEmbedder(t *testing.T) {
	m := NewMockEmbedder(8)
	vecs, err := m.EmbedStrings(context.Background(), []string{"one", "two", "one"})
	if err != nil {
		t.Fatalf("EmbedStrings: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 8 {
			t.Errorf("vector %d dim = %d, want 8", i, len(v))
		}
	}
	for i := range vecs[0] {
		if vecs[0][i] != vecs[2][i] {
			t.Fatal("same text embedded differently within one batch")
		}
	}
}
