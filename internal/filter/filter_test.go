package filter

import "testing"

func TestBlockedSubstring(t *testing.T) {
	t.Parallel()

	k := New([]string{"casino", "лотерея"})

	if !k.Blocked("Visit our casino tonight") {
		t.Fatal("expected substring hit")
	}
	if !k.Blocked("Новая лотерея объявлена") {
		t.Fatal("expected non-latin substring hit")
	}
	if k.Blocked("harmless headline") {
		t.Fatal("unexpected hit on clean text")
	}
}

func TestBlockedCaseSensitive(t *testing.T) {
	t.Parallel()

	k := New([]string{"casino"})
	if k.Blocked("CASINO night") {
		t.Fatal("matching must be case-sensitive")
	}
}

func TestBlockedMultipleTexts(t *testing.T) {
	t.Parallel()

	k := New([]string{"spam"})
	if !k.Blocked("clean title", "body with spam inside") {
		t.Fatal("expected hit in second text")
	}
	if k.Blocked("", "clean") {
		t.Fatal("unexpected hit")
	}
}

func TestEmptyBlockList(t *testing.T) {
	t.Parallel()

	if New(nil).Blocked("anything at all") {
		t.Fatal("empty block-list must never match")
	}
	if New([]string{"", ""}).Blocked("anything") {
		t.Fatal("blank entries must be discarded")
	}

	var zero *Keywords
	if zero.Blocked("anything") {
		t.Fatal("nil matcher must never match")
	}
}
