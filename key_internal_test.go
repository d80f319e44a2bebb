package propagate

import "testing"

// Collision behavior needs keys with identical routing hashes, which only
// the internal constructor can produce.
func TestCollidingKeysResolveIndependently(t *testing.T) {
	const hash = 0x5EED
	a := newKeyAt[string]("a", hash)
	b := newKeyAt[string]("b", hash)

	ctx := WithValue(WithValue(Empty(), a, "va"), b, "vb")

	if got := a.Get(ctx); got != "va" {
		t.Errorf("a = %q, want va", got)
	}
	if got := b.Get(ctx); got != "vb" {
		t.Errorf("b = %q, want vb", got)
	}

	// Replacing one colliding key leaves the other untouched.
	replaced := WithValue(ctx, a, "va2")
	if got := a.Get(replaced); got != "va2" {
		t.Errorf("a after replace = %q, want va2", got)
	}
	if got := b.Get(replaced); got != "vb" {
		t.Errorf("b after sibling replace = %q, want vb", got)
	}
	if got := a.Get(ctx); got != "va" {
		t.Errorf("original context changed, a = %q", got)
	}
}

func TestKeyHashesSpreadAcrossSlots(t *testing.T) {
	// Sequentially created keys must not pile into one 5-bit slot.
	slots := make(map[uint32]bool)
	for i := 0; i < 32; i++ {
		k := NewKey[int]("k")
		slots[k.hash&0x1f] = true
	}
	if len(slots) < 16 {
		t.Errorf("32 sequential keys landed in only %d distinct slots", len(slots))
	}
}

func TestKeyString(t *testing.T) {
	k := NewKey[int]("lucky")
	if k.String() != "lucky" {
		t.Errorf("String = %q, want lucky", k.String())
	}
}
