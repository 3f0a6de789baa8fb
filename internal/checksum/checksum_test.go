package checksum

import "testing"

func TestSumAndString(t *testing.T) {
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("chapter")) != String("chapter") {
		t.Error("Sum and String disagree")
	}
}

func TestMatches(t *testing.T) {
	sum := String("draft")
	if !Matches("draft", sum) {
		t.Error("same content should match")
	}
	if Matches("draft!", sum) {
		t.Error("edited content should not match")
	}
	if Matches("", "") {
		t.Error("empty digest never matches")
	}
}
