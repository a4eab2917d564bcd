package quotepipe

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestText_RoundTrip(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "Hello world - Alice\n")

	got, err := (&TextParser{}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []Quote{{Body: "Hello world", Author: "Alice"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("quotes mismatch (-want +got):\n%s", diff)
	}
}

func TestText_BlankLinesAndCRLF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "\r\nBark - Rex\r\n   \r\nWoof - Fido\r\n")

	got, err := (&TextParser{}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []Quote{{"Bark", "Rex"}, {"Woof", "Fido"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("quotes mismatch (-want +got):\n%s", diff)
	}
}

func TestText_StrictASCIIFilter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "Café au lait - Zoë\n")

	got, err := (&TextParser{}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []Quote{{"Caf au lait", "Zo"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("strict mode (-want +got):\n%s", diff)
	}

	got, err = (&TextParser{Options: ParseOptions{KeepNonASCII: true}}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	want = []Quote{{"Café au lait", "Zoë"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("keep mode (-want +got):\n%s", diff)
	}
}

func TestText_ExtraDelimitersDiscarded(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "Well-known - Bob - extra\n")

	got, err := (&TextParser{}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	// Every delimiter splits; only the first two tokens are kept.
	want := []Quote{{"Well", "known"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("quotes mismatch (-want +got):\n%s", diff)
	}
}

func TestText_MissingDelimiter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", "Bark - Rex\nno delimiter here\nWoof - Fido\n")

	_, err := (&TextParser{}).Parse(path)
	if !errors.Is(err, ErrMissingDelimiter) {
		t.Fatalf("expected ErrMissingDelimiter, got %v", err)
	}

	got, err := (&TextParser{Options: ParseOptions{Malformed: MalformedSkip}}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []Quote{{"Bark", "Rex"}, {"Woof", "Fido"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("skip policy (-want +got):\n%s", diff)
	}
}

func TestText_EmptyTokens(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.txt", " - Anonymous\nSilence - \n")

	got, err := (&TextParser{}).Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []Quote{{"", "Anonymous"}, {"Silence", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("quotes mismatch (-want +got):\n%s", diff)
	}
}

func TestText_CanIngest(t *testing.T) {
	p := &TextParser{}
	if !p.CanIngest("/nowhere/quotes.txt") {
		t.Error("expected .txt to be accepted")
	}
	for _, path := range []string{"quotes.TXT", "quotes.csv", "quotes", "txt"} {
		if p.CanIngest(path) {
			t.Errorf("CanIngest(%q) = true", path)
		}
	}
}
