package exact

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/solatis/rulesynth/internal/core/db"
	"github.com/solatis/rulesynth/internal/types"
)

type staticSource struct {
	examples []db.Example
	err      error
}

func (s staticSource) ListExamples(context.Context) ([]db.Example, error) {
	return s.examples, s.err
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Turn ON the  lights", []string{"turn", "on", "the", "lights"}},
		{"post QUOTED_STRING_0 on Twitter", []string{"post", "QUOTED_STRING_0", "on", "twitter"}},
		{"NUMBER_12 degrees", []string{"NUMBER_12", "degrees"}},
		{"QUOTED_STRING", []string{"quoted_string"}},
		{"  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(0)
	adds := [][2]string{
		{"turn on the lights", "now => @light-bulb.set_power(power=enum:on)"},
		{"post QUOTED_STRING_0 on twitter", "now => @twitter.sink(status=QUOTED_STRING_0)"},
		{"Turn on the LIGHTS", "now => @light-bulb.set_power(power=enum:on) #2"},
	}
	for _, a := range adds {
		if err := m.Add(a[0], a[1]); err != nil {
			t.Fatalf("Add(%q) error = %v", a[0], err)
		}
	}

	tests := []struct {
		name  string
		query string
		want  []string
		found bool
	}{
		{
			name:  "newest first",
			query: "turn on the lights",
			want:  []string{"now => @light-bulb.set_power(power=enum:on) #2", "now => @light-bulb.set_power(power=enum:on)"},
			found: true,
		},
		{
			name:  "placeholder matches any token",
			query: "post hello on twitter",
			want:  []string{"now => @twitter.sink(status=QUOTED_STRING_0)"},
			found: true,
		},
		{
			name:  "placeholder in query",
			query: "post QUOTED_STRING_3 on twitter",
			want:  []string{"now => @twitter.sink(status=QUOTED_STRING_0)"},
			found: true,
		},
		{name: "prefix only", query: "turn on the", found: false},
		{name: "unknown", query: "make coffee", found: false},
		{name: "empty", query: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Get(tt.query)
			if ok != tt.found {
				t.Fatalf("Get(%q) found = %v, want %v", tt.query, ok, tt.found)
			}
			if tt.found && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Get(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}

	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestMatcher_Bounds(t *testing.T) {
	m := NewMatcher(2)
	for _, target := range []string{"a", "b", "b", "c"} {
		if err := m.Add("hello", target); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := m.Get("hello")
	if want := []string{"c", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Get(hello) = %q, want %q", got, want)
	}

	// Callers cannot mutate the stored slice.
	got[0] = "x"
	if again, _ := m.Get("hello"); again[0] != "c" {
		t.Error("Get() returned the stored slice")
	}
}

func TestMatcher_EmptyUtterance(t *testing.T) {
	m := NewMatcher(0)
	if err := m.Add(" \t", "x"); !errors.Is(err, types.ErrEmptyUtterance) {
		t.Errorf("Add(blank) error = %v, want ErrEmptyUtterance", err)
	}
}

func TestMatcher_Fingerprint(t *testing.T) {
	a, b, c := NewMatcher(0), NewMatcher(0), NewMatcher(0)
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("empty matchers differ")
	}

	_ = a.Add("ab", "c")
	_ = b.Add("ab", "c")
	_ = c.Add("a", "bc")

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("same examples, different fingerprints")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different examples, same fingerprint")
	}
}

func TestMatcher_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("static", func(t *testing.T) {
		m := NewMatcher(0)
		n, err := m.Load(ctx, staticSource{examples: []db.Example{
			{ID: 1, Utterance: "what time is it", TargetCode: "now => @builtin.get_time() => notify"},
			{ID: 2, Utterance: "show me a cat", TargetCode: "now => @thecatapi.get() => notify"},
		}})
		if err != nil || n != 2 {
			t.Fatalf("Load() = %d, %v", n, err)
		}
		if _, ok := m.Get("Show me a CAT"); !ok {
			t.Error("Get() after Load() found = false")
		}
	})

	t.Run("source error", func(t *testing.T) {
		errDown := errors.New("down")
		if _, err := NewMatcher(0).Load(ctx, staticSource{err: errDown}); !errors.Is(err, errDown) {
			t.Errorf("Load() error = %v, want %v", err, errDown)
		}
	})

	t.Run("bad example", func(t *testing.T) {
		n, err := NewMatcher(0).Load(ctx, staticSource{examples: []db.Example{
			{ID: 1, Utterance: "ok", TargetCode: "x"},
			{ID: 2, Utterance: "", TargetCode: "y"},
		}})
		if n != 1 || !errors.Is(err, types.ErrEmptyUtterance) {
			t.Errorf("Load() = %d, %v", n, err)
		}
	})

	t.Run("sqlite store", func(t *testing.T) {
		database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "exact.db"))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer database.Close()
		if err := db.MigrateUp(context.Background(), database); err != nil {
			t.Fatalf("MigrateUp() error = %v", err)
		}
		queries, err := db.LoadQueries(database)
		if err != nil {
			t.Fatalf("LoadQueries() error = %v", err)
		}
		store := db.NewExampleStore(queries)
		if err := store.AddExample(ctx, "tweet QUOTED_STRING_0", "now => @twitter.sink(status=QUOTED_STRING_0)"); err != nil {
			t.Fatal(err)
		}

		m := NewMatcher(0)
		if n, err := m.Load(ctx, store); err != nil || n != 1 {
			t.Fatalf("Load() = %d, %v", n, err)
		}
		if got, ok := m.Get("tweet hello"); !ok || len(got) != 1 {
			t.Errorf("Get(tweet hello) = %q, %v", got, ok)
		}
	})
}
