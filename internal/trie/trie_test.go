package trie

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func newListTrie() *Trie[rune, []int] {
	return New[rune, []int](PrependCombine[int])
}

func mustInsert(t *testing.T, tr *Trie[rune, []int], pattern []Symbol[rune], v int) {
	t.Helper()
	if err := tr.Insert(pattern, []int{v}); err != nil {
		t.Fatalf("Insert(%v) error = %v", pattern, err)
	}
}

func TestTrie_Basic(t *testing.T) {
	tr := newListTrie()
	mustInsert(t, tr, Runes("abc"), 1)

	tests := []struct {
		name  string
		query string
		want  []int
		found bool
	}{
		{name: "exact", query: "abc", want: []int{1}, found: true},
		{name: "longer query", query: "abcd", found: false},
		{name: "shorter query", query: "ab", found: false},
		{name: "diverging literal", query: "abd", found: false},
		{name: "empty query", query: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SearchString(tr, tt.query)
			if ok != tt.found {
				t.Fatalf("Search(%q) found = %v, want %v", tt.query, ok, tt.found)
			}
			if tt.found && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestTrie_CombinationOrder(t *testing.T) {
	tr := newListTrie()
	for _, v := range []int{1, 2, 3} {
		mustInsert(t, tr, Runes("abc"), v)
	}

	got, ok := SearchString(tr, "abc")
	if !ok {
		t.Fatal("Search(abc) found = false, want true")
	}
	if want := []int{3, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Search(abc) = %v, want %v", got, want)
	}

	mustInsert(t, tr, Runes("abcd"), 4)
	mustInsert(t, tr, Runes("ab"), 5)
	mustInsert(t, tr, Runes("abd"), 6)

	expected := map[string][]int{
		"abc":  {3, 2, 1},
		"abcd": {4},
		"ab":   {5},
		"abd":  {6},
	}
	for q, want := range expected {
		got, ok := SearchString(tr, q)
		if !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("Search(%q) = %v, %v, want %v, true", q, got, ok, want)
		}
	}
	if _, ok := SearchString(tr, "b"); ok {
		t.Error("Search(b) found = true, want false")
	}
}

func TestTrie_Wildcard(t *testing.T) {
	tr := newListTrie()
	mustInsert(t, tr, Pattern("a*c", '*'), 2)
	mustInsert(t, tr, Pattern("*bc", '*'), 3)

	tests := []struct {
		name  string
		query string
		want  []int
		found bool
	}{
		{name: "literal beats wildcard at root", query: "abc", want: []int{2}, found: true},
		{name: "wildcard in middle", query: "adc", want: []int{2}, found: true},
		{name: "wildcard fallback at root", query: "cbc", want: []int{3}, found: true},
		{name: "dead end after literal", query: "abd", found: false},
		{name: "too long", query: "aabc", found: false},
		{name: "dead end under wildcard", query: "abx", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SearchString(tr, tt.query)
			if ok != tt.found {
				t.Fatalf("Search(%q) found = %v, want %v", tt.query, ok, tt.found)
			}
			if tt.found && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}

	// A new literal path under "a" shadows the "a*c" wildcard sibling.
	mustInsert(t, tr, Runes("abc"), 1)
	if got, ok := SearchString(tr, "abc"); !ok || !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Search(abc) = %v, %v, want [1], true", got, ok)
	}
	if got, ok := SearchString(tr, "adc"); !ok || !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("Search(adc) = %v, %v, want [2], true", got, ok)
	}
}

func TestTrie_NoBacktracking(t *testing.T) {
	tr := newListTrie()
	mustInsert(t, tr, Runes("axy"), 1)
	mustInsert(t, tr, Pattern("*bc", '*'), 2)

	// "*bc" would match, but the literal 'a' edge is taken and never undone.
	if got, ok := SearchString(tr, "abc"); ok {
		t.Errorf("Search(abc) = %v, want absent", got)
	}
	if got, ok := SearchString(tr, "zbc"); !ok || !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("Search(zbc) = %v, %v, want [2], true", got, ok)
	}
}

func TestTrie_UnrelatedPrefix(t *testing.T) {
	tr := newListTrie()
	mustInsert(t, tr, Runes("abc"), 1)
	mustInsert(t, tr, Pattern("a*c", '*'), 2)

	if _, ok := SearchString(tr, "b"); ok {
		t.Error("Search(b) found = true, want false")
	}
}

func TestTrie_EmptyAndWildcardOnly(t *testing.T) {
	tr := newListTrie()

	if _, ok := SearchString(tr, ""); ok {
		t.Fatal("root must not be terminal before an empty pattern is inserted")
	}

	mustInsert(t, tr, nil, 7)
	if got, ok := SearchString(tr, ""); !ok || !reflect.DeepEqual(got, []int{7}) {
		t.Errorf("Search(\"\") = %v, %v, want [7], true", got, ok)
	}

	mustInsert(t, tr, Pattern("**", '*'), 8)
	for _, q := range []string{"xy", "ab", "日本"} {
		if got, ok := SearchString(tr, q); !ok || !reflect.DeepEqual(got, []int{8}) {
			t.Errorf("Search(%q) = %v, %v, want [8], true", q, got, ok)
		}
	}
	if _, ok := SearchString(tr, "x"); ok {
		t.Error("Search(x) found = true, want false")
	}
}

func TestTrie_CodePoints(t *testing.T) {
	tr := newListTrie()
	mustInsert(t, tr, Runes("héllo"), 1)

	if _, ok := SearchString(tr, "héllo"); !ok {
		t.Error("Search(héllo) found = false, want true")
	}
	if got := len(Runes("héllo")); got != 5 {
		t.Errorf("len(Runes(héllo)) = %d, want 5", got)
	}
}

func TestTrie_CombineReceivesAbsence(t *testing.T) {
	var calls []bool
	tr := New[rune, int](func(existing int, present bool, incoming int) (int, error) {
		calls = append(calls, present)
		return existing + incoming, nil
	})

	if err := InsertString(tr, "ab", 2); err != nil {
		t.Fatal(err)
	}
	if err := InsertString(tr, "ab", 3); err != nil {
		t.Fatal(err)
	}
	if err := InsertString(tr, "abc", 4); err != nil {
		t.Fatal(err)
	}

	if want := []bool{false, true, false}; !reflect.DeepEqual(calls, want) {
		t.Errorf("combine present flags = %v, want %v", calls, want)
	}
	if got, _ := SearchString(tr, "ab"); got != 5 {
		t.Errorf("Search(ab) = %d, want 5", got)
	}
}

func TestTrie_ZeroValueIsNotAbsence(t *testing.T) {
	tr := New[rune, int](ReplaceCombine[int])
	if err := InsertString(tr, "a", 0); err != nil {
		t.Fatal(err)
	}
	got, ok := SearchString(tr, "a")
	if !ok || got != 0 {
		t.Errorf("Search(a) = %d, %v, want 0, true", got, ok)
	}
}

var errRejected = errors.New("merge rejected")

func TestTrie_CombineFailure(t *testing.T) {
	tr := New[rune, int](func(existing int, present bool, incoming int) (int, error) {
		if incoming < 0 {
			return 0, errRejected
		}
		return incoming, nil
	})

	if err := InsertString(tr, "ab", 1); err != nil {
		t.Fatal(err)
	}

	err := InsertString(tr, "ab", -1)
	if !errors.Is(err, errRejected) {
		t.Fatalf("Insert() error = %v, want %v", err, errRejected)
	}
	if got, ok := SearchString(tr, "ab"); !ok || got != 1 {
		t.Errorf("Search(ab) = %d, %v, want 1, true", got, ok)
	}

	// The failing insert still links the new node, without a value.
	if err := InsertString(tr, "abc", -1); err != errRejected {
		t.Fatalf("Insert() error = %v, want %v", err, errRejected)
	}
	if _, ok := SearchString(tr, "abc"); ok {
		t.Error("Search(abc) found = true, want false")
	}
	if err := InsertString(tr, "abc", 9); err != nil {
		t.Fatal(err)
	}
	if got, ok := SearchString(tr, "abc"); !ok || got != 9 {
		t.Errorf("Search(abc) = %d, %v, want 9, true", got, ok)
	}
}

func TestTrie_TokenDomain(t *testing.T) {
	tr := New[string, []string](AppendCombine[string])
	pattern := []Symbol[string]{Lit("post"), Any[string](), Lit("on"), Lit("twitter")}
	if err := tr.Insert(pattern, []string{"rule-1"}); err != nil {
		t.Fatal(err)
	}
	if err := tr.Insert(pattern, []string{"rule-2"}); err != nil {
		t.Fatal(err)
	}

	got, ok := tr.Search([]string{"post", "QUOTED_STRING_0", "on", "twitter"})
	if !ok || !reflect.DeepEqual(got, []string{"rule-1", "rule-2"}) {
		t.Errorf("Search() = %v, %v, want [rule-1 rule-2], true", got, ok)
	}
}

func TestSymbol(t *testing.T) {
	if !Wildcard().IsWildcard() {
		t.Error("Wildcard().IsWildcard() = false")
	}
	if Wildcard() != Any[rune]() || Wildcard() != Wildcard() {
		t.Error("wildcard values of one domain must compare equal")
	}
	if _, ok := Wildcard().Literal(); ok {
		t.Error("Wildcard().Literal() ok = true")
	}

	// The zero rune is a legal literal, distinct from the wildcard.
	zero := Lit(rune(0))
	if zero.IsWildcard() || zero == Wildcard() {
		t.Error("Lit(0) must not be the wildcard")
	}
	if k, ok := Lit('x').Literal(); !ok || k != 'x' {
		t.Errorf("Lit('x').Literal() = %q, %v", k, ok)
	}
}

func TestNew_NilCombinePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(nil) did not panic")
		}
	}()
	New[rune, int](nil)
}

func TestTrie_ConcurrentSearch(t *testing.T) {
	tr := newListTrie()
	mustInsert(t, tr, Pattern("a*c", '*'), 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := SearchString(tr, "abc"); !ok {
					t.Error("Search(abc) found = false")
					return
				}
			}
		}()
		go func(v int) {
			defer wg.Done()
			_ = tr.Insert(Runes("zz"), []int{v})
		}(i)
	}
	wg.Wait()

	got, ok := SearchString(tr, "zz")
	if !ok || len(got) != 8 {
		t.Errorf("Search(zz) = %v, %v, want 8 values", got, ok)
	}
}

func TestAppendCombine_SearchResultNotAliased(t *testing.T) {
	tr := New[rune, []int](AppendCombine[int])
	for _, v := range []int{1, 2, 3} {
		if err := InsertString(tr, "a", []int{v}); err != nil {
			t.Fatal(err)
		}
	}

	held, _ := SearchString(tr, "a")
	mine := append(held, 99)
	if err := InsertString(tr, "a", []int{4}); err != nil {
		t.Fatal(err)
	}

	if want := []int{1, 2, 3, 99}; !reflect.DeepEqual(mine, want) {
		t.Errorf("caller slice = %v, want %v", mine, want)
	}
	if got, _ := SearchString(tr, "a"); !reflect.DeepEqual(got, []int{1, 2, 3, 4}) {
		t.Errorf("Search(a) = %v, want [1 2 3 4]", got)
	}
}

func TestPattern_UsesWildcard(t *testing.T) {
	p := Pattern("a*", '*')
	if p[1] != Wildcard() || p[0].IsWildcard() {
		t.Errorf("Pattern(a*) = %v", p)
	}
}
