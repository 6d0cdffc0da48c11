package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_EndToEndTwoFiles(t *testing.T) {
	t.Parallel()
	first := testFile(
		call(3, member("conn", "ExecuteNonQuery"), str("DELETE FROM a")),
		call(5, member("conn", "ExecuteNonQuery"), str("DELETE FROM b")),
		call(8, member("conn", "ExecuteNonQuery"), str("DELETE FROM c")),
	)
	second := testFile(call(2, member("conn", "ExecuteNonQuery"), str("DELETE FROM d")))
	second.Name, second.Path = "Users.cs", "/src/Users.cs"

	s := NewScanner(nil)
	agg := NewAggregator()
	agg.Merge(s.Scan(first))
	agg.Merge(s.Scan(second))

	ranking := agg.Ranking(DefaultRankingLimit, DefaultExamples)
	require.Len(t, ranking, 1)
	assert.Equal(t, "conn.ExecuteNonQuery", ranking[0].Name)
	assert.Equal(t, 4, ranking[0].Count)
	assert.Equal(t, 0, ranking[0].Remaining)

	sites := agg.Sites("conn.ExecuteNonQuery")
	require.Len(t, sites, 4)
	assert.Equal(t, []int{3, 5, 8, 2}, []int{sites[0].Line, sites[1].Line, sites[2].Line, sites[3].Line})
	assert.Equal(t, "Users.cs", sites[3].File)
	assert.Equal(t, sites, ranking[0].Examples)
}

func TestAggregator_EveryCallSiteInExactlyOneBucket(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	var all []CallSite
	names := []string{"a.X", "b.Y", "a.X", "c", "b.Y", "a.X", "d.Execute"}
	for i, n := range names {
		cs := CallSite{Name: n, File: fmt.Sprintf("f%d.cs", i%3), Line: i + 1}
		all = append(all, cs)
		agg.Add(cs)
	}

	want := map[string]int{}
	for _, cs := range all {
		want[cs.Name]++
	}
	total := 0
	for _, name := range agg.Names() {
		assert.Equal(t, want[name], agg.Count(name), name)
		for _, cs := range agg.Sites(name) {
			assert.Equal(t, name, cs.Name)
		}
		total += agg.Count(name)
	}
	assert.Equal(t, len(all), total)
	assert.Equal(t, len(all), agg.Total())
	assert.Equal(t, []string{"a.X", "b.Y", "c", "d.Execute"}, agg.Names())
}

func TestAggregator_RankingOrderAndLimits(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	add := func(name string, n int) {
		for i := 0; i < n; i++ {
			agg.Add(CallSite{Name: name, File: "x.cs", Line: i + 1})
		}
	}
	add("zeta", 2)
	add("alpha", 2)
	add("big", 8)
	add("one", 1)

	r := agg.Ranking(3, 5)
	require.Len(t, r, 3)
	assert.Equal(t, []string{"big", "alpha", "zeta"}, []string{r[0].Name, r[1].Name, r[2].Name})

	assert.Equal(t, 8, r[0].Count)
	assert.Len(t, r[0].Examples, 5)
	assert.Equal(t, 3, r[0].Remaining)
	assert.Equal(t, 1, r[0].Examples[0].Line)
	assert.Equal(t, 5, r[0].Examples[4].Line)

	assert.Len(t, agg.Ranking(0, 0), 4)
	assert.Len(t, agg.Ranking(0, 0)[0].Examples, 8)
}

func TestAggregator_RankingTop20(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	for i := 0; i < 30; i++ {
		for j := 0; j <= i; j++ {
			agg.Add(CallSite{Name: fmt.Sprintf("m%02d", i)})
		}
	}
	r := agg.Ranking(DefaultRankingLimit, DefaultExamples)
	require.Len(t, r, 20)
	assert.Equal(t, "m29", r[0].Name)
	assert.Equal(t, 30, r[0].Count)
	assert.Equal(t, 25, r[0].Remaining)
	assert.Equal(t, "m10", r[19].Name)
}

func TestAggregator_Empty(t *testing.T) {
	t.Parallel()
	agg := NewAggregator()
	assert.Empty(t, agg.Ranking(20, 5))
	assert.Equal(t, 0, agg.Count("missing"))
	assert.Empty(t, agg.Sites("missing"))
}
