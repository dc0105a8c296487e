package convert

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/profile"
	"github.com/c360studio/semcube/vocabulary/rdf"
)

func TestConvert_SimpleLiteralFromNTriples(t *testing.T) {
	g, err := graph.ReadNTriples(strings.NewReader(`
<http://example.org/P1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Person> .
<http://example.org/P1> <http://example.org/name> "Ann" .
`))
	require.NoError(t, err)

	doc, err := project(t, DefaultConfiguration(), personSchema(t, dataAttr("name", profile.CardinalitySingle)), g, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", doc.Data.Attributes["name"][rdf.TagString])
}

func TestConvert_SameDocumentThroughMessages(t *testing.T) {
	schema := personSchema(t,
		dataAttr("name", profile.CardinalitySingle),
		dataAttr("born", profile.CardinalitySingle),
		dataAttr("age", profile.CardinalitySingle),
		dataAttr("code", profile.CardinalitySingle),
		refAttr("knows", profile.CardinalityList))
	g := graph.New(
		person("P1"), person("P2"),
		fact("P1", "name", graph.NewLangLiteral("Ann", "en")),
		fact("P1", "name", graph.NewLangLiteral("Anne", "fr")),
		fact("P1", "born", graph.NewTypedLiteral("2024-02-29", rdf.XSDDate)),
		fact("P1", "age", graph.NewTypedLiteral("42", rdf.XSDInt)),
		fact("P1", "code", graph.NewTypedLiteral("x-1", ex+"Code")),
		fact("P1", "knows", iri("P2")),
		fact("P2", "name", str("Bob")),
	)

	direct, err := project(t, DefaultConfiguration(), schema, g, "P1")
	require.NoError(t, err)

	wire, err := json.Marshal(graph.ToMessageTriples(g, "test", time.Now()))
	require.NoError(t, err)
	var triples []message.Triple
	require.NoError(t, json.Unmarshal(wire, &triples))

	relayed, err := project(t, DefaultConfiguration(), schema, graph.FromMessageTriples(triples), "P1")
	require.NoError(t, err)

	want, err := direct.Marshal()
	require.NoError(t, err)
	got, err := relayed.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	assert.Equal(t, map[string]string{"en": "Ann", "fr": "Anne"}, relayed.Data.Attributes["name"][rdf.TagLangString])
}

func TestConvert_ConcurrentCallsShareGraphAndSchema(t *testing.T) {
	schema := personSchema(t,
		dataAttr("name", profile.CardinalitySingle),
		refAttr("knows", profile.CardinalityList))
	g := graph.New(
		person("P1"), person("P2"), person("P3"),
		fact("P1", "name", str("Ann")),
		fact("P1", "knows", iri("P2")),
		fact("P2", "knows", iri("P3")),
		fact("P3", "knows", iri("P1")),
	)
	c, err := New(DefaultConfiguration(), schema, WithLogger(quiet))
	require.NoError(t, err)

	const workers = 16
	outputs := make([][]byte, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := c.Convert(g, ex+"P1")
			if err != nil {
				errs[i] = err
				return
			}
			outputs[i], errs[i] = doc.Marshal()
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "worker %d", i)
		assert.Equal(t, string(outputs[0]), string(outputs[i]), "worker %d", i)
	}
	assert.Equal(t, 7, g.Len(), "projection leaves the graph untouched")
}

func TestDocument_MarshalKeepsURIsVerbatim(t *testing.T) {
	g := graph.New(
		graph.TypeFact(ex+"search?q=a&b=<c>", ex+"Person"),
		graph.NewFact(graph.NewIRI(ex+"search?q=a&b=<c>"), ex+"name", str("x & y")),
	)
	doc, err := project(t, DefaultConfiguration(), personSchema(t, dataAttr("name", profile.CardinalitySingle)), g, "search?q=a&b=<c>")
	require.NoError(t, err)

	compact, err := doc.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(compact), `"uri":"http://example.org/search?q=a&b=<c>"`)
	assert.False(t, bytes.HasSuffix(compact, []byte("\n")))

	pretty, err := doc.MarshalIndent()
	require.NoError(t, err)
	var compacted bytes.Buffer
	require.NoError(t, json.Compact(&compacted, pretty))
	assert.Equal(t, string(compact), compacted.String())
}
