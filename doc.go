// Package facetdex is a Go SDK for faceted search over Redis hashes.
//
// Document types are described with struct tags, indexed through per-type
// mapping strategies and queried with structured inputs. Several queries can
// run as one batch whose entries come back as groups of a single result,
// together with a scope facet counting hits per entry.
//
//	type Book struct {
//	    ID    string    `facetdex:"id,key"`
//	    Title string    `facetdex:"title,fulltext"`
//	    Genre string    `facetdex:"genre,term"`
//	    Year  int       `facetdex:"year,sort,storage=pub_year"`
//	    Added time.Time `facetdex:"added,sort"`
//	}
//
//	client, err := facetdex.New(facetdex.WithRedis("localhost:6379", ""))
//	if err != nil { ... }
//	defer client.Close()
//
//	if err := facetdex.Register[Book](client, "book"); err != nil { ... }
//	if _, err := client.Indexes().Ensure(ctx, "book"); err != nil { ... }
//
//	genres, _ := facetdex.NewTermFacet("genre", "Genre", "genre")
//	out, err := client.MultiQuery().
//	    AddQuery("books", "Books", "book", facetdex.Input{Facets: []facetdex.Facet{genres}}, facetdex.MapTo(toView)).
//	    Search(ctx)
//
// Errors wrap the sentinels ErrConfiguration, ErrMappingProjection,
// ErrBackendExecution and ErrNotFound; match them with errors.Is.
package facetdex
