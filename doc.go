// Package flowdex ranks workflow templates for natural-language queries.
//
// A search blends two signals: a typo-tolerant lexical score over weighted
// fields (title, description, services, actions, keywords) and the cosine
// similarity of embeddings produced by a caller-supplied provider. Without a
// provider, or when it fails, ranking falls back to the lexical signal alone.
//
//	client, _ := flowdex.New(
//	    flowdex.WithCorpusDir("./workflows"),
//	    flowdex.WithEmbedFunc(myEmbed),
//	)
//	report, _ := client.Reload(ctx)
//	hits, _ := client.Find("send telegram alerts").Service("telegram").Limit(5).Do(ctx)
//
// An empty query lists documents in corpus order (filtered, score 0).
package flowdex
