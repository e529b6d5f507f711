// Package reasoning splits the raw output of models that inline their
// deliberation between <tag> and </tag> into ordered reasoning and content
// spans.
//
// The split is incremental: tags may start or end at any byte offset and may be
// spread over any number of chunks. Only the longest unmatched tag prefix is
// ever held back, so memory use is bounded by the tag length.
package reasoning
