// Package directive renders contract template text against form data.
//
// Three directives are understood: `{{key}}` substitution, `{{#if name}}` /
// `{{else}}` / `{{/if}}` blocks and `{{#eq field 'value'}}` / `{{/eq}}` blocks.
// Text is lexed into a flat token list (literal runs plus block markers) and
// each step walks that list once. Blocks do not nest: an opening marker pairs
// with the first closing marker that follows it and anything after that close
// is left as literal text.
package directive
