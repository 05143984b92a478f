// Package latex converts generated Markdown into LaTeX body text.
//
// The conversion keeps math untouched and escapes everything else:
//   - Math spans ($...$, $$...$$, \(...\), \[...\], and display environments
//     such as align*) are copied through verbatim.
//   - Literal text receives lightweight Markdown substitutions (headings,
//     inline code, bold, italic), typographic normalization, and escaping of
//     LaTeX special characters, in that order.
//
// Markup produced by the substitutions is held in Unicode private-use
// placeholders while escaping runs, so only user text is escaped.
package latex
