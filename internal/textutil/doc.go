// Package textutil provides the text normalisation shared by the naming
// grammar and the subtitle review.
//
// Titles are transliterated to ASCII with golang.org/x/text (decompose,
// drop combining marks, recompose) and then restricted to letters, digits,
// spaces, underscores and hyphens. Word counting lowercases and tokenises on
// anything that is not a letter, digit or apostrophe.
package textutil
