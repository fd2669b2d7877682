// Package privacy strips identifying values from memo metadata before it is
// stored.
//
// Two strategies are provided. HashAnonymizer replaces each sensitive value
// with a keyed BLAKE2b digest so equal inputs still compare equal across
// memos without revealing the input. PlaceholderAnonymizer replaces them with
// fixed labels.
package privacy
