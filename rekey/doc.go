// Package rekey re-encrypts every stored record under a new key.
//
// RotateKey is the entry point. It stages the new key next to the current
// key file, migrates each encrypted record in batches by loading it with
// the old key and saving it with the new one, and replaces the key file
// only after every record has moved. A run that is interrupted can be
// repeated: the staged key is reused and records already written under it
// are recognized and skipped.
//
// Unencrypted kinds are not touched.
package rekey
