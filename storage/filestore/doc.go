// Package filestore stores records as one file per (kind, name) under a
// root directory:
//
//	<root>/transcription/<name>.txt   encrypted
//	<root>/summary/<name>.txt         plaintext
//	<root>/metadata/<name>.json       encrypted
//
// Writes go to a temp file in the target directory and are renamed into
// place, so a crash leaves either the previous record or the new one.
package filestore
