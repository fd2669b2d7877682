// Package chat answers user messages about stored voice memos.
//
// The Responder is transport-agnostic: a bot front end passes each incoming
// message text to Respond and sends back the reply. Commands "/start" and
// "/help" return a welcome text. Any other message is answered with the
// summary of the most recently processed memo, generated on the fly from
// the decrypted transcription when no stored summary exists.
//
// Failures never reach the user as error text. They are logged with their
// classification and the user receives a fixed apology.
package chat
