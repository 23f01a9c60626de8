// Package hostessapi implements the hostess-api service, a conversational
// booking engine for restaurant reservations.
//
// The service provides:
//   - Multi-turn slot-filling dialogue over text, audio and websocket calls
//   - Caller identity resolution with anonymous-to-phone session migration
//   - At-most-once booking commits against a capacity-checked slot table
//   - LLM-backed utterance extraction, reply phrasing and speech pipelines
//   - Optional JWT authentication for the HTTP API
//
// For more information, see the README.md file.
package hostessapi
