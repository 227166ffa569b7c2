// Package assistant is the upstream-facing layer of the webchat backend. It
// assembles the bounded prompt for a turn (persona instructions, session
// facts, windowed transcript, current text), issues the model call through
// the dispatch queue, and post-processes raw replies: extracting the embedded
// [[REDIRECT:...]] navigation directive and suppressing repeated greetings on
// later turns.
package assistant
